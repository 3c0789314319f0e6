// Package main is the vaxguide CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/advice"
	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/cli"
	"github.com/hyperjump/vaxguide/internal/config"
	"github.com/hyperjump/vaxguide/internal/crawl"
	"github.com/hyperjump/vaxguide/internal/embedding"
	"github.com/hyperjump/vaxguide/internal/extract"
	"github.com/hyperjump/vaxguide/internal/indexer"
	"github.com/hyperjump/vaxguide/internal/llm"
	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/internal/pipeline"
	"github.com/hyperjump/vaxguide/internal/prompt"
	"github.com/hyperjump/vaxguide/internal/search"
	"github.com/hyperjump/vaxguide/internal/server"
	"github.com/hyperjump/vaxguide/internal/storage"
	"github.com/hyperjump/vaxguide/internal/telegram"
	"github.com/hyperjump/vaxguide/internal/vector"
	"github.com/hyperjump/vaxguide/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/vaxguide/config.yaml"
	defaultEnvFile    = ".env"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development), and when neither file
// exists it returns the built-in defaults with an empty resolved path.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "index":
		runIndex()
	case "crawl":
		runCrawl()
	case "bot":
		runBot()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("vaxguide version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags are accepted by every pipeline subcommand.
type commonFlags struct {
	configPath *string
	envFile    *string
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		envFile:    fs.String("env", defaultEnvFile, "dotenv file with credentials (ignored when missing)"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

// setup loads and validates config and creates the logger. Failures are
// printed and end the process.
func setup(flags commonFlags, override func(*config.Config)) (*config.Config, *zap.Logger) {
	cfg, resolvedConfigPath, err := loadConfig(*flags.configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if override != nil {
		override(cfg)
	}
	debugMode := cfg.Debug || *flags.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if resolvedConfigPath == "" {
		resolvedConfigPath = "(defaults)"
	}
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)
	if err := config.LoadDotEnv(*flags.envFile); err != nil {
		logger.Warn("dotenv not loaded", zap.String("path", *flags.envFile), zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		fatal(logger, "Invalid configuration", err)
	}
	return cfg, logger
}

// fatal logs err with its kind and exits non-zero.
func fatal(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.String("kind", apperr.KindOf(err).String()), zap.Error(err))
	_ = logger.Sync()
	os.Exit(1)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	flags := addCommonFlags(fs)
	host := fs.String("host", "", "listen host (overrides config)")
	port := fs.Int("port", 0, "listen port (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(flags, func(cfg *config.Config) {
		if *host != "" {
			cfg.Server.Host = *host
		}
		if *port != 0 {
			cfg.Server.Port = *port
		}
	})
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, os.Getenv)
	if err != nil {
		fatal(logger, "Failed to initialize components", err)
	}
	defer components.Close()

	// The listener opens only after the index is ready.
	if _, err := components.BuildIndex(context.Background(), cfg.Document.Path); err != nil {
		fatal(logger, "Failed to build index", err)
	}

	srvOpts := []server.Option{server.WithMaxQuestions(cfg.Advice.MaxQuestions)}
	if components.Store != nil {
		srvOpts = append(srvOpts, server.WithEmbeddingCache(components.Store))
	}
	srv := server.NewServer(
		components.Orchestrator,
		advice.NewRules(cfg.Advice),
		&cfg.Server,
		logger,
		srvOpts...,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	flags := addCommonFlags(fs)
	question := fs.String("q", "", "answer a single question and exit")
	outputFormat := fs.String("output", "text", "output format: text or json")
	showContext := fs.Bool("context", false, "print the retrieved context under each answer")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if *question == "" && fs.NArg() > 0 {
		*question = strings.Join(fs.Args(), " ")
	}

	cfg, logger := setup(flags, nil)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, os.Getenv)
	if err != nil {
		fatal(logger, "Failed to initialize components", err)
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := components.BuildIndex(ctx, cfg.Document.Path); err != nil {
		fatal(logger, "Failed to build index", err)
	}

	if strings.TrimSpace(*question) != "" {
		answer, err := components.Orchestrator.Answer(ctx, *question)
		if err != nil {
			fmt.Println(cli.ErrorMessage(err))
			os.Exit(1)
		}
		_ = cli.WriteAnswer(os.Stdout, answer, format, *showContext)
		return
	}

	repl := cli.NewREPL(components.Orchestrator, os.Stdin, os.Stdout,
		cli.WithFormat(format),
		cli.WithContext(*showContext),
		cli.WithSource(filepath.Base(cfg.Document.Path)))
	if err := repl.Run(ctx); err != nil {
		logger.Error("read input failed", zap.Error(err))
		os.Exit(1)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	flags := addCommonFlags(fs)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	cfg, logger := setup(flags, func(cfg *config.Config) {
		if fs.NArg() > 0 {
			if abs, err := filepath.Abs(fs.Arg(0)); err == nil {
				cfg.Document.Path = abs
			}
		}
	})
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, os.Getenv)
	if err != nil {
		fatal(logger, "Failed to initialize components", err)
	}
	defer components.Close()

	stats, err := components.BuildIndex(context.Background(), cfg.Document.Path)
	if err != nil {
		fatal(logger, "Failed to build index", err)
	}
	_ = cli.WriteBuildStats(os.Stdout, stats, format)
	if format == cli.OutputText && components.Cache != nil {
		hits, misses := components.Cache.Stats()
		fmt.Printf("  cache:       %d hits, %d misses\n", hits, misses)
		if components.Store != nil {
			if n, err := components.Store.Count(context.Background()); err == nil {
				fmt.Printf("  cache file:  %s (%d vectors)\n", components.Store.Path(), n)
			}
		}
	}
}

func runCrawl() {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	output := fs.String("o", "my_document.txt", "output file for the extracted text")
	timeout := fs.Duration("timeout", 30*time.Second, "fetch timeout")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: vaxguide crawl [flags] <url>")
		os.Exit(1)
	}
	logger, err := utils.NewLogger(*debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	page, err := crawl.New(crawl.WithLogger(logger)).Fetch(ctx, fs.Arg(0))
	if err != nil {
		fmt.Printf("Crawl failed: %v\n", err)
		os.Exit(1)
	}
	if err := crawl.Save(*output, page); err != nil {
		fmt.Printf("Save failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved %d characters from %s to %s\n", len([]rune(page.Text)), page.URL, *output)
}

func runBot() {
	fs := flag.NewFlagSet("bot", flag.ExitOnError)
	flags := addCommonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(flags, nil)
	defer logger.Sync()

	token, err := cfg.TelegramToken(os.Getenv)
	if err != nil {
		fatal(logger, "Telegram token missing", err)
	}
	components, err := initializeComponents(cfg, logger, os.Getenv)
	if err != nil {
		fatal(logger, "Failed to initialize components", err)
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := components.BuildIndex(ctx, cfg.Document.Path); err != nil {
		fatal(logger, "Failed to build index", err)
	}
	b, err := telegram.NewBot(token, components.Orchestrator, logger)
	if err != nil {
		fatal(logger, "Failed to start bot", apperr.Configuration("telegram", err))
	}
	b.Start(ctx)
	logger.Info("Bot stopped")
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	output := fs.String("o", "config.yaml", "config file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*output, *force); err != nil {
		fmt.Printf("Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", *output)
}

// writeDefaultConfig saves the built-in defaults to path. An existing file is
// kept unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists; use -force to overwrite", path)
	}
	return config.Save(path, config.Default())
}

// reorderArgs moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse sees them. Go's flag package stops
// at the first non-flag argument, so "vaxguide crawl <url> -o out.txt" would
// otherwise ignore -o.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// Components holds initialized services.
type Components struct {
	Store        storage.EmbeddingStore
	Embedder     embedding.Embedder
	Cache        *embedding.CachedEmbedder
	VectorIndex  vector.VectorIndex
	Loader       *extract.Loader
	Orchestrator *pipeline.Orchestrator
}

// Close releases the embedder, index, and cache database.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// BuildIndex loads the document at path and builds the pipeline index.
func (c *Components) BuildIndex(ctx context.Context, path string) (*models.BuildStats, error) {
	doc, err := c.Loader.Load(path)
	if err != nil {
		return nil, err
	}
	return c.Orchestrator.Build(ctx, doc)
}

// initializeComponents wires the pipeline from cfg. A missing credential is a
// configuration error reported before anything else is created.
func initializeComponents(cfg *config.Config, logger *zap.Logger, getenv func(string) string) (*Components, error) {
	apiKey, err := cfg.APIKey(getenv)
	if err != nil {
		return nil, err
	}
	c := &Components{Loader: extract.NewLoader(extract.WithLogger(logger))}

	if cfg.Embedding.CachePath != "" {
		store, err := storage.NewSQLiteEmbeddingStore(cfg.Embedding.CachePath)
		if err != nil {
			return nil, apperr.Configuration("open embedding cache", err)
		}
		c.Store = store
	}

	base, err := embedding.NewEmbedder(&cfg.Embedding, apiKey, cfg.LLM.BaseURL, logger)
	if err != nil {
		c.Close()
		return nil, apperr.Configuration("create embedder", err)
	}
	cacheOpts := []embedding.CachedOption{embedding.WithCacheLogger(logger)}
	if c.Store != nil {
		cacheOpts = append(cacheOpts, embedding.WithStore(c.Store))
	}
	c.Cache = embedding.NewCachedEmbedder(base, cfg.Embedding.CacheSize, cacheOpts...)
	c.Embedder = c.Cache

	vectorIndex, err := vector.NewVectorIndex(cfg.Retrieval.Metric, c.Embedder.Dimensions())
	if err != nil {
		c.Close()
		return nil, apperr.Configuration("create vector index", err)
	}
	c.VectorIndex = vectorIndex
	logger.Info("vector index initialized",
		zap.String("metric", cfg.Retrieval.Metric),
		zap.Int("dimensions", vectorIndex.Dimensions()),
		zap.String("embedder", c.Embedder.Name()))

	chunker, err := indexer.NewChunker(cfg.Chunking.Size, cfg.Chunking.OverlapOrDefault())
	if err != nil {
		c.Close()
		return nil, apperr.Configuration("create chunker", err)
	}
	idx := indexer.NewIndexer(chunker, c.Embedder, vectorIndex,
		indexer.WithLogger(logger),
		indexer.WithBatchSize(cfg.Embedding.BatchSize),
		indexer.WithConcurrency(cfg.Embedding.Concurrency))

	generator, err := llm.NewGenerator(&cfg.LLM, apiKey, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Orchestrator = pipeline.New(
		idx,
		search.NewRetriever(c.Embedder, vectorIndex, search.WithLogger(logger)),
		prompt.NewBuilder(prompt.WithLogger(logger)),
		generator,
		pipeline.WithLogger(logger),
		pipeline.WithTopK(cfg.Retrieval.TopK),
		pipeline.WithMaxConcurrency(cfg.Advice.MaxQuestions),
	)
	return c, nil
}

func printUsage() {
	fmt.Println(`vaxguide - Travel vaccination answers grounded in your own document

Usage:
  vaxguide server [flags]          Build the index and start the HTTP server
  vaxguide ask [flags] [question]  Ask questions interactively, or once with -q
  vaxguide index [flags] [file]    Build the index and print statistics
  vaxguide crawl [flags] <url>     Save the main text of a web page as the document
  vaxguide bot [flags]             Build the index and answer questions on Telegram
  vaxguide init [-o file] [-force] Write the default config to a file (default: config.yaml)
  vaxguide version                 Show version
  vaxguide help                    Show this help

Common Flags (server, ask, index, bot):
  --config string    Config file path (default: /usr/local/etc/vaxguide/config.yaml, then ./config.yaml)
  --env string       Dotenv file with OPENAI_API_KEY and friends (default: .env)
  --debug            Enable debug logging

Server Flags:
  --host string      Listen host (default from config, 0.0.0.0)
  --port int         Listen port (default from config, 8000)

Ask Flags:
  --q string         Answer a single question and exit
  --output string    Output format: text or json (default: text)
  --context          Print the retrieved context under each answer

Index Flags:
  --output string    Output format: text or json (default: text)

Crawl Flags:
  --o string         Output file (default: my_document.txt)
  --timeout duration Fetch timeout (default: 30s)

Environment:
  OPENAI_API_KEY       Required when llm.provider or embedding.provider is openai
  TELEGRAM_BOT_TOKEN   Required by the bot command

Examples:
  vaxguide crawl -o my_document.txt https://example.org/travel-vaccines
  vaxguide index
  vaxguide ask -q "Is yellow fever vaccine required for Brazil?"
  vaxguide ask --output json "Do I need typhoid shots for India?"
  vaxguide server --port 8000
  curl -X POST localhost:8000/vaccination-info -d '{"destination_country":"Brazil","age":30,"specific_questions":["Is yellow fever vaccine required?"]}'`)
}
