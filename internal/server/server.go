// Package server provides the HTTP API for vaxguide.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/advice"
	"github.com/hyperjump/vaxguide/internal/config"
	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/internal/pipeline"
	"github.com/hyperjump/vaxguide/internal/storage"
	"github.com/hyperjump/vaxguide/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Answerer answers questions once its index is ready.
// *pipeline.Orchestrator implements it.
type Answerer interface {
	Answer(ctx context.Context, question string) (*models.Answer, error)
	AnswerAll(ctx context.Context, questions []string) []pipeline.Result
	IsReady() bool
	State() pipeline.State
	Stats() *models.BuildStats
	GeneratorName() string
}

// Server is the HTTP server for the vaxguide API.
type Server struct {
	answerer     Answerer
	rules        *advice.Rules
	config       *config.ServerConfig
	maxQuestions int
	cache        storage.EmbeddingStore
	logger       *zap.Logger
	server       *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMaxQuestions caps the questions accepted by /vaccination-info.
func WithMaxQuestions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxQuestions = n
		}
	}
}

// WithEmbeddingCache reports the entries and on-disk size of the embedding cache in /api/v1/status.
func WithEmbeddingCache(store storage.EmbeddingStore) Option {
	return func(s *Server) { s.cache = store }
}

// NewServer creates a server with the given dependencies.
func NewServer(answerer Answerer, rules *advice.Rules, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	logger = utils.LoggerOrNop(logger)
	s := &Server{
		answerer:     answerer,
		rules:        rules,
		config:       cfg,
		maxQuestions: 5,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler with every route and middleware installed.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   s.config.CORS.AllowedMethods,
		AllowedHeaders:   s.config.CORS.AllowedHeaders,
		AllowCredentials: s.config.CORS.AllowCredentials,
		MaxAge:           s.config.CORS.MaxAge,
	}))

	r.Post("/vaccination-info", s.handleVaccinationInfo)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request through zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
