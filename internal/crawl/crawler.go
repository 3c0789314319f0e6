// Package crawl fetches a web page and reduces it to the plain text used as the source document.
package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	defaultMaxBytes  = 5 << 20
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "vaxguide-crawler/1.0"
)

// noise is removed before text extraction.
const noise = "script, style, noscript, template, nav, header, footer, aside, form, iframe, svg"

// blocks are the elements whose text becomes paragraphs.
const blocks = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, td, th, dt, dd"

var (
	// ErrUnsupportedContent is returned for responses that are not HTML or plain text.
	ErrUnsupportedContent = errors.New("unsupported content type")
	// ErrNoText is returned when a page has no extractable text.
	ErrNoText = errors.New("page has no text")
)

// Page is a fetched page reduced to text.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Crawler fetches pages over HTTP.
type Crawler struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	logger    *zap.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cr *Crawler) {
		if c != nil {
			cr.client = c
		}
	}
}

// WithMaxBytes limits the size of a fetched page.
func WithMaxBytes(n int64) Option {
	return func(cr *Crawler) {
		if n > 0 {
			cr.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cr *Crawler) {
		if l != nil {
			cr.logger = l
		}
	}
}

// New creates a crawler.
func New(opts ...Option) *Crawler {
	c := &Crawler{
		client:    &http.Client{Timeout: defaultTimeout},
		maxBytes:  defaultMaxBytes,
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads url and extracts its main text.
func (c *Crawler) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html, text/plain;q=0.9")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	if resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("fetch %s: page too large (%d bytes)", url, resp.ContentLength)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("fetch %s: page larger than %d bytes", url, c.maxBytes)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	var page *Page
	switch {
	case strings.Contains(ct, "text/html"), ct == "":
		title, text, err := ExtractMainText(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", url, err)
		}
		page = &Page{URL: url, Title: title, Text: text}
	case strings.Contains(ct, "text/plain"):
		page = &Page{URL: url, Text: strings.TrimSpace(string(body))}
	default:
		return nil, fmt.Errorf("fetch %s: %w: %s", url, ErrUnsupportedContent, ct)
	}
	if page.Text == "" {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrNoText)
	}
	c.logger.Info("page fetched",
		zap.String("url", url),
		zap.String("title", page.Title),
		zap.Int("bytes", len(body)),
		zap.Int("chars", len([]rune(page.Text))))
	return page, nil
}

// ExtractMainText parses HTML and returns the page title and its main text,
// one paragraph per block element. Text inside article or main is preferred.
func ExtractMainText(r io.Reader) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", err
	}
	title = collapse(doc.Find("title").First().Text())
	doc.Find(noise).Remove()

	root := doc.Find("article, main")
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	var parts []string
	seen := make(map[string]struct{})
	root.Find(blocks).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (a p inside an li) are emitted by their outermost block.
		if s.ParentsFiltered(blocks).Length() > 0 {
			return
		}
		t := collapse(s.Text())
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		parts = append(parts, t)
	})
	if len(parts) == 0 {
		if t := collapse(root.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return title, strings.Join(parts, "\n\n"), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Save writes page text to path, creating parent directories.
func Save(path string, page *Page) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	var b strings.Builder
	if page.Title != "" {
		b.WriteString(page.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(page.Text)
	b.WriteString("\n")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
