// Package extract loads the source document and converts supported formats to plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/models"
)

// ErrEmptyDocument is returned when a document holds no text.
var ErrEmptyDocument = errors.New("document is empty")

// textFunc converts raw file bytes to text.
type textFunc func(content []byte) (string, error)

var formats = map[string]textFunc{
	".pdf":  pdfText,
	".docx": docxText,
	".xlsx": excelText,
	".txt":  plainText,
	".md":   plainText,
	".rst":  plainText,
	"":      plainText,
}

// Loader reads a document from disk.
type Loader struct {
	logger *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader returns a document loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file at path and returns it as a Document.
// A missing, unreadable, or empty file is a configuration error.
func (l *Loader) Load(path string) (*models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Configuration("load document", fmt.Errorf("read %s: %w", path, err))
	}
	ext := filepath.Ext(path)
	if !Supported(ext) {
		l.logger.Debug("no dedicated reader, reading as plain text", zap.String("path", path), zap.String("ext", ext))
	}
	text, err := Text(content, ext)
	if err != nil {
		return nil, apperr.Configuration("load document", fmt.Errorf("extract %s: %w", path, err))
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Configuration("load document", fmt.Errorf("%s: %w", path, ErrEmptyDocument))
	}
	l.logger.Info("document loaded",
		zap.String("path", path),
		zap.Int("bytes", len(content)),
		zap.Int("chars", len([]rune(text))))
	return NewDocument(path, text), nil
}

// NewDocument wraps already extracted text as a Document. The text is
// normalized with Preprocess so chunk offsets index Content directly.
func NewDocument(source, text string) *models.Document {
	return &models.Document{
		ID:       uuid.New().String(),
		Source:   source,
		Content:  Preprocess(text),
		LoadedAt: time.Now(),
	}
}

// Text extracts text from content based on the file extension (with leading dot).
// Unknown extensions are read as plain text.
func Text(content []byte, ext string) (string, error) {
	fn, ok := formats[strings.ToLower(ext)]
	if !ok {
		fn = plainText
	}
	return fn(content)
}

// Supported reports whether ext has a dedicated reader.
func Supported(ext string) bool {
	_, ok := formats[strings.ToLower(ext)]
	return ok
}
