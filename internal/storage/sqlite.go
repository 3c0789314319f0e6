package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var _ EmbeddingStore = (*SQLiteEmbeddingStore)(nil)

// SQLiteEmbeddingStore implements EmbeddingStore using SQLite.
type SQLiteEmbeddingStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteEmbeddingStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteEmbeddingStore(dbPath string) (*SQLiteEmbeddingStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteEmbeddingStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		cache_key TEXT PRIMARY KEY,
		dimensions INTEGER NOT NULL,
		vector BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the vector stored under key.
func (s *SQLiteEmbeddingStore) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var dims int
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions, vector FROM embeddings WHERE cache_key = ?`, key).Scan(&dims, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get embedding: %w", err)
	}
	if len(blob) != dims*4 {
		return nil, false, fmt.Errorf("get embedding: corrupt vector for %s (%d bytes, %d dims)", key, len(blob), dims)
	}
	return bytesToFloat32Slice(blob), true, nil
}

// Put stores vec under key, replacing any previous value.
func (s *SQLiteEmbeddingStore) Put(ctx context.Context, key string, vec []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (cache_key, dimensions, vector) VALUES (?, ?, ?)`,
		key, len(vec), float32SliceToBytes(vec))
	if err != nil {
		return fmt.Errorf("put embedding: %w", err)
	}
	return nil
}

// Count returns the number of stored vectors.
func (s *SQLiteEmbeddingStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

// Path returns the database file path.
func (s *SQLiteEmbeddingStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteEmbeddingStore) Close() error {
	return s.db.Close()
}

func float32SliceToBytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
