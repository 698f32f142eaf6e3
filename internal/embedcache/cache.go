// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedcache provides a SQLite-backed cache of embedding vectors
// keyed by content hash. Generated article content is never persisted; the
// cache stores only derived vectors so repeated runs over overlapping text
// skip redundant embedding API calls. Per prd008-article R5.4.
package embedcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/article-engine/internal/ai"
)

const dbFile = "embeddings.db"

// Store manages the embedding cache SQLite database.
type Store struct {
	db    *sql.DB
	model string
}

// NewStore opens or creates the cache database at cacheDir/embeddings.db,
// creating the schema if it does not exist. model namespaces the cache so
// vectors from different embedding models never mix.
func NewStore(cacheDir, model string) (*Store, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cacheDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, model: model}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS embeddings (
		text_hash TEXT NOT NULL,
		model TEXT NOT NULL,
		vector TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (text_hash, model)
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// hashText returns the cache key for text: hex SHA-256.
func hashText(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
}

// Get returns the cached vector for text, or (nil, nil) on a miss.
func (s *Store) Get(ctx context.Context, text string) ([]float64, error) {
	var vectorJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE text_hash = ? AND model = ?`,
		hashText(text), s.model,
	).Scan(&vectorJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}

	var vec []float64
	if err := json.Unmarshal([]byte(vectorJSON), &vec); err != nil {
		return nil, fmt.Errorf("decoding cached vector: %w", err)
	}
	return vec, nil
}

// Put stores the vector for text, replacing any existing entry.
func (s *Store) Put(ctx context.Context, text string, vec []float64) error {
	vectorJSON, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encoding vector: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (text_hash, model, vector, created_at) VALUES (?, ?, ?, ?)`,
		hashText(text), s.model, string(vectorJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting cache entry: %w", err)
	}
	return nil
}

// CachedEmbedder wraps an Embedder with the store, answering from cache
// where possible and writing fresh vectors back.
type CachedEmbedder struct {
	inner ai.Embedder
	store *Store
}

// Wrap returns an Embedder that consults store before calling inner.
func Wrap(inner ai.Embedder, store *Store) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: store}
}

// Embed returns the embedding for text, from cache when available.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if vec, err := c.store.Get(ctx, text); err == nil && vec != nil {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	// A failed write only costs a future API call.
	_ = c.store.Put(ctx, text, vec)
	return vec, nil
}

// EmbedMany returns embeddings for texts, fetching only cache misses from
// the inner embedder. Output is index-aligned with texts.
func (c *CachedEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	vecs := make([][]float64, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vec, err := c.store.Get(ctx, text); err == nil && vec != nil {
			vecs[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vecs, nil
	}

	fresh, err := c.inner.EmbedMany(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(fresh), len(missing))
	}

	for j, vec := range fresh {
		vecs[missingIdx[j]] = vec
		_ = c.store.Put(ctx, missing[j], vec)
	}
	return vecs, nil
}
