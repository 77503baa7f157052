package lendingclub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/notetrader/pkg/logger"
	"github.com/wonny/notetrader/pkg/redis"
)

// ErrNotCached is returned by DocumentStore.Get for unknown keys
var ErrNotCached = errors.New("document not cached")

// DocumentStore keeps raw service documents with the time they were fetched
type DocumentStore interface {
	Put(ctx context.Context, key string, body []byte, fetchedAt time.Time) error
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
}

// FileStore keeps one file per document under a cache directory.
// The file's modification time is the fetch time.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, strings.NewReplacer(":", "_", "/", "_").Replace(key))
}

// Put writes the document atomically
func (s *FileStore) Put(ctx context.Context, key string, body []byte, fetchedAt time.Time) error {
	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Chtimes(tmp.Name(), fetchedAt, fetchedAt); err != nil {
		return fmt.Errorf("failed to stamp %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Get reads a document and its fetch time
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	path := s.path(key)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, time.Time{}, fmt.Errorf("%s: %w", key, ErrNotCached)
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return body, info.ModTime(), nil
}

// Cache is the shared document cache behind RedisStore, met by *redis.Cache
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RedisStore shares documents between processes through Redis and keeps a
// local copy in next, which also serves reads when Redis is disabled, misses
// or fails.
type RedisStore struct {
	cache  Cache
	next   DocumentStore
	logger *logger.Logger
}

type cachedDocument struct {
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewRedisStore layers cache over next. Cache failures are logged to log.
func NewRedisStore(cache Cache, next DocumentStore, log *logger.Logger) *RedisStore {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisStore{cache: cache, next: next, logger: log}
}

func ttlFor(key string) time.Duration {
	switch {
	case strings.HasPrefix(key, "note:detail:"):
		return redis.TTLDetail
	case key == tradingAccountKey:
		return redis.TTLShort
	}
	return redis.TTLMedium
}

func (s *RedisStore) Put(ctx context.Context, key string, body []byte, fetchedAt time.Time) error {
	if err := s.next.Put(ctx, key, body, fetchedAt); err != nil {
		return err
	}
	if err := s.cache.Set(ctx, key, cachedDocument{Body: body, FetchedAt: fetchedAt}, ttlFor(key)); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Document cache write failed")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	var doc cachedDocument
	found, err := s.cache.Get(ctx, key, &doc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, time.Time{}, err
		}
		s.logger.WithError(err).WithField("key", key).Warn("Document cache read failed, using local copy")
		return s.next.Get(ctx, key)
	}
	if found {
		return doc.Body, doc.FetchedAt, nil
	}
	return s.next.Get(ctx, key)
}
