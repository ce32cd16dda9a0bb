// Package cache keeps fetched documents with their ETag so the pod client
// can revalidate with If-None-Match instead of downloading again.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is one cached representation.
type Entry struct {
	ETag        string `json:"etag"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Cache stores entries by document URI.
type Cache interface {
	Get(ctx context.Context, uri string) (Entry, bool, error)
	Set(ctx context.Context, uri string, entry Entry) error
	Delete(ctx context.Context, uri string) error
}

const DefaultCleanupInterval = 10 * time.Minute

// Memory is an in-process cache backed by go-cache.
type Memory struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemory returns an in-process cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{cache: gocache.New(ttl, DefaultCleanupInterval), ttl: ttl}
}

func (m *Memory) Get(_ context.Context, uri string) (Entry, bool, error) {
	v, found := m.cache.Get(uri)
	if !found {
		return Entry{}, false, nil
	}
	e, ok := v.(Entry)
	if !ok {
		m.cache.Delete(uri)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (m *Memory) Set(_ context.Context, uri string, entry Entry) error {
	m.cache.Set(uri, entry, m.ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, uri string) error {
	m.cache.Delete(uri)
	return nil
}

// Flush removes every entry.
func (m *Memory) Flush() {
	m.cache.Flush()
}
