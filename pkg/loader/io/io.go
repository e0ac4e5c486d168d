package io

import (
	"context"
	"os"
	"sync"

	"github.com/graphmind/graphmind/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// IOTextLoader returns in-memory source data or reads the source location
// from the local filesystem. File reads are cached.
type IOTextLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewIOTextLoader creates a new filesystem-based loader.
func NewIOTextLoader() *IOTextLoader {
	return &IOTextLoader{
		cache: make(map[string][]byte),
	}
}

// GetText returns src.Data when set, otherwise the content of the file at
// src.Location.
func (l *IOTextLoader) GetText(ctx context.Context, src loader.Source) ([]byte, error) {
	if src.Data != nil {
		return src.Data, nil
	}

	key := loader.CacheKey(src)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		result, err := os.ReadFile(src.Location)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = result
		l.cacheMu.Unlock()

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
