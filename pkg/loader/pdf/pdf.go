package pdf

import (
	"context"
	"sync"

	"github.com/graphmind/graphmind/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// PDFTextLoader extracts the text of PDF files. The raw bytes come from the
// wrapped loader.
type PDFTextLoader struct {
	loader loader.TextLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFTextLoader creates a PDF loader reading raw bytes through l.
func NewPDFTextLoader(l loader.TextLoader) *PDFTextLoader {
	return &PDFTextLoader{
		loader: l,
		cache:  make(map[string][]byte),
	}
}

// GetText extracts text from a PDF file. Requires pdftotext in PATH.
func (l *PDFTextLoader) GetText(ctx context.Context, src loader.Source) ([]byte, error) {
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

		content, err := l.loader.GetText(ctx, src)
		if err != nil {
			return nil, err
		}

		result, err := parsePDF(ctx, content)
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
