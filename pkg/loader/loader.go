package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphmind/graphmind/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Source is an input that can be turned into a document: an uploaded or
// local file, a URL or pasted text.
//
// The actual content is retrieved via the associated TextLoader. Data holds
// in-memory content such as an upload; when it is nil the loader reads from
// Location.
type Source struct {
	ID       string
	Name     string
	Location string
	Type     common.DocumentType
	Data     []byte
	Loader   TextLoader
}

// NewSourceParams defines the input parameters for creating a new Source.
// An empty ID is replaced with a generated one.
type NewSourceParams struct {
	ID       string
	Name     string
	Location string
	Data     []byte
	Loader   TextLoader
}

// NewFileSource creates a Source of type file.
func NewFileSource(params NewSourceParams) (Source, error) {
	return newSource(common.DocumentTypeFile, params)
}

// NewURLSource creates a Source of type url. Location is the URL.
func NewURLSource(params NewSourceParams) (Source, error) {
	return newSource(common.DocumentTypeURL, params)
}

// NewTextSource creates a Source of type text from pasted content.
func NewTextSource(params NewSourceParams) (Source, error) {
	return newSource(common.DocumentTypeText, params)
}

func newSource(t common.DocumentType, params NewSourceParams) (Source, error) {
	id := params.ID
	if id == "" {
		var err error
		id, err = NewDocumentID(t)
		if err != nil {
			return Source{}, err
		}
	}
	name := params.Name
	if name == "" {
		name = params.Location
	}
	return Source{
		ID:       id,
		Name:     name,
		Location: params.Location,
		Type:     t,
		Data:     params.Data,
		Loader:   params.Loader,
	}, nil
}

// NewDocumentID returns a fresh id prefixed with the document type, for
// example "file-V1StGXR8_Z5jdHi6B-myT".
func NewDocumentID(t common.DocumentType) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate document id: %w", err)
	}
	return string(t) + "-" + id, nil
}

// GetText retrieves the raw text content of the source using its Loader.
//
// Example:
//
//	text, err := src.GetText(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(string(text))
func (s *Source) GetText(ctx context.Context) ([]byte, error) {
	if s.Loader == nil {
		if s.Data != nil {
			return s.Data, nil
		}
		return nil, fmt.Errorf("no loader for source %s", s.Name)
	}
	return s.Loader.GetText(ctx, *s)
}

// Document loads the source and returns it as a document. Content that is
// empty after trimming is rejected with ErrEmptyContent.
func (s *Source) Document(ctx context.Context) (common.Document, error) {
	text, err := s.GetText(ctx)
	if err != nil {
		return common.Document{}, fmt.Errorf("failed to load %s: %w", s.Name, err)
	}
	content := string(text)
	if strings.TrimSpace(content) == "" {
		return common.Document{}, fmt.Errorf("%w: %s", ErrEmptyContent, s.Name)
	}
	return common.Document{
		ID:      s.ID,
		Name:    s.Name,
		Content: content,
		Type:    s.Type,
	}, nil
}

// TextLoader defines the interface for loading the contents of a Source.
// Implementations may read memory, disk or the network.
type TextLoader interface {
	GetText(ctx context.Context, src Source) ([]byte, error)
}

// CacheKey identifies a source for loader caches.
func CacheKey(src Source) string {
	if src.Location != "" {
		return string(src.Type) + ":" + src.Location
	}
	return string(src.Type) + ":" + src.ID
}
