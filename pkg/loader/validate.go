package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes caps the combined size of one upload.
const MaxUploadBytes int64 = 100 * 1024 * 1024

var (
	ErrUnsupportedFile = errors.New("please upload TXT, MD, or PDF files")
	ErrUploadTooLarge  = errors.New("total file size exceeds 100MB limit")
	ErrEmptyContent    = errors.New("file appears to be empty")
)

// FileKind is the parser used for an upload.
type FileKind string

const (
	FileKindText FileKind = "text"
	FileKindPDF  FileKind = "pdf"
)

// DetectFileKind decides how an upload is read from its name and declared
// content type. ok is false for anything other than plain text, markdown or
// PDF.
func DetectFileKind(name string, contentType string) (FileKind, bool) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "application/pdf":
		return FileKindPDF, true
	case "text/plain", "text/markdown":
		return FileKindText, true
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FileKindPDF, true
	case ".txt", ".md":
		return FileKindText, true
	}
	return "", false
}

// CheckUploadSize fails when the sizes add up to more than MaxUploadBytes.
func CheckUploadSize(sizes ...int64) error {
	var total int64
	for _, s := range sizes {
		total += s
	}
	if total > MaxUploadBytes {
		return fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, total)
	}
	return nil
}
