package pdf

import (
	"context"
	"testing"

	"github.com/graphmind/graphmind/pkg/loader"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   \n\n  ", ""},
		{"page one", "page one\n"},
		{"a\n\n\n\n\nb", "a\n\nb\n"},
		{"  a\nb  \n", "a\nb\n"},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type failingLoader struct{ err error }

func (f failingLoader) GetText(ctx context.Context, src loader.Source) ([]byte, error) {
	return nil, f.err
}

func TestPDFTextLoaderPropagatesSourceErrors(t *testing.T) {
	want := context.DeadlineExceeded
	l := NewPDFTextLoader(failingLoader{err: want})
	if _, err := l.GetText(context.Background(), loader.Source{ID: "file-1", Name: "x.pdf"}); err != want {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
