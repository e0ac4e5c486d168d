package graph

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/graphmind/graphmind/pkg/common"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxTokens int
		want      []string
	}{
		{
			name:      "empty input",
			text:      "",
			maxTokens: 10,
			want:      nil,
		},
		{
			name:      "whitespace only",
			text:      " \n\n \t ",
			maxTokens: 10,
			want:      nil,
		},
		{
			name:      "shorter than budget",
			text:      "  Mars has two moons.\n\nPhobos is larger.  ",
			maxTokens: 100,
			want:      []string{"Mars has two moons.\n\nPhobos is larger."},
		},
		{
			// the separator is not counted against the budget
			name:      "paragraphs split at budget",
			text:      "aaaa\n\nbbbb\n\ncccc",
			maxTokens: 2, // 8 chars
			want:      []string{"aaaa\n\nbbbb", "cccc"},
		},
		{
			name:      "paragraphs accumulate until budget",
			text:      "aa\n\nbb\n\ncccccc",
			maxTokens: 2,
			want:      []string{"aa\n\nbb", "cccccc"},
		},
		{
			name:      "oversized paragraph is kept whole",
			text:      "short\n\n" + strings.Repeat("x", 30) + "\n\ntail",
			maxTokens: 2,
			want:      []string{"short", strings.Repeat("x", 30), "tail"},
		},
		{
			name:      "blank lines between paragraphs are kept",
			text:      "one\n\n\n\n\ntwo",
			maxTokens: 100,
			want:      []string{"one\n\n\n\n\ntwo"},
		},
		{
			name:      "short crlf input is returned trimmed",
			text:      "line one\r\nline two\r\n\r\nsecond para\r\n",
			maxTokens: 2000,
			want:      []string{"line one\r\nline two\r\n\r\nsecond para"},
		},
		{
			name:      "split keeps the separators inside a chunk",
			text:      "aa\n\n\nbb\n\ncccccc",
			maxTokens: 2,
			want:      []string{"aa\n\n\nbb", "cccccc"},
		},
		{
			name:      "crlf line endings",
			text:      "one\r\n\r\ntwo",
			maxTokens: 1,
			want:      []string{"one", "two"},
		},
		{
			name:      "single newlines stay inside a paragraph",
			text:      "line one\nline two",
			maxTokens: 1,
			want:      []string{"line one\nline two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.maxTokens)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ChunkText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkTextDefaultBudget(t *testing.T) {
	para := strings.Repeat("a", 3000)
	text := para + "\n\n" + para + "\n\n" + para

	got := ChunkText(text, 0)
	// default budget is 2000 tokens = 8000 chars, two paragraphs fit (6002)
	if len(got) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(got))
	}
	if utf8.RuneCountInString(got[0]) != 6002 {
		t.Fatalf("first chunk length = %d, want 6002", utf8.RuneCountInString(got[0]))
	}
}

func TestChunkTextNeverLosesContent(t *testing.T) {
	text := "alpha beta\n\ngamma\n\n\ndelta epsilon zeta\n\neta"
	chunks := ChunkText(text, 3)

	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q missing from chunks %q", word, chunks)
		}
	}
	for _, c := range chunks {
		if c != strings.TrimSpace(c) || c == "" {
			t.Errorf("chunk %q is not trimmed or empty", c)
		}
	}
}

func TestChunkDocuments(t *testing.T) {
	docs := []common.Document{
		{ID: "a", Name: "a.txt", Content: "one\n\ntwo", Type: common.DocumentTypeText},
		{ID: "b", Name: "b.txt", Content: "", Type: common.DocumentTypeText},
	}

	out, stats := ChunkDocuments(docs, 1)
	if docs[0].Chunks != nil {
		t.Fatalf("input documents were modified")
	}
	if !reflect.DeepEqual(out[0].Chunks, []string{"one", "two"}) {
		t.Fatalf("chunks = %q", out[0].Chunks)
	}
	if len(out[1].Chunks) != 0 {
		t.Fatalf("empty document produced chunks: %q", out[1].Chunks)
	}
	want := DocumentStats{Documents: 2, TotalChunks: 2, TotalCharacters: 8}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}
