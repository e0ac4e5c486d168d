package graph

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/graphmind/graphmind/pkg/common"
)

const (
	// DefaultMaxTokens is the chunk budget used when none is configured.
	DefaultMaxTokens = 2000
	// CharsPerToken is the fixed token estimate used for chunk budgets.
	CharsPerToken = 4
)

var paragraphBreak = regexp.MustCompile(`(?:\r?\n){2,}`)

// ChunkText splits text into chunks of at most maxTokens*4 characters.
//
// Paragraphs (separated by blank lines) are accumulated greedily and never
// split, so a single paragraph longer than the budget becomes an oversized
// chunk of its own. A chunk is a trimmed slice of the input, separators
// included; empty or whitespace-only input yields no chunks.
func ChunkText(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	maxChars := maxTokens * CharsPerToken

	var chunks []string
	chunkStart, chunkEnd := -1, 0
	currentLen := 0

	flush := func() {
		if chunkStart >= 0 {
			if chunk := strings.TrimSpace(text[chunkStart:chunkEnd]); chunk != "" {
				chunks = append(chunks, chunk)
			}
		}
		chunkStart = -1
		currentLen = 0
	}

	add := func(start, end int) {
		pLen := utf8.RuneCountInString(text[start:end])
		// the separator in front of the paragraph is not counted here
		if currentLen+pLen > maxChars && currentLen > 0 {
			flush()
		}
		if chunkStart < 0 {
			chunkStart = start
			currentLen = pLen
		} else {
			currentLen += utf8.RuneCountInString(text[chunkEnd:end])
		}
		chunkEnd = end
	}

	prev := 0
	for _, loc := range paragraphBreak.FindAllStringIndex(text, -1) {
		add(prev, loc[0])
		prev = loc[1]
	}
	add(prev, len(text))
	flush()

	return chunks
}

// DocumentStats summarises a chunked document set.
type DocumentStats struct {
	Documents       int `json:"documents"`
	TotalChunks     int `json:"totalChunks"`
	TotalCharacters int `json:"totalCharacters"`
}

// ChunkDocuments fills Chunks for every document and returns the chunked
// copies together with totals. The input slice is not modified.
func ChunkDocuments(docs []common.Document, maxTokens int) ([]common.Document, DocumentStats) {
	out := make([]common.Document, len(docs))
	stats := DocumentStats{Documents: len(docs)}
	for i, doc := range docs {
		doc.Chunks = ChunkText(doc.Content, maxTokens)
		out[i] = doc
		stats.TotalChunks += len(doc.Chunks)
		stats.TotalCharacters += utf8.RuneCountInString(doc.Content)
	}
	return out, stats
}
