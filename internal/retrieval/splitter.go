package retrieval

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunking parameters, in runes.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks text into overlapping chunks, preferring paragraph, then
// line, then word boundaries. Chunks never exceed ChunkSize runes unless a
// single word is longer than that.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter returns a Splitter with the default size, overlap and separators.
func NewSplitter() *Splitter {
	return &Splitter{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   defaultSeparators,
	}
}

// Split returns the chunks of text in document order. Blank chunks are
// dropped. If the text cannot be split it is returned as a single chunk.
func (s *Splitter) Split(text string) []string {
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := s.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	separators := s.Separators
	if len(separators) == 0 {
		separators = defaultSeparators
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators(separators),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		parts = []string{text}
	}

	var chunks []string
	for _, chunk := range parts {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
