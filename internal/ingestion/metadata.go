package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// Metadata describes one extraction of an RFP document. Page fields are only
// set for PDFs; page numbers are 1-based.
type Metadata struct {
	Source     string `json:"source"`
	Timestamp  string `json:"timestamp"`
	Hash       string `json:"hash"`
	Characters int    `json:"characters"`
	Pages      int    `json:"pages,omitempty"`
	EmptyPages []int  `json:"empty_pages,omitempty"`
	ErrorPages []int  `json:"error_pages,omitempty"`
}

// NewMetadata records the base name of source and a SHA-256 of the extracted text.
func NewMetadata(text string, source string) *Metadata {
	sum := sha256.Sum256([]byte(text))
	return &Metadata{
		Source:     filepath.Base(source),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Hash:       hex.EncodeToString(sum[:]),
		Characters: utf8.RuneCountInString(text),
	}
}

// Incomplete reports whether any page came back empty or failed to decode.
func (m *Metadata) Incomplete() bool {
	return len(m.EmptyPages) > 0 || len(m.ErrorPages) > 0
}

// ToJSON returns the metadata as indented JSON.
func (m *Metadata) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}
