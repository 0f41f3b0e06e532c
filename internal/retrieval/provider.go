// Package retrieval supplies passages of the RFP that are relevant to a query.
// Stages depend on ContextProvider only, so the in-memory TF-IDF index can be
// replaced by a vector store without touching them.
package retrieval

import (
	"context"
	"strings"
)

// ContextProvider returns up to k passages relevant to query, most relevant first.
type ContextProvider interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// ProviderFunc adapts a function to ContextProvider.
type ProviderFunc func(ctx context.Context, query string, k int) ([]string, error)

// Retrieve calls f.
func (f ProviderFunc) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	return f(ctx, query, k)
}

// JoinPassages joins passages with a blank line between them.
func JoinPassages(passages []string) string {
	return strings.Join(passages, "\n\n")
}
