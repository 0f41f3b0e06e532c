// Package narrative rewrites seed section content into polished proposal prose.
package narrative

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/prompts"
	"github.com/jonathan/proposal-builder/internal/types"
)

// Expander polishes sections with one model request each.
type Expander struct {
	client llm.Client
	logger zerolog.Logger
}

// NewExpander creates an Expander. A nil client leaves every section unchanged.
func NewExpander(client llm.Client, logger zerolog.Logger) *Expander {
	return &Expander{client: client, logger: logger}
}

// Expand returns the polished content for one section, or content unchanged
// when the request fails or the model returns nothing.
func (e *Expander) Expand(ctx context.Context, title, content string) string {
	expanded, err := e.expand(ctx, title, content)
	if err != nil {
		e.logger.Warn().Err(err).Str("section", title).Msg("Section expansion failed, keeping seed content")
		return content
	}
	return expanded
}

// ExpandAll expands sections sequentially, in order. onSection, when not nil,
// is called after each section with its index.
func (e *Expander) ExpandAll(ctx context.Context, sections []types.Section, onSection func(i int, s types.Section)) []types.Section {
	out := make([]types.Section, len(sections))
	for i, s := range sections {
		out[i] = types.Section{Title: s.Title, Content: e.Expand(ctx, s.Title, s.Content)}
		if onSection != nil {
			onSection(i, out[i])
		}
	}
	return out
}

func (e *Expander) expand(ctx context.Context, title, content string) (string, error) {
	if e.client == nil {
		return "", errors.New("no LLM client configured")
	}

	prompt, err := prompts.Render(prompts.ProposalFile, prompts.KeyExpandSection, map[string]string{
		"Title":   title,
		"Content": content,
	})
	if err != nil {
		return "", err
	}

	text, err := e.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}
