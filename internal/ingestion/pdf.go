// Package ingestion turns source documents into raw RFP text.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// MinPageChars is the length a page's trimmed text must exceed to be kept.
const MinPageChars = 30

// TextSource produces raw text for a document on disk.
type TextSource interface {
	ExtractText(ctx context.Context, path string) (string, *Metadata, error)
}

// FileSource reads PDF files page by page and plain text files whole.
type FileSource struct {
	Logger zerolog.Logger
}

// NewFileSource returns a FileSource that logs through logger.
func NewFileSource(logger zerolog.Logger) *FileSource {
	return &FileSource{Logger: logger}
}

// ExtractText dispatches on the file extension. Anything other than .pdf is
// read as UTF-8 text.
func (s *FileSource) ExtractText(ctx context.Context, path string) (string, *Metadata, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return s.extractPDF(ctx, path)
	}
	return s.extractPlain(path)
}

// ExtractTextFromPDF extracts the text of every page of a PDF.
// Pages whose trimmed text has MinPageChars runes or fewer become
// "[Page N: extracted no text]", pages that fail to decode become
// "[Page N: extraction error]". Pages are joined with a blank line.
func ExtractTextFromPDF(ctx context.Context, path string) (string, error) {
	text, _, err := NewFileSource(zerolog.Nop()).extractPDF(ctx, path)
	return text, err
}

func (s *FileSource) extractPlain(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, &ExtractionError{Path: path, Message: "file not found", Cause: err}
		}
		return "", nil, &ExtractionError{Path: path, Message: "failed to read file", Cause: err}
	}

	text := CleanText(string(content))
	return text, NewMetadata(text, path), nil
}

func (s *FileSource) extractPDF(ctx context.Context, path string) (string, *Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, &ExtractionError{Path: path, Message: "file not found", Cause: err}
		}
		return "", nil, &ExtractionError{Path: path, Message: "failed to open PDF", Cause: err}
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return "", nil, &ExtractionError{Path: path, Message: "failed to stat PDF", Cause: err}
	}

	reader, err := openPDF(file, info.Size())
	if err != nil {
		return "", nil, &ExtractionError{Path: path, Message: "failed to create PDF reader", Cause: err}
	}

	pageCount := reader.NumPage()
	parts := make([]string, 0, pageCount)
	var emptyPages, errorPages []int

	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		text, err := pageText(reader, i)
		switch {
		case err != nil:
			s.Logger.Warn().Err(err).Int("page", i).Str("file", filepath.Base(path)).Msg("Failed to extract text from page")
			parts = append(parts, fmt.Sprintf("[Page %d: extraction error]", i))
			errorPages = append(errorPages, i)
		case utf8.RuneCountInString(strings.TrimSpace(text)) > MinPageChars:
			parts = append(parts, text)
		default:
			parts = append(parts, fmt.Sprintf("[Page %d: extracted no text]", i))
			emptyPages = append(emptyPages, i)
		}
	}

	combined := strings.Join(parts, "\n\n")
	meta := NewMetadata(combined, path)
	meta.Pages = pageCount
	meta.EmptyPages = emptyPages
	meta.ErrorPages = errorPages

	s.Logger.Debug().
		Str("file", filepath.Base(path)).
		Int("pages", pageCount).
		Int("empty_pages", len(emptyPages)).
		Int("error_pages", len(errorPages)).
		Msg("Extracted PDF text")

	return combined, meta, nil
}

// openPDF guards against panics inside the PDF parser on malformed input.
func openPDF(file *os.File, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader, err = nil, fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	return pdf.NewReader(file, size)
}

func pageText(reader *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, r)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", n)
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}
