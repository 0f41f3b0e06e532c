package rendering

import (
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

// cellPadding is the horizontal space a cell reserves around its text.
const cellPadding = 2.0

// wrapText splits text into lines that fit a cell of width w in the current
// font. Words longer than a line are broken between characters. Empty text
// yields no lines.
func wrapText(doc *fpdf.Fpdf, text string, w float64) []string {
	avail := w - cellPadding
	var lines []string

	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}

		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if doc.GetStringWidth(candidate) <= avail {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			current = word
			for doc.GetStringWidth(current) > avail {
				head, tail := breakWord(doc, current, avail)
				lines = append(lines, head)
				current = tail
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

// breakWord returns the longest prefix of word that fits avail, never less
// than one character. Invalid UTF-8 bytes count as single characters.
func breakWord(doc *fpdf.Fpdf, word string, avail float64) (string, string) {
	cut := 0
	for i := 0; i < len(word); {
		_, size := utf8.DecodeRuneInString(word[i:])
		end := i + size
		if cut > 0 && doc.GetStringWidth(word[:end]) > avail {
			break
		}
		cut = end
		i = end
	}
	return word[:cut], word[cut:]
}
