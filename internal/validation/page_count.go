package validation

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// CountPDFPages counts the pages of a PDF file.
func CountPDFPages(pdfPath string) (count int, err error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, &DocumentError{Path: pdfPath, Op: "open", Cause: err}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, &DocumentError{Path: pdfPath, Op: "stat", Cause: err}
	}

	defer func() {
		if r := recover(); r != nil {
			count, err = 0, &DocumentError{Path: pdfPath, Op: "parse", Cause: fmt.Errorf("malformed PDF: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return 0, &DocumentError{Path: pdfPath, Op: "parse", Cause: err}
	}
	return reader.NumPage(), nil
}
