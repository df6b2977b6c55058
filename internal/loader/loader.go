// Package loader extracts per-page text from PDF documents.
package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is one page of a document. Text may be empty when the page carries no
// extractable text (scanned images); that is not an error.
type Page struct {
	Number int // 1-based
	Text   string
}

// LoadError means the input could not be parsed as a PDF at all.
type LoadError struct {
	Filename string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Filename, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadPDF parses content and returns its pages in order. A page whose text
// extraction fails yields an empty-text Page; only a file that is not a
// parseable PDF returns a LoadError.
func LoadPDF(filename string, content []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &LoadError{Filename: filename, Err: err}
	}

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		pages = append(pages, Page{Number: pageNum, Text: extractPage(reader, pageNum)})
	}
	return pages, nil
}

func extractPage(reader *pdf.Reader, pageNum int) (text string) {
	// The pdf library panics on some malformed content streams; treat that
	// the same as a page with nothing to extract.
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
		return ""
	}
	out, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// HasText reports whether any page carries extractable text.
func HasText(pages []Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

// FullText joins page texts in order, one page per line block.
func FullText(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	return b.String()
}
