package pdf

import (
	"context"
	"strings"
	"unicode/utf8"
)

// DefaultOCRThreshold is the trimmed character count below which a page is
// handed to OCR instead of using its directly extracted text.
const DefaultOCRThreshold = 50

// Document is an opened statement PDF. Page numbers are 1-based.
type Document interface {
	NumPages() int
	// PageText returns the directly extracted text of a page, one text row per line.
	PageText(pageNum int) (string, error)
	// PageImage returns the page rendered as an encoded image (PNG, JPEG or TIFF).
	PageImage(pageNum int) ([]byte, error)
	Close() error
}

// Opener opens PDF bytes, using password only when the document is encrypted.
// Implementations must return an error matching errors.ErrPasswordProtected when
// the document cannot be decrypted with the supplied password.
type Opener interface {
	Open(data []byte, password string) (Document, error)
}

// OCREngine recognises text in an encoded image.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// PageMethod records which strategy produced a page's text
type PageMethod string

const (
	MethodDirect PageMethod = "direct"
	MethodOCR    PageMethod = "ocr"
)

// PageResult is the outcome of extracting one page
type PageResult struct {
	Number      int        `json:"number"`
	Method      PageMethod `json:"method"`
	DirectChars int        `json:"direct_chars"`
	Chars       int        `json:"chars"`
	Text        string     `json:"-"`
	Error       string     `json:"error,omitempty"`
}

// ExtractionResult is the document-level text blob plus its per-page trace
type ExtractionResult struct {
	Text  string       `json:"text"`
	Pages []PageResult `json:"pages"`
}

// OCRPages returns the numbers of pages whose text came from OCR
func (r *ExtractionResult) OCRPages() []int {
	var pages []int
	for _, p := range r.Pages {
		if p.Method == MethodOCR {
			pages = append(pages, p.Number)
		}
	}
	return pages
}

// FailedPages returns the number of pages that contributed no text because of an error
func (r *ExtractionResult) FailedPages() int {
	n := 0
	for _, p := range r.Pages {
		if p.Error != "" {
			n++
		}
	}
	return n
}

// Preview returns at most n runes of the extracted text
func (r *ExtractionResult) Preview(n int) string {
	if n <= 0 || utf8.RuneCountInString(r.Text) <= n {
		return r.Text
	}
	runes := []rune(r.Text)
	return string(runes[:n]) + "..."
}

// CharCount is the whitespace-trimmed rune count used as the direct extraction confidence signal.
func CharCount(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}
