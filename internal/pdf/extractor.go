package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
)

// Extractor turns a statement PDF into one text blob, page by page, falling
// back to OCR for pages whose direct text is too short to be real content.
type Extractor struct {
	opener    Opener
	ocr       OCREngine
	threshold int
	workers   int
	logger    zerolog.Logger
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithOCREngine sets the engine used for the OCR fallback. Without one, pages
// below the threshold contribute no text.
func WithOCREngine(engine OCREngine) ExtractorOption {
	return func(e *Extractor) { e.ocr = engine }
}

// WithOCRThreshold sets the trimmed character count below which OCR runs
func WithOCRThreshold(threshold int) ExtractorOption {
	return func(e *Extractor) {
		if threshold >= 0 {
			e.threshold = threshold
		}
	}
}

// WithWorkers sets how many pages are processed concurrently
func WithWorkers(workers int) ExtractorOption {
	return func(e *Extractor) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

// WithLogger sets the logger for per-page decisions
func WithLogger(logger zerolog.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = logger }
}

// NewExtractor creates an extractor reading documents through opener
func NewExtractor(opener Opener, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		opener:    opener,
		threshold: DefaultOCRThreshold,
		workers:   1,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold returns the configured OCR trigger threshold
func (e *Extractor) Threshold() int {
	return e.threshold
}

// Extract returns the document text with pages joined in order, each page
// terminated by a newline. It fails only with ErrPasswordProtected,
// ErrNoExtractableText or an open error; page failures are contained.
func (e *Extractor) Extract(ctx context.Context, data []byte, password string) (*ExtractionResult, error) {
	doc, err := e.opener.Open(data, password)
	if err != nil {
		if errors.Is(err, pdferrors.ErrPasswordProtected) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPages()
	pages := make([]PageResult, pageCount)

	// Direct text extraction shares the document's parser state, so it is
	// serialized; OCR is the expensive part and runs concurrently.
	var textMu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for i := range pageCount {
		g.Go(func() error {
			pages[i] = e.extractPage(ctx, doc, i+1, &textMu)
			return nil
		})
	}
	_ = g.Wait()

	var builder strings.Builder
	for _, p := range pages {
		builder.WriteString(p.Text)
		builder.WriteByte('\n')
	}

	result := &ExtractionResult{
		Text:  builder.String(),
		Pages: pages,
	}

	if strings.TrimSpace(result.Text) == "" {
		return result, pdferrors.NoExtractableText(pageCount)
	}

	e.logger.Debug().
		Int("pages", pageCount).
		Ints("ocr_pages", result.OCRPages()).
		Int("failed_pages", result.FailedPages()).
		Msg("document text extracted")

	return result, nil
}

func (e *Extractor) extractPage(ctx context.Context, doc Document, pageNum int, textMu *sync.Mutex) PageResult {
	result := PageResult{Number: pageNum, Method: MethodDirect}
	log := e.logger.With().Int("page", pageNum).Logger()

	textMu.Lock()
	text, err := doc.PageText(pageNum)
	textMu.Unlock()
	if err != nil {
		log.Warn().Err(err).Msg("direct text extraction failed")
		result.Error = err.Error()
		text = ""
	}

	result.DirectChars = CharCount(text)
	if result.DirectChars >= e.threshold {
		result.Text = text
		result.Chars = result.DirectChars
		log.Debug().Int("chars", result.Chars).Msg("using direct text")
		return result
	}

	// Below the threshold the OCR text replaces the direct text even when it is shorter.
	result.Method = MethodOCR
	log.Info().Int("direct_chars", result.DirectChars).Msg("image-based page detected, using OCR")

	ocrText, err := e.ocrPage(ctx, doc, pageNum)
	if err != nil {
		log.Warn().Err(err).Msg("OCR failed")
		result.Error = joinErrors(result.Error, err.Error())
		return result
	}

	result.Text = ocrText
	result.Chars = CharCount(ocrText)
	return result
}

func (e *Extractor) ocrPage(ctx context.Context, doc Document, pageNum int) (text string, err error) {
	if e.ocr == nil {
		return "", errors.New("no OCR engine configured")
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("OCR panicked: %v", rec)
		}
	}()

	image, err := doc.PageImage(pageNum)
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}

	text, err = e.ocr.Recognize(ctx, image)
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.ocr.Name(), err)
	}
	return text, nil
}

func joinErrors(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
