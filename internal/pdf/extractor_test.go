package pdf

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
)

type fakePage struct {
	text    string
	textErr error
	image   []byte
	imgErr  error
}

type fakeDocument struct {
	pages  []fakePage
	closed bool
}

func (d *fakeDocument) NumPages() int { return len(d.pages) }

func (d *fakeDocument) PageText(pageNum int) (string, error) {
	p := d.pages[pageNum-1]
	return p.text, p.textErr
}

func (d *fakeDocument) PageImage(pageNum int) ([]byte, error) {
	p := d.pages[pageNum-1]
	return p.image, p.imgErr
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

type fakeOpener struct {
	doc      *fakeDocument
	password string // required password, empty for unencrypted documents
}

func (o *fakeOpener) Open(_ []byte, password string) (Document, error) {
	if o.password != "" && password != o.password {
		return nil, pdferrors.PasswordProtected(errors.New("encrypted PDF: invalid password"))
	}
	return o.doc, nil
}

// fakeOCR returns the image bytes as text and records which images it saw.
type fakeOCR struct {
	mu    sync.Mutex
	calls []string
	err   error
	panic bool
}

func (o *fakeOCR) Name() string { return "fake" }

func (o *fakeOCR) Recognize(_ context.Context, image []byte) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, string(image))
	if o.panic {
		panic("engine crashed")
	}
	if o.err != nil {
		return "", o.err
	}
	return string(image), nil
}

func (o *fakeOCR) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

func TestExtractor_OCRThresholdBoundary(t *testing.T) {
	tests := []struct {
		name       string
		chars      int
		wantOCR    bool
		wantMethod PageMethod
	}{
		{name: "49 characters triggers OCR", chars: 49, wantOCR: true, wantMethod: MethodOCR},
		{name: "50 characters uses direct text", chars: 50, wantOCR: false, wantMethod: MethodDirect},
		{name: "empty page triggers OCR", chars: 0, wantOCR: true, wantMethod: MethodOCR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direct := "  " + strings.Repeat("x", tt.chars) + "\n\n"
			doc := &fakeDocument{pages: []fakePage{{text: direct, image: []byte("ocr text from image")}}}
			ocr := &fakeOCR{}
			e := NewExtractor(&fakeOpener{doc: doc}, WithOCREngine(ocr))

			result, err := e.Extract(context.Background(), []byte("%PDF-"), "")
			require.NoError(t, err)
			require.Len(t, result.Pages, 1)

			assert.Equal(t, tt.wantMethod, result.Pages[0].Method)
			assert.Equal(t, tt.chars, result.Pages[0].DirectChars)
			if tt.wantOCR {
				assert.Equal(t, 1, ocr.callCount())
				assert.Equal(t, "ocr text from image\n", result.Text)
			} else {
				assert.Zero(t, ocr.callCount())
				assert.Equal(t, direct+"\n", result.Text)
			}
		})
	}
}

func TestExtractor_OCRReplacesEvenWhenShorter(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{text: strings.Repeat("a", 40), image: []byte("b")}}}
	e := NewExtractor(&fakeOpener{doc: doc}, WithOCREngine(&fakeOCR{}))

	result, err := e.Extract(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "b\n", result.Text)
	assert.Equal(t, 1, result.Pages[0].Chars)
}

func TestExtractor_ConfigurableThreshold(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{text: "short page", image: []byte("ocr")}}}
	ocr := &fakeOCR{}
	e := NewExtractor(&fakeOpener{doc: doc}, WithOCREngine(ocr), WithOCRThreshold(5))

	result, err := e.Extract(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, 5, e.Threshold())
	assert.Zero(t, ocr.callCount())
	assert.Equal(t, "short page\n", result.Text)
}

func TestExtractor_PreservesPageOrder(t *testing.T) {
	long := func(s string) string { return s + strings.Repeat(".", 60) }
	doc := &fakeDocument{pages: []fakePage{
		{text: long("page one")},
		{text: "", image: []byte("page two via ocr")},
		{text: long("page three")},
		{text: "x", image: []byte("page four via ocr")},
	}}

	for _, workers := range []int{1, 4} {
		ocr := &fakeOCR{}
		e := NewExtractor(&fakeOpener{doc: doc}, WithOCREngine(ocr), WithWorkers(workers))

		result, err := e.Extract(context.Background(), nil, "")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(result.Text, "\n"), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "page one"))
		assert.Equal(t, "page two via ocr", lines[1])
		assert.True(t, strings.HasPrefix(lines[2], "page three"))
		assert.Equal(t, "page four via ocr", lines[3])
		assert.Equal(t, []int{2, 4}, result.OCRPages())
	}
}

func TestExtractor_PageFailuresAreContained(t *testing.T) {
	good := "194C ACME CORP ABCDE1234F 10000.00 1000.00 1000.00 and some padding"
	doc := &fakeDocument{pages: []fakePage{
		{textErr: errors.New("malformed content stream"), imgErr: errors.New("no image")},
		{text: good},
		{text: "", image: []byte("boom")},
	}}
	ocr := &fakeOCR{panic: true}
	e := NewExtractor(&fakeOpener{doc: doc}, WithOCREngine(ocr))

	result, err := e.Extract(context.Background(), nil, "")
	require.NoError(t, err)

	assert.Equal(t, "\n"+good+"\n\n", result.Text)
	assert.Equal(t, 2, result.FailedPages())
	assert.Contains(t, result.Pages[0].Error, "malformed content stream")
	assert.Contains(t, result.Pages[0].Error, "no image")
	assert.Contains(t, result.Pages[2].Error, "panicked")
}

func TestExtractor_NoExtractableText(t *testing.T) {
	tests := []struct {
		name string
		ocr  OCREngine
		doc  *fakeDocument
	}{
		{
			name: "OCR unavailable",
			ocr:  nil,
			doc:  &fakeDocument{pages: []fakePage{{text: "Page 1"}, {text: ""}}},
		},
		{
			name: "OCR returns nothing",
			ocr:  &fakeOCR{},
			doc:  &fakeDocument{pages: []fakePage{{text: "", image: []byte("   ")}}},
		},
		{
			name: "OCR errors",
			ocr:  &fakeOCR{err: errors.New("tesseract missing")},
			doc:  &fakeDocument{pages: []fakePage{{text: "", image: []byte("img")}}},
		},
		{
			name: "zero pages",
			ocr:  &fakeOCR{},
			doc:  &fakeDocument{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []ExtractorOption{}
			if tt.ocr != nil {
				opts = append(opts, WithOCREngine(tt.ocr))
			}
			e := NewExtractor(&fakeOpener{doc: tt.doc}, opts...)

			result, err := e.Extract(context.Background(), nil, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, pdferrors.ErrNoExtractableText)
			assert.NotErrorIs(t, err, pdferrors.ErrPasswordProtected)
			require.NotNil(t, result)
			assert.Len(t, result.Pages, tt.doc.NumPages())
			assert.True(t, tt.doc.closed)
		})
	}
}

func TestExtractor_PasswordProtected(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{text: strings.Repeat("z", 80)}}}
	opener := &fakeOpener{doc: doc, password: "01011990"}
	e := NewExtractor(opener)

	_, err := e.Extract(context.Background(), nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, pdferrors.ErrPasswordProtected)

	_, err = e.Extract(context.Background(), nil, "wrong")
	assert.ErrorIs(t, err, pdferrors.ErrPasswordProtected)

	result, err := e.Extract(context.Background(), nil, "01011990")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Text)
}

func TestExtractor_OpenFailure(t *testing.T) {
	e := NewExtractor(NewReader())

	_, err := e.Extract(context.Background(), []byte("not a pdf at all"), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, pdferrors.ErrPasswordProtected)
	assert.NotErrorIs(t, err, pdferrors.ErrNoExtractableText)
}

func TestExtractionResult_Preview(t *testing.T) {
	r := &ExtractionResult{Text: "₹12345"}
	assert.Equal(t, "₹12...", r.Preview(3))
	assert.Equal(t, "₹12345", r.Preview(10))
	assert.Equal(t, "₹12345", r.Preview(0))
}

func TestCharCount(t *testing.T) {
	assert.Equal(t, 0, CharCount(" \n\t "))
	assert.Equal(t, 3, CharCount("  a b\n"))
	assert.Equal(t, 2, CharCount("₹1"))
}
