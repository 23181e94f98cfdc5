// Package ocr provides the Tesseract-backed OCR fallback for image-only statement pages.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognises page images with a gosseract client per call.
// Clients are not safe for concurrent use, so none is shared.
type TesseractEngine struct {
	languages     []string
	dpi           int
	clientFactory func() *gosseract.Client
}

// Option configures a TesseractEngine
type Option func(*TesseractEngine)

// WithLanguages sets the tesseract language hints (e.g. "eng")
func WithLanguages(langs ...string) Option {
	return func(e *TesseractEngine) { e.languages = append([]string(nil), langs...) }
}

// WithDPI tells tesseract the resolution of the rendered page
func WithDPI(dpi int) Option {
	return func(e *TesseractEngine) { e.dpi = dpi }
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine(opts ...Option) *TesseractEngine {
	e := &TesseractEngine{clientFactory: gosseract.NewClient}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize returns the plain text found in an encoded page image.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	// Statement tables read best as a single uniform block of text.
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
