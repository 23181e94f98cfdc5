package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
)

var pdfMagic = []byte("%PDF-")

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// LoadFile validates a statement path and returns its bytes
func (v *Validator) LoadFile(filePath string) ([]byte, error) {
	if err := v.validatePDFFile(filePath); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidInput, err).WithFile(filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	if err := v.ValidateBytes(data); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidInput, err).WithFile(filePath)
	}

	return data, nil
}

// ValidateBytes checks that in-memory content looks like a PDF within the size limit
func (v *Validator) ValidateBytes(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("file is empty")
	}

	if int64(len(data)) > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize)
	}

	// The header may be preceded by junk bytes; readers accept it within the first 1KB.
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.Contains(head, pdfMagic) {
		return fmt.Errorf("content is not a PDF (missing %%PDF- header)")
	}

	return nil
}

// validatePDFFile performs the checks that need only the file system
func (v *Validator) validatePDFFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
