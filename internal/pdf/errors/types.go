package errors

import (
	"fmt"
	"time"
)

// PDFError describes a failure while turning a statement PDF into records, with
// enough context to tell the user what to do about it.
type PDFError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	FilePath   string    `json:"file_path,omitempty"`
	PageNumber int       `json:"page_number,omitempty"`
	LineNumber int       `json:"line_number,omitempty"`
	Err        error     `json:"-"`
}

// ErrorType represents the categories of statement processing errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidInput
	ErrorTypePasswordProtected
	ErrorTypeNoExtractableText
	ErrorTypePageExtraction
	ErrorTypeUnparsableRow
	ErrorTypeNoRecordsFound
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Sentinels for errors.Is matching. Any *PDFError of the same Type matches.
var (
	ErrPasswordProtected = &PDFError{
		Type:    ErrorTypePasswordProtected,
		Message: "the PDF is password-protected; supply the password or upload an unlocked PDF",
	}
	ErrNoExtractableText = &PDFError{
		Type:    ErrorTypeNoExtractableText,
		Message: "no text could be extracted from the PDF; check PDF quality",
	}
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.PageNumber > 0 {
		msg += fmt.Sprintf(" (page %d)", e.PageNumber)
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a PDFError of the same type
func (e *PDFError) Is(target error) bool {
	t, ok := target.(*PDFError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypePasswordProtected:
		return "PASSWORD_PROTECTED"
	case ErrorTypeNoExtractableText:
		return "NO_EXTRACTABLE_TEXT"
	case ErrorTypePageExtraction:
		return "PAGE_EXTRACTION"
	case ErrorTypeUnparsableRow:
		return "UNPARSABLE_ROW"
	case ErrorTypeNoRecordsFound:
		return "NO_RECORDS_FOUND"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypePasswordProtected, ErrorTypeNoExtractableText, ErrorTypeInvalidInput:
		return SeverityFatal
	case ErrorTypePageExtraction, ErrorTypeUnparsableRow, ErrorTypeNoRecordsFound:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps a standard error as a PDFError, keeping it in the chain
func WrapError(errorType ErrorType, err error) *PDFError {
	e := NewPDFError(errorType, err.Error())
	e.Err = err
	return e
}

// PasswordProtected builds the terminal error for an encrypted document
func PasswordProtected(cause error) *PDFError {
	e := NewPDFError(ErrorTypePasswordProtected, ErrPasswordProtected.Message)
	e.Err = cause
	return e
}

// NoExtractableText builds the terminal error for a document with no usable text
func NoExtractableText(pages int) *PDFError {
	return NewPDFErrorWithContext(ErrorTypeNoExtractableText, ErrNoExtractableText.Message,
		fmt.Sprintf("%d page(s) processed", pages))
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// WithLine adds text line information to an existing PDFError
func (e *PDFError) WithLine(lineNumber int) *PDFError {
	e.LineNumber = lineNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// ErrorCollection gathers the non-fatal problems of one run
type ErrorCollection struct {
	Errors   []*PDFError `json:"errors"`
	Warnings []*PDFError `json:"warnings"`
	FilePath string      `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*PDFError, 0),
		Warnings: make([]*PDFError, 0),
		FilePath: filePath,
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *PDFError) {
	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}

	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// CountType returns how many collected entries have the given type
func (ec *ErrorCollection) CountType(et ErrorType) int {
	n := 0
	for _, e := range ec.Errors {
		if e.Type == et {
			n++
		}
	}
	for _, e := range ec.Warnings {
		if e.Type == et {
			n++
		}
	}
	return n
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
