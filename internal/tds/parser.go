package tds

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
)

// amountPattern accepts unsigned currency figures with at most two decimal
// places, either ungrouped or grouped in Western (1,000,000) or Indian
// (10,00,000) style.
var amountPattern = regexp.MustCompile(`^([0-9]{1,3}(,[0-9]{2,3})*|[0-9]+)(\.[0-9]{1,2})?$`)

// ParseResult holds the records found in a text blob and the diagnostics for
// candidate rows that could not be turned into records.
type ParseResult struct {
	Records        []TransactionRecord   `json:"records"`
	CandidateLines int                   `json:"candidate_lines"` // lines carrying a TAN-shaped token
	Unparsable     int                   `json:"unparsable"`      // candidate lines that were dropped
	Issues         []*pdferrors.PDFError `json:"issues,omitempty"`
}

// Parser recognises statement rows of the form
//
//	<section> <deductor name> <TAN> ... <gross receipt> <tds deducted> <tds deposited>
//
// anchored on the TAN token, which survives both digital extraction and OCR.
type Parser struct {
	sections *SectionRegistry
}

// NewParser creates a parser accepting the sections in registry
func NewParser(registry *SectionRegistry) *Parser {
	if registry == nil {
		registry = NewSectionRegistry()
	}
	return &Parser{sections: registry}
}

// Sections returns the registry the parser matches against
func (p *Parser) Sections() *SectionRegistry {
	return p.sections
}

// Parse scans text line by line. Lines without a TAN token are ignored;
// lines with one either yield a record or increment Unparsable.
func (p *Parser) Parse(text string) *ParseResult {
	result := &ParseResult{Records: make([]TransactionRecord, 0)}

	for i, line := range strings.Split(text, "\n") {
		lineNum := i + 1
		tokens := strings.Fields(line)
		tanIdx := findTAN(tokens)
		if tanIdx < 0 {
			continue
		}
		result.CandidateLines++

		record, err := p.parseRow(tokens, tanIdx)
		if err != nil {
			result.Unparsable++
			result.Issues = append(result.Issues,
				pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeUnparsableRow, err.Error(),
					strings.TrimSpace(line)).WithLine(lineNum))
			continue
		}
		record.Line = lineNum
		result.Records = append(result.Records, record)
	}

	return result
}

func findTAN(tokens []string) int {
	for i, tok := range tokens {
		if IsTAN(strings.ToUpper(trimToken(tok))) {
			return i
		}
	}
	return -1
}

func (p *Parser) parseRow(tokens []string, tanIdx int) (TransactionRecord, error) {
	secIdx := -1
	var section string
	for i := tanIdx - 1; i >= 0; i-- {
		if code, ok := p.sections.Lookup(tokens[i]); ok {
			secIdx, section = i, code
			break
		}
	}
	if secIdx < 0 {
		return TransactionRecord{}, fmt.Errorf("no recognised section code before TAN")
	}

	name := strings.Join(tokens[secIdx+1:tanIdx], " ")
	if name == "" {
		return TransactionRecord{}, fmt.Errorf("deductor name is empty")
	}

	trailing := tokens[tanIdx+1:]
	if len(trailing) < 3 {
		return TransactionRecord{}, fmt.Errorf("expected 3 amounts after TAN, found %d tokens", len(trailing))
	}

	amounts := make([]decimal.Decimal, 3)
	for i, tok := range trailing[len(trailing)-3:] {
		amount, err := ParseAmount(tok)
		if err != nil {
			return TransactionRecord{}, err
		}
		amounts[i] = amount
	}

	record := TransactionRecord{
		SectionCode:  section,
		DeductorName: name,
		DeductorTAN:  strings.ToUpper(trimToken(tokens[tanIdx])),
		GrossReceipt: amounts[0],
		TDSDeducted:  amounts[1],
		TDSDeposited: amounts[2],
	}
	return record, record.Validate()
}

// ParseAmount parses a currency token such as "1,00,000.50" or "₹250".
// Signs, letters and more than two decimals are rejected.
func ParseAmount(token string) (decimal.Decimal, error) {
	s := strings.TrimPrefix(strings.TrimSpace(token), "₹")
	if !amountPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", token)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", token, err)
	}
	return d, nil
}

func trimToken(tok string) string {
	return strings.Trim(tok, ".,;:|()[]")
}
