// Package tds parses Form 26AS statement text into TDS transaction records
// and reduces them into section-wise and deductor-wise summaries.
package tds

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// tanPattern matches a deductor identifier: four letters, a fifth letter or
// digit, four digits and a check letter. Statements print both TAN-shaped
// (ABCD12345E) and PAN-shaped (ABCDE1234F) identifiers in the deductor column.
var tanPattern = regexp.MustCompile(`^[A-Z]{4}[A-Z0-9][0-9]{4}[A-Z]$`)

// IsTAN reports whether s (already uppercase) is a deductor identifier
func IsTAN(s string) bool {
	return tanPattern.MatchString(s)
}

// TransactionRecord is one withholding row of the statement
type TransactionRecord struct {
	SectionCode  string          `json:"section_code"`
	DeductorName string          `json:"deductor_name"`
	DeductorTAN  string          `json:"deductor_tan"`
	GrossReceipt decimal.Decimal `json:"gross_receipt"`
	TDSDeducted  decimal.Decimal `json:"tds_deducted"`
	TDSDeposited decimal.Decimal `json:"tds_deposited"`
	Line         int             `json:"line"`
}

// Validate checks that every field is populated and every amount is non-negative
func (r TransactionRecord) Validate() error {
	switch {
	case r.SectionCode == "":
		return fmt.Errorf("section code is empty")
	case r.DeductorName == "":
		return fmt.Errorf("deductor name is empty")
	case !IsTAN(r.DeductorTAN):
		return fmt.Errorf("invalid deductor TAN %q", r.DeductorTAN)
	case r.GrossReceipt.IsNegative():
		return fmt.Errorf("gross receipt is negative")
	case r.TDSDeducted.IsNegative():
		return fmt.Errorf("TDS deducted is negative")
	case r.TDSDeposited.IsNegative():
		return fmt.Errorf("TDS deposited is negative")
	}
	return nil
}

// Totals are the three summed amounts of a group of records
type Totals struct {
	TotalGrossReceipt decimal.Decimal `json:"total_gross_receipt"`
	TotalTDSDeducted  decimal.Decimal `json:"total_tds_deducted"`
	TotalTDSDeposited decimal.Decimal `json:"total_tds_deposited"`
	TransactionCount  int             `json:"transaction_count"`
}

// Add accumulates a record without any rounding
func (t *Totals) Add(r TransactionRecord) {
	t.TotalGrossReceipt = t.TotalGrossReceipt.Add(r.GrossReceipt)
	t.TotalTDSDeducted = t.TotalTDSDeducted.Add(r.TDSDeducted)
	t.TotalTDSDeposited = t.TotalTDSDeposited.Add(r.TDSDeposited)
	t.TransactionCount++
}

// FormatAmount renders an amount rounded to two decimal places
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
