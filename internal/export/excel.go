// Package export renders statement summaries as an xlsx workbook and as
// console tables.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/tds-summarizer/internal/tds"
)

// Sheet names and column headers are consumed by downstream tooling; keep them stable.
const (
	SectionSheet = "Section Summary"
	PartySheet   = "Party Summary"

	// DefaultFilename is the export name used when none is configured
	DefaultFilename = "Form26AS_TDS_Summary.xlsx"
)

var (
	SectionHeaders = []string{"Section", "Total Gross Receipts", "Total TDS Deducted", "Total TDS Deposited"}
	PartyHeaders   = []string{"Party Name", "TAN", "Total Gross Receipts", "Total TDS Deducted", "Total TDS Deposited", "Section-wise Breakdown"}
)

// amountFormat is the built-in "#,##0.00" number format
const amountFormat = 4

// Workbook builds the two-sheet summary workbook. The caller must Close it.
func Workbook(summary *tds.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SectionSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PartySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	w := &sheetWriter{f: f}
	if err := w.init(); err != nil {
		f.Close()
		return nil, err
	}

	sectionRows := make([][]interface{}, 0, len(summary.Sections))
	for _, s := range summary.Sections {
		sectionRows = append(sectionRows, []interface{}{
			s.SectionCode,
			s.TotalGrossReceipt.InexactFloat64(),
			s.TotalTDSDeducted.InexactFloat64(),
			s.TotalTDSDeposited.InexactFloat64(),
		})
	}
	if err := w.write(SectionSheet, SectionHeaders, sectionRows, 2, 4); err != nil {
		f.Close()
		return nil, err
	}

	partyRows := make([][]interface{}, 0, len(summary.Parties))
	for _, p := range summary.Parties {
		partyRows = append(partyRows, []interface{}{
			p.DeductorName,
			p.DeductorTAN,
			p.TotalGrossReceipt.InexactFloat64(),
			p.TotalTDSDeducted.InexactFloat64(),
			p.TotalTDSDeposited.InexactFloat64(),
			p.BreakdownString(),
		})
	}
	if err := w.write(PartySheet, PartyHeaders, partyRows, 3, 5); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteXLSX writes the workbook to w
func WriteXLSX(w io.Writer, summary *tds.Summary) error {
	data, err := XLSX(summary)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// XLSX returns the workbook bytes
func XLSX(summary *tds.Summary) ([]byte, error) {
	f, err := Workbook(summary)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// SaveXLSX writes the workbook to path
func SaveXLSX(path string, summary *tds.Summary) error {
	f, err := Workbook(summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	amountStyle int
}

func (w *sheetWriter) init() error {
	var err error
	w.headerStyle, err = w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	w.amountStyle, err = w.f.NewStyle(&excelize.Style{NumFmt: amountFormat})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}
	return nil
}

// write fills a sheet with a header row and data rows; columns firstAmount
// through lastAmount (1-based) get the currency format.
func (w *sheetWriter) write(sheet string, headers []string, rows [][]interface{}, firstAmount, lastAmount int) error {
	if err := w.f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := w.f.SetCellStyle(sheet, "A1", lastCol+"1", w.headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := w.f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}

	if len(rows) > 0 {
		from, _ := excelize.CoordinatesToCellName(firstAmount, 2)
		to, _ := excelize.CoordinatesToCellName(lastAmount, len(rows)+1)
		if err := w.f.SetCellStyle(sheet, from, to, w.amountStyle); err != nil {
			return fmt.Errorf("%s amount style: %w", sheet, err)
		}
	}

	if err := w.f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("%s column width: %w", sheet, err)
	}
	return nil
}
