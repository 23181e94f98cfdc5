package export

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/a3tai/tds-summarizer/internal/tds"
)

// TableRenderer prints summaries as aligned text tables
type TableRenderer struct {
	sections     *tds.SectionRegistry
	descriptions bool
}

// NewTableRenderer creates a renderer; when registry is non-nil the section
// table gains a description column.
func NewTableRenderer(registry *tds.SectionRegistry) *TableRenderer {
	return &TableRenderer{sections: registry, descriptions: registry != nil}
}

// RenderSections writes the section summary with a grand total footer
func (r *TableRenderer) RenderSections(w io.Writer, summary *tds.Summary) {
	table := newTable(w)

	header := []string{"Section"}
	if r.descriptions {
		header = append(header, "Description")
	}
	header = append(header, "Rows", "Total Gross Receipts", "Total TDS Deducted", "Total TDS Deposited")
	table.SetHeader(header)

	for _, s := range summary.Sections {
		row := []string{s.SectionCode}
		if r.descriptions {
			row = append(row, r.sections.Description(s.SectionCode))
		}
		table.Append(append(row, amounts(s.Totals)...))
	}

	footer := []string{"Total"}
	if r.descriptions {
		footer = append(footer, "")
	}
	table.SetFooter(append(footer, amounts(summary.Totals)...))
	table.Render()
}

// RenderParties writes the party summary with a grand total footer
func (r *TableRenderer) RenderParties(w io.Writer, summary *tds.Summary) {
	table := newTable(w)
	table.SetHeader([]string{"Party Name", "TAN", "Rows", "Total Gross Receipts", "Total TDS Deducted", "Total TDS Deposited", "Section-wise Breakdown"})

	for _, p := range summary.Parties {
		row := append([]string{p.DeductorName, p.DeductorTAN}, amounts(p.Totals)...)
		table.Append(append(row, p.BreakdownString()))
	}

	footer := append([]string{"Total", ""}, amounts(summary.Totals)...)
	table.SetFooter(append(footer, ""))
	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func amounts(t tds.Totals) []string {
	return []string{
		strconv.Itoa(t.TransactionCount),
		tds.FormatAmount(t.TotalGrossReceipt),
		tds.FormatAmount(t.TotalTDSDeducted),
		tds.FormatAmount(t.TotalTDSDeposited),
	}
}
