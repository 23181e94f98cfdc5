package tds

import (
	"sort"
	"strings"
)

// SectionSummaryRow totals all records sharing a section code
type SectionSummaryRow struct {
	SectionCode string `json:"section_code"`
	Totals
}

// SectionBreakdown is one section's share of a party's totals
type SectionBreakdown struct {
	SectionCode string `json:"section_code"`
	Totals
}

// PartySummaryRow totals all records of one deductor TAN
type PartySummaryRow struct {
	DeductorName string `json:"deductor_name"`
	DeductorTAN  string `json:"deductor_tan"`
	Totals
	Breakdown []SectionBreakdown `json:"breakdown"`
	// NameVariants lists later names seen for this TAN that differ from DeductorName.
	NameVariants []string `json:"name_variants,omitempty"`
}

// Section returns the party's totals for one section code
func (p PartySummaryRow) Section(code string) (Totals, bool) {
	for _, b := range p.Breakdown {
		if b.SectionCode == code {
			return b.Totals, true
		}
	}
	return Totals{}, false
}

// BreakdownString renders the per-section TDS deducted, e.g. "194C: 1200.00; 194J: 450.00"
func (p PartySummaryRow) BreakdownString() string {
	parts := make([]string, 0, len(p.Breakdown))
	for _, b := range p.Breakdown {
		parts = append(parts, b.SectionCode+": "+FormatAmount(b.TotalTDSDeducted))
	}
	return strings.Join(parts, "; ")
}

// Summary is the full reduction of one record set
type Summary struct {
	Sections []SectionSummaryRow `json:"sections"`
	Parties  []PartySummaryRow   `json:"parties"`
	Totals   Totals              `json:"totals"`
}

// Aggregate reduces records into section and party summaries. Sums are exact
// decimals; rows are ordered by section code and by TAN, and each party's
// breakdown by section code, so the output is reproducible.
func Aggregate(records []TransactionRecord) *Summary {
	sections := make(map[string]*SectionSummaryRow)
	parties := make(map[string]*partyAccumulator)
	summary := &Summary{
		Sections: make([]SectionSummaryRow, 0),
		Parties:  make([]PartySummaryRow, 0),
	}

	for _, r := range records {
		summary.Totals.Add(r)

		sec, ok := sections[r.SectionCode]
		if !ok {
			sec = &SectionSummaryRow{SectionCode: r.SectionCode}
			sections[r.SectionCode] = sec
		}
		sec.Add(r)

		party, ok := parties[r.DeductorTAN]
		if !ok {
			party = newPartyAccumulator(r)
			parties[r.DeductorTAN] = party
		}
		party.add(r)
	}

	for _, sec := range sections {
		summary.Sections = append(summary.Sections, *sec)
	}
	sort.Slice(summary.Sections, func(i, j int) bool {
		return summary.Sections[i].SectionCode < summary.Sections[j].SectionCode
	})

	for _, party := range parties {
		summary.Parties = append(summary.Parties, party.row())
	}
	sort.Slice(summary.Parties, func(i, j int) bool {
		return summary.Parties[i].DeductorTAN < summary.Parties[j].DeductorTAN
	})

	return summary
}

type partyAccumulator struct {
	name     string
	tan      string
	totals   Totals
	sections map[string]*Totals
	variants []string
}

func newPartyAccumulator(first TransactionRecord) *partyAccumulator {
	return &partyAccumulator{
		name:     first.DeductorName,
		tan:      first.DeductorTAN,
		sections: make(map[string]*Totals),
	}
}

func (p *partyAccumulator) add(r TransactionRecord) {
	p.totals.Add(r)

	t, ok := p.sections[r.SectionCode]
	if !ok {
		t = &Totals{}
		p.sections[r.SectionCode] = t
	}
	t.Add(r)

	if r.DeductorName != p.name && !containsString(p.variants, r.DeductorName) {
		p.variants = append(p.variants, r.DeductorName)
	}
}

func (p *partyAccumulator) row() PartySummaryRow {
	breakdown := make([]SectionBreakdown, 0, len(p.sections))
	for code, t := range p.sections {
		breakdown = append(breakdown, SectionBreakdown{SectionCode: code, Totals: *t})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].SectionCode < breakdown[j].SectionCode
	})

	return PartySummaryRow{
		DeductorName: p.name,
		DeductorTAN:  p.tan,
		Totals:       p.totals,
		Breakdown:    breakdown,
		NameVariants: p.variants,
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
