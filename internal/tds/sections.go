package tds

import (
	"sort"
	"strings"
	"sync"
)

// SectionRegistry is the set of statutory section codes the parser accepts
// as a row's section column. Codes are stored uppercase.
type SectionRegistry struct {
	mu       sync.RWMutex
	sections map[string]string
}

// defaultSections lists the TDS sections that appear in Part-I of Form 26AS
var defaultSections = map[string]string{
	"192":         "Salary",
	"192A":        "TDS on PF withdrawal",
	"193":         "Interest on Securities",
	"194":         "Dividends",
	"194A":        "Interest other than Interest on securities",
	"194B":        "Winning from lottery or crossword puzzle",
	"194BA":       "Winnings from online games",
	"194BB":       "Winning from horse race",
	"194C":        "Payments to contractors and sub-contractors",
	"194D":        "Insurance commission",
	"194DA":       "Payment in respect of life insurance policy",
	"194E":        "Payments to non-resident sportsmen or sports associations",
	"194EE":       "Payments in respect of deposits under National Savings Scheme",
	"194F":        "Payments on account of repurchase of units by Mutual Fund",
	"194G":        "Commission, price, etc. on sale of lottery tickets",
	"194H":        "Commission or brokerage",
	"194I":        "Rent",
	"194I(A)":     "Rent on hiring of plant and machinery",
	"194I(B)":     "Rent on other than plant and machinery",
	"194IA":       "TDS on Sale of immovable property",
	"194IB":       "Payment of rent by certain individuals or Hindu undivided family",
	"194IC":       "Payment under specified agreement",
	"194J":        "Fees for professional or technical services",
	"194J(A)":     "Fees for technical services",
	"194J(B)":     "Fees for professional services or royalty",
	"194JA":       "Fees for technical services",
	"194JB":       "Fees for professional services or royalty",
	"194K":        "Income payable to a resident in respect of units",
	"194LA":       "Payment of compensation on acquisition of immovable property",
	"194LB":       "Income by way of Interest from Infrastructure Debt fund",
	"194LC":       "Income from infrastructure debt fund",
	"194LBA":      "Certain income from units of a business trust",
	"194LBB":      "Income in respect of units of investment fund",
	"194LBC":      "Income in respect of investment in securitization trust",
	"194LD":       "TDS on interest on bonds / government securities",
	"194M":        "Payment of certain sums by certain individuals or HUF",
	"194N":        "Payment of certain amounts in cash",
	"194O":        "Payment of certain sums by e-commerce operator",
	"194P":        "Deduction of tax in case of specified senior citizen",
	"194Q":        "Deduction of tax on payment for purchase of goods",
	"194R":        "Benefits or perquisites of business or profession",
	"194S":        "Payment for transfer of virtual digital asset",
	"195":         "Other sums payable to a non-resident",
	"196A":        "Income in respect of units of non-residents",
	"196B":        "Payments in respect of units to an offshore fund",
	"196C":        "Income from foreign currency bonds or shares",
	"196D":        "Income of foreign institutional investors from securities",
	"196DA":       "Income of specified fund from securities",
	"194LC(2)(I)": "Interest on borrowings in foreign currency",
	"206CA":       "Collection at source from alcoholic liquor for human consumption",
	"206CB":       "Collection at source from timber obtained under forest lease",
	"206CC":       "Collection at source from timber obtained by any mode other than a forest lease",
	"206CD":       "Collection at source from any other forest produce (not being tendu leaves)",
	"206CE":       "Collection at source from scrap",
	"206CF":       "Collection at source from contractors or licensee or lease relating to parking lots",
	"206CG":       "Collection at source from contractors or licensee or lease relating to toll plaza",
	"206CH":       "Collection at source from contractors or licensee or lease relating to mine or quarry",
	"206CI":       "Collection at source from tendu leaves",
	"206CJ":       "Collection at source on sale of certain minerals",
	"206CK":       "Collection at source on cash sale of bullion and jewellery",
	"206CL":       "Collection at source on sale of motor vehicle",
	"206CM":       "Collection at source on sale in cash of any goods (other than bullion/jewelry)",
	"206CN":       "Collection at source on providing of any services (other than Ch-XVII-B)",
	"206CO":       "Collection at source on remittance under LRS for purchase of overseas tour program package",
	"206CP":       "Collection at source on remittance under LRS for educational loan taken from financial institution",
	"206CQ":       "Collection at source on remittance under LRS for purposes other than education or overseas tour",
	"206CR":       "Collection at source on sale of goods",
}

// OCR commonly reads the letter I in a section code as the digit 1.
var ocrSectionFixes = strings.NewReplacer(
	"1941(A)", "194I(A)",
	"1941(B)", "194I(B)",
)

// NewSectionRegistry returns a registry preloaded with the standard sections
func NewSectionRegistry() *SectionRegistry {
	r := &SectionRegistry{sections: make(map[string]string, len(defaultSections))}
	for code, desc := range defaultSections {
		r.sections[code] = desc
	}
	return r
}

// Register adds or replaces a recognised section code
func (r *SectionRegistry) Register(code, description string) {
	code = NormalizeSection(code)
	if code == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections[code] = description
}

// Lookup normalises a candidate token and reports whether it is a recognised section
func (r *SectionRegistry) Lookup(token string) (string, bool) {
	code := NormalizeSection(token)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sections[code]
	return code, ok
}

// Description returns the human description of a section, or "" when unknown
func (r *SectionRegistry) Description(code string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sections[NormalizeSection(code)]
}

// Codes returns all registered codes in ascending order
func (r *SectionRegistry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.sections))
	for code := range r.sections {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeSection uppercases a section token, strips surrounding
// punctuation and repairs common OCR misreads.
func NormalizeSection(token string) string {
	code := strings.ToUpper(strings.TrimSpace(token))
	code = strings.TrimRight(code, ".,;:")
	return ocrSectionFixes.Replace(code)
}
