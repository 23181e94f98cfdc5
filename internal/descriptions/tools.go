package descriptions

// Tool descriptions shown to MCP clients

const (
	SummarizeDescription = `Summarize a Form 26AS annual tax statement into TDS totals per section and per deductor.

**When to use:** You have a Form 26AS PDF (downloaded from TRACES or the income tax portal) and need the
tax deducted at source grouped by section code (194C, 194J, ...) and by deductor TAN.

**What it does:** Extracts text from every page, falling back to OCR for scanned pages, recognises the
TDS rows, and returns two tables: Section Summary and Party Summary with a section-wise breakdown.
When "output" is given, the same two tables are written to an .xlsx workbook.

**Examples:**
• "Summarize 26AS_FY2324.pdf"
• "Summarize statements/26as.pdf with password abcde1234f01011990 and save to summary.xlsx"

**Notes:** Statements from the portal are usually encrypted with the PAN in lowercase followed by the
date of birth (DDMMYYYY). Amounts are summed exactly and shown with two decimals.`

	ExtractTextDescription = `Extract the raw text of a Form 26AS PDF with a per-page trace.

**When to use:** form26as_summarize reported no records, or you want to see how a page was read.

**What it does:** Returns, for each page, whether direct text or OCR was used and how many characters
were found, followed by the text itself.`

	ListStatementsDescription = `List PDF statements available in the configured directory.

**When to use:** Before summarizing, to find the exact path of a statement.

**Examples:**
• "Which 26AS files are available?"
• "Find statements matching FY2324"`

	SectionsDescription = `List the TDS section codes the summarizer recognises, with descriptions.`
)
