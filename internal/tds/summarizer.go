package tds

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/a3tai/tds-summarizer/internal/intelligence"
	"github.com/a3tai/tds-summarizer/internal/pdf"
	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
)

// TextExtractor produces the document text blob from PDF bytes
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, password string) (*pdf.ExtractionResult, error)
}

// Report is everything one run produces for one document
type Report struct {
	RunID       string                            `json:"run_id"`
	Extraction  *pdf.ExtractionResult             `json:"extraction,omitempty"`
	Parse       *ParseResult                      `json:"parse"`
	Summary     *Summary                          `json:"summary"`
	Document    intelligence.ClassificationResult `json:"document"`
	Diagnostics *pdferrors.ErrorCollection        `json:"diagnostics"`
}

// Records returns the parsed transaction records
func (r *Report) Records() []TransactionRecord {
	return r.Parse.Records
}

// NoRecordsFound reports whether text was present but matched no row
func (r *Report) NoRecordsFound() bool {
	return len(r.Parse.Records) == 0
}

// Summarizer runs extraction, parsing and aggregation for one document at a time.
// It holds no per-document state, so one instance can serve concurrent calls.
type Summarizer struct {
	extractor  TextExtractor
	parser     *Parser
	classifier *intelligence.DocumentClassifier
	logger     zerolog.Logger
}

// NewSummarizer wires the pipeline stages
func NewSummarizer(extractor TextExtractor, parser *Parser, logger zerolog.Logger) *Summarizer {
	if parser == nil {
		parser = NewParser(nil)
	}
	return &Summarizer{
		extractor:  extractor,
		parser:     parser,
		classifier: intelligence.NewDocumentClassifier(),
		logger:     logger,
	}
}

// Summarize processes PDF bytes end to end. PasswordProtected and
// NoExtractableText abort before parsing; row problems only produce warnings.
func (s *Summarizer) Summarize(ctx context.Context, data []byte, password string) (*Report, error) {
	runID := uuid.NewString()
	log := s.logger.With().Str("run_id", runID).Logger()

	extraction, err := s.extractor.Extract(ctx, data, password)
	if err != nil {
		log.Error().Err(err).Msg("extraction failed")
		return nil, fmt.Errorf("extract text: %w", err)
	}

	report := s.summarizeText(runID, extraction.Text, log)
	report.Extraction = extraction

	for _, page := range extraction.Pages {
		if page.Error != "" {
			report.Diagnostics.Add(pdferrors.NewPDFError(pdferrors.ErrorTypePageExtraction, page.Error).
				WithPage(page.Number))
		}
	}

	return report, nil
}

// SummarizeText parses and aggregates an already extracted text blob
func (s *Summarizer) SummarizeText(text string) *Report {
	runID := uuid.NewString()
	return s.summarizeText(runID, text, s.logger.With().Str("run_id", runID).Logger())
}

func (s *Summarizer) summarizeText(runID, text string, log zerolog.Logger) *Report {
	parsed := s.parser.Parse(text)
	report := &Report{
		RunID:       runID,
		Parse:       parsed,
		Summary:     Aggregate(parsed.Records),
		Document:    s.classifier.Classify(text),
		Diagnostics: pdferrors.NewErrorCollection(""),
	}

	for _, issue := range parsed.Issues {
		report.Diagnostics.Add(issue)
		log.Debug().Int("line", issue.LineNumber).Str("reason", issue.Message).Msg("row dropped")
	}
	if parsed.Unparsable > 0 {
		log.Warn().Int("unparsable", parsed.Unparsable).Msg("some candidate rows could not be parsed")
	}

	if report.NoRecordsFound() {
		msg := "text was extracted but no TDS rows were recognised; check that this is a Form 26AS statement"
		if t := report.Document.Type; t != intelligence.DocumentTypeForm26AS && t != intelligence.DocumentTypeUnknown {
			msg = fmt.Sprintf("no TDS rows were recognised; the document looks like %s, not Form 26AS", t)
		}
		report.Diagnostics.Add(pdferrors.NewPDFError(pdferrors.ErrorTypeNoRecordsFound, msg))
		log.Warn().Str("document_type", string(report.Document.Type)).Msg("no records found")
	}

	for _, party := range report.Summary.Parties {
		if len(party.NameVariants) > 0 {
			log.Warn().
				Str("tan", party.DeductorTAN).
				Str("name", party.DeductorName).
				Strs("other_names", party.NameVariants).
				Msg("deductor name differs across rows for the same TAN; keeping the first")
		}
	}

	log.Info().
		Int("records", len(parsed.Records)).
		Int("sections", len(report.Summary.Sections)).
		Int("parties", len(report.Summary.Parties)).
		Msg("statement summarized")

	return report
}

// Sections returns the section registry used for parsing
func (s *Summarizer) Sections() *SectionRegistry {
	return s.parser.Sections()
}
