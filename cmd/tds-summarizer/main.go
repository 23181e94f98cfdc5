package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/a3tai/tds-summarizer/internal/config"
	"github.com/a3tai/tds-summarizer/internal/export"
	"github.com/a3tai/tds-summarizer/internal/logger"
	"github.com/a3tai/tds-summarizer/internal/mcp"
	"github.com/a3tai/tds-summarizer/internal/pdf"
	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
	"github.com/a3tai/tds-summarizer/internal/pdf/ocr"
	"github.com/a3tai/tds-summarizer/internal/tds"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Process exit codes
const (
	exitOK                = 0
	exitFailure           = 1
	exitUsage             = 2
	exitPasswordProtected = 3
	exitNoExtractableText = 4
)

// previewRunes is how much raw text is shown when no rows were recognised
const previewRunes = 3000

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(exitUsage)
	}

	if version != "dev" {
		cfg.Version = version
	}

	// stdout carries the MCP stream or the tables, so logs always go to stderr
	log := logger.New(cfg.LogLevel)
	log.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	extractor := newExtractor(cfg, log)
	summarizer := tds.NewSummarizer(extractor, nil, log)

	var code int
	if cfg.IsStdioMode() {
		code = runStdioMode(ctx, cfg, extractor, summarizer)
	} else {
		code = runCLIMode(ctx, cfg, summarizer, os.Stdout)
	}
	stop()
	os.Exit(code)
}

func newExtractor(cfg *config.Config, log zerolog.Logger) *pdf.Extractor {
	engine := ocr.NewTesseractEngine(ocr.WithLanguages(cfg.OCRLanguages...))
	return pdf.NewExtractor(pdf.NewReader(),
		pdf.WithOCREngine(engine),
		pdf.WithOCRThreshold(cfg.OCRThreshold),
		pdf.WithWorkers(cfg.Workers),
		pdf.WithLogger(log),
	)
}

// runStdioMode serves MCP tools; the parent process controls our lifecycle
func runStdioMode(ctx context.Context, cfg *config.Config, extractor *pdf.Extractor, summarizer *tds.Summarizer) int {
	log := logger.FromContext(ctx)

	server, err := mcp.NewServer(cfg, extractor, summarizer, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to create MCP server")
		return exitUsage
	}
	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
		return exitFailure
	}
	return exitOK
}

// runCLIMode summarizes cfg.File, prints both tables to out and writes the workbook
func runCLIMode(ctx context.Context, cfg *config.Config, summarizer *tds.Summarizer, out io.Writer) int {
	log := logger.FromContext(ctx).With().Str("file", cfg.File).Logger()

	data, err := pdf.NewValidator(cfg.MaxFileSize).LoadFile(cfg.File)
	if err != nil {
		log.Error().Err(err).Msg("cannot read statement")
		return exitUsage
	}

	report, err := summarizer.Summarize(ctx, data, cfg.Password)
	if err != nil {
		log.Error().Err(err).Msg(failureHint(err))
		return exitCode(err)
	}

	if ocrPages := report.Extraction.OCRPages(); len(ocrPages) > 0 {
		fmt.Fprintf(out, "OCR was used for page(s) %v\n", ocrPages)
	}

	if report.NoRecordsFound() {
		fmt.Fprintln(out, "No TDS rows were recognised. Check that this is a Form 26AS statement.")
		fmt.Fprintln(out, "\nExtracted text preview:")
		fmt.Fprintln(out, report.Extraction.Preview(previewRunes))
	} else {
		tables := export.NewTableRenderer(summarizer.Sections())
		fmt.Fprintln(out, "Section Summary")
		tables.RenderSections(out, report.Summary)
		fmt.Fprintln(out, "\nParty Summary")
		tables.RenderParties(out, report.Summary)
	}

	if report.Parse.Unparsable > 0 {
		fmt.Fprintf(out, "\n%d row(s) could not be parsed and were skipped.\n", report.Parse.Unparsable)
	}
	fmt.Fprintf(out, "Diagnostics: %s\n", report.Diagnostics.Summary())

	if cfg.Output != "" {
		if err := export.SaveXLSX(cfg.Output, report.Summary); err != nil {
			log.Error().Err(err).Msg("export failed")
			return exitFailure
		}
		fmt.Fprintf(out, "\nSummary workbook written to %s\n", cfg.Output)
	}

	return exitOK
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pdferrors.ErrPasswordProtected):
		return exitPasswordProtected
	case errors.Is(err, pdferrors.ErrNoExtractableText):
		return exitNoExtractableText
	default:
		return exitFailure
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, pdferrors.ErrPasswordProtected):
		return "statement is password protected; pass --password (usually PAN in lowercase + DOB as DDMMYYYY)"
	case errors.Is(err, pdferrors.ErrNoExtractableText):
		return "no text could be extracted, even with OCR; check the PDF quality"
	default:
		return "summarization failed"
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "TDS Summarizer\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
