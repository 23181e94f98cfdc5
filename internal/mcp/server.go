package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/a3tai/tds-summarizer/internal/config"
	"github.com/a3tai/tds-summarizer/internal/descriptions"
	"github.com/a3tai/tds-summarizer/internal/export"
	"github.com/a3tai/tds-summarizer/internal/pdf"
	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
	"github.com/a3tai/tds-summarizer/internal/pdf/security"
	"github.com/a3tai/tds-summarizer/internal/tds"
)

// Server exposes the summarizer as MCP tools
type Server struct {
	config     *config.Config
	extractor  *pdf.Extractor
	summarizer *tds.Summarizer
	validator  *pdf.Validator
	search     *pdf.Search
	paths      *security.PathValidator
	tables     *export.TableRenderer
	logger     zerolog.Logger
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance. Tool paths are confined to cfg.PDFDirectory.
func NewServer(cfg *config.Config, extractor *pdf.Extractor, summarizer *tds.Summarizer,
	logger zerolog.Logger,
) (*Server, error) {
	if extractor == nil || summarizer == nil {
		return nil, fmt.Errorf("extractor and summarizer are required")
	}

	paths, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("statement directory: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		extractor:  extractor,
		summarizer: summarizer,
		validator:  pdf.NewValidator(cfg.MaxFileSize),
		search:     pdf.NewSearch(cfg.MaxFileSize),
		paths:      paths,
		tables:     export.NewTableRenderer(summarizer.Sections()),
		logger:     logger.With().Str("component", "mcp").Logger(),
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	summarizeTool := mcp.NewTool(
		"form26as_summarize",
		mcp.WithDescription(descriptions.SummarizeDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Statement PDF, absolute or relative to the statement directory"),
		),
		mcp.WithString("password",
			mcp.Description("Password of an encrypted statement"),
		),
		mcp.WithString("output",
			mcp.Description("Optional .xlsx path, inside the statement directory, to export the summaries to"),
		),
	)
	s.mcpServer.AddTool(summarizeTool, s.handleSummarize)

	extractTool := mcp.NewTool(
		"form26as_extract_text",
		mcp.WithDescription(descriptions.ExtractTextDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Statement PDF, absolute or relative to the statement directory"),
		),
		mcp.WithString("password",
			mcp.Description("Password of an encrypted statement"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractText)

	listTool := mcp.NewTool(
		"form26as_list_statements",
		mcp.WithDescription(descriptions.ListStatementsDescription),
		mcp.WithString("query",
			mcp.Description("Optional case-insensitive file name filter"),
		),
	)
	s.mcpServer.AddTool(listTool, s.handleListStatements)

	sectionsTool := mcp.NewTool(
		"form26as_sections",
		mcp.WithDescription(descriptions.SectionsDescription),
	)
	s.mcpServer.AddTool(sectionsTool, s.handleSections)
}

func (s *Server) handleSummarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	password := request.GetString("password", "")
	output := request.GetString("output", "")

	data, resolved, err := s.load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.summarizer.Summarize(ctx, data, password)
	if err != nil {
		return mcp.NewToolResultError(describeFailure(err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Form 26AS summary for %s\n", resolved)
	fmt.Fprintf(&b, "Records: %d, unparsable rows: %d, OCR pages: %d\n",
		len(report.Records()), report.Parse.Unparsable, len(report.Extraction.OCRPages()))
	fmt.Fprintf(&b, "Diagnostics: %s\n\n", report.Diagnostics.Summary())

	if report.NoRecordsFound() {
		b.WriteString("WARNING: text was extracted but no TDS rows were recognised. " +
			"Check that this is a Form 26AS statement, or inspect it with form26as_extract_text.\n")
	} else {
		b.WriteString("Section Summary\n")
		s.tables.RenderSections(&b, report.Summary)
		b.WriteString("\nParty Summary\n")
		s.tables.RenderParties(&b, report.Summary)
	}

	// An empty record set still exports a workbook with both sheets and headers only.
	if output != "" {
		target, err := s.paths.ResolveOutput(output)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !strings.EqualFold(filepath.Ext(target), ".xlsx") {
			return mcp.NewToolResultError("output must have an .xlsx extension"), nil
		}
		if err := export.SaveXLSX(target, report.Summary); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fmt.Fprintf(&b, "\nWorkbook written to %s\n", target)
		s.logger.Info().Str("run_id", report.RunID).Str("output", target).Msg("workbook exported")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleExtractText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	password := request.GetString("password", "")

	data, resolved, err := s.load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.extractor.Extract(ctx, data, password)
	if err != nil {
		return mcp.NewToolResultError(describeFailure(err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Text of %s (%d pages, OCR threshold %d characters)\n\n",
		resolved, len(result.Pages), s.extractor.Threshold())
	for _, page := range result.Pages {
		fmt.Fprintf(&b, "Page %d: %s, %d characters (direct text %d)", page.Number, page.Method,
			page.Chars, page.DirectChars)
		if page.Error != "" {
			fmt.Fprintf(&b, ", error: %s", page.Error)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nContent:\n")
	b.WriteString(result.Text)

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleListStatements(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")

	files, err := s.search.SearchDirectory(s.paths.Root(), query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(files) == 0 {
		text := fmt.Sprintf("No PDF statements found in %s", s.paths.Root())
		if query != "" {
			text += fmt.Sprintf(" (searched for: %s)", query)
		}
		return mcp.NewToolResultText(text), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d PDF statement(s) in %s\n\n", len(files), s.paths.Root())
	for i, file := range files {
		fmt.Fprintf(&b, "%d. %s\n", i+1, file.Name)
		fmt.Fprintf(&b, "   Path: %s\n", file.Path)
		fmt.Fprintf(&b, "   Size: %d bytes\n", file.Size)
		fmt.Fprintf(&b, "   Modified: %s\n", file.ModifiedTime.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSections(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	registry := s.summarizer.Sections()

	var b strings.Builder
	b.WriteString("Recognised TDS sections\n\n")
	for _, code := range registry.Codes() {
		fmt.Fprintf(&b, "%-12s %s\n", code, registry.Description(code))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// load resolves a tool path inside the statement directory and reads it
func (s *Server) load(path string) ([]byte, string, error) {
	resolved, err := s.paths.ResolveInput(path)
	if err != nil {
		return nil, "", err
	}
	data, err := s.validator.LoadFile(resolved)
	if err != nil {
		return nil, "", err
	}
	return data, resolved, nil
}

// describeFailure turns terminal pipeline errors into actionable messages
func describeFailure(err error) string {
	switch {
	case errors.Is(err, pdferrors.ErrPasswordProtected):
		return "the statement is password protected: supply the correct password " +
			"(usually PAN in lowercase followed by date of birth as DDMMYYYY)"
	case errors.Is(err, pdferrors.ErrNoExtractableText):
		return "no text could be extracted from any page, even with OCR: check the PDF quality"
	default:
		return err.Error()
	}
}

// Run serves MCP over standard I/O until the client disconnects
func (s *Server) Run(ctx context.Context) error {
	if !s.config.IsStdioMode() {
		return fmt.Errorf("unsupported mode for MCP server: %s", s.config.Mode)
	}
	return s.runStdioMode(ctx)
}

func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Info().
		Str("directory", s.paths.Root()).
		Int("ocr_threshold", s.extractor.Threshold()).
		Msg("starting MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
