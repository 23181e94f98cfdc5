package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/tds-summarizer/internal/config"
	"github.com/a3tai/tds-summarizer/internal/export"
	"github.com/a3tai/tds-summarizer/internal/pdf"
	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
	"github.com/a3tai/tds-summarizer/internal/tds"
)

const statementPage = "194C  ACME CORP  ABCDE1234F  12000.00  1200.00  1100.00\n" +
	"194J  ACME CORP  ABCDE1234F  4500.00  450.00  450.00\n"

type stubDocument struct {
	pages []string
}

func (d *stubDocument) NumPages() int { return len(d.pages) }
func (d *stubDocument) PageText(n int) (string, error) { return d.pages[n-1], nil }
func (d *stubDocument) PageImage(int) ([]byte, error) { return nil, os.ErrNotExist }
func (d *stubDocument) Close() error { return nil }

// stubOpener serves the same pages for any file, requiring password when set
type stubOpener struct {
	pages    []string
	password string
}

func (o *stubOpener) Open(_ []byte, password string) (pdf.Document, error) {
	if o.password != "" && password != o.password {
		return nil, pdferrors.PasswordProtected(nil)
	}
	return &stubDocument{pages: o.pages}, nil
}

func newTestServer(t *testing.T, opener pdf.Opener) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "26as.pdf"), []byte("%PDF-1.7\n"), 0o600))

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.PDFDirectory = dir
	cfg.ServerName = "test-server"

	extractor := pdf.NewExtractor(opener)
	summarizer := tds.NewSummarizer(extractor, nil, zerolog.Nop())
	s, err := NewServer(cfg, extractor, summarizer, zerolog.Nop())
	require.NoError(t, err)
	return s, dir
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func TestNewServer(t *testing.T) {
	s, _ := newTestServer(t, &stubOpener{})
	assert.NotNil(t, s.mcpServer)

	cfg := config.DefaultConfig()
	cfg.PDFDirectory = filepath.Join(t.TempDir(), "missing")
	extractor := pdf.NewExtractor(&stubOpener{})
	_, err := NewServer(cfg, extractor, tds.NewSummarizer(extractor, nil, zerolog.Nop()), zerolog.Nop())
	assert.Error(t, err)

	_, err = NewServer(config.DefaultConfig(), nil, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestServer_HandleSummarize(t *testing.T) {
	s, dir := newTestServer(t, &stubOpener{pages: []string{statementPage}})

	result, err := s.handleSummarize(context.Background(), callRequest(map[string]interface{}{
		"path":   "26as.pdf",
		"output": "summary.xlsx",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Records: 2")
	assert.Contains(t, text, "Section Summary")
	assert.Contains(t, text, "194C: 1200.00; 194J: 450.00")
	assert.Contains(t, text, "Workbook written to")

	f, err := excelize.OpenFile(filepath.Join(dir, "summary.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{export.SectionSheet, export.PartySheet}, f.GetSheetList())
}

func TestServer_HandleSummarize_Errors(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "other.pdf")
	require.NoError(t, os.WriteFile(outside, []byte("%PDF-1.7\n"), 0o600))

	tests := []struct {
		name    string
		opener  *stubOpener
		args    map[string]interface{}
		wantMsg string
	}{
		{
			name:    "missing path",
			opener:  &stubOpener{},
			args:    map[string]interface{}{},
			wantMsg: "path",
		},
		{
			name:    "outside directory",
			opener:  &stubOpener{pages: []string{statementPage}},
			args:    map[string]interface{}{"path": outside},
			wantMsg: "outside configured directory",
		},
		{
			name:    "wrong password",
			opener:  &stubOpener{pages: []string{statementPage}, password: "secret"},
			args:    map[string]interface{}{"path": "26as.pdf", "password": "nope"},
			wantMsg: "password protected",
		},
		{
			name:    "no extractable text",
			opener:  &stubOpener{pages: []string{"  ", ""}},
			args:    map[string]interface{}{"path": "26as.pdf"},
			wantMsg: "check the PDF quality",
		},
		{
			name:    "output must be xlsx",
			opener:  &stubOpener{pages: []string{statementPage}},
			args:    map[string]interface{}{"path": "26as.pdf", "output": "summary.csv"},
			wantMsg: ".xlsx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.opener)
			result, err := s.handleSummarize(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.wantMsg)
		})
	}
}

func TestServer_HandleSummarize_PasswordAccepted(t *testing.T) {
	s, _ := newTestServer(t, &stubOpener{pages: []string{statementPage}, password: "secret"})

	result, err := s.handleSummarize(context.Background(), callRequest(map[string]interface{}{
		"path":     "26as.pdf",
		"password": "secret",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.NotContains(t, extractTextFromResult(result), "Workbook written")
}

func TestServer_HandleSummarize_NoRecords(t *testing.T) {
	s, dir := newTestServer(t, &stubOpener{pages: []string{
		"This page has plenty of text but nothing resembling a deduction row at all.",
	}})

	result, err := s.handleSummarize(context.Background(), callRequest(map[string]interface{}{
		"path":   "26as.pdf",
		"output": "empty.xlsx",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	text := extractTextFromResult(result)
	assert.Contains(t, text, "no TDS rows were recognised")
	assert.NotContains(t, text, "Section Summary")
	assert.Contains(t, text, "Diagnostics: Found 0 error(s) and 1 warning(s)")
	assert.Contains(t, text, "Workbook written to")

	f, err := excelize.OpenFile(filepath.Join(dir, "empty.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{export.SectionSheet, export.PartySheet}, f.GetSheetList())

	rows, err := f.GetRows(export.PartySheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, export.PartyHeaders, rows[0])
}

func TestServer_HandleExtractText(t *testing.T) {
	s, _ := newTestServer(t, &stubOpener{pages: []string{statementPage, "short"}})

	result, err := s.handleExtractText(context.Background(), callRequest(map[string]interface{}{"path": "26as.pdf"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "2 pages")
	assert.Contains(t, text, "Page 1: direct")
	// no OCR engine configured, so the short page is emptied
	assert.Contains(t, text, "Page 2: ocr, 0 characters")
	assert.Contains(t, text, "ACME CORP")
}

func TestServer_HandleListStatements(t *testing.T) {
	s, dir := newTestServer(t, &stubOpener{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "26as_fy2223.pdf"), []byte("%PDF-"), 0o600))

	result, err := s.handleListStatements(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "Found 2 PDF statement(s)")

	result, err = s.handleListStatements(context.Background(), callRequest(map[string]interface{}{"query": "zzz"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "No PDF statements found")
}

func TestServer_HandleSections(t *testing.T) {
	s, _ := newTestServer(t, &stubOpener{})

	result, err := s.handleSections(context.Background(), callRequest(nil))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "194C")
	assert.Contains(t, text, "Payments to contractors and sub-contractors")
}

func TestServer_RunRejectsCLIMode(t *testing.T) {
	s, _ := newTestServer(t, &stubOpener{})
	s.config.Mode = config.ModeCLI
	assert.ErrorContains(t, s.Run(context.Background()), "unsupported mode")
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}
