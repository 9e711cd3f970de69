package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/config"
	"github.com/Cortexa-LLC/mcp/src/pdfsheet/converter"
	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

// mockConverter records calls and returns canned results.
type mockConverter struct {
	convertReq  converter.Request
	previewPath string
	previewOpts *rows.Options
	previewMax  int
	workbook    string
	err         error
}

func (m *mockConverter) ConvertFile(_ context.Context, req converter.Request) (*converter.Result, error) {
	m.convertReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &converter.Result{Output: "/tmp/out.xlsx", Pages: 2, Rows: 7}, nil
}

func (m *mockConverter) Preview(_ context.Context, path string, opts *rows.Options, maxRows int) (string, error) {
	m.previewPath, m.previewOpts, m.previewMax = path, opts, maxRows
	if m.err != nil {
		return "", m.err
	}
	return "| a | b |\n", nil
}

func (m *mockConverter) PreviewWorkbook(_ context.Context, path string) (string, error) {
	m.workbook = path
	return "## Sheet1\n", m.err
}

func (m *mockConverter) GetConversionInfo(context.Context) string {
	return "# info"
}

var defaultOpts = rows.Options{Mode: rows.ModeTolerance, Tolerance: 2}

func callReq(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

// ---- MCP tool handlers -----------------------------------------------------

func TestConvertHandler_RequiresPath(t *testing.T) {
	res, err := convertHandler(&mockConverter{}, defaultOpts)(context.Background(), callReq(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "path is required")
}

func TestConvertHandler_PassesArguments(t *testing.T) {
	m := &mockConverter{}
	res, err := convertHandler(m, defaultOpts)(context.Background(), callReq(map[string]interface{}{
		argPath:   "/docs/report.pdf",
		argOutput: "/docs/report.csv",
		argSheet:  "Q3",
		argMode:   "exact",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Wrote /tmp/out.xlsx (2 pages, 7 rows)", resultText(t, res))

	assert.Equal(t, "/docs/report.pdf", m.convertReq.Input)
	assert.Equal(t, "/docs/report.csv", m.convertReq.Output)
	assert.Equal(t, "Q3", m.convertReq.SheetName)
	require.NotNil(t, m.convertReq.Rows)
	assert.Equal(t, rows.Options{Mode: rows.ModeExact, Tolerance: 2}, *m.convertReq.Rows)
}

func TestConvertHandler_NoRowArgsUsesConfig(t *testing.T) {
	m := &mockConverter{}
	_, err := convertHandler(m, defaultOpts)(context.Background(), callReq(map[string]interface{}{
		argPath: "/docs/report.pdf",
	}))
	require.NoError(t, err)
	assert.Nil(t, m.convertReq.Rows)
}

func TestConvertHandler_ConverterErrorIsToolError(t *testing.T) {
	m := &mockConverter{err: converter.ErrProcessingFailed}
	res, err := convertHandler(m, defaultOpts)(context.Background(), callReq(map[string]interface{}{
		argPath: "/docs/report.pdf",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "failed to process PDF")
}

func TestPreviewHandler_Defaults(t *testing.T) {
	m := &mockConverter{}
	res, err := previewHandler(m, defaultOpts)(context.Background(), callReq(map[string]interface{}{
		argPath: "/docs/report.pdf",
	}))
	require.NoError(t, err)
	assert.Equal(t, "| a | b |\n", resultText(t, res))
	assert.Equal(t, defaultPreviewRows, m.previewMax)
	assert.Nil(t, m.previewOpts)
}

func TestPreviewHandler_Overrides(t *testing.T) {
	m := &mockConverter{}
	_, err := previewHandler(m, defaultOpts)(context.Background(), callReq(map[string]interface{}{
		argPath:      "/docs/report.pdf",
		argMaxRows:   float64(0),
		argTolerance: float64(4.5),
	}))
	require.NoError(t, err)
	assert.Equal(t, 0, m.previewMax)
	require.NotNil(t, m.previewOpts)
	assert.Equal(t, rows.Options{Mode: rows.ModeTolerance, Tolerance: 4.5}, *m.previewOpts)
}

func TestRowOptionsArg_Invalid(t *testing.T) {
	_, err := rowOptionsArg(callReq(map[string]interface{}{argMode: "fuzzy"}), defaultOpts)
	assert.Error(t, err)

	_, err = rowOptionsArg(callReq(map[string]interface{}{argTolerance: float64(-1)}), defaultOpts)
	assert.Error(t, err)
}

// ---- CLI -------------------------------------------------------------------

func runCLI(t *testing.T, m *mockConverter, args ...string) (string, error) {
	t.Helper()
	a := &app{cfg: config.Default(), log: zerolog.Nop(), conv: m}
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Convert(t *testing.T) {
	m := &mockConverter{}
	out, err := runCLI(t, m, "convert", "report.pdf", "-o", "report.csv", "--mode", "exact")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote /tmp/out.xlsx (2 pages, 7 rows)")
	assert.Equal(t, "report.pdf", m.convertReq.Input)
	assert.Equal(t, "report.csv", m.convertReq.Output)
	require.NotNil(t, m.convertReq.Rows)
	assert.Equal(t, rows.ModeExact, m.convertReq.Rows.Mode)
}

func TestCLI_ConvertWithoutRowFlags(t *testing.T) {
	m := &mockConverter{}
	_, err := runCLI(t, m, "convert", "report.pdf")
	require.NoError(t, err)
	assert.Nil(t, m.convertReq.Rows)
}

func TestCLI_ConvertRequiresOneArg(t *testing.T) {
	_, err := runCLI(t, &mockConverter{}, "convert")
	assert.Error(t, err)
}

func TestCLI_ConvertBadMode(t *testing.T) {
	_, err := runCLI(t, &mockConverter{}, "convert", "report.pdf", "--mode", "fuzzy")
	assert.Error(t, err)
}

func TestCLI_ConvertFailure(t *testing.T) {
	m := &mockConverter{err: errors.New("boom")}
	_, err := runCLI(t, m, "convert", "report.pdf")
	assert.EqualError(t, err, "boom")
}

func TestCLI_PreviewPDF(t *testing.T) {
	m := &mockConverter{}
	out, err := runCLI(t, m, "preview", "report.pdf", "-n", "5", "--tolerance", "3")
	require.NoError(t, err)
	assert.Equal(t, "| a | b |\n", out)
	assert.Equal(t, 5, m.previewMax)
	require.NotNil(t, m.previewOpts)
	assert.Equal(t, 3.0, m.previewOpts.Tolerance)
}

func TestCLI_PreviewWorkbook(t *testing.T) {
	m := &mockConverter{}
	out, err := runCLI(t, m, "preview", "Book.XLSX")
	require.NoError(t, err)
	assert.Equal(t, "## Sheet1\n", out)
	assert.Equal(t, "Book.XLSX", m.workbook)
}

func TestCLI_Info(t *testing.T) {
	out, err := runCLI(t, &mockConverter{}, "info")
	require.NoError(t, err)
	assert.Equal(t, "# info\n", out)
}
