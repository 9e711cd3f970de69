package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/converter"
	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

// MCP tool parameter key constants: shared between schema definitions and
// argument extraction so a typo in one place is caught by the other.
const (
	argPath      = "path"
	argOutput    = "output"
	argMode      = "mode"
	argTolerance = "tolerance"
	argSheet     = "sheet"
	argMaxRows   = "max_rows"
)

const defaultPreviewRows = 20

// registerTools binds MCP tool definitions to their handlers.
// It accepts the FileConverter interface so tests can inject a mock.
// defaults fills in whichever of mode and tolerance a call leaves out.
func registerTools(s *server.MCPServer, conv converter.FileConverter, defaults rows.Options) {
	rowParams := []mcp.ToolOption{
		mcp.WithString(argMode,
			mcp.Description("Row grouping: 'tolerance' (y within tolerance of a row's first fragment) or 'exact' (y rounded to an integer)"),
			mcp.Enum("tolerance", "exact"),
		),
		mcp.WithNumber(argTolerance,
			mcp.Description("Maximum vertical distance in points for two fragments to share a row (tolerance mode)"),
		),
	}

	// convert_pdf_to_sheet: PDF text layer to XLSX/CSV/Markdown
	s.AddTool(
		mcp.NewTool("convert_pdf_to_sheet", append([]mcp.ToolOption{
			mcp.WithDescription("Extract the text of a PDF, rebuild table rows from text positions and write them to a spreadsheet. "+
				"Output format follows the output extension: .xlsx (default), .csv or .md."),
			mcp.WithString(argPath,
				mcp.Required(),
				mcp.Description("Absolute path of the PDF file"),
			),
			mcp.WithString(argOutput,
				mcp.Description("Output path; defaults to <stem>_extracted.xlsx next to the PDF"),
			),
			mcp.WithString(argSheet,
				mcp.Description("Worksheet name for .xlsx output"),
			),
		}, rowParams...)...),
		convertHandler(conv, defaults),
	)

	// preview_pdf_rows: reconstructed rows as a Markdown table
	s.AddTool(
		mcp.NewTool("preview_pdf_rows", append([]mcp.ToolOption{
			mcp.WithDescription("Show the rows that would be written for a PDF as a Markdown table, without writing a file."),
			mcp.WithString(argPath,
				mcp.Required(),
				mcp.Description("Absolute path of the PDF file"),
			),
			mcp.WithNumber(argMaxRows,
				mcp.Description(fmt.Sprintf("Maximum rows to show (default %d, 0 for all)", defaultPreviewRows)),
			),
		}, rowParams...)...),
		previewHandler(conv, defaults),
	)

	// preview_workbook: existing workbook as Markdown
	s.AddTool(
		mcp.NewTool("preview_workbook",
			mcp.WithDescription("Render every worksheet of an .xlsx workbook as Markdown tables."),
			mcp.WithString(argPath,
				mcp.Required(),
				mcp.Description("Absolute path of the .xlsx file"),
			),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path := stringArg(req, argPath)
			if path == "" {
				return mcp.NewToolResultError(argPath + " is required"), nil
			}
			out, err := conv.PreviewWorkbook(ctx, path)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(out), nil
		},
	)

	// get_conversion_info: list formats and configuration
	s.AddTool(
		mcp.NewTool("get_conversion_info",
			mcp.WithDescription("Return supported output formats and the active configuration."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(conv.GetConversionInfo(ctx)), nil
		},
	)
}

func convertHandler(conv converter.FileConverter, defaults rows.Options) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := stringArg(req, argPath)
		if path == "" {
			return mcp.NewToolResultError(argPath + " is required"), nil
		}
		opts, err := rowOptionsArg(req, defaults)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := conv.ConvertFile(ctx, converter.Request{
			Input:     path,
			Output:    stringArg(req, argOutput),
			Rows:      opts,
			SheetName: stringArg(req, argSheet),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Wrote %s (%d pages, %d rows)", res.Output, res.Pages, res.Rows)), nil
	}
}

func previewHandler(conv converter.FileConverter, defaults rows.Options) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := stringArg(req, argPath)
		if path == "" {
			return mcp.NewToolResultError(argPath + " is required"), nil
		}
		opts, err := rowOptionsArg(req, defaults)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		maxRows := defaultPreviewRows
		if n, ok := numberArg(req, argMaxRows); ok {
			maxRows = int(n)
		}
		out, err := conv.Preview(ctx, path, opts, maxRows)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if strings.TrimSpace(out) == "" {
			out = "No text found in " + path
		}
		return mcp.NewToolResultText(out), nil
	}
}

// rowOptionsArg returns nil when the call sets neither mode nor tolerance,
// so the converter's configured options apply.
func rowOptionsArg(req mcp.CallToolRequest, defaults rows.Options) (*rows.Options, error) {
	mode := stringArg(req, argMode)
	tol, hasTol := numberArg(req, argTolerance)
	if mode == "" && !hasTol {
		return nil, nil
	}
	opts := defaults
	if mode != "" {
		m, err := rows.ParseMode(mode)
		if err != nil {
			return nil, err
		}
		opts.Mode = m
	}
	if hasTol {
		if tol < 0 {
			return nil, fmt.Errorf("%s must be >= 0, got %g", argTolerance, tol)
		}
		opts.Tolerance = tol
	}
	return &opts, nil
}

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.Params.Arguments[key].(string)
	return strings.TrimSpace(v)
}

func numberArg(req mcp.CallToolRequest, key string) (float64, bool) {
	v, ok := req.Params.Arguments[key].(float64)
	return v, ok
}
