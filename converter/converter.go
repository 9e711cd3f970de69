package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/config"
	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

// ErrProcessingFailed marks every failure of a conversion, whatever the
// underlying cause. Match it with errors.Is.
var ErrProcessingFailed = errors.New("failed to process PDF")

// FileConverter is the surface the MCP tools and CLI commands call.
type FileConverter interface {
	ConvertFile(ctx context.Context, req Request) (*Result, error)
	Preview(ctx context.Context, filePath string, opts *rows.Options, maxRows int) (string, error)
	PreviewWorkbook(ctx context.Context, filePath string) (string, error)
	GetConversionInfo(ctx context.Context) string
}

// Request describes one conversion.
type Request struct {
	Input string
	// Output is the destination path. Empty means next to Input, named by
	// OutputName with the configured suffix and an .xlsx extension.
	Output string
	// Rows overrides the configured reconstruction options when non-nil.
	Rows *rows.Options
	// SheetName overrides the configured worksheet name when non-empty.
	SheetName string
}

// Result reports what a conversion produced.
type Result struct {
	Output string
	Pages  int
	Rows   int
}

// Converter extracts PDF text, rebuilds rows and writes spreadsheets.
type Converter struct {
	extractor *pdfExtractor
	cfg       *config.Config
	log       zerolog.Logger
}

var _ FileConverter = (*Converter)(nil)

// NewConverter creates a Converter. A nil cfg means config.Load().
func NewConverter(cfg *config.Config, log zerolog.Logger) *Converter {
	if cfg == nil {
		cfg = config.Load()
	}
	return &Converter{
		extractor: newPDFExtractor(ExtractOptions{MergeGap: cfg.MergeGap}),
		cfg:       cfg,
		log:       log,
	}
}

func failed(err error) error {
	return fmt.Errorf("%w: %w", ErrProcessingFailed, err)
}

// Extract reads filePath and returns its reconstructed sheet together with
// the number of pages read.
func (c *Converter) Extract(ctx context.Context, filePath string, opts rows.Options) (rows.Sheet, int, error) {
	if err := c.checkInput(filePath); err != nil {
		return nil, 0, failed(err)
	}

	pages, err := c.extractor.ExtractFile(ctx, filePath)
	if err != nil {
		return nil, 0, failed(err)
	}

	perPage, err := c.reconstructPages(ctx, pages, opts)
	if err != nil {
		return nil, 0, failed(err)
	}
	sheet := rows.Assemble(perPage)

	c.log.Debug().
		Str("input", filePath).
		Int("pages", len(pages)).
		Int("rows", len(sheet)).
		Stringer("mode", opts.Mode).
		Float64("tolerance", opts.Tolerance).
		Msg("rows reconstructed")
	return sheet, len(pages), nil
}

// reconstructPages runs the row reconstructor on every page, at most
// cfg.Workers at a time. Output keeps page order.
func (c *Converter) reconstructPages(ctx context.Context, pages [][]rows.Fragment, opts rows.Options) ([][]rows.Row, error) {
	out := make([][]rows.Row, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.Workers, 1))
	for i, frags := range pages {
		i, frags := i, frags
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = rows.ReconstructWith(frags, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertFile extracts req.Input and writes the sheet to the output path in
// the format its extension names.
func (c *Converter) ConvertFile(ctx context.Context, req Request) (*Result, error) {
	out := req.Output
	if out == "" {
		out = OutputName(req.Input, c.cfg.OutputSuffix, ".xlsx")
	}
	write, err := writerFor(out)
	if err != nil {
		return nil, failed(err)
	}
	if samePath(out, req.Input) {
		return nil, failed(fmt.Errorf("output %s would overwrite the input", out))
	}

	opts := c.cfg.RowOptions()
	if req.Rows != nil {
		opts = *req.Rows
	}
	sheetName := req.SheetName
	if sheetName == "" {
		sheetName = c.cfg.SheetName
	}

	sheet, pages, err := c.Extract(ctx, req.Input, opts)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(out, func(f *os.File) error {
		return write(f, sheet, sheetName)
	}); err != nil {
		return nil, failed(err)
	}

	c.log.Info().
		Str("input", req.Input).
		Str("output", out).
		Int("pages", pages).
		Int("rows", len(sheet)).
		Msg("converted")
	return &Result{Output: out, Pages: pages, Rows: len(sheet)}, nil
}

// Preview returns the first maxRows reconstructed rows of filePath as a
// Markdown table. maxRows <= 0 means all rows.
func (c *Converter) Preview(ctx context.Context, filePath string, opts *rows.Options, maxRows int) (string, error) {
	o := c.cfg.RowOptions()
	if opts != nil {
		o = *opts
	}
	sheet, _, err := c.Extract(ctx, filePath, o)
	if err != nil {
		return "", err
	}
	if len(sheet) == 0 {
		return "", nil
	}
	if maxRows > 0 && len(sheet) > maxRows {
		sheet = sheet[:maxRows]
	}
	return renderMarkdownTable(sheet), nil
}

// PreviewWorkbook renders every worksheet of an existing workbook as
// Markdown.
func (c *Converter) PreviewWorkbook(_ context.Context, filePath string) (string, error) {
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("file not found: %s", filePath)
	}
	sheets, err := ReadWorkbook(filePath)
	if err != nil {
		return "", err
	}
	return renderWorkbook(sheets), nil
}

// GetConversionInfo returns a Markdown summary of supported formats and config.
func (c *Converter) GetConversionInfo(_ context.Context) string {
	return fmt.Sprintf(`# pdfsheet Conversion Info

## Input
- pdf (embedded text layer only)

## Output Formats
%s

## Configuration
- Max file size: %d MB
- Row mode: %s
- Row tolerance: %g pt
- Glyph merge gap: %g em
- Sheet name: %s
- Output suffix: %s
- Page workers: %d`,
		"- "+strings.Join(SupportedOutputs(), "\n- "),
		c.cfg.MaxFileSizeMB(),
		c.cfg.RowMode,
		c.cfg.RowTolerance,
		c.cfg.MergeGap,
		c.cfg.SheetName,
		c.cfg.OutputSuffix,
		c.cfg.Workers,
	)
}

func (c *Converter) checkInput(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if info.Size() > c.cfg.MaxFileSizeBytes {
		return fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), c.cfg.MaxFileSizeBytes)
	}
	if !CanConvert(filePath) {
		return fmt.Errorf("unsupported format: %s", filePath)
	}
	return nil
}

// writeFileAtomic writes through a temp file in the destination directory
// and renames it into place, so a failed write leaves no partial output.
func writeFileAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfsheet-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}

func samePath(a, b string) bool {
	pa, errA := filepath.Abs(a)
	pb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return pa == pb
}
