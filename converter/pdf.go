package converter

// pdf.go: PDF text layer → positioned fragments, one slice per page.
//
// Uses github.com/ledongthuc/pdf for parsing. Only the embedded text layer
// is read; scanned (image-only) pages come back with no fragments.
// The library reports one pdf.Text per glyph, so glyphs that continue each
// other on one baseline are merged into a single fragment here.

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

// baselineEpsilon is how far apart two glyph baselines may be and still
// count as the same line while merging.
const baselineEpsilon = 0.5

// ExtractOptions is the one-time configuration of a pdfExtractor.
type ExtractOptions struct {
	// MergeGap is the horizontal gap, as a multiple of the font size, at
	// which two glyphs stop belonging to the same fragment.
	MergeGap float64
}

// pdfExtractor reads per-page fragments out of a PDF.
type pdfExtractor struct {
	opts ExtractOptions
}

func newPDFExtractor(opts ExtractOptions) *pdfExtractor {
	if opts.MergeGap <= 0 {
		opts.MergeGap = 1
	}
	return &pdfExtractor{opts: opts}
}

// ExtractFile opens filePath and returns its fragments page by page.
func (e *pdfExtractor) ExtractFile(ctx context.Context, filePath string) ([][]rows.Fragment, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf %s: %w", filePath, err)
	}
	return e.ExtractPages(ctx, f, info.Size())
}

// ExtractPages returns the fragments of pages 1..N in page order. A page
// with no text layer yields an empty slice so page positions stay intact.
func (e *pdfExtractor) ExtractPages(ctx context.Context, ra io.ReaderAt, size int64) (pages [][]rows.Fragment, err error) {
	// ledongthuc/pdf panics on malformed objects and content streams.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	numPages := r.NumPage()
	pages = make([][]rows.Fragment, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, e.mergeGlyphs(p.Content().Text))
	}
	return pages, nil
}

// glyphRun is a fragment under construction.
type glyphRun struct {
	text     strings.Builder
	x, y     float64
	end      float64 // x where the last glyph finished
	fontSize float64
}

// mergeGlyphs joins consecutive glyphs into fragments. A new fragment starts
// when the baseline moves or the gap from the previous glyph's end reaches
// MergeGap times the font size. Content-stream order is kept inside a run.
func (e *pdfExtractor) mergeGlyphs(glyphs []pdf.Text) []rows.Fragment {
	var out []rows.Fragment
	var cur *glyphRun

	flush := func() {
		if cur == nil {
			return
		}
		if s := cur.text.String(); strings.TrimSpace(s) != "" {
			out = append(out, rows.Fragment{Text: s, X: cur.x, Y: cur.y})
		}
		cur = nil
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if cur != nil && !e.continues(cur, g) {
			flush()
		}
		if cur == nil {
			cur = &glyphRun{x: g.X, y: g.Y, fontSize: g.FontSize}
		}
		cur.text.WriteString(g.S)
		cur.end = g.X + g.W
		if g.FontSize > cur.fontSize {
			cur.fontSize = g.FontSize
		}
	}
	flush()
	return out
}

func (e *pdfExtractor) continues(run *glyphRun, g pdf.Text) bool {
	if math.Abs(run.y-g.Y) > baselineEpsilon {
		return false
	}
	size := math.Max(run.fontSize, g.FontSize)
	if size <= 0 {
		size = 1
	}
	gap := g.X - run.end
	// Glyphs stepping backwards more than a glyph's width belong elsewhere.
	if gap < -size {
		return false
	}
	return gap < e.opts.MergeGap*size
}
