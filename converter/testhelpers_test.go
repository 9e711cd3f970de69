package converter

// Shared test helpers for the converter package.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/config"
)

// ---- assertion helpers -----------------------------------------------------

func assertNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErr(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q\ngot: %s", want, got)
	}
}

func assertNotEmpty(t *testing.T, got string) {
	t.Helper()
	if strings.TrimSpace(got) == "" {
		t.Error("expected non-empty output, got empty string")
	}
}

// ---- file factories --------------------------------------------------------

// writeTempFile writes content to a temp file with the given name and returns
// its path. The file is cleaned up automatically when the test ends.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

// textItem is one string drawn at (x, y) in 12pt Helvetica.
type textItem struct {
	s    string
	x, y float64
}

// buildPDF returns a minimal PDF with one page per entry of pages. Each
// item gets its own BT/ET block. The font carries no /Widths, so glyphs
// of one string share an x origin and merge into one fragment.
func buildPDF(pages [][]textItem) []byte {
	// Object numbers: 1 catalog, 2 page tree, 3 font, then a page and a
	// content stream per page.
	var objs []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, items := range pages {
		var cs strings.Builder
		for _, it := range items {
			fmt.Fprintf(&cs, "BT /F1 12 Tf %g %g Td (%s) Tj ET\n", it.x, it.y, escapePDFString(it.s))
		}
		stream := cs.String()
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
		)
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return []byte(b.String())
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}

// writePDF writes buildPDF(pages) to name inside a temp dir.
func writePDF(t *testing.T, name string, pages [][]textItem) string {
	t.Helper()
	return writeTempFile(t, name, string(buildPDF(pages)))
}

// invoicePages is a two-page document: a header and two item lines on page
// one, a total line on page two.
func invoicePages() [][]textItem {
	return [][]textItem{
		{
			{s: "Item", x: 72, y: 700},
			{s: "Qty", x: 300, y: 700},
			{s: "Apples", x: 72, y: 680},
			{s: "3", x: 300, y: 680.6},
			{s: "Pears", x: 72, y: 660},
			{s: "5", x: 300, y: 660},
		},
		{
			{s: "Total", x: 72, y: 700},
			{s: "8", x: 300, y: 700},
		},
	}
}

// makeXLSX builds a minimal .xlsx file with one sheet and returns its path.
func makeXLSX(t *testing.T, sheet string, data [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet first so SetCellValue writes to the right name.
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("makeXLSX SetSheetName: %v", err)
		}
	}

	for r, row := range data {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatalf("makeXLSX SetCellValue: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("makeXLSX SaveAs: %v", err)
	}
	return path
}

// newTestConverter returns a Converter on default config and a silent logger.
func newTestConverter() *Converter {
	return NewConverter(config.Default(), zerolog.Nop())
}
