package converter

// xlsx.go: Sheet ↔ XLSX using the excelize library.
// Writing produces a single worksheet; reading returns every worksheet so a
// produced workbook can be previewed with the shared Markdown renderer.

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

const (
	defaultSheet      = "Sheet1" // sheet excelize.NewFile creates
	xlsxSheetHeading  = "## "    // Markdown heading level for each sheet name
	defaultSheetTitle = "Extracted"
)

// WriteXLSX writes sheet as a one-worksheet workbook named sheetName. Each
// row element becomes a string cell, starting at A1.
func WriteXLSX(w io.Writer, sheet rows.Sheet, sheetName string) error {
	if sheetName == "" {
		sheetName = defaultSheetTitle
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheetName != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
			return fmt.Errorf("name sheet %q: %w", sheetName, err)
		}
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open sheet %q: %w", sheetName, err)
	}
	for i, row := range sheet {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet %q: %w", sheetName, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// EncodeXLSX returns the workbook WriteXLSX would produce as bytes.
func EncodeXLSX(sheet rows.Sheet, sheetName string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sheet, sheetName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NamedSheet is one worksheet read back from a workbook.
type NamedSheet struct {
	Name string
	Rows rows.Sheet
}

// ReadWorkbook returns every worksheet of the workbook at filePath.
func ReadWorkbook(filePath string) ([]NamedSheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()

	var out []NamedSheet
	for _, name := range f.GetSheetList() {
		raw, err := f.GetRows(name)
		if err != nil {
			return out, fmt.Errorf("read sheet %q in %s: %w", name, filePath, err)
		}
		sheet := make(rows.Sheet, len(raw))
		for i, r := range raw {
			sheet[i] = rows.Row(r)
		}
		out = append(out, NamedSheet{Name: name, Rows: sheet})
	}
	return out, nil
}

// renderWorkbook formats sheets as Markdown, one heading and table per
// non-empty sheet.
func renderWorkbook(sheets []NamedSheet) string {
	var buf bytes.Buffer
	for _, s := range sheets {
		if len(s.Rows) == 0 {
			continue
		}
		buf.WriteString(xlsxSheetHeading + s.Name + "\n\n")
		buf.WriteString(renderMarkdownTable(s.Rows))
		buf.WriteByte('\n')
	}
	return buf.String()
}
