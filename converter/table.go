package converter

// table.go: Markdown table renderer shared by the .md writer, the row
// preview and the workbook preview.

import (
	"strings"
	"unicode/utf8"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

const minColWidth = 3 // minimum separator width for a valid Markdown table (---)

// renderMarkdownTable converts a sheet into a GitHub-Flavored Markdown
// table. The first row is treated as the header. Rows are ragged in
// reconstructed sheets, so short rows are padded with empty cells. Each
// column is padded to the width of its widest cell (minimum minColWidth).
func renderMarkdownTable(sheet rows.Sheet) string {
	if len(sheet) == 0 {
		return ""
	}

	maxCols := 0
	for _, row := range sheet {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	if maxCols == 0 {
		return ""
	}

	widths := make([]int, maxCols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, row := range sheet {
		for i, raw := range row {
			if w := utf8.RuneCountInString(escapeCell(raw)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cell := func(row rows.Row, col int) string {
		if col < len(row) {
			return escapeCell(row[col])
		}
		return ""
	}
	pad := func(s string, w int) string {
		n := utf8.RuneCountInString(s)
		if n >= w {
			return s
		}
		return s + strings.Repeat(" ", w-n)
	}
	line := func(sb *strings.Builder, row rows.Row) {
		sb.WriteString("|")
		for i := 0; i < maxCols; i++ {
			sb.WriteString(" " + pad(cell(row, i), widths[i]) + " |")
		}
		sb.WriteByte('\n')
	}

	var sb strings.Builder

	line(&sb, sheet[0])

	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString(" " + strings.Repeat("-", widths[i]) + " |")
	}
	sb.WriteByte('\n')

	for _, row := range sheet[1:] {
		line(&sb, row)
	}

	return sb.String()
}

// escapeCell keeps a value on one table line: pipes are escaped and line
// breaks become spaces.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
