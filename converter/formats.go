package converter

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

// inputExts are the document formats the extractor reads.
var inputExts = map[string]bool{
	".pdf": true,
}

// sheetWriter serialises a sheet. sheetName is ignored by formats without
// named worksheets.
type sheetWriter func(w io.Writer, sheet rows.Sheet, sheetName string) error

// outputFormats maps an output extension to its writer.
var outputFormats = map[string]sheetWriter{
	".xlsx": WriteXLSX,
	".csv":  writeCSV,
	".md":   writeMarkdown,
}

// CanConvert returns true when the input file extension can be extracted.
func CanConvert(filePath string) bool {
	return inputExts[strings.ToLower(filepath.Ext(filePath))]
}

// SupportedOutputs returns output extensions without the leading dot, sorted.
func SupportedOutputs() []string {
	out := make([]string, 0, len(outputFormats))
	for ext := range outputFormats {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// writerFor picks the writer for outPath's extension.
func writerFor(outPath string) (sheetWriter, error) {
	ext := strings.ToLower(filepath.Ext(outPath))
	w, ok := outputFormats[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %q (expected one of %s)",
			ext, strings.Join(SupportedOutputs(), ", "))
	}
	return w, nil
}

// OutputName derives the output file name from the input name: the stem is
// kept, the extension dropped, then suffix and ext appended.
// OutputName("dir/report.pdf", "_extracted", ".xlsx") is
// "dir/report_extracted.xlsx".
func OutputName(input, suffix, ext string) string {
	dir, base := filepath.Split(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return dir + stem + suffix + ext
}

// --- format writers ----------------------------------------------------------

func writeCSV(w io.Writer, sheet rows.Sheet, _ string) error {
	cw := csv.NewWriter(w)
	for i, row := range sheet {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeMarkdown(w io.Writer, sheet rows.Sheet, sheetName string) error {
	var sb strings.Builder
	if sheetName != "" {
		sb.WriteString(xlsxSheetHeading + sheetName + "\n\n")
	}
	sb.WriteString(renderMarkdownTable(sheet))
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}
