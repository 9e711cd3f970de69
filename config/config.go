package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

const (
	// EnvMaxFileBytes is the environment variable name for the file size limit.
	EnvMaxFileBytes = "PDFSHEET_MAX_FILE_BYTES"
	// EnvRowMode selects row bucketing: "tolerance" or "exact".
	EnvRowMode = "PDFSHEET_ROW_MODE"
	// EnvRowTolerance is the maximum y distance (points) within one row.
	EnvRowTolerance = "PDFSHEET_ROW_TOLERANCE"
	// EnvMergeGap is the glyph gap, in multiples of the font size, that
	// splits two glyphs on one baseline into separate fragments.
	EnvMergeGap = "PDFSHEET_MERGE_GAP"
	// EnvSheetName is the worksheet name written to XLSX output.
	EnvSheetName = "PDFSHEET_SHEET_NAME"
	// EnvOutputSuffix is appended to the input stem to name the output file.
	EnvOutputSuffix = "PDFSHEET_OUTPUT_SUFFIX"
	// EnvWorkers bounds concurrent page reconstruction.
	EnvWorkers = "PDFSHEET_WORKERS"
	// EnvLogLevel is a zerolog level name.
	EnvLogLevel = "PDFSHEET_LOG_LEVEL"
	// EnvLogFormat is "json" or "console".
	EnvLogFormat = "PDFSHEET_LOG_FORMAT"

	// DefaultMaxFileBytes is the default maximum accepted file size (50 MiB).
	DefaultMaxFileBytes int64 = 50 << 20
	DefaultRowTolerance       = 2.0
	DefaultMergeGap           = 1.0
	DefaultSheetName          = "Extracted"
	DefaultOutputSuffix       = "_extracted"
	DefaultWorkers            = 4
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
)

// maxSheetNameLen is the XLSX worksheet name limit.
const maxSheetNameLen = 31

// Config holds runtime configuration sourced from environment variables.
type Config struct {
	MaxFileSizeBytes int64
	RowMode          rows.Mode
	RowTolerance     float64
	MergeGap         float64
	SheetName        string
	OutputSuffix     string
	Workers          int
	LogLevel         string
	LogFormat        string
}

// MaxFileSizeMB returns the configured limit in whole megabytes.
func (c *Config) MaxFileSizeMB() int64 {
	return c.MaxFileSizeBytes >> 20
}

// RowOptions returns the reconstruction options for the configured mode.
func (c *Config) RowOptions() rows.Options {
	return rows.Options{Mode: c.RowMode, Tolerance: c.RowTolerance}
}

// Default returns a Config with every field at its default.
func Default() *Config {
	return &Config{
		MaxFileSizeBytes: DefaultMaxFileBytes,
		RowMode:          rows.ModeTolerance,
		RowTolerance:     DefaultRowTolerance,
		MergeGap:         DefaultMergeGap,
		SheetName:        DefaultSheetName,
		OutputSuffix:     DefaultOutputSuffix,
		Workers:          DefaultWorkers,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
	}
}

// Load reads Config from environment variables, falling back to defaults for
// missing or invalid values.
func Load() *Config {
	cfg := Default()
	if v := os.Getenv(EnvMaxFileBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxFileSizeBytes = n
		}
	}
	if v := os.Getenv(EnvRowMode); v != "" {
		if m, err := rows.ParseMode(v); err == nil {
			cfg.RowMode = m
		}
	}
	if v := os.Getenv(EnvRowTolerance); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.RowTolerance = f
		}
	}
	if v := os.Getenv(EnvMergeGap); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.MergeGap = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSheetName)); v != "" && len(v) <= maxSheetNameLen {
		cfg.SheetName = v
	}
	if v := os.Getenv(EnvOutputSuffix); v != "" {
		cfg.OutputSuffix = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.ToLower(os.Getenv(EnvLogFormat)); v == "json" || v == "console" {
		cfg.LogFormat = v
	}
	return cfg
}
