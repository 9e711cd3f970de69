package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Cortexa-LLC/mcp/src/pdfsheet/config"
	"github.com/Cortexa-LLC/mcp/src/pdfsheet/converter"
	"github.com/Cortexa-LLC/mcp/src/pdfsheet/logging"
	"github.com/Cortexa-LLC/mcp/src/pdfsheet/rows"
)

// app carries what every command needs. Fields left nil are filled from the
// environment before the first command runs; tests preset them.
type app struct {
	cfg  *config.Config
	log  zerolog.Logger
	conv converter.FileConverter
}

func (a *app) init() error {
	if a.cfg == nil {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		a.cfg = config.Load()
		a.log = logging.New(logging.Options{Level: a.cfg.LogLevel, Format: a.cfg.LogFormat})
	}
	if a.conv == nil {
		a.conv = converter.NewConverter(a.cfg, a.log)
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfsheet",
		Short: "Turn the text of a PDF into spreadsheet rows",
		Long: "pdfsheet extracts the text layer of a PDF, rebuilds table rows from text positions " +
			"and writes them to XLSX, CSV or Markdown. Without a subcommand it serves MCP over stdio.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(a)
		},
	}
	root.AddCommand(
		newServeCmd(a),
		newConvertCmd(a),
		newPreviewCmd(a),
		newInfoCmd(a),
	)
	return root
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(a)
		},
	}
}

func runServe(a *app) error {
	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, a.conv, a.cfg.RowOptions())

	a.log.Info().Str("version", serverVersion).Msg("serving MCP over stdio")
	if err := server.ServeStdio(s); err != nil {
		a.log.Error().Err(err).Msg("server error")
		return err
	}
	return nil
}

// rowFlags holds the row grouping flags shared by convert and preview.
type rowFlags struct {
	mode      string
	tolerance float64
}

func (f *rowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "row grouping: tolerance or exact (default from config)")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", config.DefaultRowTolerance, "max vertical distance in points within one row")
}

// options returns nil when neither flag was set on the command line.
func (f *rowFlags) options(cmd *cobra.Command, defaults rows.Options) (*rows.Options, error) {
	modeSet := cmd.Flags().Changed("mode")
	tolSet := cmd.Flags().Changed("tolerance")
	if !modeSet && !tolSet {
		return nil, nil
	}
	opts := defaults
	if modeSet {
		m, err := rows.ParseMode(f.mode)
		if err != nil {
			return nil, err
		}
		opts.Mode = m
	}
	if tolSet {
		if f.tolerance < 0 {
			return nil, fmt.Errorf("--tolerance must be >= 0, got %g", f.tolerance)
		}
		opts.Tolerance = f.tolerance
	}
	return &opts, nil
}

func newConvertCmd(a *app) *cobra.Command {
	var (
		output string
		sheet  string
		rf     rowFlags
	)
	cmd := &cobra.Command{
		Use:   "convert <file.pdf>",
		Short: "Write the rows of a PDF to a spreadsheet",
		Long: "Write the rows of a PDF to a spreadsheet. The output format follows the " +
			"--output extension (.xlsx, .csv, .md); by default <stem>_extracted.xlsx is written next to the PDF.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := rf.options(cmd, a.cfg.RowOptions())
			if err != nil {
				return err
			}
			res, err := a.conv.ConvertFile(cmd.Context(), converter.Request{
				Input:     args[0],
				Output:    output,
				Rows:      opts,
				SheetName: sheet,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages, %d rows)\n", res.Output, res.Pages, res.Rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (.xlsx, .csv or .md)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name for .xlsx output (default from config)")
	rf.register(cmd)
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		maxRows int
		rf      rowFlags
	)
	cmd := &cobra.Command{
		Use:   "preview <file.pdf|file.xlsx>",
		Short: "Print reconstructed rows, or an existing workbook, as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				out string
				err error
			)
			if strings.EqualFold(filepath.Ext(args[0]), ".xlsx") {
				out, err = a.conv.PreviewWorkbook(cmd.Context(), args[0])
			} else {
				var opts *rows.Options
				if opts, err = rf.options(cmd, a.cfg.RowOptions()); err != nil {
					return err
				}
				out, err = a.conv.Preview(cmd.Context(), args[0], opts, maxRows)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&maxRows, "max-rows", "n", defaultPreviewRows, "rows to print, 0 for all")
	rf.register(cmd)
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print supported formats and the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.conv.GetConversionInfo(cmd.Context()))
			return nil
		},
	}
}
