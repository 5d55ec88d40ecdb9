package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marksheetIA/marksheet-ocr-service/internal/config"
	"github.com/marksheetIA/marksheet-ocr-service/internal/export"
	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
	"github.com/marksheetIA/marksheet-ocr-service/internal/pipeline"
	"github.com/marksheetIA/marksheet-ocr-service/internal/report"
	"github.com/marksheetIA/marksheet-ocr-service/internal/services"
)

// scanner is the part of the pipeline the scan command drives
type scanner interface {
	Scan(ctx context.Context, pdf []byte) (*models.ScanResult, error)
}

// scanOptions holds the per-invocation settings of the scan command
type scanOptions struct {
	input    string
	output   string
	format   string
	students bool
}

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file.pdf]",
		Short: "Extract and classify student results from a mark-sheet PDF",
		Long: `Scan rasterizes every page of a mark-sheet PDF, recognizes its text and
extracts one record per student (enrollment number, name, marks or status).

Records are classified as:
- Pass: marks of 22 or more
- Fail: marks below 22
- Absent: A, Absent, abs or None
- Detained: D

Examples:
  # Print the summary
  marksheet scan results.pdf

  # Export the workbook
  marksheet scan results.pdf -o student-marks.xlsx

  # Markdown summary, read with a local vision model
  marksheet scan results.pdf --format markdown --engine ollama

  # Save the normalized pages to inspect OCR input
  marksheet scan results.pdf --debug-dir pages/`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Write the result workbook to this xlsx file")
	cmd.Flags().StringP("format", "f", report.FormatText,
		"Summary format: text, markdown or json")
	cmd.Flags().BoolP("students", "s", false,
		"List every student in the text summary")

	// Pipeline flags (override the configuration file)
	cmd.Flags().StringP("engine", "e", "",
		"OCR engine: tesseract, openai, gemini or ollama")
	cmd.Flags().StringP("rasterizer", "r", "",
		"PDF rasterizer: auto, pdftoppm or embedded")
	cmd.Flags().IntP("workers", "w", 0,
		"Pages recognized concurrently")
	cmd.Flags().String("prefix", "",
		"Enrollment number prefix")
	cmd.Flags().String("debug-dir", "",
		"Save normalized page images to this directory")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}

	opts := scanOptions{input: args[0]}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return err
	}
	if opts.students, err = cmd.Flags().GetBool("students"); err != nil {
		return err
	}
	debugDir, err := cmd.Flags().GetString("debug-dir")
	if err != nil {
		return err
	}

	// Fail on a bad format before spending time on OCR
	if _, err := newReportWriter(opts, io.Discard); err != nil {
		return err
	}

	p, err := pipeline.New(cfg, logger, pipeline.WithDebugDir(debugDir))
	if err != nil {
		return err
	}
	defer p.Close()

	// Cancel OCR on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, p, opts, cmd.OutOrStdout())
}

// runScan reads the PDF, prints the summary and writes the workbook when asked
func runScan(ctx context.Context, s scanner, opts scanOptions, out io.Writer) error {
	pdf, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.input, err)
	}

	result, err := s.Scan(ctx, pdf)
	if errors.Is(err, services.ErrNoData) {
		return errors.New(services.NoDataMessage)
	}
	if err != nil {
		return err
	}

	w, err := newReportWriter(opts, out)
	if err != nil {
		return err
	}
	if _, err := w.Write(filepath.Base(opts.input), result); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if opts.output == "" {
		return nil
	}
	return writeWorkbookFile(opts.output, result.Buckets)
}

// writeWorkbookFile exports the buckets, creating parent directories if needed
func writeWorkbookFile(path string, buckets models.ResultBuckets) error {
	data, err := export.Workbook(buckets)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// newReportWriter picks the summary writer for the requested format
func newReportWriter(opts scanOptions, out io.Writer) (report.Writer, error) {
	if opts.format == report.FormatText || opts.format == "" {
		return report.NewSimpleWriter(out, report.WithStudents(opts.students)), nil
	}
	return report.New(opts.format, out)
}

// buildConfig loads the configuration file and applies flag overrides
func buildConfig(cmd *cobra.Command) (*models.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			path = config.DefaultPath
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.OCR.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("rasterizer") {
		cfg.PDF.Rasterizer, _ = flags.GetString("rasterizer")
	}
	if flags.Changed("workers") {
		cfg.OCR.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("prefix") {
		cfg.Grading.EnrollmentPrefix, _ = flags.GetString("prefix")
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// setupLogger logs to stderr at the configured level, or debug with --verbose
func setupLogger(cmd *cobra.Command, cfg *models.Config) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if getVerboseFlag(cmd) {
		level = slog.LevelDebug
	}
	logger := config.NewLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(logger)
	return logger, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, _ = cmd.Root().PersistentFlags().GetBool("verbose")
	}
	return verbose
}
