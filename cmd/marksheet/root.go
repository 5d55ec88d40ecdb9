package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marksheetIA/marksheet-ocr-service/internal/config"
)

// NewRootCmd creates the root command for marksheet.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marksheet",
		Short: "Extract student results from scanned mark-sheet PDFs",
		Long: `marksheet reads a scanned mark-sheet PDF, recognizes its text with OCR,
extracts one record per student and sorts them into passed, failed, absent
and detained students.

The result is printed as a summary and can be exported as an xlsx workbook
with one sheet per status.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", config.DefaultPath,
		"Configuration file path (missing file means defaults)")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewAddOperatorCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
