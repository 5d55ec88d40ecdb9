// Package main provides the marksheet CLI.
//
// marksheet reads a scanned mark-sheet PDF, classifies every student as
// passed, failed, absent or detained, and writes the result workbook.
//
// Usage:
//
//	marksheet scan results.pdf -o student-marks.xlsx
//	marksheet scan results.pdf --format markdown
//
// See --help for all available options.
package main

func main() {
	Execute()
}
