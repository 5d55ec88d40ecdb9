// Package report renders scan summaries for the terminal.
//
// Writers:
//   - SimpleWriter: plain text
//   - MarkdownWriter: Markdown tables, for pasting into documents
//   - JSONWriter: summary and buckets as JSON
package report
