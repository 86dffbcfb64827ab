// Package ui renders progress and result lines for the invoice-rename CLI.
package ui

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// Init applies the --no-color flag.
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Success prints a success line.
func Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf("✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error line to stderr.
func Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func Warning(format string, args ...interface{}) {
	color.New(color.FgYellow).Printf("⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an informational line.
func Info(format string, args ...interface{}) {
	color.New(color.FgCyan).Printf("ℹ %s\n", fmt.Sprintf(format, args...))
}

// Step prints a progress step.
func Step(format string, args ...interface{}) {
	color.New(color.FgBlue).Printf("→ %s\n", fmt.Sprintf(format, args...))
}

// Section prints a bold header.
func Section(title string) {
	color.New(color.FgMagenta, color.Bold).Printf("\n━━━ %s ━━━\n", title)
}

// KeyValue prints one labelled value; nil prints as "null".
func KeyValue(key string, value *string) {
	v := "null"
	if value != nil {
		v = *value
	}
	color.New(color.FgYellow).Printf("  %s: ", key)
	fmt.Println(v)
}

// Table prints rows aligned under headers.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	sep := make([]string, len(headers))
	for i, h := range headers {
		sep[i] = strings.Repeat("-", len([]rune(h))*2)
	}
	fmt.Fprintln(w, strings.Join(sep, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}
