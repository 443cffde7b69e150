package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
)

// ErrorOptions configures message formatting
type ErrorOptions struct {
	Level       ErrorLevel
	Context     string
	Problem     string
	Suggestions []string
	Help        []string
	NoColor     bool
}

// FormatError renders a message such as:
//
//	❌ UNKNOWN ATTRIBUTE: titel
//
//	   Did you mean: title?
//
//	   → List attributes: attrs inspect schema/post.yml
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	header := color.New(color.FgRed, color.Bold)
	symbol := "❌"
	if opts.Level == ErrorLevelWarning {
		header = color.New(color.FgYellow, color.Bold)
		symbol = "⚠️"
	}
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if opts.NoColor {
		header.DisableColor()
		yellow.DisableColor()
		cyan.DisableColor()
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.Help) > 0 {
		b.WriteString("\n")
		for _, line := range opts.Help {
			cyan.Fprintf(&b, "   → %s\n", line)
		}
	}

	return b.String()
}

// WriteError writes a formatted message to w
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess renders a success line
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// UnknownAttributeError reports a name missing from a resource
func UnknownAttributeError(name string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "unknown attribute",
		Problem:     name,
		Suggestions: Suggest(name, known, 3),
		Help:        []string{"Known attributes: " + strings.Join(known, ", ")},
		NoColor:     noColor,
	})
}

// UnknownTypeError reports a type name with no registered factory
func UnknownTypeError(name string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "unknown type",
		Problem:     name,
		Suggestions: Suggest(name, known, 3),
		Help:        []string{"List types: attrs types"},
		NoColor:     noColor,
	})
}
