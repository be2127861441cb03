// Package output provides the line-oriented output sink shared by live test
// progress and the final report.
//
// A Writer is safe for concurrent use: every call emits whole lines under a
// mutex, so progress lines from parallel workers interleave but never tear.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// DefaultWidth is the separator width used when the terminal size is unknown.
const DefaultWidth = 60

// Writer handles CLI output formatting.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	err    io.Writer
	color  bool
	quiet  bool
	indent string
	width  int
}

var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFailure = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

// New creates a Writer on stdout/stderr with color enabled for terminals.
func New() *Writer {
	return &Writer{
		out:    os.Stdout,
		err:    os.Stderr,
		color:  isTerminal(os.Stdout),
		indent: " ",
		width:  terminalWidth(),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (log files, tests).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:    out,
		err:    err,
		color:  color,
		indent: " ",
		width:  DefaultWidth,
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.quiet = quiet
}

// SetColor enables or disables styled output.
func (w *Writer) SetColor(color bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.color = color
}

// SetWidth overrides the separator width.
func (w *Writer) SetWidth(width int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if width > 0 {
		w.width = width
	}
}

// Stdout returns the writer used for regular output.
func (w *Writer) Stdout() io.Writer {
	return w.out
}

// Stderr returns the writer used for errors and warnings.
func (w *Writer) Stderr() io.Writer {
	return w.err
}

func (w *Writer) write(dst io.Writer, s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = io.WriteString(dst, s)
}

func (w *Writer) isQuiet() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quiet
}

func (w *Writer) style(s lipgloss.Style, text string) string {
	w.mu.Lock()
	color := w.color
	w.mu.Unlock()
	if !color {
		return text
	}
	return s.Render(text)
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	w.write(w.out, fmt.Sprintf(format, args...)+"\n")
}

// Error writes to stderr.
func (w *Writer) Error(format string, args ...interface{}) {
	w.write(w.err, fmt.Sprintf(format, args...))
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	w.write(w.err, fmt.Sprintf(format, args...)+"\n")
}

// Log writes msg indented by level spaces, with an optional "[prefix] " tag.
// Progress lines from concurrent tests use the test identity as prefix.
func (w *Writer) Log(prefix string, level int, format string, args ...interface{}) {
	if w.isQuiet() {
		return
	}
	var b strings.Builder
	if prefix != "" {
		b.WriteString("[")
		b.WriteString(prefix)
		b.WriteString("] ")
	}
	b.WriteString(strings.Repeat(w.indent, max(level, 0)))
	b.WriteString(fmt.Sprintf(format, args...))
	w.Println("%s", b.String())
}

// Line writes msg indented by level spaces regardless of quiet mode.
// The final report uses Line so --quiet still shows the summary.
func (w *Writer) Line(level int, format string, args ...interface{}) {
	w.Println("%s%s", strings.Repeat(w.indent, max(level, 0)), fmt.Sprintf(format, args...))
}

// Separator prints a horizontal rule sized to the terminal (skipped in
// quiet mode).
func (w *Writer) Separator() {
	w.mu.Lock()
	width, quiet := w.width, w.quiet
	w.mu.Unlock()
	if quiet {
		return
	}
	w.Println("%s", strings.Repeat("-", width))
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...interface{}) {
	w.Println("%s", w.style(styleSuccess, fmt.Sprintf(format, args...)))
}

// Failure prints a failure message to stdout.
func (w *Writer) Failure(format string, args ...interface{}) {
	w.Println("%s", w.style(styleFailure, fmt.Sprintf(format, args...)))
}

// Warning prints a warning message to stderr.
func (w *Writer) Warning(format string, args ...interface{}) {
	w.Errorln("%s", w.style(styleWarning, "warning: "+fmt.Sprintf(format, args...)))
}

// ErrorPrefix prints an error message with the watt prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	w.Errorln("%s %s", w.style(styleFailure, "watt:"), fmt.Sprintf(format, args...))
}

// SummaryHeader prints a summary section header.
func (w *Writer) SummaryHeader(title string) {
	w.Println("%s", w.style(styleHeader, title))
}

// SummaryPassed prints a passed label at the given indentation.
func (w *Writer) SummaryPassed(level int, text string) {
	w.Line(level, "%s", w.style(styleSuccess, text))
}

// SummaryFailed prints a failed label at the given indentation.
func (w *Writer) SummaryFailed(level int, text string) {
	w.Line(level, "%s", w.style(styleFailure, text))
}

// FinalSuccess prints a final success message.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Success(format, args...)
}

// FinalFailure prints a final failure message.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Failure(format, args...)
}

// Table prints a simple aligned table.
func (w *Writer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	format := func(cells []string) string {
		parts := make([]string, 0, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts = append(parts, fmt.Sprintf("%-*s", widths[i], cell))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	w.Println("%s", format(headers))
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	w.Println("%s", strings.Join(sep, "  "))
	for _, row := range rows {
		w.Println("%s", format(row))
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth mirrors the classic behaviour of leaving a small margin on
// the right; non-terminals get DefaultWidth.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 10 {
		return DefaultWidth
	}
	return width - 10
}
