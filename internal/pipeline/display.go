package pipeline

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/futureCreator/exbuild/internal/types"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

// Display handles terminal progress output for a build. A nil *Display
// prints nothing.
type Display struct {
	w       io.Writer
	title   string
	verbose bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewDisplay creates a display that writes to stdout.
func NewDisplay(title string, verbose bool) *Display {
	return &Display{w: os.Stdout, title: title, verbose: verbose}
}

// detailColumnWidth is the fixed display width reserved for the detail column.
var detailColumnWidth = 40

// ansiEscapeRe matches ANSI terminal escape sequences and C0/DEL control characters.
var ansiEscapeRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|[\x00-\x1f\x7f]`)

// sanitizeDetail strips ANSI escape sequences and control characters.
func sanitizeDetail(s string) string {
	return ansiEscapeRe.ReplaceAllString(s, "")
}

// truncateDetail sanitizes and truncates s to fit within detailColumnWidth
// runes, keeping the end of the string since details are mostly paths.
func truncateDetail(s string) string {
	s = sanitizeDetail(s)
	if utf8.RuneCountInString(s) <= detailColumnWidth {
		return s
	}
	runes := []rune(s)
	return "…" + string(runes[len(runes)-detailColumnWidth+1:])
}

func rule() string {
	return ruleStyle.Render(strings.Repeat("─", 76))
}

// Header prints the build header.
func (d *Display) Header() {
	if d == nil {
		return
	}
	fmt.Fprintf(d.w, "\n%s\n", headerStyle.Render("📘 exbuild — "+sanitizeDetail(d.title)))
	fmt.Fprintln(d.w, rule())
}

// StepStart prints a stage-in-progress line and starts an elapsed time ticker.
// In non-verbose mode, the line is updated in place every second with elapsed time.
// In verbose mode, a plain line is printed (executor output follows on subsequent lines).
func (d *Display) StepStart(name, detail string) {
	if d == nil {
		return
	}
	detail = truncateDetail(detail)
	if d.verbose {
		fmt.Fprintf(d.w, "⏳ %-10s %-40s running...\n", name, detail)
		return
	}
	// Print without trailing newline so the ticker can overwrite in place.
	fmt.Fprintf(d.w, "⏳ %-10s %-40s running...", name, detail)

	stop := make(chan struct{})
	done := make(chan struct{})
	d.mu.Lock()
	d.stop = stop
	d.done = done
	d.mu.Unlock()
	start := time.Now()

	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fmt.Fprintf(d.w, "\r⏳ %-10s %-40s running... %.0fs",
					name, detail, time.Since(start).Seconds())
			}
		}
	}()
}

// stopTicker stops the elapsed time goroutine and waits for it to finish.
func (d *Display) stopTicker() {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

func (d *Display) prefix() string {
	if d.verbose {
		return ""
	}
	return "\r"
}

// maxPreviewLines is the default number of output lines shown after stage completion.
const maxPreviewLines = 10

// StepDone prints a completed stage line, overwriting the running line in non-verbose mode.
// preview, when non-empty, is shown below it (first maxPreviewLines lines).
func (d *Display) StepDone(name, detail string, duration time.Duration, preview string) {
	if d == nil {
		return
	}
	d.stopTicker()
	fmt.Fprintf(d.w, "%s%s %-10s %-40s %.1fs\n",
		d.prefix(), okStyle.Render("✔"), name, truncateDetail(detail), duration.Seconds())

	if preview == "" {
		return
	}
	lines := strings.Split(preview, "\n")
	// Drop the trailing empty element that Split adds for a newline-terminated string.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	previewLines := lines
	truncated := false
	if len(lines) > maxPreviewLines {
		previewLines = lines[:maxPreviewLines]
		truncated = true
	}
	for _, l := range previewLines {
		fmt.Fprintf(d.w, "  │ %s\n", sanitizeDetail(l))
	}
	if truncated {
		fmt.Fprintf(d.w, "  │ ... (%d more lines)\n", len(lines)-maxPreviewLines)
	}
}

// StepSkipped prints a stage that did not run.
func (d *Display) StepSkipped(name, reason string) {
	if d == nil {
		return
	}
	fmt.Fprintf(d.w, "%s %-10s %s\n", skipStyle.Render("–"), name, skipStyle.Render(reason))
}

// StepFailed prints a failed stage line, overwriting the running line in non-verbose mode.
func (d *Display) StepFailed(name string, err error) {
	if d == nil {
		return
	}
	d.stopTicker()
	fmt.Fprintf(d.w, "%s%s %-10s %s\n", d.prefix(), failStyle.Render("✘"), name, err.Error())
}

// Summary prints the final build summary.
func (d *Display) Summary(artifact string, totalDuration time.Duration) {
	if d == nil {
		return
	}
	fmt.Fprintln(d.w, rule())
	fmt.Fprintf(d.w, "%s Packaged %s  %.1fs\n\n", okStyle.Render("✔"), artifact, totalDuration.Seconds())
}

// Failed closes the build with the stage and condition kind. The error text
// itself is already on the failed stage line.
func (d *Display) Failed(stage string, err error) {
	if d == nil {
		return
	}
	label := "error"
	if kind := types.KindOf(err); kind != nil {
		label = kind.Error()
	}
	fmt.Fprintln(d.w, rule())
	fmt.Fprintf(d.w, "%s Failed at %s (%s)\n\n", failStyle.Render("✘"), stage, label)
}
