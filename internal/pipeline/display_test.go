package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/futureCreator/exbuild/internal/types"
)

func newTestDisplay(buf *bytes.Buffer) *Display {
	return &Display{w: buf, title: "test"}
}

func TestStepStart_ContainsDetail(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.StepStart("locate", "exercises/data_types")
	d.stopTicker()
	out := buf.String()
	if !strings.Contains(out, "exercises/data_types") {
		t.Errorf("StepStart output missing detail: %q", out)
	}
	if !strings.Contains(out, "locate") {
		t.Errorf("StepStart output missing stage name: %q", out)
	}
}

func TestStepDone_ContainsDetail(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.StepDone("derived", "3 placeholders", 1500*time.Millisecond, "")
	out := buf.String()
	if !strings.Contains(out, "3 placeholders") {
		t.Errorf("StepDone output missing detail: %q", out)
	}
	if !strings.Contains(out, "1.5s") {
		t.Errorf("StepDone output missing duration: %q", out)
	}
}

func TestStepDone_Preview(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.StepDone("executed", "unit1_template.Rmd", time.Second, "line1\nline2\nline3\n")
	out := buf.String()
	for _, line := range []string{"line1", "line2", "line3"} {
		if !strings.Contains(out, line) {
			t.Errorf("StepDone preview missing %q: %q", line, out)
		}
	}
	if !strings.Contains(out, "│") {
		t.Errorf("StepDone preview missing │ prefix: %q", out)
	}
}

func TestStepDone_PreviewTruncated(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	var lines []string
	for i := 1; i <= 15; i++ {
		lines = append(lines, fmt.Sprintf("line%d", i))
	}
	d.StepDone("executed", "t.Rmd", time.Second, strings.Join(lines, "\n"))
	out := buf.String()
	if !strings.Contains(out, "5 more lines") {
		t.Errorf("StepDone should show truncation note, got: %q", out)
	}
	if strings.Contains(out, "line15") {
		t.Errorf("StepDone should not show line15: %q", out)
	}
}

func TestStepFailed_ContainsError(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.StepFailed("execute", errors.New("ExecutionFailed: t.Rmd: NameError"))
	out := buf.String()
	if !strings.Contains(out, "execute") || !strings.Contains(out, "NameError") {
		t.Errorf("StepFailed output missing stage or error: %q", out)
	}
}

func TestFailedShowsKindOnly(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	err := types.Errorf(types.ErrExecutionFailed, "/course/t.Rmd", "NameError: name 'y' is not defined")
	d.Failed("execute", err)
	out := buf.String()
	if !strings.Contains(out, "execute") || !strings.Contains(out, "ExecutionFailed") {
		t.Errorf("Failed output missing stage or kind: %q", out)
	}
	if strings.Contains(out, "NameError") {
		t.Errorf("Failed should not repeat the error text: %q", out)
	}
}

func TestStepSkipped(t *testing.T) {
	var buf bytes.Buffer
	d := newTestDisplay(&buf)
	d.StepSkipped("execute", "not requested")
	if out := buf.String(); !strings.Contains(out, "not requested") {
		t.Errorf("StepSkipped output missing reason: %q", out)
	}
}

func TestNilDisplayIsSilent(t *testing.T) {
	var d *Display
	d.Header()
	d.StepStart("locate", "x")
	d.StepDone("located", "x", time.Second, "preview")
	d.StepSkipped("execute", "x")
	d.StepFailed("x", errors.New("boom"))
	d.Summary("a.zip", time.Second)
	d.Failed("package", errors.New("boom"))
}

func TestTruncateDetail_Short(t *testing.T) {
	got := truncateDetail("unit1_template.Rmd")
	if got != "unit1_template.Rmd" {
		t.Errorf("expected no truncation, got %q", got)
	}
}

func TestTruncateDetail_LongKeepsTail(t *testing.T) {
	long := "/home/instructor/course/exercises/week-01/data_types/unit1_template.Rmd"
	got := truncateDetail(long)
	if n := len([]rune(got)); n != detailColumnWidth {
		t.Errorf("truncateDetail length = %d, want %d: %q", n, detailColumnWidth, got)
	}
	if !strings.HasPrefix(got, "…") || !strings.HasSuffix(got, "unit1_template.Rmd") {
		t.Errorf("truncated detail should keep the file name, got %q", got)
	}
}

func TestTruncateDetail_ExactWidth(t *testing.T) {
	exact := strings.Repeat("a", detailColumnWidth)
	if got := truncateDetail(exact); got != exact {
		t.Errorf("exact-width detail should not be truncated, got %q", got)
	}
}

func TestSanitizeDetail_StripsANSI(t *testing.T) {
	got := sanitizeDetail("\x1b[31mmalicious\x1b[0m")
	if got != "malicious" {
		t.Errorf("expected 'malicious', got %q", got)
	}
}

func TestSanitizeDetail_StripsControlChars(t *testing.T) {
	got := sanitizeDetail("name\x00dir\x1f")
	if strings.Contains(got, "\x00") || strings.Contains(got, "\x1f") {
		t.Errorf("sanitizeDetail did not strip control chars: %q", got)
	}
}

func TestTruncateDetail_Unicode(t *testing.T) {
	cjk := strings.Repeat("模", 55)
	got := truncateDetail(cjk)
	if len([]rune(got)) > detailColumnWidth {
		t.Errorf("unicode truncation failed: len=%d", len([]rune(got)))
	}
}
