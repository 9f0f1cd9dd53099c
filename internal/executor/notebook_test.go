package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/futureCreator/exbuild/internal/types"
)

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unit1_template.Rmd")
	if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"placeholder substituted", []string{"--execute", "{path}"}, []string{"--execute", "/x/a.Rmd"}},
		{"placeholder inside flag", []string{"--input={path}"}, []string{"--input=/x/a.Rmd"}},
		{"path appended when absent", []string{"--execute"}, []string{"--execute", "/x/a.Rmd"}},
		{"no args", nil, []string{"/x/a.Rmd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &NotebookExecutor{Command: "jupytext", Args: tt.args}
			got := e.buildArgs("/x/a.Rmd")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotebookExecutorSuccess(t *testing.T) {
	path := writeTemplate(t)
	// sh receives the path as $0.
	e := &NotebookExecutor{Command: "sh", Args: []string{"-c", `test -f "$0" && echo ran "$(basename "$0")"`, "{path}"}}
	res, err := e.Execute(context.Background(), &Request{Path: path})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Output != "ran unit1_template.Rmd" {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestNotebookExecutorRunsInDocumentDir(t *testing.T) {
	path := writeTemplate(t)
	e := &NotebookExecutor{Command: "sh", Args: []string{"-c", "pwd", "{path}"}}
	res, err := e.Execute(context.Background(), &Request{Path: path})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want, _ := filepath.EvalSymlinks(filepath.Dir(path))
	got, _ := filepath.EvalSymlinks(res.Output)
	if got != want {
		t.Errorf("working dir = %q, want %q", got, want)
	}
}

func TestNotebookExecutorFailure(t *testing.T) {
	path := writeTemplate(t)
	e := &NotebookExecutor{Command: "sh", Args: []string{"-c", "echo 'NameError: name y is not defined' >&2; exit 1", "{path}"}}
	_, err := e.Execute(context.Background(), &Request{Path: path})
	if !errors.Is(err, types.ErrExecutionFailed) {
		t.Fatalf("Execute() error = %v, want ExecutionFailed", err)
	}
	if !strings.Contains(err.Error(), "NameError") {
		t.Errorf("error %q does not carry the executor diagnostic", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the template", err)
	}
}

func TestNotebookExecutorMissingBinary(t *testing.T) {
	e := &NotebookExecutor{Command: "exbuild-no-such-runner"}
	_, err := e.Execute(context.Background(), &Request{Path: writeTemplate(t)})
	if !errors.Is(err, types.ErrExecutionFailed) {
		t.Errorf("Execute() error = %v, want ExecutionFailed", err)
	}
	if _, err := e.LookPath(); err == nil {
		t.Error("LookPath() expected error")
	}
}

func TestNotebookExecutorTimeout(t *testing.T) {
	e := &NotebookExecutor{Command: "sh", Args: []string{"-c", "exec sleep 5", "{path}"}, Timeout: 50 * time.Millisecond}
	start := time.Now()
	_, err := e.Execute(context.Background(), &Request{Path: writeTemplate(t)})
	if !errors.Is(err, types.ErrExecutionFailed) {
		t.Fatalf("Execute() error = %v, want ExecutionFailed", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error %v should wrap context.DeadlineExceeded", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestDiagnosticKeepsTail(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, strings.Repeat("x", i+1))
	}
	got := diagnostic(strings.Join(lines, "\n") + "\n")
	if n := len(strings.Split(got, "\n")); n != 20 {
		t.Errorf("diagnostic kept %d lines, want 20", n)
	}
	if !strings.HasSuffix(got, strings.Repeat("x", 30)) {
		t.Error("diagnostic dropped the last line")
	}
}

func TestNotebookExecutorTracebackSummary(t *testing.T) {
	path := writeTemplate(t)
	script := `printf 'Traceback (most recent call last):\n  File "<cell>", line 2, in <module>\nNameError: name '"'"'y'"'"' is not defined\n\n' >&2; exit 1`
	e := &NotebookExecutor{Command: "sh", Args: []string{"-c", script, "{path}"}}
	_, err := e.Execute(context.Background(), &Request{Path: path})

	var xe *types.Error
	if !errors.As(err, &xe) {
		t.Fatalf("Execute() error = %v, want *types.Error", err)
	}
	if xe.Msg != "NameError: name 'y' is not defined" {
		t.Errorf("Msg = %q, want the last traceback line", xe.Msg)
	}
	first := strings.SplitN(err.Error(), "\n", 2)[0]
	if !strings.Contains(first, "NameError") {
		t.Errorf("first line of error %q should name the exception", first)
	}
	if !strings.Contains(xe.Err.Error(), "Traceback (most recent call last):") {
		t.Errorf("wrapped error %q should keep the full stderr tail", xe.Err)
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"one", "one"},
		{"a\nb\n\n  \n", "b"},
	}
	for _, tt := range tests {
		if got := lastLine(tt.in); got != tt.want {
			t.Errorf("lastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
