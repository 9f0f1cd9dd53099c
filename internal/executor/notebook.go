package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	vlog "github.com/futureCreator/exbuild/internal/log"
	"github.com/futureCreator/exbuild/internal/types"
)

// waitDelay bounds how long output pipes are drained after the command is killed.
const waitDelay = 2 * time.Second

// PathArg is replaced with the document path in NotebookExecutor.Args.
const PathArg = "{path}"

// NotebookExecutor delegates execution to an external command such as
// `jupytext --execute`.
type NotebookExecutor struct {
	Command string
	Args    []string
	// Timeout bounds a single execution. Zero leaves it unbounded.
	Timeout time.Duration
}

func (e *NotebookExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if e.Command == "" {
		return nil, types.Errorf(types.ErrExecutionFailed, req.Path, "no executor command configured")
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := e.buildArgs(req.Path)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Dir = req.Dir
	cmd.WaitDelay = waitDelay
	if cmd.Dir == "" {
		cmd.Dir = filepath.Dir(req.Path)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	vlog.Debug("executing notebook", "command", e.Command, "args", strings.Join(args, " "), "dir", cmd.Dir)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		tail := diagnostic(stderr.String())
		if tail != "" {
			err = fmt.Errorf("%w\n%s", err, tail)
		}
		return nil, &types.Error{
			Kind: types.ErrExecutionFailed,
			Path: req.Path,
			Msg:  lastLine(tail),
			Err:  err,
		}
	}

	return &Result{
		Output:   strings.TrimSpace(stdout.String()),
		Duration: time.Since(start),
	}, nil
}

func (e *NotebookExecutor) buildArgs(path string) []string {
	args := make([]string, 0, len(e.Args)+1)
	substituted := false
	for _, a := range e.Args {
		if strings.Contains(a, PathArg) {
			a = strings.ReplaceAll(a, PathArg, path)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, path)
	}
	return args
}

// diagnostic keeps the tail of the executor's stderr, which is where
// notebook runners print the failing cell's traceback.
func diagnostic(stderr string) string {
	const maxLines = 20
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}

// lastLine returns the last non-empty line of s, where tracebacks put the
// error itself.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// LookPath reports whether the configured command can be found.
func (e *NotebookExecutor) LookPath() (string, error) {
	path, err := exec.LookPath(e.Command)
	if err != nil && errors.Is(err, exec.ErrNotFound) {
		return "", fmt.Errorf("%s not found in PATH", e.Command)
	}
	return path, err
}
