package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/futureCreator/exbuild/internal/run"
	"github.com/futureCreator/exbuild/internal/types"
)

func TestListRuns(t *testing.T) {
	runsDir := t.TempDir()

	ok, err := run.New(runsDir, "/course/week1", "/out", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := ok.Complete("/out/loops.zip"); err != nil {
		t.Fatal(err)
	}
	ok.Meta.Stage = types.StagePackaged
	if err := ok.SaveMeta(); err != nil {
		t.Fatal(err)
	}

	bad, err := run.New(runsDir, "/course/week2", "/out", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := bad.Fail(types.Wrap(types.ErrExecutionFailed, "/course/week2/lists_template.Rmd", errors.New("exit status 1"))); err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	if err := listRuns(&sb, runsDir, 10); err != nil {
		t.Fatalf("listRuns: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "Runs: 2 total, 1 packaged, 1 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "/out/loops.zip") || !strings.Contains(out, "ExecutionFailed") {
		t.Errorf("listing missing artifact or failure kind:\n%s", out)
	}
}

func TestListRunsEmpty(t *testing.T) {
	var sb strings.Builder
	if err := listRuns(&sb, t.TempDir()+"/missing", 10); err != nil {
		t.Fatalf("listRuns: %v", err)
	}
	if !strings.Contains(sb.String(), "No runs found.") {
		t.Errorf("unexpected output %q", sb.String())
	}
}
