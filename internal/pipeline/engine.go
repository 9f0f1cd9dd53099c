// Package pipeline sequences a single exercise build:
// locate → (execute) → derive → write → package.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/futureCreator/exbuild/internal/config"
	"github.com/futureCreator/exbuild/internal/document"
	"github.com/futureCreator/exbuild/internal/executor"
	"github.com/futureCreator/exbuild/internal/locator"
	vlog "github.com/futureCreator/exbuild/internal/log"
	"github.com/futureCreator/exbuild/internal/packager"
	"github.com/futureCreator/exbuild/internal/placeholder"
	"github.com/futureCreator/exbuild/internal/run"
	"github.com/futureCreator/exbuild/internal/types"
)

// Engine orchestrates the stages of an exercise build. It holds no state
// between builds, so one Engine may serve concurrent builds of disjoint
// directories as long as Display is nil.
type Engine struct {
	Config   *config.Config
	Store    document.Store
	Executor executor.Executor
	Packager packager.Packager
	Display  *Display
}

// Options selects what a single build works on.
type Options struct {
	SourceDir string
	// OutDir receives the packaged artifact. Resolved by the caller.
	OutDir  string
	Execute bool
}

// Outcome describes a successful build.
type Outcome struct {
	Paths    locator.Paths
	Artifact string
	Stats    placeholder.Stats
	Run      *run.Run
}

// Build runs every stage in order and stops at the first failure. Failures
// carry the condition kind of the stage that raised them.
func (e *Engine) Build(ctx context.Context, opts Options) (*Outcome, error) {
	startTime := time.Now()
	logger := vlog.With("dir", opts.SourceDir)

	r, err := run.New(e.Config.RunsDir, opts.SourceDir, opts.OutDir, opts.Execute)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	out := &Outcome{Run: r}

	// The terminal already shows the failure when a display is attached and
	// the caller prints the diagnostic, so the record only goes to the log file.
	failLog := logger
	if e.Display != nil {
		failLog = vlog.File().With("dir", opts.SourceDir)
	}
	fail := func(stage string, err error) (*Outcome, error) {
		e.Display.StepFailed(stage, err)
		if metaErr := r.Fail(err); metaErr != nil {
			logger.Warn("failed to update run meta", "err", metaErr)
		}
		e.Display.Failed(stage, err)
		failLog.Error("build failed", "stage", stage, "err", err)
		return out, err
	}
	advance := func(stage types.Stage, detail string, start time.Time, preview string) {
		d := time.Since(start)
		if err := r.Advance(stage, detail, d); err != nil {
			logger.Warn("failed to save stage result", "stage", stage, "err", err)
		}
		e.Display.StepDone(string(stage), detail, d, preview)
	}

	e.Display.Header()

	// Located
	stepStart := time.Now()
	e.Display.StepStart("locate", opts.SourceDir)
	re, err := locator.Compile(e.Config.Template.Pattern)
	if err != nil {
		return fail("locate", err)
	}
	template, err := locator.Locate(opts.SourceDir, re)
	if err != nil {
		return fail("locate", err)
	}
	paths, err := locator.Derive(template, re)
	if err != nil {
		return fail("locate", err)
	}
	out.Paths = paths
	r.Meta.Template = template
	advance(types.StageLocated, filepath.Base(template), stepStart, "")

	// Executed: always against the template, before anything is derived.
	if opts.Execute {
		stepStart = time.Now()
		e.Display.StepStart("execute", filepath.Base(template))
		res, err := e.Executor.Execute(ctx, &executor.Request{Path: template})
		if err != nil {
			if types.KindOf(err) == nil {
				err = types.Wrap(types.ErrExecutionFailed, template, err)
			}
			return fail("execute", err)
		}
		advance(types.StageExecuted, filepath.Base(template), stepStart, res.Output)
	} else {
		e.Display.StepSkipped("execute", "not requested")
	}

	// Derived: both documents are rendered before either is written.
	stepStart = time.Now()
	e.Display.StepStart("derive", filepath.Base(template))
	text, err := e.Store.Read(template)
	if err != nil {
		return fail("derive", err)
	}
	spans, err := placeholder.Parse(text)
	if err != nil {
		return fail("derive", types.Wrap(types.ErrMalformedTemplate, template, err))
	}
	exercise := placeholder.RenderExercise(spans, e.Config.Template.Blank)
	solution := placeholder.RenderSolution(spans)
	out.Stats = placeholder.Count(spans)
	if out.Stats.Total() == 0 {
		logger.Warn("template has no placeholders; exercise and solution are identical", "template", template)
	}
	advance(types.StageDerived, fmt.Sprintf("%d placeholders", out.Stats.Total()), stepStart, "")

	// Written
	stepStart = time.Now()
	e.Display.StepStart("write", filepath.Base(paths.Exercise))
	for _, doc := range []struct{ path, text string }{
		{paths.Exercise, exercise},
		{paths.Solution, solution},
	} {
		if document.Exists(doc.path) {
			logger.Warn("overwriting derived document", "path", doc.path)
		}
		if err := e.Store.Write(doc.path, doc.text); err != nil {
			return fail("write", err)
		}
	}
	advance(types.StageWritten, filepath.Base(paths.Exercise)+", "+filepath.Base(paths.Solution), stepStart, "")

	// Packaged: from the exercise only.
	stepStart = time.Now()
	e.Display.StepStart("package", opts.OutDir)
	exclude, err := companions(paths)
	if err != nil {
		return fail("package", types.Wrap(types.ErrPackagingFailed, opts.SourceDir, err))
	}
	artifact, err := e.Packager.Build(ctx, &packager.Request{
		Document: paths.Exercise,
		OutDir:   opts.OutDir,
		Template: template,
		Exclude:  exclude,
		Executed: opts.Execute,
	})
	if err != nil {
		if types.KindOf(err) == nil {
			err = types.Wrap(types.ErrPackagingFailed, opts.OutDir, err)
		}
		return fail("package", err)
	}
	out.Artifact = artifact
	advance(types.StagePackaged, artifact, stepStart, "")
	if err := r.Complete(artifact); err != nil {
		logger.Warn("failed to mark run complete", "err", err)
	}

	e.Display.Summary(artifact, time.Since(startTime))
	logger.Info("build complete", "artifact", artifact, "placeholders", out.Stats.Total())
	return out, nil
}

// companions lists the files beside the template that share the template's
// or the solution's stem, such as an executed "unit1_template.ipynb". None of
// them may reach students.
func companions(p locator.Paths) ([]string, error) {
	dir := filepath.Dir(p.Template)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	stems := map[string]bool{
		stem(p.Template): true,
		stem(p.Solution): true,
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if stems[stem(e.Name())] {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
