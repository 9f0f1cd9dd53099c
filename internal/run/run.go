// Package run records the progress of a single exercise build.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/futureCreator/exbuild/internal/types"
)

// Run represents a single pipeline execution.
type Run struct {
	ID string
	// Dir holds meta.json. Empty when the run is not persisted.
	Dir  string
	Meta Meta
}

// Meta holds metadata about a run, persisted to meta.json.
type Meta struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	SourceDir  string       `json:"source_dir"`
	OutDir     string       `json:"out_dir"`
	Execute    bool         `json:"execute"`
	Template   string       `json:"template,omitempty"`
	Stage      types.Stage  `json:"stage"`
	Steps      []StepResult `json:"steps"`
	Artifact   string       `json:"artifact,omitempty"`
	Kind       string       `json:"kind,omitempty"` // condition kind on failure
	Error      string       `json:"error,omitempty"`
}

// StepResult records the outcome of a single stage.
type StepResult struct {
	Stage      types.Stage `json:"stage"`
	Detail     string      `json:"detail,omitempty"`
	DurationMS int64       `json:"duration_ms"`
}

// New starts a run for sourceDir. When baseDir is non-empty the run is
// persisted under baseDir/<id>/meta.json and baseDir/latest points at it.
func New(baseDir, sourceDir, outDir string, execute bool) (*Run, error) {
	now := time.Now()
	ms := now.UnixMilli() % 1000
	id := fmt.Sprintf("%s-%03d-%s-%s",
		now.Format("20060102-150405"),
		ms,
		sanitizeSlug(filepath.Base(sourceDir)),
		uuid.NewString()[:8],
	)

	r := &Run{
		ID: id,
		Meta: Meta{
			StartedAt: now,
			SourceDir: sourceDir,
			OutDir:    outDir,
			Execute:   execute,
		},
	}
	if baseDir == "" {
		return r, nil
	}

	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run dir: %w", err)
	}
	r.Dir = dir

	if err := r.SaveMeta(); err != nil {
		return nil, err
	}
	if err := updateLatestLink(baseDir, id); err != nil {
		return nil, err
	}
	return r, nil
}

// SaveMeta writes meta.json to the run directory.
func (r *Run) SaveMeta() error {
	if r.Dir == "" {
		return nil
	}
	data, err := json.MarshalIndent(r.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	return os.WriteFile(filepath.Join(r.Dir, "meta.json"), data, 0644)
}

// Advance records that the build reached stage.
func (r *Run) Advance(stage types.Stage, detail string, d time.Duration) error {
	r.Meta.Stage = stage
	r.Meta.Steps = append(r.Meta.Steps, StepResult{
		Stage:      stage,
		Detail:     detail,
		DurationMS: d.Milliseconds(),
	})
	return r.SaveMeta()
}

// Complete marks the run as packaged.
func (r *Run) Complete(artifact string) error {
	r.Meta.Artifact = artifact
	r.finish()
	return r.SaveMeta()
}

// Fail marks the run as failed with the error that stopped it.
func (r *Run) Fail(err error) error {
	r.Meta.Stage = types.StageFailed
	r.Meta.Error = err.Error()
	if kind := types.KindOf(err); kind != nil {
		r.Meta.Kind = kind.Error()
	}
	r.finish()
	return r.SaveMeta()
}

func (r *Run) finish() {
	t := time.Now()
	r.Meta.FinishedAt = &t
}

// updateLatestLink atomically updates the "latest" symlink.
func updateLatestLink(baseDir, id string) error {
	latestPath := filepath.Join(baseDir, "latest")
	tmpPath := latestPath + "." + id + ".tmp"

	if err := os.Symlink(id, tmpPath); err != nil {
		return fmt.Errorf("creating temp symlink: %w", err)
	}
	if err := os.Rename(tmpPath, latestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("updating latest symlink: %w", err)
	}
	return nil
}

var nonAlphanumRe = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeSlug converts a string to a URL-friendly slug.
func sanitizeSlug(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = s[:40]
		s = strings.TrimRight(s, "-")
	}
	if s == "" {
		s = "run"
	}
	return s
}
