// Package packager turns a derived exercise document and its supporting files
// into a distributable zip archive.
package packager

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/futureCreator/exbuild/internal/config"
	"github.com/futureCreator/exbuild/internal/document"
	"github.com/futureCreator/exbuild/internal/executor"
	vlog "github.com/futureCreator/exbuild/internal/log"
	"github.com/futureCreator/exbuild/internal/project"
	"github.com/futureCreator/exbuild/internal/types"
)

// ManifestName is the name of the manifest inside every archive.
const ManifestName = "manifest.yaml"

// Packager builds an artifact for an exercise document.
type Packager interface {
	Build(ctx context.Context, req *Request) (string, error)
}

// Request describes one packaging run.
type Request struct {
	// Document is the written exercise document.
	Document string
	// OutDir must already exist.
	OutDir string
	// Template is recorded in the manifest as the source of the exercise.
	Template string
	// Exclude lists paths, relative to the directory of Document, that must
	// never be packaged, such as the template and the solution.
	Exclude  []string
	Executed bool
}

// Manifest describes the content of an archive.
type Manifest struct {
	ID       string         `yaml:"id"`
	Exercise string         `yaml:"exercise"`
	Title    string         `yaml:"title,omitempty"`
	Source   string         `yaml:"source,omitempty"`
	Executed bool           `yaml:"executed"`
	Created  string         `yaml:"created"`
	Git      *GitManifest   `yaml:"git,omitempty"`
	Files    []ManifestFile `yaml:"files"`
}

type GitManifest struct {
	Branch string `yaml:"branch"`
	Commit string `yaml:"commit"`
	Dirty  bool   `yaml:"dirty,omitempty"`
}

type ManifestFile struct {
	Path   string `yaml:"path"`
	Size   int64  `yaml:"size"`
	SHA256 string `yaml:"sha256"`
}

// ZipPackager writes <OutDir>/<exercise>.zip with every file of the exercise
// directory under a top-level <exercise>/ folder. When a Converter is set the
// exercise is first built into a notebook beside it, which is archived too.
type ZipPackager struct {
	Config *config.PackageConfig
	Store  document.Store
	// Converter runs on the written exercise and must not execute it.
	Converter executor.Executor

	now     func() time.Time
	newID   func() string
	gitInfo func(dir string) (*project.GitInfo, error)
}

// Option customizes a ZipPackager.
type Option func(*ZipPackager)

// WithClock overrides the clock used for the manifest and archive timestamps.
func WithClock(clock func() time.Time) Option {
	return func(p *ZipPackager) { p.now = clock }
}

// WithIDs overrides build id generation.
func WithIDs(gen func() string) Option {
	return func(p *ZipPackager) { p.newID = gen }
}

// WithGitInfo overrides how repository state is collected.
func WithGitInfo(fn func(dir string) (*project.GitInfo, error)) Option {
	return func(p *ZipPackager) { p.gitInfo = fn }
}

// WithConverter overrides the notebook converter. Nil disables conversion.
func WithConverter(c executor.Executor) Option {
	return func(p *ZipPackager) { p.Converter = c }
}

// NewZipPackager builds a packager for the given package settings.
func NewZipPackager(cfg *config.PackageConfig, opts ...Option) *ZipPackager {
	p := &ZipPackager{
		Config:  cfg,
		Store:   document.FS{},
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
		gitInfo: project.CollectGitInfo,
	}
	if cfg.Convert.Command != "" {
		p.Converter = &executor.NotebookExecutor{
			Command: cfg.Convert.Command,
			Args:    cfg.Convert.Args,
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ArtifactPath returns where Build writes the archive for document.
func ArtifactPath(document, outDir string) string {
	return filepath.Join(outDir, exerciseName(document)+".zip")
}

func exerciseName(document string) string {
	base := filepath.Base(document)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *ZipPackager) Build(ctx context.Context, req *Request) (string, error) {
	fail := func(err error) (string, error) {
		return "", types.Wrap(types.ErrPackagingFailed, req.OutDir, err)
	}

	info, err := os.Stat(req.OutDir)
	if err != nil {
		return fail(fmt.Errorf("output directory: %w", err))
	}
	if !info.IsDir() {
		return fail(fmt.Errorf("output path is not a directory"))
	}

	if p.Converter != nil {
		if _, err := p.Converter.Execute(ctx, &executor.Request{Path: req.Document}); err != nil {
			return "", conversionError(req.Document, err)
		}
	}

	srcDir := filepath.Dir(req.Document)
	docName := filepath.Base(req.Document)
	dest := ArtifactPath(req.Document, req.OutDir)
	skip := append(outputSkips(srcDir, req.OutDir, dest), req.Exclude...)
	files, err := project.Scan(srcDir, p.Config, skip...)
	if err != nil {
		return fail(fmt.Errorf("collecting files: %w", err))
	}
	if !containsPath(files, docName) {
		return fail(fmt.Errorf("exercise document %s is not selected by the package patterns", docName))
	}

	manifest, err := p.manifest(req, srcDir)
	if err != nil {
		return fail(err)
	}

	tmp, err := os.CreateTemp(req.OutDir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fail(err)
	}
	// Removing after a successful rename is a no-op.
	defer os.Remove(tmp.Name())

	if err := p.writeZip(ctx, tmp, manifest, files); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fail(err)
	}

	vlog.Info("packaged exercise", "artifact", dest, "files", len(manifest.Files), "id", manifest.ID)
	return dest, nil
}

// outputSkips keeps earlier archives out of a new one: the artifact's own name
// always, and the whole output directory when it sits inside srcDir.
func outputSkips(srcDir, outDir, artifact string) []string {
	skip := []string{filepath.Base(artifact)}
	absSrc, err := filepath.Abs(srcDir)
	if err != nil {
		return skip
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return skip
	}
	rel, err := filepath.Rel(absSrc, absOut)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return skip
	}
	return append(skip, rel)
}

// conversionError reports a failed notebook build as a packaging failure,
// keeping the converter's diagnostic.
func conversionError(doc string, err error) error {
	var xe *types.Error
	if errors.As(err, &xe) {
		msg := "converting exercise"
		if xe.Msg != "" {
			msg += ": " + xe.Msg
		}
		return &types.Error{Kind: types.ErrPackagingFailed, Path: doc, Msg: msg, Err: xe.Err}
	}
	return types.Wrap(types.ErrPackagingFailed, doc, fmt.Errorf("converting exercise: %w", err))
}

func (p *ZipPackager) manifest(req *Request, srcDir string) (*Manifest, error) {
	m := &Manifest{
		ID:       p.newID(),
		Exercise: exerciseName(req.Document),
		Executed: req.Executed,
		Created:  p.now().UTC().Format(time.RFC3339),
	}
	if req.Template != "" {
		m.Source = filepath.Base(req.Template)
	}

	text, err := p.Store.Read(req.Document)
	if err != nil {
		return nil, err
	}
	fm, ok, err := document.ParseFrontMatter(text)
	if err != nil {
		vlog.Warn("ignoring exercise front matter", "document", req.Document, "err", err)
	} else if ok {
		m.Title = fm.Title
	}

	if p.gitInfo != nil {
		if gi, err := p.gitInfo(srcDir); err == nil {
			m.Git = &GitManifest{Branch: gi.Branch, Commit: gi.Commit, Dirty: gi.IsDirty}
		} else {
			vlog.Debug("no git information for exercise", "dir", srcDir, "err", err)
		}
	}
	return m, nil
}

func (p *ZipPackager) writeZip(ctx context.Context, w io.Writer, m *Manifest, files []project.FileEntry) error {
	zw := zip.NewWriter(w)
	modified := p.now()
	prefix := m.Exercise + "/"

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum, err := addFile(zw, prefix+f.Path, f.AbsPath, modified)
		if err != nil {
			return fmt.Errorf("adding %s: %w", f.Path, err)
		}
		m.Files = append(m.Files, ManifestFile{Path: f.Path, Size: f.Size, SHA256: sum})
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	hw, err := zw.CreateHeader(&zip.FileHeader{Name: prefix + ManifestName, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	if _, err := hw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, name, path string, modified time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return "", err
	}
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(w, h), src); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func containsPath(files []project.FileEntry, rel string) bool {
	for _, f := range files {
		if f.Path == rel {
			return true
		}
	}
	return false
}
