package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/futureCreator/exbuild/internal/config"
	"github.com/futureCreator/exbuild/internal/document"
	"github.com/futureCreator/exbuild/internal/executor"
	vlog "github.com/futureCreator/exbuild/internal/log"
	"github.com/futureCreator/exbuild/internal/packager"
	"github.com/futureCreator/exbuild/internal/pipeline"
)

// defaultOutDir is where archives go when --out-path is not given. Set once
// by Execute.
var defaultOutDir string

// resolveDefaultOutDir returns the "exercises" directory beside the
// directory holding the running binary, so /opt/exbuild/bin/exbuild
// packages into /opt/exbuild/exercises.
func resolveDefaultOutDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "exercises"
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(filepath.Dir(exe)), "exercises")
}

func resolveOutDir(flag string) (string, error) {
	dir := flag
	if dir == "" {
		dir = defaultOutDir
	}
	if dir == "" {
		dir = resolveDefaultOutDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	return abs, nil
}

// setup loads and validates config and starts logging. The returned func
// closes the log file.
func setup() (*config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logFile := openLogFile()
	vlog.Init(cfg.LogLevel, logFile)
	closeLog := func() {
		if logFile != nil {
			logFile.Close()
		}
	}
	return cfg, closeLog, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newExecutor(cfg *config.Config) (*executor.NotebookExecutor, error) {
	timeout, err := cfg.ExecutorTimeout()
	if err != nil {
		return nil, fmt.Errorf("executor.timeout: %w", err)
	}
	return &executor.NotebookExecutor{
		Command: cfg.Executor.Command,
		Args:    cfg.Executor.Args,
		Timeout: timeout,
	}, nil
}

func newEngine(cfg *config.Config, disp *pipeline.Display) (*pipeline.Engine, error) {
	nb, err := newExecutor(cfg)
	if err != nil {
		return nil, err
	}
	return &pipeline.Engine{
		Config:   cfg,
		Store:    document.FS{},
		Executor: nb,
		Packager: packager.NewZipPackager(&cfg.Package),
		Display:  disp,
	}, nil
}

func openLogFile() *os.File {
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(config.Dir, "exbuild.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return f
}
