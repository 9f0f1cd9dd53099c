package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/futureCreator/exbuild/internal/locator"
	"github.com/futureCreator/exbuild/internal/placeholder"
	"gopkg.in/yaml.v3"
)

// Dir is the name of the user- and project-level configuration directory.
const Dir = ".exbuild"

// Config is the top-level configuration structure.
type Config struct {
	Template TemplateConfig `yaml:"template"`
	Executor ExecutorConfig `yaml:"executor"`
	Package  PackageConfig  `yaml:"package"`
	RunsDir  string         `yaml:"runs_dir"`
	LogLevel string         `yaml:"log_level"`
}

type TemplateConfig struct {
	Pattern string `yaml:"pattern"`
	Blank   string `yaml:"blank"`
}

// ExecutorConfig describes the external notebook runner. "{path}" in Args is
// replaced with the template path.
type ExecutorConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Timeout string   `yaml:"timeout"`
}

type PackageConfig struct {
	// Convert builds a notebook from the written exercise before archiving.
	Convert         ConvertConfig `yaml:"convert"`
	MaxFiles        int           `yaml:"max_files"`
	MaxFileSize     string        `yaml:"max_file_size"`
	IncludePatterns []string      `yaml:"include_patterns"`
	ExcludePatterns []string      `yaml:"exclude_patterns"`
}

// ConvertConfig describes the command that turns the exercise document into
// a notebook without executing it. "{path}" in Args is replaced with the
// exercise path. An empty Command disables conversion.
type ConvertConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Validate checks that required fields are present and well formed.
func (c *Config) Validate() error {
	if _, err := locator.Compile(c.Template.Pattern); err != nil {
		return fmt.Errorf("template.pattern: %w", err)
	}
	if err := placeholder.ValidateBlank(c.Template.Blank); err != nil {
		return fmt.Errorf("template.blank: %w", err)
	}
	if strings.TrimSpace(c.Executor.Command) == "" {
		return fmt.Errorf("executor.command is required")
	}
	if _, err := c.ExecutorTimeout(); err != nil {
		return fmt.Errorf("executor.timeout: %w", err)
	}
	for _, a := range c.Package.Convert.Args {
		if a == "--execute" {
			return fmt.Errorf("package.convert must not execute the exercise")
		}
	}
	if c.Package.MaxFiles <= 0 {
		return fmt.Errorf("package.max_files must be positive")
	}
	return nil
}

// ExecutorTimeout returns the configured execution bound. Zero means none.
func (c *Config) ExecutorTimeout() (time.Duration, error) {
	if c.Executor.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Executor.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", d)
	}
	return d, nil
}

// Load resolves config from project → user → defaults.
func Load() (*Config, error) {
	cfg := Defaults()

	// user-level config
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, Dir, "config.yaml")
		if err := mergeFile(cfg, userPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	// project-level config (highest priority)
	projectPath := filepath.Join(Dir, "config.yaml")
	if err := mergeFile(cfg, projectPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Template: TemplateConfig{
			Pattern: locator.DefaultPattern,
			Blank:   placeholder.DefaultBlank,
		},
		Executor: ExecutorConfig{
			Command: "jupytext",
			Args:    []string{"--execute", "--to", "ipynb", "{path}"},
		},
		Package: PackageConfig{
			Convert: ConvertConfig{
				Command: "jupytext",
				Args:    []string{"--to", "ipynb", "{path}"},
			},
			MaxFiles:        200,
			MaxFileSize:     "10MB",
			IncludePatterns: []string{"*"},
			ExcludePatterns: []string{".git/", ".ipynb_checkpoints/", "__pycache__/", ".exbuild/"},
		},
		LogLevel: "info",
	}
}
