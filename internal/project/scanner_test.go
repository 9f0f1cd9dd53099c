package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/futureCreator/exbuild/internal/config"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"50KB", 50 * 1024},
		{"1MB", 1024 * 1024},
		{"100", 100},
		{"", 10 * 1024 * 1024},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.input)
		if err != nil {
			t.Errorf("parseSize(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseSize(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
	if _, err := parseSize("lots"); err == nil {
		t.Error("parseSize(\"lots\") expected error")
	}
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"unit1.Rmd":             "exercise",
		"unit1_template.Rmd":    "template",
		"unit1_solution.Rmd":    "solution",
		"data.csv":              "a,b",
		"tests/q_type_float.py": "test = {}",
		".hidden":               "x",
		".git/config":           "x",
		"__pycache__/x.pyc":     "x",
		"big.bin":               strings.Repeat("x", 2048),
	})

	cfg := &config.PackageConfig{
		MaxFiles:        10,
		MaxFileSize:     "1KB",
		IncludePatterns: []string{"*"},
		ExcludePatterns: []string{"__pycache__/"},
	}

	entries, err := Scan(dir, cfg, "unit1_template.Rmd", "unit1_solution.Rmd")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Path)
	}
	want := "data.csv,tests/q_type_float.py,unit1.Rmd"
	if strings.Join(got, ",") != want {
		t.Errorf("Scan() = %v, want %s", got, want)
	}
}

func TestScanIncludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.Rmd": "x", "b.txt": "y"})
	cfg := &config.PackageConfig{MaxFiles: 10, IncludePatterns: []string{"*.Rmd"}}
	entries, err := Scan(dir, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path != "a.Rmd" {
		t.Errorf("Scan() = %+v, want only a.Rmd", entries)
	}
}

func TestScanMaxFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a": "1", "b": "2", "c": "3"})
	cfg := &config.PackageConfig{MaxFiles: 2, IncludePatterns: []string{"*"}}
	if _, err := Scan(dir, cfg); err == nil {
		t.Error("expected error when exceeding max_files")
	}
}

func TestScanSkipsListedDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"unit1.Rmd":        "exercise",
		"dist/unit1.zip":   "old archive",
		"dist/nested/a.py": "x",
		"data/dist.csv":    "a,b",
	})
	cfg := config.Defaults().Package

	entries, err := Scan(dir, &cfg, "dist")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Path)
	}
	want := []string{"data/dist.csv", "unit1.Rmd"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}
