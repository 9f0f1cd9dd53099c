package document

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformedFrontMatter indicates an opening fence without a closing one.
var ErrMalformedFrontMatter = errors.New("document: malformed front matter")

// FrontMatter is the subset of R Markdown header fields the packager records.
type FrontMatter struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author,omitempty"`
	// Extra keeps every other header field.
	Extra map[string]any `yaml:",inline"`
}

// ParseFrontMatter extracts the YAML header of a document that starts with a
// `---` fence. Documents without a header return ok=false and no error.
func ParseFrontMatter(text string) (fm FrontMatter, ok bool, err error) {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return FrontMatter{}, false, nil
	}
	// Keep the newline after the opening fence so an empty header still
	// matches the closing fence search.
	rest := normalized[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return FrontMatter{}, false, ErrMalformedFrontMatter
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return FrontMatter{}, false, fmt.Errorf("document: parse front matter: %w", err)
	}
	return fm, true, nil
}
