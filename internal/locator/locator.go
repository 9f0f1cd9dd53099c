// Package locator finds the single template document in an exercise directory
// and names the documents derived from it.
package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/futureCreator/exbuild/internal/types"
)

// DefaultPattern matches "unit1_template.Rmd" and variants such as
// "unit1_template_old.Rmd".
const DefaultPattern = `_template(_[^.]*)?\.Rmd$`

// SolutionSuffix is appended to the exercise stem to name the solution.
const SolutionSuffix = "_solution"

// Paths names the documents of one exercise.
type Paths struct {
	Template string
	Exercise string
	Solution string
}

// Compile parses a template naming pattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid template pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Locate returns the path of the only entry of dir whose name matches re.
func Locate(dir string, re *regexp.Regexp) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", types.Wrap(types.ErrMissingTemplate, dir, err)
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if re.MatchString(e.Name()) {
			matches = append(matches, e.Name())
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", types.Errorf(types.ErrMissingTemplate, dir, "no file matches %s", re.String())
	case 1:
		return filepath.Join(dir, matches[0]), nil
	default:
		return "", types.Errorf(types.ErrAmbiguousTemplate, dir, "candidates %s", strings.Join(matches, ", "))
	}
}

// Derive names the exercise and solution documents written beside template.
// The part of the file name matched by re is dropped and the extension kept.
func Derive(template string, re *regexp.Regexp) (Paths, error) {
	dir, name := filepath.Split(template)
	loc := re.FindStringIndex(name)
	if loc == nil {
		return Paths{}, fmt.Errorf("%s does not match template pattern %s", name, re.String())
	}
	stem := name[:loc[0]]
	if stem == "" {
		return Paths{}, fmt.Errorf("%s has no name before the template suffix", name)
	}
	ext := filepath.Ext(name)
	p := Paths{
		Template: template,
		Exercise: filepath.Join(dir, stem+ext),
		Solution: filepath.Join(dir, stem+SolutionSuffix+ext),
	}
	// A derived document that matches the pattern would be located as a
	// second template on the next run.
	for _, derived := range []string{p.Exercise, p.Solution} {
		if re.MatchString(filepath.Base(derived)) {
			return Paths{}, fmt.Errorf("derived name %s also matches template pattern %s", filepath.Base(derived), re.String())
		}
	}
	return p, nil
}
