package placeholder

import (
	"fmt"
	"strings"
)

// RenderExercise replaces every placeholder with its prompt, or with blank
// when no prompt was authored.
func RenderExercise(spans []Span, blank string) string {
	var sb strings.Builder
	for _, s := range spans {
		switch {
		case s.Kind == KindLiteral:
			sb.WriteString(s.Text)
		case s.HasPrompt:
			sb.WriteString(s.Prompt)
		case s.Inline:
			sb.WriteString(blank)
		default:
			sb.WriteString(s.Indent)
			sb.WriteString(blank)
			sb.WriteString(s.Newline)
		}
	}
	return sb.String()
}

// RenderSolution replaces every placeholder with its answer.
func RenderSolution(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.Kind == KindLiteral {
			sb.WriteString(s.Text)
			continue
		}
		sb.WriteString(s.Answer)
	}
	return sb.String()
}

// DeriveExercise parses text and renders the exercise variant.
func DeriveExercise(text, blank string) (string, error) {
	if err := ValidateBlank(blank); err != nil {
		return "", err
	}
	spans, err := Parse(text)
	if err != nil {
		return "", err
	}
	return RenderExercise(spans, blank), nil
}

// DeriveSolution parses text and renders the solution variant.
func DeriveSolution(text string) (string, error) {
	spans, err := Parse(text)
	if err != nil {
		return "", err
	}
	return RenderSolution(spans), nil
}

// ValidateBlank rejects blank markers that would render as placeholder syntax.
func ValidateBlank(blank string) error {
	if strings.TrimSpace(blank) == "" {
		return fmt.Errorf("blank marker must not be empty")
	}
	if strings.ContainsAny(blank, "\r\n") {
		return fmt.Errorf("blank marker %q must be a single line", blank)
	}
	if containsMarker(blank) {
		return fmt.Errorf("blank marker %q contains placeholder syntax", blank)
	}
	return nil
}

// Stats summarises the placeholders of a parsed template.
type Stats struct {
	Blocks     int
	Inline     int
	WithPrompt int
}

// Total is the number of placeholders.
func (s Stats) Total() int { return s.Blocks + s.Inline }

// Count tallies the placeholders in spans.
func Count(spans []Span) Stats {
	var st Stats
	for _, s := range spans {
		if s.Kind != KindPlaceholder {
			continue
		}
		if s.Inline {
			st.Inline++
		} else {
			st.Blocks++
		}
		if s.HasPrompt {
			st.WithPrompt++
		}
	}
	return st
}
