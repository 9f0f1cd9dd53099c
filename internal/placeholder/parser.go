// Package placeholder parses exercise templates into literal and placeholder
// spans and renders them as exercise or solution documents.
//
// Two placeholder forms are recognised. A block spans whole lines:
//
//	#<< answer
//	x <- 2 + 2
//	#<< prompt
//	x <- ...
//	#>>
//
// The prompt section is optional. An inline placeholder occupies the rest of
// a single line, with the answer before the marker and the prompt after it:
//
//	x <- 2 + 2  #<- x <- ...
package placeholder

import (
	"fmt"
	"strings"

	"github.com/futureCreator/exbuild/internal/types"
)

// Marker tokens.
const (
	BlockStart   = "#<< answer"
	PromptSep    = "#<< prompt"
	BlockEnd     = "#>>"
	InlineMark   = "#<-"
	DefaultBlank = "..."
)

// markerTokens are the fragments that may never survive into rendered output.
var markerTokens = []string{"#<<", "#>>", InlineMark}

// Kind distinguishes literal text from placeholders.
type Kind int

const (
	KindLiteral Kind = iota
	KindPlaceholder
)

// Span is one piece of a parsed template.
type Span struct {
	Kind Kind
	// Text is the verbatim content of a literal span.
	Text string

	Answer    string
	Prompt    string
	HasPrompt bool
	// Inline placeholders cover the rest of one line; blocks cover whole lines
	// including the marker lines.
	Inline bool
	// Indent is the leading whitespace of the start marker (blocks only).
	Indent string
	// Newline is the terminator of the end marker line (blocks only).
	Newline string
	// Line is the 1-based line the placeholder starts on.
	Line int
}

// Literal builds a literal span.
func Literal(text string) Span { return Span{Kind: KindLiteral, Text: text} }

// SyntaxError reports malformed placeholder syntax.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Is lets errors.Is(err, types.ErrMalformedTemplate) match syntax errors.
func (e *SyntaxError) Is(target error) bool { return target == types.ErrMalformedTemplate }

func syntaxErrorf(line int, format string, args ...any) error {
	return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

type parseState int

const (
	stateOutside parseState = iota
	stateAnswer
	statePrompt
)

type parser struct {
	spans   []Span
	literal strings.Builder

	state  parseState
	block  Span
	answer strings.Builder
	prompt strings.Builder
}

// Parse splits text into spans. Any malformed placeholder syntax fails the
// whole parse; no partial span list is returned.
func Parse(text string) ([]Span, error) {
	p := &parser{}
	for i, line := range splitLines(text) {
		if err := p.line(i+1, line); err != nil {
			return nil, err
		}
	}
	if p.state != stateOutside {
		return nil, syntaxErrorf(p.block.Line, "unterminated placeholder block")
	}
	p.flushLiteral()
	return p.spans, nil
}

func (p *parser) line(n int, line string) error {
	content := strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(content)

	switch trimmed {
	case BlockStart:
		if p.state != stateOutside {
			return syntaxErrorf(n, "nested placeholder block (outer block opened at line %d)", p.block.Line)
		}
		p.flushLiteral()
		p.state = stateAnswer
		p.block = Span{Kind: KindPlaceholder, Indent: leadingSpace(content), Line: n}
		p.answer.Reset()
		p.prompt.Reset()
		return nil
	case PromptSep:
		switch p.state {
		case stateOutside:
			return syntaxErrorf(n, "prompt separator outside a placeholder block")
		case statePrompt:
			return syntaxErrorf(n, "duplicate prompt separator in block opened at line %d", p.block.Line)
		}
		p.state = statePrompt
		p.block.HasPrompt = true
		return nil
	case BlockEnd:
		if p.state == stateOutside {
			return syntaxErrorf(n, "end marker without an open placeholder block")
		}
		p.block.Answer = p.answer.String()
		p.block.Prompt = p.prompt.String()
		p.block.Newline = line[len(content):]
		p.spans = append(p.spans, p.block)
		p.state = stateOutside
		return nil
	}

	if strings.Contains(content, InlineMark) {
		if p.state != stateOutside {
			return syntaxErrorf(n, "inline placeholder inside block opened at line %d", p.block.Line)
		}
		return p.inline(n, line, content)
	}
	if containsMarker(content) {
		return syntaxErrorf(n, "unrecognised marker in %q", trimmed)
	}

	switch p.state {
	case stateAnswer:
		p.answer.WriteString(line)
	case statePrompt:
		p.prompt.WriteString(line)
	default:
		p.literal.WriteString(line)
	}
	return nil
}

func (p *parser) inline(n int, line, content string) error {
	idx := strings.Index(content, InlineMark)
	before, after := content[:idx], content[idx+len(InlineMark):]
	if containsMarker(after) || containsMarker(before) {
		return syntaxErrorf(n, "more than one marker on an inline placeholder line")
	}
	indent := leadingSpace(before)
	answer := strings.TrimRight(before[len(indent):], " \t")
	if answer == "" {
		return syntaxErrorf(n, "inline placeholder without an answer")
	}
	prompt := strings.TrimSpace(after)

	p.literal.WriteString(indent)
	p.flushLiteral()
	p.spans = append(p.spans, Span{
		Kind:      KindPlaceholder,
		Inline:    true,
		Answer:    answer,
		Prompt:    prompt,
		HasPrompt: prompt != "",
		Line:      n,
	})
	p.literal.WriteString(line[len(content):])
	return nil
}

func (p *parser) flushLiteral() {
	if p.literal.Len() == 0 {
		return
	}
	p.spans = append(p.spans, Literal(p.literal.String()))
	p.literal.Reset()
}

// splitLines splits text after each "\n", keeping terminators.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func containsMarker(s string) bool {
	for _, tok := range markerTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// ContainsMarker reports whether s contains any placeholder marker fragment.
func ContainsMarker(s string) bool { return containsMarker(s) }
