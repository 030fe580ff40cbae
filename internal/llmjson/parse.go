// Package llmjson recovers a JSON value from free-form model output.
//
// Parsing runs a fixed sequence of stages. Each stage is a pure function from
// the raw text to a JSON document; the first stage that yields valid JSON
// wins. When every stage fails the caller gets a *ParseError describing each
// attempt.
package llmjson

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNoJSON is matched by every *ParseError
var ErrNoJSON = errors.New("no JSON value found")

// Stage extracts a JSON document from text
type Stage struct {
	Name string
	Fn   func(text string) (json.RawMessage, error)
}

// Stages is the default pipeline, in order
var Stages = []Stage{
	{Name: "direct", Fn: Direct},
	{Name: "fenced", Fn: Fenced},
	{Name: "span", Fn: Span},
	{Name: "repair", Fn: Repair},
}

// StageError is the failure of one stage
type StageError struct {
	Stage string
	Err   error
}

// ParseError lists why each stage failed
type ParseError struct {
	Attempts []StageError
}

func (e *ParseError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Stage, a.Err)
	}
	return fmt.Sprintf("%v (%s)", ErrNoJSON, strings.Join(parts, "; "))
}

func (e *ParseError) Is(target error) bool {
	return target == ErrNoJSON
}

// Parse runs the default stages
func Parse(text string) (json.RawMessage, error) {
	return ParseWith(text, Stages...)
}

// ParseWith runs the given stages in order
func ParseWith(text string, stages ...Stage) (json.RawMessage, error) {
	perr := &ParseError{}
	for _, st := range stages {
		raw, err := st.Fn(text)
		if err == nil {
			return raw, nil
		}
		perr.Attempts = append(perr.Attempts, StageError{Stage: st.Name, Err: err})
	}
	return nil, perr
}

// Decode parses text and unmarshals the recovered document into T
func Decode[T any](text string) (T, error) {
	var out T
	raw, err := Parse(text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode recovered JSON: %w", err)
	}
	return out, nil
}

var (
	errEmpty    = errors.New("empty input")
	errInvalid  = errors.New("not valid JSON")
	errNoFence  = errors.New("no fenced block")
	errNoOpener = errors.New("no object or array")
	errNoClose  = errors.New("value is never closed")
)

// Direct accepts the whole text when it is valid JSON
func Direct(text string) (json.RawMessage, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, errEmpty
	}
	if !json.Valid([]byte(t)) {
		return nil, errInvalid
	}
	return json.RawMessage(t), nil
}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*[ \\t]*\\n?(.*?)```")

// Fenced accepts the first markdown code block holding valid JSON
func Fenced(text string) (json.RawMessage, error) {
	blocks := fenceRe.FindAllStringSubmatch(text, -1)
	if len(blocks) == 0 {
		return nil, errNoFence
	}
	for _, b := range blocks {
		if raw, err := Direct(b[1]); err == nil {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%d fenced blocks, none valid", len(blocks))
}

// Span accepts the first outermost object or array embedded in prose that is
// valid JSON. Values nested inside a rejected candidate are not considered.
func Span(text string) (json.RawMessage, error) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, errNoOpener
	}
	for {
		end, ok := balancedEnd(text, start)
		if !ok {
			return nil, errNoClose
		}
		if raw, err := Direct(text[start:end]); err == nil {
			return raw, nil
		}
		next := strings.IndexAny(text[end:], "{[")
		if next < 0 {
			return nil, errInvalid
		}
		start = end + next
	}
}

// balancedEnd returns the index after the bracket closing text[start]
func balancedEnd(text string, start int) (int, bool) {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

var smartApostrophes = strings.NewReplacer("‘", "'", "’", "'")

// closers lists, for each typographic opening quote, the runes that may end a
// string it opened.
var closers = map[rune]string{
	'“': `”“"`,
	'”': `”“"`,
	'„': `”“"`,
	'«': `»"`,
}

// straightenQuotes turns typographic quotes used as JSON string delimiters
// into ASCII quotes. Quotes inside a string are content and are kept, so
// "Sauce « maison »" survives.
func straightenQuotes(t string) string {
	var b strings.Builder
	b.Grow(len(t))
	var (
		inString bool
		escaped  bool
		closeSet string
	)
	for _, r := range t {
		if !inString {
			if r == '"' {
				inString, closeSet = true, `"`
				b.WriteByte('"')
				continue
			}
			if c, ok := closers[r]; ok {
				inString, closeSet = true, c
				b.WriteByte('"')
				continue
			}
			b.WriteRune(r)
			continue
		}

		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case strings.ContainsRune(closeSet, r):
			inString = false
			b.WriteByte('"')
			continue
		}
		b.WriteRune(r)
	}
	return smartApostrophes.Replace(b.String())
}

// Repair fixes the usual defects of truncated or hand-edited output: smart
// quotes, trailing commas and unclosed strings or brackets. It starts at the
// first fenced block or the first opening bracket.
func Repair(text string) (json.RawMessage, error) {
	t := text
	if m := fenceRe.FindStringSubmatch(t); m != nil {
		t = m[1]
	} else if i := strings.Index(t, "```"); i >= 0 {
		// unterminated fence
		t = t[i+3:]
		if nl := strings.IndexByte(t, '\n'); nl >= 0 {
			t = t[nl+1:]
		}
	}
	t = straightenQuotes(t)

	start := strings.IndexAny(t, "{[")
	if start < 0 {
		return nil, errNoOpener
	}
	t = t[start:]
	if end, ok := balancedEnd(t, 0); ok {
		t = t[:end]
	}

	fixed := closeAndTrim(t)
	if !json.Valid([]byte(fixed)) {
		return nil, errInvalid
	}
	return json.RawMessage(fixed), nil
}

// closeAndTrim drops commas that precede a closing bracket and appends the
// closers of anything left open.
func closeAndTrim(t string) string {
	var b strings.Builder
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(t); i++ {
		c := t[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case ',':
			if nextSignificant(t, i+1) == '}' || nextSignificant(t, i+1) == ']' || nextSignificant(t, i+1) == 0 {
				continue
			}
		}
		b.WriteByte(c)
	}

	out := strings.TrimRight(b.String(), " \t\r\n")
	if inString {
		if escaped {
			out = out[:len(out)-1]
		}
		out += `"`
	}
	out = strings.TrimRight(out, " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	if strings.HasSuffix(out, ":") {
		out += "null"
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out += string(stack[i])
	}
	return out
}

func nextSignificant(t string, from int) byte {
	for i := from; i < len(t); i++ {
		switch t[i] {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return t[i]
		}
	}
	return 0
}
