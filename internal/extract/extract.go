// Package extract recovers structured JSON values from free-form generator
// output. Generators asked to "return JSON" routinely wrap the payload in
// prose or code fences; extraction is best-effort and never raises.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Shape hints which top-level JSON value the caller expects.
type Shape int

const (
	ShapeAny Shape = iota
	ShapeObject
	ShapeList
)

// Reason classifies why no structured value could be recovered.
type Reason string

const (
	// ReasonNoStructure means the text contains no opening delimiter at all.
	ReasonNoStructure Reason = "no-structure"
	// ReasonMalformed means candidate substrings were found but none parsed.
	ReasonMalformed Reason = "malformed"
	// ReasonTruncated means an opening delimiter exists with no matching
	// closing delimiter; the response was likely cut off.
	ReasonTruncated Reason = "truncated"
)

// maxDiagnosticLen bounds the input snippet retained on failed attempts.
const maxDiagnosticLen = 500

// Failure is the typed, non-exceptional outcome of a failed extraction.
type Failure struct {
	Reason  Reason `json:"reason"`
	Snippet string `json:"snippet"`
}

// Attempt is the all-or-nothing result of one extraction: either Value/Raw
// are set, or Failure is.
type Attempt struct {
	Value   any      `json:"value,omitempty"`
	Raw     string   `json:"-"`
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether the attempt recovered a value.
func (a Attempt) OK() bool { return a.Failure == nil }

// Decode unmarshals the recovered raw JSON into dst. Calling Decode on a
// failed attempt is an error.
func (a Attempt) Decode(dst any) error {
	if !a.OK() {
		return &FailureError{Failure: *a.Failure}
	}
	return json.Unmarshal([]byte(a.Raw), dst)
}

// FailureError adapts a Failure for callers that thread errors.
type FailureError struct {
	Failure Failure
}

func (e *FailureError) Error() string {
	return "extract: " + string(e.Failure.Reason)
}

// strategy attempts one recovery tactic; it returns the parsed value, the
// exact substring that parsed, and whether it succeeded.
type strategy func(text string, shape Shape) (any, string, bool)

// strategies are tried in order; the first success wins.
var strategies = []strategy{
	parseDirect,
	parseFenced,
	parseOutermost,
}

// JSON extracts a structured value from text. It never panics and never
// returns a Go error: malformed input yields an Attempt with a typed
// Failure carrying a bounded snippet of the input for diagnostics.
func JSON(text string, shape Shape) Attempt {
	trimmed := strings.TrimSpace(text)

	for _, s := range strategies {
		if v, raw, ok := s(trimmed, shape); ok {
			return Attempt{Value: v, Raw: raw}
		}
	}

	return Attempt{Failure: &Failure{
		Reason:  classify(trimmed, shape),
		Snippet: truncate(trimmed, maxDiagnosticLen),
	}}
}

// Object extracts with an object shape hint.
func Object(text string) Attempt { return JSON(text, ShapeObject) }

// List extracts with a list shape hint.
func List(text string) Attempt { return JSON(text, ShapeList) }

// parseDirect accepts text that already is a bare JSON value of the
// expected shape.
func parseDirect(text string, shape Shape) (any, string, bool) {
	if !delimited(text, shape) {
		return nil, "", false
	}
	if v, ok := tryParse(text, shape); ok {
		return v, text, true
	}
	return nil, "", false
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseFenced pulls candidate payloads out of triple-backtick blocks,
// optionally tagged "json".
func parseFenced(text string, shape Shape) (any, string, bool) {
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if v, ok := tryParse(candidate, shape); ok {
			return v, candidate, true
		}
	}
	return nil, "", false
}

// parseOutermost slices from the first opening delimiter to the last
// matching closing delimiter in the whole text. Nested delimiters inside
// string values are not specially handled, so this can over- or
// under-capture when prose commentary itself contains braces; the parse
// check below is the only guard.
func parseOutermost(text string, shape Shape) (any, string, bool) {
	for _, pair := range delimiterPairs(shape) {
		start := strings.Index(text, pair.open)
		end := strings.LastIndex(text, pair.close)
		if start == -1 || end == -1 || end <= start {
			continue
		}
		candidate := text[start : end+1]
		if v, ok := tryParse(candidate, shape); ok {
			return v, candidate, true
		}
	}
	return nil, "", false
}

type delimPair struct{ open, close string }

func delimiterPairs(shape Shape) []delimPair {
	switch shape {
	case ShapeObject:
		return []delimPair{{"{", "}"}}
	case ShapeList:
		return []delimPair{{"[", "]"}}
	default:
		return []delimPair{{"{", "}"}, {"[", "]"}}
	}
}

func delimited(text string, shape Shape) bool {
	for _, pair := range delimiterPairs(shape) {
		if strings.HasPrefix(text, pair.open) && strings.HasSuffix(text, pair.close) {
			return true
		}
	}
	return false
}

func tryParse(candidate string, shape Shape) (any, bool) {
	if candidate == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, false
	}
	switch shape {
	case ShapeObject:
		if _, ok := v.(map[string]any); !ok {
			return nil, false
		}
	case ShapeList:
		if _, ok := v.([]any); !ok {
			return nil, false
		}
	default:
		switch v.(type) {
		case map[string]any, []any:
		default:
			return nil, false
		}
	}
	return v, true
}

func classify(text string, shape Shape) Reason {
	opened, closed := false, false
	for _, pair := range delimiterPairs(shape) {
		if strings.Contains(text, pair.open) {
			opened = true
			if strings.Contains(text, pair.close) {
				closed = true
			}
		}
	}
	switch {
	case !opened:
		return ReasonNoStructure
	case !closed:
		return ReasonTruncated
	default:
		return ReasonMalformed
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
