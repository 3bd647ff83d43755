package extract

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestJSON_NeverFails(t *testing.T) {
	// None of these inputs may panic or produce a nil-Failure miss.
	inputs := []string{
		"",
		"   \n\t  ",
		"no structure here at all",
		"{",
		"}",
		"{]",
		"{\"a\": }",
		"```json\n{broken\n```",
		"prose { with a stray opening brace",
		strings.Repeat("{", 2000),
		"```\n```\n```json\n```",
	}

	for _, in := range inputs {
		att := JSON(in, ShapeAny)
		if att.OK() {
			t.Errorf("JSON(%q) unexpectedly succeeded: %v", truncate(in, 40), att.Value)
			continue
		}
		if att.Failure.Reason == "" {
			t.Errorf("JSON(%q) returned failure without a reason", truncate(in, 40))
		}
		if len(att.Failure.Snippet) > maxDiagnosticLen {
			t.Errorf("JSON(%q) snippet exceeds bound: %d", truncate(in, 40), len(att.Failure.Snippet))
		}
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	value := map[string]any{
		"name":  "Jane Doe",
		"email": "jane.doe@example.edu",
		"title": "President",
	}
	payload, err := json.Marshal(value)
	if err != nil {
		t.Fatal(err)
	}

	wraps := []struct {
		name string
		wrap func(string) string
	}{
		{"bare", func(s string) string { return s }},
		{"whitespace", func(s string) string { return "\n\n  " + s + "  \n" }},
		{"tagged fence", func(s string) string { return "Here you go:\n```json\n" + s + "\n```\nLet me know!" }},
		{"untagged fence", func(s string) string { return "```\n" + s + "\n```" }},
		{"prose wrapped", func(s string) string { return "Based on my research, the contact is " + s + " as requested." }},
	}

	for _, tt := range wraps {
		t.Run(tt.name, func(t *testing.T) {
			att := JSON(tt.wrap(string(payload)), ShapeObject)
			if !att.OK() {
				t.Fatalf("extraction failed: %+v", att.Failure)
			}
			if !reflect.DeepEqual(att.Value, value) {
				t.Errorf("got %v, want %v", att.Value, value)
			}
		})
	}
}

func TestJSON_ShapeHint(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		shape  Shape
		wantOK bool
	}{
		{"object accepted as object", `{"a":1}`, ShapeObject, true},
		{"list rejected as object", `[1,2,3]`, ShapeObject, false},
		{"list accepted as list", `[1,2,3]`, ShapeList, true},
		{"object rejected as list", `{"a":1}`, ShapeList, false},
		{"scalar rejected as any", `42`, ShapeAny, false},
		{"list accepted as any", `["x"]`, ShapeAny, true},
		{"fenced list with surrounding object braces", "ignore {this} prose\n```json\n[\"u1\",\"u2\"]\n```", ShapeList, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := JSON(tt.text, tt.shape)
			if att.OK() != tt.wantOK {
				t.Errorf("JSON(%q, %v) ok = %v, want %v", tt.text, tt.shape, att.OK(), tt.wantOK)
			}
		})
	}
}

func TestJSON_FailureReasons(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Reason
	}{
		{"plain prose", "the university has about 30000 students", ReasonNoStructure},
		{"cut off response", `{"name": "Jane`, ReasonTruncated},
		{"braces but garbage", `{not: valid,, json}`, ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := JSON(tt.text, ShapeObject)
			if att.OK() {
				t.Fatalf("expected failure for %q", tt.text)
			}
			if att.Failure.Reason != tt.want {
				t.Errorf("reason = %s, want %s", att.Failure.Reason, tt.want)
			}
		})
	}
}

func TestJSON_FenceBeatsOutermostSlice(t *testing.T) {
	// Prose contains stray braces before the fenced payload; the fence
	// strategy must win before brace slicing mangles the candidate.
	text := "An example shape is {\"k\": ...} but the real answer is:\n```json\n{\"org\": \"Cheese Club\"}\n```"
	att := JSON(text, ShapeObject)
	if !att.OK() {
		t.Fatalf("extraction failed: %+v", att.Failure)
	}
	m := att.Value.(map[string]any)
	if m["org"] != "Cheese Club" {
		t.Errorf("got %v, want fenced payload", m)
	}
}

func TestAttempt_Decode(t *testing.T) {
	att := JSON("```json\n{\"name\":\"Ada\",\"title\":\"Editor\"}\n```", ShapeObject)
	if !att.OK() {
		t.Fatalf("extraction failed: %+v", att.Failure)
	}

	var out struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}
	if err := att.Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.Name != "Ada" || out.Title != "Editor" {
		t.Errorf("decoded %+v", out)
	}

	failed := JSON("nothing here", ShapeObject)
	if err := failed.Decode(&out); err == nil {
		t.Error("Decode() on failed attempt should error")
	}
}
