package jsonutil

import (
	"errors"
	"testing"
)

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"padding", "  \n{\"a\":1}\n  ", `{"a":1}`},
		{"short fence", "```{}```", "```{}```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownFences(tt.in); got != tt.want {
				t.Errorf("StripMarkdownFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	got, err := ExtractJSON(`Here you go: {"colors": []} hope that helps`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"colors": []}` {
		t.Errorf("ExtractJSON() = %q", got)
	}

	got, err = ExtractJSON(`result: [1, {"a": 2}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `[1, {"a": 2}]` {
		t.Errorf("ExtractJSON() = %q", got)
	}

	if _, err := ExtractJSON("no json here"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
	if _, err := ExtractJSON("{ unterminated"); err == nil {
		t.Error("expected error for missing closing brace")
	}
}

type suggestion struct {
	Dodge int `json:"dodge"`
	Burn  int `json:"burn"`
}

func TestParseJSON(t *testing.T) {
	got, err := ParseJSON[suggestion]("```json\n{\"dodge\": 70, \"burn\": 30}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Dodge != 70 || got.Burn != 30 {
		t.Errorf("ParseJSON() = %+v", got)
	}
}

func TestParseJSON_RepairsTrailingComma(t *testing.T) {
	got, err := ParseJSON[suggestion](`{"dodge": 10, "burn": 90,}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Dodge != 10 || got.Burn != 90 {
		t.Errorf("ParseJSON() = %+v", got)
	}
}

func TestParseJSON_TypeMismatch(t *testing.T) {
	if _, err := ParseJSON[suggestion](`{"dodge": "high", "burn": "low"}`); err == nil {
		t.Error("expected error for string values in integer fields")
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("abcdef", 3); got != "abc..." {
		t.Errorf("Preview() = %q", got)
	}
	if got := Preview("abc", 3); got != "abc" {
		t.Errorf("Preview() = %q", got)
	}
}
