package strings

import "testing"

func TestTrimSpace(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: " \t\n ", want: ""},
		{name: "trimmed", input: "  note  ", want: "note"},
		{name: "inner whitespace preserved", input: "  one  two  ", want: "one  two"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TrimSpace(tc.input)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "empty", input: "", want: true},
		{name: "whitespace", input: " \t\n ", want: true},
		{name: "non-empty", input: "note", want: false},
		{name: "trimmed non-empty", input: "  note  ", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsBlank(tc.input)
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: " \n\t ", want: ""},
		{name: "collapses spaces", input: "one   two    three", want: "one two three"},
		{name: "collapses newlines", input: "one\n\n two\tthree", want: "one two three"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeWhitespace(tc.input)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNormalizeNewlines(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "crlf", input: "one\r\ntwo", want: "one\ntwo"},
		{name: "cr only", input: "one\rtwo", want: "one\ntwo"},
		{name: "mixed", input: "one\r\ntwo\rthree", want: "one\ntwo\nthree"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeNewlines(tc.input)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTrimTrailing(t *testing.T) {
	if got := TrimTrailingNewlines("text\r\n\n"); got != "text" {
		t.Fatalf("expected newlines trimmed, got %q", got)
	}
	if got := TrimTrailingSlash("http://localhost:8000//"); got != "http://localhost:8000" {
		t.Fatalf("expected slashes trimmed, got %q", got)
	}
}

func TestIndentBlock(t *testing.T) {
	if got := IndentBlock("a\nb", 2); got != "  a\n  b" {
		t.Fatalf("unexpected indent: %q", got)
	}
	if got := IndentBlock("a", 0); got != "a" {
		t.Fatalf("expected no indent, got %q", got)
	}
}
