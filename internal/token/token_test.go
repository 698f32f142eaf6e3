// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package token

import (
	"reflect"
	"testing"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "whitespace only", text: "  \n\t ", want: 0},
		{name: "one word", text: "hello", want: 2},
		{name: "three words", text: "a b c", want: 4},
		{name: "ten words", text: "one two three four five six seven eight nine ten", want: 13},
		{name: "newlines count as separators", text: "first\nsecond\n\nthird", want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.text); got != tt.want {
				t.Errorf("Estimate(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitParagraphs(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want []string
	}{
		{
			name: "two paragraphs",
			blob: "First paragraph.\n\nSecond paragraph.",
			want: []string{"First paragraph.", "Second paragraph."},
		},
		{
			name: "extra blank lines",
			blob: "First.\n\n\n\nSecond.",
			want: []string{"First.", "Second."},
		},
		{
			name: "single paragraph",
			blob: "Only one.",
			want: []string{"Only one."},
		},
		{
			name: "empty blob",
			blob: "",
			want: nil,
		},
		{
			name: "surrounding whitespace trimmed",
			blob: "  padded  \n\n  also padded  ",
			want: []string{"padded", "also padded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitParagraphs(tt.blob)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitParagraphs(%q) = %v, want %v", tt.blob, got, tt.want)
			}
		})
	}
}
