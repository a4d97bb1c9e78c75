package ui

import (
	"testing"

	"github.com/five82/squadboard/internal/banana"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"fits", "a cat", 10, "a cat"},
		{"collapses_whitespace", "a \n  cat", 10, "a cat"},
		{"ellipsis", "a lighthouse at dusk", 8, "a light…"},
		{"no_limit", "a cat", 0, "a cat"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := truncate(tc.in, tc.limit); got != tc.want {
				t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
			}
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("outputs/job0001/v1-faithful.png", 20)
	if len([]rune(got)) > 20 {
		t.Fatalf("got %q (%d runes), want <=20", got, len([]rune(got)))
	}
	if got[len(got)-4:] != ".png" {
		t.Fatalf("truncateMiddle dropped extension: %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc123"); got != "abc123" {
		t.Fatalf("shortID short = %q", got)
	}
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID long = %q", got)
	}
}

func TestThemes(t *testing.T) {
	if got := GetTheme("missing").Name; got != "Dracula" {
		t.Fatalf("GetTheme fallback = %q, want Dracula", got)
	}
	if got := NextTheme("Dracula"); got != "Slate" {
		t.Fatalf("NextTheme(Dracula) = %q, want Slate", got)
	}
	if got := NextTheme("Slate"); got != "Dracula" {
		t.Fatalf("NextTheme(Slate) = %q, want Dracula", got)
	}
	for _, name := range themeOrder {
		th := GetTheme(name)
		for _, stage := range append(banana.PipelineStages, banana.StageFailed) {
			if th.StageColors[stage] == "" {
				t.Fatalf("theme %s has no color for %s", name, stage)
			}
		}
	}
}
