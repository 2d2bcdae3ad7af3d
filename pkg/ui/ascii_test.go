package ui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// bannerRows splits a rendered banner into its art rows, stripping the
// leading newline and the tab indent on each row.
func bannerRows(t *testing.T, banner string) []string {
	t.Helper()
	if !strings.HasPrefix(banner, "\n") {
		t.Fatalf("banner should start with a newline, got %q", banner)
	}
	rows := strings.Split(strings.TrimPrefix(banner, "\n"), "\n")
	for i, row := range rows {
		if !strings.HasPrefix(row, "\t") {
			t.Fatalf("row %d should start with a tab, got %q", i, row)
		}
		rows[i] = strings.TrimPrefix(row, "\t")
	}
	return rows
}

func TestGenerateASCIIArt_BannerShape(t *testing.T) {
	rows := bannerRows(t, GenerateASCIIArt("LOOM"))

	if len(rows) != artRows {
		t.Fatalf("expected %d art rows, got %d", artRows, len(rows))
	}
	for i, row := range rows {
		if !strings.ContainsRune(row, '█') {
			t.Errorf("row %d carries no block characters: %q", i, row)
		}
	}
}

func TestGenerateASCIIArt_RowsAlign(t *testing.T) {
	// Every glyph in the font is rectangular, so every banner row must
	// come out the same width no matter which characters it mixes.
	inputs := []string{
		"LOOM",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		"0123456789",
		"A-B_C 42",
	}
	for _, input := range inputs {
		rows := bannerRows(t, GenerateASCIIArt(input))
		width := utf8.RuneCountInString(rows[0])
		for i, row := range rows[1:] {
			if got := utf8.RuneCountInString(row); got != width {
				t.Errorf("input %q: row %d width %d, want %d", input, i+1, got, width)
			}
		}
	}
}

func TestGenerateASCIIArt_Uppercases(t *testing.T) {
	if got, want := GenerateASCIIArt("loom"), GenerateASCIIArt("LOOM"); got != want {
		t.Errorf("lowercase input should render identically to uppercase")
	}
}

func TestGenerateASCIIArt_SkipsUnknownRunes(t *testing.T) {
	if got, want := GenerateASCIIArt("L@O#O%M"), GenerateASCIIArt("LOOM"); got != want {
		t.Errorf("unsupported runes should be skipped, not rendered")
	}
}

func TestGenerateASCIIArt_SpaceWidensBanner(t *testing.T) {
	joined := bannerRows(t, GenerateASCIIArt("AB"))
	spaced := bannerRows(t, GenerateASCIIArt("A B"))

	if utf8.RuneCountInString(spaced[0]) <= utf8.RuneCountInString(joined[0]) {
		t.Errorf("a space should widen the banner: %q vs %q", spaced[0], joined[0])
	}
}

func TestGenerateASCIIArt_Empty(t *testing.T) {
	if got := GenerateASCIIArt(""); got != "" {
		t.Errorf("empty input should render nothing, got %q", got)
	}
	// Inputs made entirely of unsupported runes still produce the banner
	// frame, just with empty rows.
	rows := bannerRows(t, GenerateASCIIArt("@@@"))
	for i, row := range rows {
		if row != "" {
			t.Errorf("row %d should be empty for unsupported-only input, got %q", i, row)
		}
	}
}
