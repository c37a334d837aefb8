package fontdb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func scanTestFonts(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "regular.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bold.ttf"), gobold.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notafont.ttf"), []byte("junk"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	db := New()
	if n := db.ScanDirs(dir); n != 2 {
		t.Fatalf("indexed %d fonts, want 2", n)
	}
	return db
}

func TestScanDirs(t *testing.T) {
	db := scanTestFonts(t)
	if db.Len() != 2 {
		t.Fatalf("Len = %d, want 2", db.Len())
	}
	families := db.Families()
	if len(families) == 0 {
		t.Fatalf("no families indexed")
	}
	if _, ok := db.Lookup(families[0], false); !ok {
		t.Errorf("Lookup(%q) failed", families[0])
	}
}

func TestScanDirsMissingDir(t *testing.T) {
	db := New()
	if n := db.ScanDirs(filepath.Join(t.TempDir(), "nope")); n != 0 {
		t.Fatalf("indexed %d fonts from missing dir", n)
	}
}

func TestLookupBoldVariant(t *testing.T) {
	db := scanTestFonts(t)
	family := db.Families()[0]

	regular, ok := db.Lookup(family, false)
	if !ok {
		t.Fatalf("regular lookup failed")
	}
	bold, ok := db.Lookup(family, true)
	if !ok {
		t.Fatalf("bold lookup failed")
	}
	if regular.Bold {
		t.Errorf("regular lookup returned bold face %+v", regular)
	}
	if !bold.Bold {
		t.Errorf("bold lookup returned %+v", bold)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	db := scanTestFonts(t)
	family := db.Families()[0]
	if _, ok := db.Lookup(strings.ToUpper(family), false); !ok {
		t.Fatalf("case-insensitive lookup failed")
	}
}

func TestMatchFallsBackToIndexed(t *testing.T) {
	db := scanTestFonts(t)
	// None of the preferred families are installed in the temp dir.
	e, ok := db.Match("hello world", []string{"No Such Family"}, false)
	if !ok {
		t.Fatalf("Match returned no font")
	}
	if e.Family == "" || e.Path == "" {
		t.Errorf("incomplete entry %+v", e)
	}
}

func TestMatchCJKWithoutCapableFont(t *testing.T) {
	db := scanTestFonts(t)
	// The Go fonts have no Han glyphs; Match must still return something.
	if _, ok := db.Match("中文测试", nil, false); !ok {
		t.Fatalf("Match returned no font for CJK text")
	}
}

func TestMatchEmptyDB(t *testing.T) {
	if _, ok := New().Match("text", nil, false); ok {
		t.Fatalf("empty database matched a font")
	}
}

func TestEntryFace(t *testing.T) {
	db := scanTestFonts(t)
	e, ok := db.Match("abc", nil, false)
	if !ok {
		t.Fatalf("no font")
	}
	face, err := e.Face(14)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	defer face.Close()
	if _, adv, ok := face.GlyphBounds('a'); !ok || adv == 0 {
		t.Errorf("glyph bounds missing for 'a'")
	}
}

func TestContainsCJK(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello", false},
		{"中文", true},
		{"mixed 中 text", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := ContainsCJK(tt.in); got != tt.want {
			t.Errorf("ContainsCJK(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
