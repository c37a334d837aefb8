// Package fontdb indexes fonts installed on the system so text drawn into
// an image can use a face matching what was removed. Families are
// discovered by parsing name tables, and CJK capability is probed per font
// so Chinese text never falls back to a face with no glyphs for it.
package fontdb

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Preferred fallback families, probed in order when no exact match exists.
var (
	PreferredCJK   = []string{"SimHei", "Microsoft YaHei", "SimSun", "KaiTi", "FangSong"}
	PreferredLatin = []string{"Arial", "Times New Roman", "Calibri", "Courier New"}
)

// Entry describes one font found during a scan.
type Entry struct {
	Family    string
	Subfamily string
	Path      string
	// Index selects the font within a .ttc collection. Zero otherwise.
	Index int
	// CJK reports whether the font has glyphs for common Chinese text.
	CJK  bool
	Bold bool
}

// DB is a scanned font index. The zero value is empty; use New and Scan.
type DB struct {
	mu       sync.RWMutex
	byFamily map[string][]*Entry
	families []string
}

// New returns an empty font database.
func New() *DB {
	return &DB{byFamily: make(map[string][]*Entry)}
}

// SystemDirs returns the conventional font directories for the platform.
func SystemDirs() []string {
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		return []string{filepath.Join(windir, "Fonts")}
	case "darwin":
		home, _ := os.UserHomeDir()
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			filepath.Join(home, "Library", "Fonts"),
		}
	default:
		home, _ := os.UserHomeDir()
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(home, ".fonts"),
		}
	}
}

// Scan walks the system font directories. Returns the number of fonts
// indexed; directories that do not exist are skipped.
func (db *DB) Scan() int {
	return db.ScanDirs(SystemDirs()...)
}

// ScanDirs walks the given directories recursively and indexes every
// parseable .ttf, .otf and .ttc file. Unreadable files are skipped.
func (db *DB) ScanDirs(dirs ...string) int {
	var added int
	for _, dir := range dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".otf", ".ttc":
			default:
				return nil
			}
			added += db.indexFile(path)
			return nil
		})
	}
	db.mu.Lock()
	db.rebuildFamilies()
	db.mu.Unlock()
	return added
}

func (db *DB) indexFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return 0
	}
	var added int
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		entry := describe(f, path, i)
		if entry == nil {
			continue
		}
		db.mu.Lock()
		key := strings.ToLower(entry.Family)
		db.byFamily[key] = append(db.byFamily[key], entry)
		db.mu.Unlock()
		added++
	}
	return added
}

// cjkProbe holds runes a usable Chinese font must cover.
var cjkProbe = []rune{'中', '文', '字'}

func describe(f *sfnt.Font, path string, index int) *Entry {
	var buf sfnt.Buffer
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil || family == "" {
		return nil
	}
	subfamily, _ := f.Name(&buf, sfnt.NameIDSubfamily)
	entry := &Entry{
		Family:    family,
		Subfamily: subfamily,
		Path:      path,
		Index:     index,
		Bold:      strings.Contains(strings.ToLower(subfamily), "bold"),
	}
	entry.CJK = true
	for _, r := range cjkProbe {
		gi, err := f.GlyphIndex(&buf, r)
		if err != nil || gi == 0 {
			entry.CJK = false
			break
		}
	}
	return entry
}

func (db *DB) rebuildFamilies() {
	names := make([]string, 0, len(db.byFamily))
	seen := make(map[string]bool, len(db.byFamily))
	for _, entries := range db.byFamily {
		for _, e := range entries {
			if !seen[e.Family] {
				seen[e.Family] = true
				names = append(names, e.Family)
			}
		}
	}
	sort.Strings(names)
	db.families = names
}

// Families lists all indexed family names in sorted order.
func (db *DB) Families() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]string, len(db.families))
	copy(out, db.families)
	return out
}

// Len reports the number of indexed fonts.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var n int
	for _, entries := range db.byFamily {
		n += len(entries)
	}
	return n
}

// Lookup finds a family by name, case-insensitively. With bold set, a bold
// variant is preferred but a regular one is still returned if that is all
// the family has.
func (db *DB) Lookup(family string, bold bool) (*Entry, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	entries := db.byFamily[strings.ToLower(family)]
	if len(entries) == 0 {
		return nil, false
	}
	for _, e := range entries {
		if e.Bold == bold {
			return e, true
		}
	}
	return entries[0], true
}

// Match picks a font for the given text. Families in preferred are tried
// first, then the stock list for the text's script, then any indexed font
// that covers the script. Returns false only when the index is empty.
func (db *DB) Match(text string, preferred []string, bold bool) (*Entry, bool) {
	cjk := ContainsCJK(text)
	stock := PreferredLatin
	if cjk {
		stock = PreferredCJK
	}
	for _, family := range append(append([]string{}, preferred...), stock...) {
		if e, ok := db.Lookup(family, bold); ok {
			if !cjk || e.CJK {
				return e, true
			}
		}
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	var fallback *Entry
	for _, name := range db.families {
		entries := db.byFamily[strings.ToLower(name)]
		for _, e := range entries {
			if cjk && !e.CJK {
				continue
			}
			if e.Bold == bold {
				return e, true
			}
			if fallback == nil {
				fallback = e
			}
		}
	}
	if fallback != nil {
		return fallback, true
	}
	// CJK text with no capable font: any face beats none.
	for _, name := range db.families {
		if entries := db.byFamily[strings.ToLower(name)]; len(entries) > 0 {
			return entries[0], true
		}
	}
	return nil, false
}

// Face loads a drawable face for an entry at the given pixel size.
func (e *Entry) Face(size float64) (font.Face, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", e.Path, err)
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", e.Path, err)
	}
	f, err := coll.Font(e.Index)
	if err != nil {
		return nil, fmt.Errorf("font %d in %s: %w", e.Index, e.Path, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("face for %s: %w", e.Family, err)
	}
	return face, nil
}

// Bytes returns the raw font file contents, for shaping backends that
// parse the font themselves.
func (e *Entry) Bytes() ([]byte, error) {
	return os.ReadFile(e.Path)
}

// ContainsCJK reports whether any rune in s is a Han ideograph.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
