package textedit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-text/typesetting/di"
	tsfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// measurer shapes text through HarfBuzz to get accurate advance widths,
// including kerning and ligatures the raw glyph metrics miss. Not safe for
// concurrent use; the Editor serializes access.
type measurer struct {
	shaper shaping.HarfbuzzShaper
	fonts  map[string]*tsfont.Font
}

func newMeasurer() *measurer {
	return &measurer{fonts: make(map[string]*tsfont.Font)}
}

// width returns the advance width in pixels of text drawn at the given
// size with the font file contents in data. The cache key identifies the
// font across calls.
func (m *measurer) width(key string, data []byte, size float64, text string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	f, ok := m.fonts[key]
	if !ok {
		face, err := tsfont.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return 0, fmt.Errorf("parse font for shaping: %w", err)
		}
		f = face.Font
		m.fonts[key] = f
	}

	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      tsfont.NewFace(f),
		Size:      fixed.Int26_6(size * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	output := m.shaper.Shape(input)
	return float64(output.Advance) / 64.0, nil
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if strings.ContainsRune(" \t\n\r", r) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
