// Package textedit removes text from images and draws replacements styled
// to match what was there: matched font family, size, color and weight.
package textedit

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/imagekit/fontdb"
	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/inpaint"
	"github.com/wudi/imagekit/raster"
)

// ErrNoFont reports that no usable font could be found for the text.
var ErrNoFont = errors.New("textedit: no usable font found")

// deletePad widens each text mask so anti-aliased glyph fringes are
// inpainted along with the glyph bodies.
const deletePad = 2

// Style overrides individual derived features when drawing text. Zero
// values keep the derived behavior.
type Style struct {
	Family string
	Size   int
	Color  *color.RGBA
	Bold   *bool
}

// Editor performs text deletion and replacement against a font database.
type Editor struct {
	db        *fontdb.DB
	preferred []string
	radius    int

	mu      sync.Mutex
	measure *measurer
}

// Option configures an Editor.
type Option func(*Editor)

// WithPreferredFamilies sets font families tried before the stock
// fallbacks when matching replacement text.
func WithPreferredFamilies(families ...string) Option {
	return func(e *Editor) { e.preferred = families }
}

// WithInpaintRadius sets the neighborhood radius used when filling
// deleted text regions.
func WithInpaintRadius(radius int) Option {
	return func(e *Editor) { e.radius = radius }
}

// NewEditor returns an Editor drawing from the given font database.
func NewEditor(db *fontdb.DB, opts ...Option) *Editor {
	e := &Editor{
		db:      db,
		radius:  inpaint.DefaultRadius,
		measure: newMeasurer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Delete inpaints the regions under the given text quads. The source image
// is not modified.
func (e *Editor) Delete(ctx context.Context, img *image.RGBA, quads []geo.Quad) (*image.RGBA, error) {
	if len(quads) == 0 {
		return raster.Clone(img), nil
	}
	mask := inpaint.NewMask(img.Bounds().Dx(), img.Bounds().Dy())
	for _, q := range quads {
		mask.AddQuad(q, deletePad)
	}
	if mask.Empty() {
		return raster.Clone(img), nil
	}
	out, err := inpaint.Inpaint(ctx, img, mask, inpaint.Options{Radius: e.radius})
	if err != nil {
		return nil, fmt.Errorf("delete text: %w", err)
	}
	return out, nil
}

// Replace removes the text under quad and draws text in its place,
// centered in the old bounds. Features are sampled before deletion so the
// original ink color and weight survive the inpainting.
func (e *Editor) Replace(ctx context.Context, img *image.RGBA, quad geo.Quad, text string, style Style) (*image.RGBA, error) {
	if text == "" {
		return nil, errors.New("textedit: replacement text is empty")
	}
	features := ExtractFeatures(img, quad)
	out, err := e.Delete(ctx, img, []geo.Quad{quad})
	if err != nil {
		return nil, err
	}
	if err := e.draw(out, quad.Bounds(), text, features, style); err != nil {
		return nil, err
	}
	return out, nil
}

// Add draws text centered in the target region without removing anything.
// Passing empty features uses defaults.
func (e *Editor) Add(img *image.RGBA, quad geo.Quad, text string, style Style) (*image.RGBA, error) {
	if text == "" {
		return nil, errors.New("textedit: text is empty")
	}
	out := raster.Clone(img)
	if err := e.draw(out, quad.Bounds(), text, DefaultFeatures(), style); err != nil {
		return nil, err
	}
	return out, nil
}

// Extract exposes feature sampling for callers that want to inspect or
// tweak the derived style before replacing.
func (e *Editor) Extract(img *image.RGBA, quad geo.Quad) Features {
	return ExtractFeatures(img, quad)
}

func (e *Editor) draw(dst *image.RGBA, bounds geo.Rect, text string, features Features, style Style) error {
	size := features.Size
	if style.Size > 0 {
		size = style.Size
	}
	ink := features.Color
	if style.Color != nil {
		ink = *style.Color
	}
	bold := features.Bold
	if style.Bold != nil {
		bold = *style.Bold
	}

	var preferred []string
	if style.Family != "" {
		preferred = append(preferred, style.Family)
	}
	preferred = append(preferred, e.preferred...)

	entry, ok := e.db.Match(text, preferred, bold)
	if !ok {
		return ErrNoFont
	}
	face, err := entry.Face(float64(size))
	if err != nil {
		return err
	}
	defer face.Close()

	width, err := e.textWidth(entry, float64(size), text, face)
	if err != nil {
		return err
	}

	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()
	centerX := (bounds.X0 + bounds.X1) / 2
	centerY := (bounds.Y0 + bounds.Y1) / 2
	x := centerX - int(width)/2
	y := centerY - textHeight/2 + metrics.Ascent.Ceil()

	drawer := &xfont.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
	return nil
}

// textWidth measures through HarfBuzz shaping, falling back to raw glyph
// advances for fonts the shaper cannot parse (collections, mainly).
func (e *Editor) textWidth(entry *fontdb.Entry, size float64, text string, face xfont.Face) (float64, error) {
	data, err := entry.Bytes()
	if err != nil {
		return 0, err
	}
	key := fmt.Sprintf("%s#%d", entry.Path, entry.Index)

	e.mu.Lock()
	width, err := e.measure.width(key, data, size, text)
	e.mu.Unlock()
	if err == nil {
		return width, nil
	}
	return float64(xfont.MeasureString(face, text)) / 64.0, nil
}
