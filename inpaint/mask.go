package inpaint

import "github.com/wudi/imagekit/geo"

// Mask marks the pixels of an image that should be reconstructed. The zero
// value is not usable; create one with NewMask.
type Mask struct {
	width  int
	height int
	bits   []bool
	count  int
}

// NewMask returns an empty mask for an image of the given dimensions.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{width: width, height: height, bits: make([]bool, width*height)}
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Set marks the pixel (x, y). Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	idx := y*m.width + x
	if !m.bits[idx] {
		m.bits[idx] = true
		m.count++
	}
}

// At reports whether the pixel (x, y) is masked. Out-of-range coordinates
// report false.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x]
}

// AddRect marks every pixel inside r, clamped to the mask.
func (m *Mask) AddRect(r geo.Rect) {
	r = r.ClampTo(m.width, m.height)
	for y := r.Y0; y < r.Y1; y++ {
		for x := r.X0; x < r.X1; x++ {
			m.Set(x, y)
		}
	}
}

// AddQuad marks the bounding rectangle of q, grown by pad pixels on every
// side. Text deletion pads by a couple of pixels so anti-aliased fringes are
// reconstructed along with the glyphs.
func (m *Mask) AddQuad(q geo.Quad, pad int) {
	m.AddRect(q.Bounds().Pad(pad))
}

// Count returns the number of masked pixels.
func (m *Mask) Count() int { return m.count }

// Empty reports whether no pixel is masked.
func (m *Mask) Empty() bool { return m.count == 0 }

// Full reports whether every pixel is masked.
func (m *Mask) Full() bool { return m.count == m.width*m.height && m.count > 0 }
