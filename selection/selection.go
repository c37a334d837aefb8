// Package selection tracks the drag-rectangle selection of an editing
// session. The tracker normalizes corner order as the drag moves, so the
// resulting rectangle is always canonical regardless of drag direction.
package selection

import "github.com/wudi/imagekit/geo"

// MinSide is the smallest usable selection edge in pixels. Drags smaller
// than this are treated as accidental clicks.
const MinSide = 5

// Tracker records an in-progress or completed rectangular selection.
type Tracker struct {
	rect     geo.Rect
	hasRect  bool
	dragging bool
	anchor   geo.Point
}

// Begin starts a drag at (x, y), discarding any previous selection.
func (t *Tracker) Begin(x, y int) {
	t.dragging = true
	t.anchor = geo.Point{X: x, Y: y}
	t.hasRect = false
}

// Update extends the drag to (x, y). It is a no-op outside a drag.
func (t *Tracker) Update(x, y int) {
	if !t.dragging {
		return
	}
	t.rect = geo.NewRect(t.anchor.X, t.anchor.Y, x, y)
	t.hasRect = true
}

// End finishes the drag at (x, y).
func (t *Tracker) End(x, y int) {
	if !t.dragging {
		return
	}
	t.Update(x, y)
	t.dragging = false
}

// Dragging reports whether a drag is in progress.
func (t *Tracker) Dragging() bool { return t.dragging }

// Rect returns the current selection rectangle. The second return value is
// false when nothing is selected.
func (t *Tracker) Rect() (geo.Rect, bool) {
	if !t.hasRect {
		return geo.Rect{}, false
	}
	return t.rect, true
}

// Valid reports whether the selection is large enough to operate on: both
// sides must exceed MinSide.
func (t *Tracker) Valid() bool {
	if !t.hasRect {
		return false
	}
	return t.rect.Dx() > MinSide && t.rect.Dy() > MinSide
}

// Size returns the selection dimensions, or zeros when the selection is
// missing or too small.
func (t *Tracker) Size() (w, h int) {
	if !t.Valid() {
		return 0, 0
	}
	return t.rect.Dx(), t.rect.Dy()
}

// ClampTo limits the selection to an image of the given dimensions.
func (t *Tracker) ClampTo(width, height int) {
	if !t.hasRect {
		return
	}
	t.rect = t.rect.ClampTo(width, height)
}

// Set replaces the selection with r, as when a caller selects an OCR box.
func (t *Tracker) Set(r geo.Rect) {
	t.rect = r.Canon()
	t.hasRect = true
	t.dragging = false
}

// Clear removes the selection.
func (t *Tracker) Clear() {
	t.rect = geo.Rect{}
	t.hasRect = false
	t.dragging = false
}
