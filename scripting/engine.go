// Package scripting runs JavaScript batch scripts against an editing
// session. Scripts get a small global API (open, stitch, fill, ocr,
// replaceText, save, log) and are interruptible through the context passed
// to Execute.
package scripting

import (
	"context"

	"github.com/wudi/imagekit/geo"
)

// Engine executes scripts against a registered editor DOM.
type Engine interface {
	// Execute runs a script and returns its final value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterDOM exposes the editor API to scripts.
	RegisterDOM(dom EditorDOM) error
}

// EditorDOM is the controlled surface scripts can drive. Implementations
// wrap an editing session; errors returned here surface in the script as
// thrown exceptions.
type EditorDOM interface {
	// Open loads an image file into the session.
	Open(path string) error

	// Save writes the current image, returning the path written. An empty
	// path reuses the opened path.
	Save(path string) (string, error)

	// Stitch removes the horizontal band between y0 and y1.
	Stitch(y0, y1 int) error

	// Fill fills rect using the named fill mode ("" means inpaint).
	Fill(ctx context.Context, rect geo.Rect, mode string) error

	// OCR recognizes text in the current image and returns the plain text.
	OCR(ctx context.Context, languages []string) (string, error)

	// ReplaceText finds oldText in the image via OCR and redraws it as
	// newText.
	ReplaceText(ctx context.Context, oldText, newText string) error

	// Log emits a message from the script.
	Log(message string)
}
