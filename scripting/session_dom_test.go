package scripting

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/wudi/imagekit/editor"
	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/ocr"
)

func sessionWithImage(w, h int, opts ...editor.SessionOption) *editor.Session {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	s := editor.NewSession(opts...)
	s.SetImage(img)
	return s
}

func TestSessionDOMStitch(t *testing.T) {
	s := sessionWithImage(40, 40)
	dom := NewSessionDOM(s, nil)

	if err := dom.Stitch(10, 25); err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	if got := s.Image().Bounds().Dy(); got != 25 {
		t.Errorf("height = %d, want 25", got)
	}
}

func TestSessionDOMFillRejectsBadMode(t *testing.T) {
	s := sessionWithImage(40, 40)
	dom := NewSessionDOM(s, nil)

	if err := dom.Fill(context.Background(), geo.NewRect(5, 5, 30, 30), "smudge"); err == nil {
		t.Fatalf("bad fill mode accepted")
	}
	if err := dom.Fill(context.Background(), geo.NewRect(5, 5, 30, 30), "color"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if c := s.Image().RGBAAt(10, 10); c.R != 255 {
		t.Errorf("fill not applied: %+v", c)
	}
}

type fixedEngine struct{ res ocr.Result }

func (fixedEngine) Name() string { return "fixed" }

func (e fixedEngine) Recognize(context.Context, ocr.Input) (ocr.Result, error) {
	return e.res, nil
}

func TestSessionDOMReplaceTextNotFound(t *testing.T) {
	s := sessionWithImage(40, 40, editor.WithEngine(fixedEngine{}))
	dom := NewSessionDOM(s, nil)

	err := dom.ReplaceText(context.Background(), "absent", "new")
	if err == nil {
		t.Fatalf("expected not-found error")
	}
}
