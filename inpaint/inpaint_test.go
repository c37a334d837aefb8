package inpaint

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/wudi/imagekit/geo"
)

func uniform(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestInpaintNilMask(t *testing.T) {
	img := uniform(4, 4, color.RGBA{0, 0, 0, 255})
	if _, err := Inpaint(context.Background(), img, nil, Options{}); err != ErrNilMask {
		t.Fatalf("err = %v, want ErrNilMask", err)
	}
}

func TestInpaintNegativeRadius(t *testing.T) {
	img := uniform(4, 4, color.RGBA{0, 0, 0, 255})
	if _, err := Inpaint(context.Background(), img, NewMask(4, 4), Options{Radius: -1}); err == nil {
		t.Fatalf("expected error for negative radius")
	}
}

func TestInpaintMaskMismatch(t *testing.T) {
	img := uniform(4, 4, color.RGBA{0, 0, 0, 255})
	if _, err := Inpaint(context.Background(), img, NewMask(3, 3), Options{}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestInpaintEmptyMaskClones(t *testing.T) {
	img := uniform(4, 4, color.RGBA{7, 8, 9, 255})
	out, err := Inpaint(context.Background(), img, NewMask(4, 4), Options{})
	if err != nil {
		t.Fatalf("Inpaint() error = %v", err)
	}
	if out == img {
		t.Fatalf("expected a copy")
	}
	if out.RGBAAt(2, 2) != (color.RGBA{7, 8, 9, 255}) {
		t.Fatalf("pixel changed: %+v", out.RGBAAt(2, 2))
	}
}

func TestInpaintUniformBackground(t *testing.T) {
	bg := color.RGBA{120, 130, 140, 255}
	img := uniform(20, 20, bg)
	// Scribble a dark defect in the middle.
	for y := 8; y < 12; y++ {
		for x := 6; x < 14; x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}
	mask := NewMask(20, 20)
	mask.AddRect(geo.Rect{X0: 6, Y0: 8, X1: 14, Y1: 12})

	out, err := Inpaint(context.Background(), img, mask, Options{})
	if err != nil {
		t.Fatalf("Inpaint() error = %v", err)
	}
	for y := 8; y < 12; y++ {
		for x := 6; x < 14; x++ {
			c := out.RGBAAt(x, y)
			if delta(c.R, bg.R) > 3 || delta(c.G, bg.G) > 3 || delta(c.B, bg.B) > 3 {
				t.Fatalf("pixel (%d,%d) = %+v, want ~%+v", x, y, c, bg)
			}
		}
	}
	// Pixels outside the mask are untouched.
	if out.RGBAAt(0, 0) != bg {
		t.Fatalf("unmasked pixel changed: %+v", out.RGBAAt(0, 0))
	}
}

func TestInpaintFullMask(t *testing.T) {
	img := uniform(6, 6, color.RGBA{50, 100, 150, 255})
	mask := NewMask(6, 6)
	mask.AddRect(geo.Rect{X0: 0, Y0: 0, X1: 6, Y1: 6})
	out, err := Inpaint(context.Background(), img, mask, Options{})
	if err != nil {
		t.Fatalf("Inpaint() error = %v", err)
	}
	if out.RGBAAt(3, 3) != (color.RGBA{50, 100, 150, 255}) {
		t.Fatalf("full-mask fill = %+v", out.RGBAAt(3, 3))
	}
}

func TestInpaintCancellation(t *testing.T) {
	img := uniform(64, 64, color.RGBA{200, 200, 200, 255})
	mask := NewMask(64, 64)
	mask.AddRect(geo.Rect{X0: 8, Y0: 8, X1: 56, Y1: 56})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Inpaint(ctx, img, mask, Options{}); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestInpaintProgressMonotonic(t *testing.T) {
	img := uniform(40, 40, color.RGBA{10, 10, 10, 255})
	mask := NewMask(40, 40)
	mask.AddRect(geo.Rect{X0: 5, Y0: 5, X1: 35, Y1: 35})
	var last float64 = -1
	_, err := Inpaint(context.Background(), img, mask, Options{Progress: func(f float64) {
		if f < last {
			t.Fatalf("progress went backwards: %f after %f", f, last)
		}
		last = f
	}})
	if err != nil {
		t.Fatalf("Inpaint() error = %v", err)
	}
	if last != 1 {
		t.Fatalf("final progress = %f, want 1", last)
	}
}

func TestMaskAddQuadPads(t *testing.T) {
	m := NewMask(20, 20)
	m.AddQuad(geo.QuadFromRect(geo.Rect{X0: 5, Y0: 5, X1: 10, Y1: 10}), 2)
	if !m.At(3, 3) || !m.At(11, 11) {
		t.Fatalf("padding not applied")
	}
	if m.At(2, 2) {
		t.Fatalf("padding too large")
	}
}

func delta(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
