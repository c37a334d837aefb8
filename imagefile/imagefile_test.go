package imagefile

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 7, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
}

func TestOpenRejectsUnknownExtension(t *testing.T) {
	_, err := Open("document.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestOpenConvertsToRGBA(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	writeTestPNG(t, path)
	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 8, 6) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if img.RGBAAt(1, 1) != (color.RGBA{30, 40, 7, 255}) {
		t.Fatalf("pixel = %+v", img.RGBAAt(1, 1))
	}
}

func TestSaveRoundTripFormats(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writeTestPNG(t, src)
	img, err := Open(src)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for _, ext := range []string{".png", ".jpg", ".bmp", ".gif", ".tiff"} {
		out := filepath.Join(dir, "out"+ext)
		if _, err := Save(out, img, SaveOptions{}); err != nil {
			t.Fatalf("Save(%s) error = %v", ext, err)
		}
		back, err := Open(out)
		if err != nil {
			t.Fatalf("reopen %s: %v", ext, err)
		}
		if back.Bounds() != img.Bounds() {
			t.Fatalf("%s bounds = %v", ext, back.Bounds())
		}
	}
}

func TestSaveWebPRejected(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if _, err := Save("x.webp", img, SaveOptions{}); !errors.Is(err, ErrWebPEncode) {
		t.Fatalf("err = %v, want ErrWebPEncode", err)
	}
}

func TestSaveDefaultsToPNG(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	path, err := Save(filepath.Join(dir, "noext"), img, SaveOptions{})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Fatalf("path = %s, want .png suffix", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat saved file: %v", err)
	}
}

func TestSaveCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	path := filepath.Join(dir, "nested", "deep", "out.png")
	if _, err := Save(path, img, SaveOptions{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestSaveRejectsBadQuality(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if _, err := Save("x.jpg", img, SaveOptions{Quality: 101}); err == nil {
		t.Fatalf("expected quality range error")
	}
}
