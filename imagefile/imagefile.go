// Package imagefile loads and saves the image formats the editor supports.
// Files are decoded by content and validated by extension; everything is
// normalized to RGBA on the way in so the editing operations never see
// paletted or alpha-premultiplied buffers.
package imagefile

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wudi/imagekit/raster"
)

// DefaultJPEGQuality is used when SaveOptions.Quality is zero.
const DefaultJPEGQuality = 95

// ErrUnsupportedFormat is returned for files whose extension the editor
// does not handle.
var ErrUnsupportedFormat = errors.New("imagefile: unsupported format")

// ErrWebPEncode is returned when saving to .webp; only decoding is
// available in pure Go.
var ErrWebPEncode = errors.New("imagefile: webp encoding not supported, save as png or jpeg")

var supportedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".gif": true, ".webp": true, ".tif": true, ".tiff": true,
}

// Supported reports whether path has a recognized image extension.
func Supported(path string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(path))]
}

// Open decodes the image at path and returns it as RGBA.
func Open(path string) (*image.RGBA, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return raster.ToRGBA(img), nil
}

// SaveOptions tunes lossy encoders.
type SaveOptions struct {
	// Quality is the JPEG quality in [1, 100]. Zero selects
	// DefaultJPEGQuality.
	Quality int
}

// Save encodes img to path, picking the encoder from the extension. A
// missing or unknown extension falls back to PNG (appending ".png" when the
// extension is missing entirely). Parent directories are created as needed.
func Save(path string, img image.Image, opts SaveOptions) (string, error) {
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}
	if quality < 1 || quality > 100 {
		return "", fmt.Errorf("imagefile: quality %d out of range", quality)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".webp" {
		return "", ErrWebPEncode
	}
	if ext == "" {
		path += ".png"
		ext = ".png"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	switch ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".gif":
		err = gif.Encode(f, img, nil)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("flush image file: %w", err)
	}
	return path, nil
}

// Info summarizes a loaded image.
type Info struct {
	Width  int
	Height int
}

// Describe returns basic information about img.
func Describe(img image.Image) Info {
	if img == nil {
		return Info{}
	}
	b := img.Bounds()
	return Info{Width: b.Dx(), Height: b.Dy()}
}
