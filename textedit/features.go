package textedit

import (
	"image"
	"image/color"
	"sort"

	"github.com/wudi/imagekit/geo"
)

const (
	minFontSize      = 12
	sizeHeightFactor = 0.8
	spacingFactor    = 0.05
	// Pixels whose channel sum is below this are treated as glyph ink
	// rather than background.
	darkPixelSum = 600
	// Edge density above this marks the sample as bold type.
	boldEdgeDensity = 0.1
	sobelThreshold  = 128
)

// Features describes the visual properties of a text region, used to draw
// replacement text that blends in.
type Features struct {
	Size    int
	Color   color.RGBA
	Bold    bool
	Spacing int
	Bounds  geo.Rect
}

// DefaultFeatures returns the features used when a region yields nothing
// to measure.
func DefaultFeatures() Features {
	return Features{
		Size:    24,
		Color:   color.RGBA{A: 255},
		Bold:    false,
		Spacing: 2,
	}
}

// ExtractFeatures samples the region under a text quad: font size from the
// region height, color from the median of dark pixels, boldness from
// stroke edge density and spacing from the region width.
func ExtractFeatures(img *image.RGBA, quad geo.Quad) Features {
	if img == nil {
		return DefaultFeatures()
	}
	bounds := quad.Bounds().ClampTo(img.Bounds().Dx(), img.Bounds().Dy())
	if bounds.Empty() {
		return DefaultFeatures()
	}

	f := Features{
		Size:    max(minFontSize, int(float64(bounds.Dy())*sizeHeightFactor)),
		Spacing: max(0, int(float64(bounds.Dx())*spacingFactor)),
		Bounds:  bounds,
	}
	f.Color = inkColor(img, bounds)
	f.Bold = edgeDensity(img, bounds) > boldEdgeDensity
	return f
}

// inkColor estimates the glyph color: the per-channel median of dark
// pixels, or the mean of everything when the region has no dark pixels.
func inkColor(img *image.RGBA, bounds geo.Rect) color.RGBA {
	var dark []color.RGBA
	var sumR, sumG, sumB, n uint64
	for y := bounds.Y0; y < bounds.Y1; y++ {
		for x := bounds.X0; x < bounds.X1; x++ {
			c := img.RGBAAt(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)
			sumR += uint64(c.R)
			sumG += uint64(c.G)
			sumB += uint64(c.B)
			n++
			if int(c.R)+int(c.G)+int(c.B) < darkPixelSum {
				dark = append(dark, c)
			}
		}
	}
	if len(dark) > 0 {
		return color.RGBA{
			R: medianChannel(dark, func(c color.RGBA) uint8 { return c.R }),
			G: medianChannel(dark, func(c color.RGBA) uint8 { return c.G }),
			B: medianChannel(dark, func(c color.RGBA) uint8 { return c.B }),
			A: 255,
		}
	}
	if n == 0 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{
		R: uint8(sumR / n),
		G: uint8(sumG / n),
		B: uint8(sumB / n),
		A: 255,
	}
}

func medianChannel(px []color.RGBA, ch func(color.RGBA) uint8) uint8 {
	vals := make([]int, len(px))
	for i, c := range px {
		vals[i] = int(ch(c))
	}
	sort.Ints(vals)
	return uint8(vals[len(vals)/2])
}

// edgeDensity runs a Sobel operator over the grayscale region and returns
// the fraction of pixels with strong gradient. Bold strokes pack more edge
// pixels into the same area than regular weight type.
func edgeDensity(img *image.RGBA, bounds geo.Rect) float64 {
	w := bounds.Dx()
	h := bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}
	gray := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.RGBAAt(img.Bounds().Min.X+bounds.X0+x, img.Bounds().Min.Y+bounds.Y0+y)
			gray[y*w+x] = (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
		}
	}
	var edges int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -gray[(y-1)*w+x-1] + gray[(y-1)*w+x+1] +
				-2*gray[y*w+x-1] + 2*gray[y*w+x+1] +
				-gray[(y+1)*w+x-1] + gray[(y+1)*w+x+1]
			gy := -gray[(y-1)*w+x-1] - 2*gray[(y-1)*w+x] - gray[(y-1)*w+x+1] +
				gray[(y+1)*w+x-1] + 2*gray[(y+1)*w+x] + gray[(y+1)*w+x+1]
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			if gx+gy > sobelThreshold {
				edges++
			}
		}
	}
	return float64(edges) / float64(w*h)
}
