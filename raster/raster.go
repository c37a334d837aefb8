// Package raster provides the in-memory image buffer plumbing used by the
// editing operations: RGBA conversion, cloning, cropping, compositing, and
// border-pixel color statistics.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/wudi/imagekit/geo"
)

// ToRGBA returns a copy of img as *image.RGBA with the origin at (0, 0).
// Alpha is flattened onto white so downstream pixel statistics see the same
// values a viewer would.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Clone returns a deep copy of img.
func Clone(img *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	copy(dst.Pix, img.Pix)
	return dst
}

// Crop returns a copy of the pixels of img inside r. The rectangle is
// clamped to the image first; an empty result returns a 0x0 image.
func Crop(img *image.RGBA, r geo.Rect) *image.RGBA {
	b := img.Bounds()
	r = r.ClampTo(b.Dx(), b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if r.Empty() {
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, image.Pt(b.Min.X+r.X0, b.Min.Y+r.Y0), draw.Src)
	return dst
}

// Paste draws src onto dst with its upper-left corner at (x, y).
func Paste(dst *image.RGBA, src image.Image, x, y int) {
	sb := src.Bounds()
	target := image.Rect(x, y, x+sb.Dx(), y+sb.Dy())
	draw.Draw(dst, target, src, sb.Min, draw.Src)
}

// FillRect paints every pixel of dst inside r with c.
func FillRect(dst *image.RGBA, r geo.Rect, c color.RGBA) {
	b := dst.Bounds()
	r = r.ClampTo(b.Dx(), b.Dy())
	for y := r.Y0; y < r.Y1; y++ {
		for x := r.X0; x < r.X1; x++ {
			dst.SetRGBA(b.Min.X+x, b.Min.Y+y, c)
		}
	}
}

// borderPixels collects the colors of the one-pixel frame immediately
// outside r: the rows above and below and the columns to the left and
// right, each clipped to the image.
func borderPixels(img *image.RGBA, r geo.Rect) []color.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	r = r.ClampTo(w, h)
	if r.Empty() {
		return nil
	}
	var px []color.RGBA
	at := func(x, y int) color.RGBA { return img.RGBAAt(b.Min.X+x, b.Min.Y+y) }
	if r.Y0 > 0 {
		for x := r.X0; x < r.X1; x++ {
			px = append(px, at(x, r.Y0-1))
		}
	}
	if r.Y1 < h {
		for x := r.X0; x < r.X1; x++ {
			px = append(px, at(x, r.Y1))
		}
	}
	if r.X0 > 0 {
		for y := r.Y0; y < r.Y1; y++ {
			px = append(px, at(r.X0-1, y))
		}
	}
	if r.X1 < w {
		for y := r.Y0; y < r.Y1; y++ {
			px = append(px, at(r.X1, y))
		}
	}
	return px
}

// BorderMean returns the mean color of the frame around r. The second
// return value is false when the rectangle has no border inside the image
// (for example, when it covers the full canvas).
func BorderMean(img *image.RGBA, r geo.Rect) (color.RGBA, bool) {
	px := borderPixels(img, r)
	if len(px) == 0 {
		return color.RGBA{}, false
	}
	var sr, sg, sb uint64
	for _, p := range px {
		sr += uint64(p.R)
		sg += uint64(p.G)
		sb += uint64(p.B)
	}
	n := uint64(len(px))
	return color.RGBA{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: 0xff}, true
}

// BorderMedian returns the per-channel median color of the frame around r.
func BorderMedian(img *image.RGBA, r geo.Rect) (color.RGBA, bool) {
	px := borderPixels(img, r)
	if len(px) == 0 {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: channelMedian(px, func(c color.RGBA) uint8 { return c.R }),
		G: channelMedian(px, func(c color.RGBA) uint8 { return c.G }),
		B: channelMedian(px, func(c color.RGBA) uint8 { return c.B }),
		A: 0xff,
	}, true
}

func channelMedian(px []color.RGBA, ch func(color.RGBA) uint8) uint8 {
	vals := make([]int, len(px))
	for i, p := range px {
		vals[i] = int(ch(p))
	}
	sort.Ints(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 0 {
		return uint8((vals[mid-1] + vals[mid]) / 2)
	}
	return uint8(vals[mid])
}

// MeanColor returns the mean color over the whole image.
func MeanColor(img *image.RGBA) color.RGBA {
	b := img.Bounds()
	if b.Empty() {
		return color.RGBA{A: 0xff}
	}
	var sr, sg, sb uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := img.RGBAAt(x, y)
			sr += uint64(p.R)
			sg += uint64(p.G)
			sb += uint64(p.B)
		}
	}
	n := uint64(b.Dx() * b.Dy())
	return color.RGBA{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: 0xff}
}
