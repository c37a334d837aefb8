package editor

import (
	"image"

	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/raster"
)

// Stitch removes the horizontal band covered by sel's y range and joins the
// remaining top and bottom parts. Only the vertical extent of sel matters;
// the band always spans the full image width. A selection whose clamped y
// range is empty, or one covering the whole image, returns an unchanged
// copy.
func Stitch(img *image.RGBA, sel geo.Rect) *image.RGBA {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	sel = sel.ClampTo(width, height)
	y0, y1 := sel.Y0, sel.Y1
	if y0 >= y1 {
		return raster.Clone(img)
	}
	newHeight := y0 + (height - y1)
	if newHeight <= 0 {
		return raster.Clone(img)
	}
	out := image.NewRGBA(image.Rect(0, 0, width, newHeight))
	if y0 > 0 {
		top := raster.Crop(img, geo.Rect{X0: 0, Y0: 0, X1: width, Y1: y0})
		raster.Paste(out, top, 0, 0)
	}
	if y1 < height {
		bottom := raster.Crop(img, geo.Rect{X0: 0, Y0: y1, X1: width, Y1: height})
		raster.Paste(out, bottom, 0, y0)
	}
	return out
}
