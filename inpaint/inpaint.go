// Package inpaint reconstructs masked image regions from their surroundings
// using Telea's fast-marching method: pixels are filled in order of their
// distance to the mask boundary, each as a normalized convolution of the
// already-known pixels in a small neighborhood, weighted by direction,
// distance, and level-set proximity.
package inpaint

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/wudi/imagekit/raster"
)

// DefaultRadius is the neighborhood radius used when Options.Radius is zero.
// It matches the radius conventionally used for text-sized defects.
const DefaultRadius = 3

// ErrNilMask is returned when no mask is supplied.
var ErrNilMask = errors.New("inpaint: nil mask")

// Progress receives the fraction of masked pixels processed so far, in
// [0, 1]. Callbacks must be fast; they run on the inpainting goroutine.
type Progress func(fraction float64)

// Options tunes the reconstruction.
type Options struct {
	// Radius is the neighborhood radius in pixels. Zero selects
	// DefaultRadius; negative values are rejected.
	Radius int
	// Progress, when non-nil, is invoked periodically during the march.
	Progress Progress
}

const (
	stateKnown = iota
	stateBand
	stateInside
)

const farDistance = 1e6

// Inpaint returns a copy of img with the masked pixels reconstructed.
// The mask dimensions must match the image. The input image is not
// modified.
func Inpaint(ctx context.Context, img *image.RGBA, mask *Mask, opts Options) (*image.RGBA, error) {
	if mask == nil {
		return nil, ErrNilMask
	}
	if opts.Radius < 0 {
		return nil, fmt.Errorf("inpaint: radius %d out of range", opts.Radius)
	}
	radius := opts.Radius
	if radius == 0 {
		radius = DefaultRadius
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if mask.Width() != w || mask.Height() != h {
		return nil, fmt.Errorf("inpaint: mask %dx%d does not match image %dx%d", mask.Width(), mask.Height(), w, h)
	}
	out := raster.Clone(img)
	if mask.Empty() {
		return out, nil
	}
	if mask.Full() {
		// No surrounding pixels to propagate from.
		mean := raster.MeanColor(img)
		for i := 0; i < len(out.Pix); i += 4 {
			out.Pix[i+0] = mean.R
			out.Pix[i+1] = mean.G
			out.Pix[i+2] = mean.B
			out.Pix[i+3] = 0xff
		}
		return out, nil
	}

	m := &marcher{
		img:    out,
		minX:   b.Min.X,
		minY:   b.Min.Y,
		w:      w,
		h:      h,
		radius: radius,
		state:  make([]uint8, w*h),
		dist:   make([]float64, w*h),
	}
	m.init(mask)
	if err := m.march(ctx, mask.Count(), opts.Progress); err != nil {
		return nil, err
	}
	return out, nil
}

type marcher struct {
	img        *image.RGBA
	minX, minY int
	w, h       int
	radius     int
	state      []uint8
	dist       []float64
	band       bandHeap
}

func (m *marcher) idx(x, y int) int { return y*m.w + x }

func (m *marcher) init(mask *Mask) {
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			i := m.idx(x, y)
			if mask.At(x, y) {
				m.state[i] = stateInside
				m.dist[i] = farDistance
			}
		}
	}
	// The initial narrow band is the ring of unmasked pixels touching the
	// mask; they sit on the boundary at distance zero.
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			i := m.idx(x, y)
			if m.state[i] == stateInside {
				continue
			}
			if m.hasInsideNeighbor(x, y) {
				m.state[i] = stateBand
				m.dist[i] = 0
				heap.Push(&m.band, bandPoint{x: x, y: y, t: 0})
			}
		}
	}
}

func (m *marcher) hasInsideNeighbor(x, y int) bool {
	for _, d := range neighbors4 {
		nx, ny := x+d.dx, y+d.dy
		if nx < 0 || ny < 0 || nx >= m.w || ny >= m.h {
			continue
		}
		if m.state[m.idx(nx, ny)] == stateInside {
			return true
		}
	}
	return false
}

var neighbors4 = [4]struct{ dx, dy int }{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

func (m *marcher) march(ctx context.Context, total int, progress Progress) error {
	done := 0
	for m.band.Len() > 0 {
		if done&0x3ff == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		p := heap.Pop(&m.band).(bandPoint)
		pi := m.idx(p.x, p.y)
		if m.state[pi] == stateKnown {
			continue
		}
		m.state[pi] = stateKnown
		for _, d := range neighbors4 {
			nx, ny := p.x+d.dx, p.y+d.dy
			if nx < 0 || ny < 0 || nx >= m.w || ny >= m.h {
				continue
			}
			ni := m.idx(nx, ny)
			if m.state[ni] == stateKnown {
				continue
			}
			t := math.Min(
				math.Min(m.solve(nx-1, ny, nx, ny-1), m.solve(nx+1, ny, nx, ny-1)),
				math.Min(m.solve(nx-1, ny, nx, ny+1), m.solve(nx+1, ny, nx, ny+1)),
			)
			if t < m.dist[ni] {
				m.dist[ni] = t
			}
			if m.state[ni] == stateInside {
				m.paint(nx, ny)
				m.state[ni] = stateBand
				done++
				if progress != nil && done&0xff == 0 {
					progress(float64(done) / float64(total))
				}
			}
			heap.Push(&m.band, bandPoint{x: nx, y: ny, t: m.dist[ni]})
		}
	}
	if progress != nil {
		progress(1)
	}
	return nil
}

// solve computes the eikonal update for a pixel from the pair of neighbors
// (x1, y1) and (x2, y2), treating unknown neighbors as unusable.
func (m *marcher) solve(x1, y1, x2, y2 int) float64 {
	known1 := m.isKnown(x1, y1)
	known2 := m.isKnown(x2, y2)
	switch {
	case known1 && known2:
		t1 := m.dist[m.idx(x1, y1)]
		t2 := m.dist[m.idx(x2, y2)]
		d := 2 - (t1-t2)*(t1-t2)
		if d > 0 {
			r := math.Sqrt(d)
			s := (t1 + t2 - r) / 2
			if s >= t1 && s >= t2 {
				return s
			}
			s += r
			if s >= t1 && s >= t2 {
				return s
			}
		}
		return 1 + math.Min(t1, t2)
	case known1:
		return 1 + m.dist[m.idx(x1, y1)]
	case known2:
		return 1 + m.dist[m.idx(x2, y2)]
	}
	return farDistance
}

func (m *marcher) isKnown(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.state[m.idx(x, y)] == stateKnown
}

// paint reconstructs the pixel (x, y) as a normalized convolution over the
// known pixels within the radius. Pixels along the propagation direction,
// close by, and on a similar level set contribute the most.
func (m *marcher) paint(x, y int) {
	gx, gy := m.gradient(x, y)
	var sr, sg, sb, sw float64
	for dy := -m.radius; dy <= m.radius; dy++ {
		for dx := -m.radius; dx <= m.radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= m.w || ny >= m.h {
				continue
			}
			ni := m.idx(nx, ny)
			if m.state[ni] == stateInside {
				continue
			}
			rx, ry := float64(x-nx), float64(y-ny)
			lenSq := rx*rx + ry*ry
			if lenSq > float64(m.radius*m.radius) {
				continue
			}
			length := math.Sqrt(lenSq)
			dir := math.Abs(rx*gx+ry*gy) / length
			if dir < 1e-6 {
				dir = 1e-6
			}
			dst := 1 / (lenSq * length)
			lev := 1 / (1 + math.Abs(m.dist[ni]-m.dist[m.idx(x, y)]))
			weight := dir * dst * lev
			px := m.img.RGBAAt(m.minX+nx, m.minY+ny)
			sr += weight * float64(px.R)
			sg += weight * float64(px.G)
			sb += weight * float64(px.B)
			sw += weight
		}
	}
	if sw <= 0 {
		return
	}
	m.img.Pix[m.img.PixOffset(m.minX+x, m.minY+y)+0] = clampByte(sr / sw)
	m.img.Pix[m.img.PixOffset(m.minX+x, m.minY+y)+1] = clampByte(sg / sw)
	m.img.Pix[m.img.PixOffset(m.minX+x, m.minY+y)+2] = clampByte(sb / sw)
	m.img.Pix[m.img.PixOffset(m.minX+x, m.minY+y)+3] = 0xff
}

// gradient estimates the distance-field gradient at (x, y) with central
// differences, falling back to one-sided differences at the mask interior.
func (m *marcher) gradient(x, y int) (float64, float64) {
	sample := func(sx, sy int) (float64, bool) {
		if sx < 0 || sy < 0 || sx >= m.w || sy >= m.h {
			return 0, false
		}
		i := m.idx(sx, sy)
		if m.dist[i] >= farDistance {
			return 0, false
		}
		return m.dist[i], true
	}
	here := m.dist[m.idx(x, y)]
	gx := oneSided(sample, here, x, y, 1, 0)
	gy := oneSided(sample, here, x, y, 0, 1)
	norm := math.Hypot(gx, gy)
	if norm < 1e-6 {
		return 0, 0
	}
	return gx / norm, gy / norm
}

func oneSided(sample func(int, int) (float64, bool), here float64, x, y, dx, dy int) float64 {
	prev, okPrev := sample(x-dx, y-dy)
	next, okNext := sample(x+dx, y+dy)
	switch {
	case okPrev && okNext:
		return (next - prev) / 2
	case okNext:
		return next - here
	case okPrev:
		return here - prev
	}
	return 0
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

type bandPoint struct {
	x, y int
	t    float64
}

type bandHeap []bandPoint

func (h bandHeap) Len() int            { return len(h) }
func (h bandHeap) Less(i, j int) bool  { return h[i].t < h[j].t }
func (h bandHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *bandHeap) Push(x interface{}) { *h = append(*h, x.(bandPoint)) }
func (h *bandHeap) Pop() interface{} {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}
