// Package paddle runs exported PaddleOCR detection and recognition models
// through the ONNX runtime. Unlike the tesseract engine it needs no cgo,
// only the onnxruntime shared library and a local model directory.
package paddle

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/up-zero/gotool/imageutil"

	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/ocr"
	"github.com/wudi/imagekit/raster"
)

const (
	detSideLimit  = 960
	detStride     = 32
	detThreshold  = 0.3
	boxThreshold  = 0.5
	minBoxSide    = 3
	unclipRatio   = 1.6
	recHeight     = 48
	recMaxWidth   = 320
	clsHeight     = 48
	clsWidth      = 192
	clsConfidence = 0.9

	defaultTensorInput = "x"
)

// Config selects the model files and runtime library for an Engine.
type Config struct {
	// ModelRoot is searched for det/rec/cls models. Defaults to the
	// current directory.
	ModelRoot string
	// LibraryPath overrides the platform default onnxruntime location.
	LibraryPath string
	// DictPath overrides dictionary discovery next to the rec model.
	DictPath string
	// InputName overrides the model input tensor name. PaddleOCR exports
	// use "x".
	InputName string
}

// Engine implements ocr.Engine and ocr.BatchEngine over ONNX sessions.
type Engine struct {
	sess      *sessions
	dict      []string
	inputName string
}

// NewEngine discovers models under the configured root and opens inference
// sessions for them. The error wraps ocr.ErrEngineUnavailable when the
// runtime library is absent, and ErrModelsNotFound when no models exist.
func NewEngine(cfg Config) (*Engine, error) {
	root := cfg.ModelRoot
	if root == "" {
		root = "."
	}
	models, err := DiscoverModels(root)
	if err != nil {
		return nil, err
	}
	dictPath, err := findDict(cfg.DictPath, models.Rec)
	if err != nil {
		return nil, err
	}
	dict, err := loadDict(dictPath)
	if err != nil {
		return nil, err
	}
	sess, err := openSessions(cfg.LibraryPath, models)
	if err != nil {
		return nil, err
	}
	name := cfg.InputName
	if name == "" {
		name = defaultTensorInput
	}
	return &Engine{sess: sess, dict: dict, inputName: name}, nil
}

func (e *Engine) Name() string { return "paddle" }

// Close releases the inference sessions.
func (e *Engine) Close() {
	if e.sess != nil {
		e.sess.Close()
	}
}

// Recognize performs OCR on a single input.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	img, offset, err := decodeRegion(in)
	if err != nil {
		return ocr.Result{}, err
	}
	boxes, err := e.detect(img)
	if err != nil {
		return ocr.Result{}, err
	}
	sortReadingOrder(boxes)

	var lines []ocr.Line
	for _, box := range boxes {
		select {
		case <-ctx.Done():
			return ocr.Result{}, ctx.Err()
		default:
		}
		text, conf, err := e.recognizeBox(img, box)
		if err != nil {
			return ocr.Result{}, err
		}
		if text == "" {
			continue
		}
		bounds := geo.QuadFromRect(box.Canon())
		for i := range bounds {
			bounds[i].X += offset.X
			bounds[i].Y += offset.Y
		}
		lines = append(lines, ocr.Line{
			Text:   text,
			Bounds: bounds,
			Words: []ocr.Word{{
				Text:       text,
				Bounds:     bounds,
				Confidence: conf,
			}},
			Confidence: conf,
		})
	}

	plain := joinLines(lines)
	res := ocr.Result{InputID: in.ID, PlainText: plain}
	if len(in.Languages) > 0 {
		res.Language = in.Languages[0]
	}
	if len(lines) > 0 {
		res.Blocks = []ocr.Block{{
			Text:       plain,
			Bounds:     mergeLineBounds(lines),
			Lines:      lines,
			Confidence: averageLineConfidence(lines),
		}}
	}
	return res, nil
}

// RecognizeBatch processes inputs sequentially. The underlying sessions are
// not safe for concurrent Run calls.
func (e *Engine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	results := make([]ocr.Result, 0, len(inputs))
	for _, in := range inputs {
		res, err := e.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// detect runs the DB detection model and turns its probability map into
// axis-aligned text boxes in image coordinates.
func (e *Engine) detect(img *image.RGBA) ([]geo.Rect, error) {
	data, w, h, ratioW, ratioH := preprocessDet(img)
	output, err := runSession(e.sess.det, e.inputName, []int64{1, 3, int64(h), int64(w)}, data)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	if len(output) < w*h {
		return nil, fmt.Errorf("detect: probability map too small: %d < %d", len(output), w*h)
	}
	boxes := boxesFromProbMap(output[:w*h], w, h)
	out := make([]geo.Rect, 0, len(boxes))
	for _, b := range boxes {
		r := geo.Rect{
			X0: int(float64(b.X0) / ratioW),
			Y0: int(float64(b.Y0) / ratioH),
			X1: int(math.Ceil(float64(b.X1) / ratioW)),
			Y1: int(math.Ceil(float64(b.Y1) / ratioH)),
		}
		r = r.ClampTo(img.Bounds().Dx(), img.Bounds().Dy())
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out, nil
}

// recognizeBox crops a detected region, optionally fixes its orientation,
// and CTC-decodes the recognition model output.
func (e *Engine) recognizeBox(img *image.RGBA, box geo.Rect) (string, float64, error) {
	crop := raster.Crop(img, box)
	if crop.Bounds().Empty() {
		return "", 0, nil
	}
	if e.sess.cls != nil {
		upsideDown, err := e.classifyOrientation(crop)
		if err != nil {
			return "", 0, fmt.Errorf("classify orientation: %w", err)
		}
		if upsideDown {
			crop = rotate180(crop)
		}
	}
	data, w := preprocessRec(crop)
	output, err := runSession(e.sess.rec, e.inputName, []int64{1, 3, recHeight, int64(w)}, data)
	if err != nil {
		return "", 0, fmt.Errorf("recognize: %w", err)
	}
	return e.ctcDecode(output)
}

func (e *Engine) classifyOrientation(crop *image.RGBA) (bool, error) {
	data := normalizeCHW(resizePadded(crop, clsWidth, clsHeight), 0.5, 0.5)
	output, err := runSession(e.sess.cls, e.inputName, []int64{1, 3, clsHeight, clsWidth}, data)
	if err != nil {
		return false, err
	}
	// Output is [p(0°), p(180°)].
	return len(output) >= 2 && output[1] > output[0] && output[1] > clsConfidence, nil
}

// ctcDecode collapses the recognition logits: argmax per timestep, dropping
// blanks (class 0) and repeats. Exports differ on whether a trailing space
// class is present, so the class count is derived from the dictionary size.
func (e *Engine) ctcDecode(output []float32) (string, float64, error) {
	classes := 0
	for _, c := range []int{len(e.dict) + 2, len(e.dict) + 1} {
		if c > 0 && len(output)%c == 0 {
			classes = c
			break
		}
	}
	if classes == 0 {
		return "", 0, fmt.Errorf("output length %d does not match dictionary size %d", len(output), len(e.dict))
	}
	steps := len(output) / classes

	var sb strings.Builder
	var confSum float64
	var kept int
	lastIdx := -1
	for t := 0; t < steps; t++ {
		step := output[t*classes : (t+1)*classes]
		maxIdx, maxVal := 0, float32(math.Inf(-1))
		for i, v := range step {
			if v > maxVal {
				maxIdx, maxVal = i, v
			}
		}
		if maxIdx != 0 && maxIdx != lastIdx {
			sb.WriteString(e.charFor(maxIdx))
			confSum += float64(maxVal)
			kept++
		}
		lastIdx = maxIdx
	}
	if kept == 0 {
		return "", 0, nil
	}
	return sb.String(), confSum / float64(kept), nil
}

func (e *Engine) charFor(idx int) string {
	if idx >= 1 && idx <= len(e.dict) {
		return e.dict[idx-1]
	}
	return " "
}

// preprocessDet scales the image so its longer side fits detSideLimit, then
// rounds both sides to the detection stride and normalizes with the
// ImageNet statistics the DB models were trained with.
func preprocessDet(img *image.RGBA) (data []float32, w, h int, ratioW, ratioH float64) {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	scale := 1.0
	if longest := max(srcW, srcH); longest > detSideLimit {
		scale = float64(detSideLimit) / float64(longest)
	}
	w = roundToStride(float64(srcW) * scale)
	h = roundToStride(float64(srcH) * scale)
	ratioW = float64(w) / float64(srcW)
	ratioH = float64(h) / float64(srcH)

	resized := raster.ToRGBA(imageutil.Resize(img, w, h))

	mean := [3]float64{0.485, 0.456, 0.406}
	std := [3]float64{0.229, 0.224, 0.225}
	area := w * h
	data = make([]float32, 3*area)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := resized.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(resized.Pix[i+c]) / 255.0
				data[c*area+y*w+x] = float32((v - mean[c]) / std[c])
			}
		}
	}
	return data, w, h, ratioW, ratioH
}

// preprocessRec resizes a line crop to the recognition input height,
// capping the width, and normalizes to [-1, 1].
func preprocessRec(crop *image.RGBA) ([]float32, int) {
	srcW := crop.Bounds().Dx()
	srcH := crop.Bounds().Dy()
	w := int(math.Ceil(float64(recHeight) * float64(srcW) / float64(srcH)))
	w = min(max(w, 1), recMaxWidth)

	resized := raster.ToRGBA(imageutil.Resize(crop, w, recHeight))
	return normalizeCHW(resized, 0.5, 0.5), w
}

// normalizeCHW flattens an RGBA image into a CHW float32 tensor with a
// single mean/std applied to every channel.
func normalizeCHW(img *image.RGBA, mean, std float64) []float32 {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	area := w * h
	data := make([]float32, 3*area)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(img.Pix[i+c]) / 255.0
				data[c*area+y*w+x] = float32((v - mean) / std)
			}
		}
	}
	return data
}

// resizePadded fits the image into w x h preserving aspect ratio, padding
// the right edge with black as the classifier expects.
func resizePadded(img *image.RGBA, w, h int) *image.RGBA {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()
	scaledW := int(math.Ceil(float64(h) * float64(srcW) / float64(srcH)))
	scaledW = min(max(scaledW, 1), w)
	resized := raster.ToRGBA(imageutil.Resize(img, scaledW, h))
	if scaledW == w {
		return resized
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	raster.Paste(out, resized, 0, 0)
	return out
}

func roundToStride(v float64) int {
	n := int(math.Round(v/detStride)) * detStride
	if n < detStride {
		n = detStride
	}
	return n
}

// component is a connected region of the binarized probability map.
type component struct {
	box   geo.Rect
	score float64
	area  int
}

// boxesFromProbMap binarizes the detection probability map, finds connected
// components, filters weak or tiny ones and expands the survivors the way
// the DB unclip step does.
func boxesFromProbMap(prob []float32, w, h int) []geo.Rect {
	visited := make([]bool, w*h)
	var boxes []geo.Rect
	queue := make([]int, 0, 256)

	for start := 0; start < w*h; start++ {
		if visited[start] || prob[start] < detThreshold {
			continue
		}
		comp := component{box: geo.Rect{X0: w, Y0: h, X1: 0, Y1: 0}}
		queue = append(queue[:0], start)
		visited[start] = true
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w
			comp.area++
			comp.score += float64(prob[idx])
			comp.box.X0 = min(comp.box.X0, x)
			comp.box.Y0 = min(comp.box.Y0, y)
			comp.box.X1 = max(comp.box.X1, x+1)
			comp.box.Y1 = max(comp.box.Y1, y+1)
			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= w*h || visited[n] {
					continue
				}
				nx := n % w
				if (n == idx-1 || n == idx+1) && abs(nx-x) != 1 {
					continue
				}
				if prob[n] < detThreshold {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}
		if comp.area == 0 || comp.score/float64(comp.area) < boxThreshold {
			continue
		}
		if comp.box.Dx() < minBoxSide || comp.box.Dy() < minBoxSide {
			continue
		}
		boxes = append(boxes, unclip(comp.box))
	}
	return boxes
}

// unclip grows a shrunk detection box back toward the full text extent
// using the polygon offset distance area*ratio/perimeter.
func unclip(r geo.Rect) geo.Rect {
	area := float64(r.Dx() * r.Dy())
	perimeter := float64(2 * (r.Dx() + r.Dy()))
	if perimeter == 0 {
		return r
	}
	pad := int(math.Round(area * unclipRatio / perimeter))
	return r.Pad(pad)
}

// sortReadingOrder orders boxes top to bottom, breaking ties (vertical
// overlap past half a line) left to right.
func sortReadingOrder(boxes []geo.Rect) {
	sort.Slice(boxes, func(i, j int) bool {
		a, b := boxes[i], boxes[j]
		overlap := min(a.Y1, b.Y1) - max(a.Y0, b.Y0)
		if overlap*2 > min(a.Dy(), b.Dy()) {
			return a.X0 < b.X0
		}
		return a.Y0 < b.Y0
	})
}

func rotate180(img *image.RGBA) *image.RGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(w-1-x, h-1-y, img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y))
		}
	}
	return out
}

func decodeRegion(in ocr.Input) (*image.RGBA, geo.Point, error) {
	img, _, err := image.Decode(bytes.NewReader(in.Image))
	if err != nil {
		return nil, geo.Point{}, fmt.Errorf("decode image: %w", err)
	}
	rgba := raster.ToRGBA(img)
	if in.Region == nil || in.Region.Empty() {
		return rgba, geo.Point{}, nil
	}
	rect := in.Region.ClampTo(rgba.Bounds().Dx(), rgba.Bounds().Dy())
	if rect.Empty() {
		return nil, geo.Point{}, fmt.Errorf("region outside image bounds")
	}
	return raster.Crop(rgba, rect), geo.Point{X: rect.X0, Y: rect.Y0}, nil
}

func joinLines(lines []ocr.Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

func averageLineConfidence(lines []ocr.Line) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lines {
		sum += l.Confidence
	}
	return sum / float64(len(lines))
}

func mergeLineBounds(lines []ocr.Line) geo.Quad {
	r := lines[0].Bounds.Bounds()
	for _, l := range lines[1:] {
		r = r.Union(l.Bounds.Bounds())
	}
	return geo.QuadFromRect(r)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
