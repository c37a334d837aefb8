// Package tesseract provides the default OCR engine, backed by the
// gosseract client for the Tesseract C library.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/ocr"
)

func init() {
	ocr.SetDefaultEngine(NewEngine())
}

// Engine implements ocr.Engine and ocr.BatchEngine using gosseract.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed OCR engine.
func NewEngine() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on a single input.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	c := e.clientFactory()
	defer c.Close()
	return e.recognizeWithClient(ctx, c, in)
}

// RecognizeBatch processes inputs sequentially. Each input gets a fresh
// client: language and variable state on a reused client leaks between
// images otherwise.
func (e *Engine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	results := make([]ocr.Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		c := e.clientFactory()
		res, err := e.recognizeWithClient(ctx, c, in)
		c.Close()
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) recognizeWithClient(ctx context.Context, c *gosseract.Client, in ocr.Input) (ocr.Result, error) {
	imgData, offset, err := cropInput(in)
	if err != nil {
		return ocr.Result{}, err
	}
	if err := c.SetImageFromBytes(imgData); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if langs := ocr.TesseractLanguages(in.Languages); len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	plain := strings.TrimSpace(text)

	words := extractWords(c, offset)
	lines := groupLines(c, words, offset)
	blockConf := averageConfidence(words)
	bounds := mergeBounds(words)
	block := ocr.Block{
		Text:       plain,
		Bounds:     bounds,
		Lines:      lines,
		Confidence: blockConf,
	}

	var lang string
	if len(in.Languages) > 0 {
		lang = in.Languages[0]
	}
	return ocr.Result{
		InputID:   in.ID,
		PlainText: plain,
		Blocks:    []ocr.Block{block},
		Language:  lang,
	}, nil
}

func extractWords(c *gosseract.Client, offset geo.Point) []ocr.Word {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, ocr.Word{
			Text:       b.Word,
			Bounds:     quadFromBox(b.Box, offset),
			Confidence: b.Confidence / 100.0,
		})
	}
	return words
}

// groupLines builds line structure from Tesseract's textline regions,
// assigning each word to the line containing its box center. Words outside
// every line region end up in a synthetic trailing line so nothing is lost.
func groupLines(c *gosseract.Client, words []ocr.Word, offset geo.Point) []ocr.Line {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil || len(boxes) == 0 {
		if len(words) == 0 {
			return nil
		}
		return []ocr.Line{{
			Text:       joinWords(words),
			Bounds:     mergeBounds(words),
			Words:      words,
			Confidence: averageConfidence(words),
		}}
	}
	lines := make([]ocr.Line, len(boxes))
	rects := make([]geo.Rect, len(boxes))
	for i, b := range boxes {
		rects[i] = quadFromBox(b.Box, offset).Bounds()
		lines[i] = ocr.Line{
			Text:   strings.TrimSpace(b.Word),
			Bounds: quadFromBox(b.Box, offset),
		}
	}
	var orphans []ocr.Word
	for _, w := range words {
		b := w.Bounds.Bounds()
		cx, cy := (b.X0+b.X1)/2, (b.Y0+b.Y1)/2
		placed := false
		for i, r := range rects {
			if r.Contains(cx, cy) {
				lines[i].Words = append(lines[i].Words, w)
				placed = true
				break
			}
		}
		if !placed {
			orphans = append(orphans, w)
		}
	}
	out := lines[:0]
	for _, l := range lines {
		if len(l.Words) == 0 && l.Text == "" {
			continue
		}
		l.Confidence = averageConfidence(l.Words)
		out = append(out, l)
	}
	if len(orphans) > 0 {
		out = append(out, ocr.Line{
			Text:       joinWords(orphans),
			Bounds:     mergeBounds(orphans),
			Words:      orphans,
			Confidence: averageConfidence(orphans),
		})
	}
	return out
}

func joinWords(words []ocr.Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func averageConfidence(words []ocr.Word) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

func mergeBounds(words []ocr.Word) geo.Quad {
	if len(words) == 0 {
		return geo.Quad{}
	}
	r := words[0].Bounds.Bounds()
	for _, w := range words[1:] {
		r = r.Union(w.Bounds.Bounds())
	}
	return geo.QuadFromRect(r)
}

func quadFromBox(box image.Rectangle, offset geo.Point) geo.Quad {
	r := geo.FromImageRect(box)
	r.X0 += offset.X
	r.X1 += offset.X
	r.Y0 += offset.Y
	r.Y1 += offset.Y
	return geo.QuadFromRect(r)
}

// cropInput restricts the image to the input's region, if any. Coordinates
// reported by Tesseract are then translated back into full-image space via
// the returned offset.
func cropInput(in ocr.Input) ([]byte, geo.Point, error) {
	if in.Region == nil || in.Region.Empty() {
		return in.Image, geo.Point{}, nil
	}
	img, _, err := image.Decode(bytes.NewReader(in.Image))
	if err != nil {
		return nil, geo.Point{}, fmt.Errorf("decode for region: %w", err)
	}
	rect := in.Region.ToImageRect().Intersect(img.Bounds())
	if rect.Empty() {
		return nil, geo.Point{}, fmt.Errorf("region outside image bounds")
	}
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, geo.Point{}, fmt.Errorf("image does not support sub-image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(rect)); err != nil {
		return nil, geo.Point{}, fmt.Errorf("encode cropped image: %w", err)
	}
	return buf.Bytes(), geo.Point{X: rect.Min.X, Y: rect.Min.Y}, nil
}
