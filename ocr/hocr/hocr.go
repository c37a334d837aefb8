// Package hocr reads and writes the hOCR microformat, the de-facto
// interchange for OCR output with positional data. The editor uses it to
// persist recognition results next to an image and to import results
// produced by external tools.
package hocr

import (
	"fmt"

	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/ocr"
)

// Document is a parsed or generated hOCR document.
type Document struct {
	Title    string
	Language string
	Pages    []Page
}

// Page is one page of recognized text (class ocr_page).
type Page struct {
	ID        string
	ImageName string
	BBox      geo.Rect
	Lines     []Line
}

// Line is a line of text (class ocr_line).
type Line struct {
	ID    string
	BBox  geo.Rect
	Words []Word
}

// Word is a recognized word (class ocrx_word). Confidence is in [0, 100]
// as the format prescribes.
type Word struct {
	ID         string
	Text       string
	BBox       geo.Rect
	Confidence float64
}

// FromResult converts an OCR result for a single image into a one-page
// document. imageName is recorded in the page title; width and height give
// the page bounding box.
func FromResult(res ocr.Result, imageName string, width, height int) Document {
	page := Page{
		ID:        "page_1",
		ImageName: imageName,
		BBox:      geo.Rect{X0: 0, Y0: 0, X1: width, Y1: height},
	}
	lineNo, wordNo := 0, 0
	for _, block := range res.Blocks {
		for _, line := range block.Lines {
			lineNo++
			hl := Line{
				ID:   fmt.Sprintf("line_1_%d", lineNo),
				BBox: line.Bounds.Bounds(),
			}
			for _, w := range line.Words {
				wordNo++
				hl.Words = append(hl.Words, Word{
					ID:         fmt.Sprintf("word_1_%d", wordNo),
					Text:       w.Text,
					BBox:       w.Bounds.Bounds(),
					Confidence: w.Confidence * 100,
				})
			}
			page.Lines = append(page.Lines, hl)
		}
	}
	return Document{
		Title:    imageName,
		Language: res.Language,
		Pages:    []Page{page},
	}
}

// ToResult converts the first page of a document back into an OCR result.
func (d Document) ToResult() ocr.Result {
	res := ocr.Result{Language: d.Language}
	if len(d.Pages) == 0 {
		return res
	}
	page := d.Pages[0]
	var block ocr.Block
	var plain string
	for _, l := range page.Lines {
		line := ocr.Line{Bounds: geo.QuadFromRect(l.BBox)}
		for _, w := range l.Words {
			line.Words = append(line.Words, ocr.Word{
				Text:       w.Text,
				Bounds:     geo.QuadFromRect(w.BBox),
				Confidence: w.Confidence / 100,
			})
			if line.Text != "" {
				line.Text += " "
			}
			line.Text += w.Text
		}
		if plain != "" {
			plain += "\n"
		}
		plain += line.Text
		block.Lines = append(block.Lines, line)
	}
	block.Text = plain
	block.Bounds = geo.QuadFromRect(page.BBox)
	res.PlainText = plain
	res.Blocks = []ocr.Block{block}
	return res
}
