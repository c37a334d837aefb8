package hocr

import (
	"strings"
	"testing"

	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/ocr"
)

func sampleResult() ocr.Result {
	word := func(text string, r geo.Rect, conf float64) ocr.Word {
		return ocr.Word{Text: text, Bounds: geo.QuadFromRect(r), Confidence: conf}
	}
	return ocr.Result{
		InputID:   "shot",
		PlainText: "Hello World\nBye",
		Language:  "en",
		Blocks: []ocr.Block{{
			Text: "Hello World\nBye",
			Lines: []ocr.Line{
				{
					Text:   "Hello World",
					Bounds: geo.QuadFromRect(geo.Rect{X0: 10, Y0: 10, X1: 200, Y1: 40}),
					Words: []ocr.Word{
						word("Hello", geo.Rect{X0: 10, Y0: 10, X1: 90, Y1: 40}, 0.95),
						word("World", geo.Rect{X0: 100, Y0: 10, X1: 200, Y1: 40}, 0.90),
					},
				},
				{
					Text:   "Bye",
					Bounds: geo.QuadFromRect(geo.Rect{X0: 10, Y0: 50, X1: 60, Y1: 80}),
					Words: []ocr.Word{
						word("Bye", geo.Rect{X0: 10, Y0: 50, X1: 60, Y1: 80}, 0.80),
					},
				},
			},
		}},
	}
}

func TestGenerateContainsStructure(t *testing.T) {
	doc := FromResult(sampleResult(), "shot.png", 640, 480)
	data, err := Generate(doc)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`class="ocr_page"`,
		`image shot.png`,
		`bbox 0 0 640 480`,
		`class="ocr_line"`,
		`class="ocrx_word"`,
		`bbox 10 10 90 40`,
		`x_wconf 95`,
		">Hello<",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("generated hOCR missing %q:\n%s", want, out)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	orig := sampleResult()
	data, err := Generate(FromResult(orig, "shot.png", 640, 480))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	page := doc.Pages[0]
	if page.ImageName != "shot.png" {
		t.Fatalf("image name = %q", page.ImageName)
	}
	if len(page.Lines) != 2 {
		t.Fatalf("lines = %d", len(page.Lines))
	}
	w := page.Lines[0].Words[0]
	if w.Text != "Hello" {
		t.Fatalf("word = %q", w.Text)
	}
	if w.BBox != (geo.Rect{X0: 10, Y0: 10, X1: 90, Y1: 40}) {
		t.Fatalf("bbox = %+v", w.BBox)
	}
	if w.Confidence != 95 {
		t.Fatalf("confidence = %v", w.Confidence)
	}

	back := doc.ToResult()
	if back.PlainText != "Hello World\nBye" {
		t.Fatalf("plain text = %q", back.PlainText)
	}
	words := back.Words()
	if len(words) != 3 || words[2].Text != "Bye" {
		t.Fatalf("words = %+v", words)
	}
	if words[0].Confidence < 0.94 || words[0].Confidence > 0.96 {
		t.Fatalf("confidence = %v", words[0].Confidence)
	}
}

func TestParseForeignDocument(t *testing.T) {
	// Minimal Tesseract-style output with nested paragraph divs.
	input := `<html><head><meta http-equiv="Content-Type" content="text/html;charset=utf-8"/><title>x</title></head>
<body><div class="ocr_page" id="page_1" title="image unknown; bbox 0 0 100 100">
<div class="ocr_carea"><p class="ocr_par">
<span class="ocr_line" id="l1" title="bbox 1 2 50 20">
<span class="ocrx_word" id="w1" title="bbox 1 2 20 20; x_wconf 88">Hi</span>
</span></p></div></div></body></html>`
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Pages) != 1 || len(doc.Pages[0].Lines) != 1 {
		t.Fatalf("structure = %+v", doc)
	}
	w := doc.Pages[0].Lines[0].Words[0]
	if w.Text != "Hi" || w.Confidence != 88 {
		t.Fatalf("word = %+v", w)
	}
}

func TestParseLatin1Fallback(t *testing.T) {
	input := "<html><head><meta charset=\"iso-8859-1\"></head><body>" +
		`<div class="ocr_page" title="bbox 0 0 10 10">` +
		`<span class="ocr_line" title="bbox 0 0 10 10">` +
		"<span class=\"ocrx_word\" title=\"bbox 0 0 5 5; x_wconf 50\">caf\xe9</span>" +
		"</span></div></body></html>"
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := doc.Pages[0].Lines[0].Words[0].Text; got != "café" {
		t.Fatalf("word = %q", got)
	}
}
