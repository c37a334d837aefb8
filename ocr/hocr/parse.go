package hocr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/wudi/imagekit/geo"
)

// Parse converts raw hOCR data into a structured document. Documents
// declaring a non-UTF-8 charset are decoded as Latin-1 first, which covers
// the legacy output of older OCR tools.
func Parse(data []byte) (Document, error) {
	var doc Document

	decoded := data
	if cs := declaredCharset(string(data)); cs != "" && cs != "utf-8" {
		var err error
		decoded, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return doc, fmt.Errorf("decode %s: %w", cs, err)
		}
	}

	root, err := html.Parse(strings.NewReader(string(decoded)))
	if err != nil {
		return doc, fmt.Errorf("parse hocr: %w", err)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					doc.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case n.Data == "html":
				if v, ok := attr(n, "lang"); ok {
					doc.Language = v
				}
			case hasClass(n, "ocr_page"):
				doc.Pages = append(doc.Pages, parsePage(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc, nil
}

func parsePage(n *html.Node) Page {
	page := Page{}
	page.ID, _ = attr(n, "id")
	title, _ := attr(n, "title")
	page.BBox = bboxFromTitle(title)
	page.ImageName = imageFromTitle(title)

	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(c, "ocr_line") {
			page.Lines = append(page.Lines, parseLine(c))
			return
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return page
}

func parseLine(n *html.Node) Line {
	line := Line{}
	line.ID, _ = attr(n, "id")
	title, _ := attr(n, "title")
	line.BBox = bboxFromTitle(title)
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(c, "ocrx_word") {
			line.Words = append(line.Words, parseWord(c))
			return
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return line
}

func parseWord(n *html.Node) Word {
	word := Word{}
	word.ID, _ = attr(n, "id")
	title, _ := attr(n, "title")
	word.BBox = bboxFromTitle(title)
	word.Confidence = confFromTitle(title)
	word.Text = strings.TrimSpace(textContent(n))
	return word
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// bboxFromTitle extracts "bbox x0 y0 x1 y1" from an hOCR title attribute.
func bboxFromTitle(title string) geo.Rect {
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(prop))
		if len(fields) == 5 && fields[0] == "bbox" {
			coords := make([]int, 4)
			ok := true
			for i, f := range fields[1:] {
				v, err := strconv.Atoi(f)
				if err != nil {
					ok = false
					break
				}
				coords[i] = v
			}
			if ok {
				return geo.Rect{X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3]}
			}
		}
	}
	return geo.Rect{}
}

func confFromTitle(title string) float64 {
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(prop))
		if len(fields) == 2 && fields[0] == "x_wconf" {
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
				return v
			}
		}
	}
	return 0
}

func imageFromTitle(title string) string {
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(prop))
		if len(fields) >= 2 && fields[0] == "image" {
			return strings.Trim(strings.Join(fields[1:], " "), `"`)
		}
	}
	return ""
}

func declaredCharset(content string) string {
	idx := strings.Index(strings.ToLower(content), "charset=")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(content[idx+len("charset="):], `"'`)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == '"' || r == '\'' || r == ';' || r == '>' || r == ' ' || r == '/'
	})
	if end < 0 {
		end = len(rest)
	}
	return strings.ToLower(rest[:end])
}
