package scripting

import (
	"context"
	"fmt"
	"strings"

	"github.com/wudi/imagekit/editor"
	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/imagefile"
	"github.com/wudi/imagekit/observability"
	"github.com/wudi/imagekit/ocr"
	"github.com/wudi/imagekit/textedit"
)

// SessionDOM adapts an editor.Session to the EditorDOM surface scripts
// drive.
type SessionDOM struct {
	Session *editor.Session
	// Quality applies to JPEG saves triggered from scripts.
	Quality int

	log observability.Logger
}

// NewSessionDOM wraps a session for scripting. A nil logger discards
// script log output.
func NewSessionDOM(s *editor.Session, log observability.Logger) *SessionDOM {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &SessionDOM{Session: s, log: log}
}

func (d *SessionDOM) Open(path string) error {
	return d.Session.Open(path)
}

func (d *SessionDOM) Save(path string) (string, error) {
	return d.Session.Save(path, imagefile.SaveOptions{Quality: d.Quality})
}

func (d *SessionDOM) Stitch(y0, y1 int) error {
	img := d.Session.Image()
	if img == nil {
		return editor.ErrNoImage
	}
	d.Session.Selection().Set(geo.NewRect(0, y0, img.Bounds().Dx(), y1))
	return d.Session.ApplyStitch()
}

func (d *SessionDOM) Fill(ctx context.Context, rect geo.Rect, mode string) error {
	parsed, err := editor.ParseFillMode(mode)
	if err != nil {
		return err
	}
	d.Session.Selection().Set(rect)
	return d.Session.ApplyFill(ctx, editor.FillOptions{Mode: parsed})
}

func (d *SessionDOM) OCR(ctx context.Context, languages []string) (string, error) {
	var opts []ocr.InputOption
	if len(languages) > 0 {
		opts = append(opts, ocr.WithLanguages(languages...))
	}
	res, err := d.Session.RunOCR(ctx, opts...)
	if err != nil {
		return "", err
	}
	return res.PlainText, nil
}

// ReplaceText locates oldText in the OCR results, running recognition
// first when no cached result exists, and redraws it as newText.
func (d *SessionDOM) ReplaceText(ctx context.Context, oldText, newText string) error {
	res, ok := d.Session.LastOCR()
	if !ok {
		var err error
		res, err = d.Session.RunOCR(ctx)
		if err != nil {
			return err
		}
	}
	quad, ok := findText(res, oldText)
	if !ok {
		return fmt.Errorf("scripting: text %q not found in image", oldText)
	}
	return d.Session.ReplaceText(ctx, quad, newText, textedit.Style{})
}

func (d *SessionDOM) Log(message string) {
	d.log.Info("script", observability.String("message", message))
}

// findText returns the bounds of the word or line matching wanted, words
// first so short matches do not grab a whole line.
func findText(res ocr.Result, wanted string) (geo.Quad, bool) {
	wanted = strings.TrimSpace(wanted)
	for _, w := range res.Words() {
		if strings.TrimSpace(w.Text) == wanted {
			return w.Bounds, true
		}
	}
	for _, b := range res.Blocks {
		for _, l := range b.Lines {
			if strings.TrimSpace(l.Text) == wanted {
				return l.Bounds, true
			}
		}
	}
	return geo.Quad{}, false
}
