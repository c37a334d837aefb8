package editor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/imagekit/fontdb"
	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/imagefile"
	"github.com/wudi/imagekit/ocr"
	"github.com/wudi/imagekit/textedit"
)

type stubEngine struct {
	res    ocr.Result
	err    error
	region *geo.Rect
	calls  int
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Recognize(_ context.Context, in ocr.Input) (ocr.Result, error) {
	e.calls++
	e.region = in.Region
	return e.res, e.err
}

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := rowImage(w, h)
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestSessionOpenSaveRoundTrip(t *testing.T) {
	path := writeTestPNG(t, 20, 20)
	s := NewSession()
	if err := s.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Dirty() {
		t.Errorf("fresh session is dirty")
	}
	if got := s.Image().Bounds().Dx(); got != 20 {
		t.Fatalf("width = %d, want 20", got)
	}

	s.Selection().Set(geo.NewRect(0, 5, 20, 12))
	if err := s.ApplyStitch(); err != nil {
		t.Fatalf("ApplyStitch: %v", err)
	}
	if !s.Dirty() {
		t.Errorf("edited session not dirty")
	}
	if got := s.Image().Bounds().Dy(); got != 13 {
		t.Fatalf("height after stitch = %d, want 13", got)
	}

	out := filepath.Join(t.TempDir(), "out.png")
	written, err := s.Save(out, imagefile.SaveOptions{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Errorf("saved session still dirty")
	}
	reopened, err := imagefile.Open(written)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Bounds().Dy() != 13 {
		t.Errorf("saved height = %d", reopened.Bounds().Dy())
	}
}

func TestSessionRequiresSelection(t *testing.T) {
	s := NewSession()
	s.SetImage(image.NewRGBA(image.Rect(0, 0, 30, 30)))
	if err := s.ApplyStitch(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	// A selection below the minimum side length is not valid either.
	s.Selection().Set(geo.NewRect(0, 0, 3, 3))
	if err := s.ApplyFill(context.Background(), FillOptions{}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
}

func TestSessionRequiresImage(t *testing.T) {
	s := NewSession()
	if err := s.ApplyStitch(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("stitch err = %v, want ErrNoImage", err)
	}
	if _, err := s.Save("x.png", imagefile.SaveOptions{}); !errors.Is(err, ErrNoImage) {
		t.Fatalf("save err = %v, want ErrNoImage", err)
	}
	if _, err := s.RunOCR(context.Background()); !errors.Is(err, ErrNoImage) {
		t.Fatalf("ocr err = %v, want ErrNoImage", err)
	}
}

func TestSessionUndoRedo(t *testing.T) {
	s := NewSession()
	s.SetImage(rowImage(20, 20))
	if s.CanUndo() {
		t.Errorf("fresh session can undo")
	}

	s.Selection().Set(geo.NewRect(0, 5, 20, 12))
	if err := s.ApplyStitch(); err != nil {
		t.Fatalf("ApplyStitch: %v", err)
	}
	if !s.CanUndo() || s.CanRedo() {
		t.Errorf("CanUndo/CanRedo = %v/%v after edit", s.CanUndo(), s.CanRedo())
	}

	if !s.Undo() {
		t.Fatalf("Undo failed")
	}
	if got := s.Image().Bounds().Dy(); got != 20 {
		t.Errorf("height after undo = %d, want 20", got)
	}
	if !s.Redo() {
		t.Fatalf("Redo failed")
	}
	if got := s.Image().Bounds().Dy(); got != 13 {
		t.Errorf("height after redo = %d, want 13", got)
	}
	if s.Redo() {
		t.Errorf("Redo past the end succeeded")
	}
}

func TestSessionFillInvalidatesOCRCache(t *testing.T) {
	engine := &stubEngine{res: ocr.Result{PlainText: "cached"}}
	s := NewSession(WithEngine(engine))
	s.SetImage(rowImage(30, 30))

	if _, err := s.RunOCR(context.Background()); err != nil {
		t.Fatalf("RunOCR: %v", err)
	}
	if _, ok := s.LastOCR(); !ok {
		t.Fatalf("result not cached")
	}

	s.Selection().Set(geo.NewRect(0, 0, 20, 20))
	if err := s.ApplyFill(context.Background(), FillOptions{Mode: FillColor}); err != nil {
		t.Fatalf("ApplyFill: %v", err)
	}
	if _, ok := s.LastOCR(); ok {
		t.Errorf("cache survived an edit")
	}
}

func TestSessionRunOCRUsesSelection(t *testing.T) {
	engine := &stubEngine{}
	s := NewSession(WithEngine(engine))
	s.SetImage(rowImage(40, 40))

	if _, err := s.RunOCR(context.Background()); err != nil {
		t.Fatalf("RunOCR: %v", err)
	}
	if engine.region != nil {
		t.Errorf("no selection, but region = %+v", engine.region)
	}

	s.Selection().Set(geo.NewRect(5, 5, 25, 25))
	if _, err := s.RunOCR(context.Background()); err != nil {
		t.Fatalf("RunOCR: %v", err)
	}
	if engine.region == nil || engine.region.X0 != 5 {
		t.Errorf("region = %+v, want selection", engine.region)
	}
}

func TestSessionReplaceText(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "r.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	db := fontdb.New()
	if db.ScanDirs(dir) == 0 {
		t.Fatalf("no fonts")
	}
	s := NewSession(WithTextEditor(textedit.NewEditor(db)))

	img := image.NewRGBA(image.Rect(0, 0, 120, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 120; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	s.SetImage(img)

	quad := geo.QuadFromRect(geo.NewRect(20, 20, 100, 40))
	if err := s.ReplaceText(context.Background(), quad, "ok", textedit.Style{}); err != nil {
		t.Fatalf("ReplaceText: %v", err)
	}
	if !s.Dirty() || !s.CanUndo() {
		t.Errorf("replace did not register as an edit")
	}
}

func TestSessionHistoryLimit(t *testing.T) {
	s := NewSession(WithHistoryLimit(3))
	s.SetImage(rowImage(40, 40))
	for i := 0; i < 5; i++ {
		s.Selection().Set(geo.NewRect(0, 0, 30, 30))
		if err := s.ApplyFill(context.Background(), FillOptions{Mode: FillColor}); err != nil {
			t.Fatalf("fill %d: %v", i, err)
		}
	}
	var undos int
	for s.Undo() {
		undos++
	}
	if undos != 2 {
		t.Errorf("undos = %d, want 2 with limit 3", undos)
	}
}
