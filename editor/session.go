package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/wudi/imagekit/fontdb"
	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/history"
	"github.com/wudi/imagekit/imagefile"
	"github.com/wudi/imagekit/observability"
	"github.com/wudi/imagekit/ocr"
	"github.com/wudi/imagekit/raster"
	"github.com/wudi/imagekit/selection"
	"github.com/wudi/imagekit/textedit"
)

// ErrNoImage is returned by operations that need a loaded image.
var ErrNoImage = errors.New("editor: no image loaded")

// ErrNoSelection is returned by operations that need a valid selection.
var ErrNoSelection = errors.New("editor: no valid selection")

// Session is the document model: the current image plus the undo history,
// active selection and cached OCR results that belong to it. Session
// methods are safe for concurrent use; the Tracker returned by Selection
// is not and belongs to a single caller.
type Session struct {
	mu    sync.Mutex
	img   *image.RGBA
	path  string
	dirty bool

	hist *history.Stack[*image.RGBA]
	sel  selection.Tracker

	engine ocr.Engine
	text   *textedit.Editor
	log    observability.Logger

	lastOCR   *ocr.Result
	histLimit int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger routes session events to l instead of discarding them.
func WithLogger(l observability.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithEngine pins the OCR engine instead of using the registered default.
func WithEngine(e ocr.Engine) SessionOption {
	return func(s *Session) { s.engine = e }
}

// WithHistoryLimit bounds the number of undo snapshots kept.
func WithHistoryLimit(n int) SessionOption {
	return func(s *Session) { s.histLimit = n }
}

// WithTextEditor injects the text editor, mainly so tests can supply one
// backed by a known font set instead of the system fonts.
func WithTextEditor(te *textedit.Editor) SessionOption {
	return func(s *Session) { s.text = te }
}

// NewSession returns an empty session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		log:       observability.NopLogger{},
		histLimit: history.DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hist = history.NewStack(s.histLimit, raster.Clone)
	return s
}

// Open loads the image at path and resets history and selection around it.
func (s *Session) Open(path string) error {
	start := time.Now()
	img, err := imagefile.Open(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.path = path
	s.dirty = false
	s.lastOCR = nil
	s.hist.Reset(img)
	s.sel.Clear()
	s.log.Info("image opened",
		observability.String("path", path),
		observability.Int("width", img.Bounds().Dx()),
		observability.Int("height", img.Bounds().Dy()),
		observability.Duration(observability.MetricDecodeTime, time.Since(start)))
	return nil
}

// SetImage replaces the session image directly, resetting history. Used
// when the caller already holds a decoded image.
func (s *Session) SetImage(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = raster.Clone(img)
	s.path = ""
	s.dirty = false
	s.lastOCR = nil
	s.hist.Reset(s.img)
	s.sel.Clear()
}

// Save writes the current image. An empty path reuses the path the image
// was opened from. Returns the path actually written.
func (s *Session) Save(path string, opts imagefile.SaveOptions) (string, error) {
	s.mu.Lock()
	img := s.img
	if path == "" {
		path = s.path
	}
	s.mu.Unlock()
	if img == nil {
		return "", ErrNoImage
	}
	if path == "" {
		return "", errors.New("editor: no save path")
	}
	start := time.Now()
	written, err := imagefile.Save(path, img, opts)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.dirty = false
	s.path = written
	s.mu.Unlock()
	s.log.Info("image saved",
		observability.String("path", written),
		observability.Duration(observability.MetricEncodeTime, time.Since(start)))
	return written, nil
}

// Image returns the current image. Callers must not modify it; use the
// editing operations so history stays consistent.
func (s *Session) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img
}

// Path returns the file the image was opened from or last saved to.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Dirty reports whether the image has unsaved edits.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Selection exposes the drag tracker for the session image.
func (s *Session) Selection() *selection.Tracker {
	return &s.sel
}

// selectionRect returns the active selection clamped to the image.
func (s *Session) selectionRect() (geo.Rect, error) {
	if s.img == nil {
		return geo.Rect{}, ErrNoImage
	}
	s.sel.ClampTo(s.img.Bounds().Dx(), s.img.Bounds().Dy())
	rect, ok := s.sel.Rect()
	if !ok || !s.sel.Valid() {
		return geo.Rect{}, ErrNoSelection
	}
	return rect, nil
}

// apply installs a new image produced by an operation, snapshotting it
// into history and invalidating cached OCR results.
func (s *Session) apply(img *image.RGBA) {
	s.img = img
	s.dirty = true
	s.lastOCR = nil
	s.hist.Save(img)
	s.sel.Clear()
}

// ApplyStitch removes the selected horizontal band and joins the halves.
func (s *Session) ApplyStitch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rect, err := s.selectionRect()
	if err != nil {
		return err
	}
	start := time.Now()
	s.apply(Stitch(s.img, rect))
	s.log.Info("stitch applied",
		observability.Int("y0", rect.Y0),
		observability.Int("y1", rect.Y1),
		observability.Duration(observability.MetricStitchTime, time.Since(start)))
	return nil
}

// ApplyFill fills the selected region according to opts.
func (s *Session) ApplyFill(ctx context.Context, opts FillOptions) error {
	s.mu.Lock()
	rect, err := s.selectionRect()
	img := s.img
	s.mu.Unlock()
	if err != nil {
		return err
	}
	start := time.Now()
	out, err := Fill(ctx, img, rect, opts)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	s.mu.Lock()
	s.apply(out)
	s.mu.Unlock()
	s.log.Info("fill applied",
		observability.String("mode", string(opts.Mode)),
		observability.Duration(observability.MetricFillTime, time.Since(start)))
	return nil
}

// RunOCR recognizes text in the current image, or in the selection when
// one is active, and caches the result on the session.
func (s *Session) RunOCR(ctx context.Context, opts ...ocr.InputOption) (ocr.Result, error) {
	s.mu.Lock()
	img := s.img
	engine := s.engine
	if rect, err := s.selectionRect(); err == nil {
		opts = append(opts, ocr.WithRegion(rect))
	}
	s.mu.Unlock()
	if img == nil {
		return ocr.Result{}, ErrNoImage
	}
	if engine == nil {
		engine = ocr.DefaultEngine()
	}
	start := time.Now()
	res, err := ocr.RecognizeImage(ctx, engine, "session", img, opts...)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("ocr: %w", err)
	}
	s.mu.Lock()
	s.lastOCR = &res
	s.mu.Unlock()
	s.log.Info("ocr complete",
		observability.String("engine", engine.Name()),
		observability.Int("words", len(res.Words())),
		observability.Duration(observability.MetricOCRTime, time.Since(start)))
	return res, nil
}

// LastOCR returns the cached result of the most recent RunOCR, if the
// image has not changed since.
func (s *Session) LastOCR() (ocr.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastOCR == nil {
		return ocr.Result{}, false
	}
	return *s.lastOCR, true
}

// textEditor lazily builds a text editor over the system fonts when none
// was injected.
func (s *Session) textEditor() *textedit.Editor {
	if s.text == nil {
		db := fontdb.New()
		db.Scan()
		s.text = textedit.NewEditor(db)
	}
	return s.text
}

// DeleteText inpaints the regions under the given text quads.
func (s *Session) DeleteText(ctx context.Context, quads []geo.Quad) error {
	s.mu.Lock()
	img := s.img
	te := s.textEditor()
	s.mu.Unlock()
	if img == nil {
		return ErrNoImage
	}
	start := time.Now()
	out, err := te.Delete(ctx, img, quads)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.apply(out)
	s.mu.Unlock()
	s.log.Info("text deleted",
		observability.Int("regions", len(quads)),
		observability.Duration(observability.MetricInpaintTime, time.Since(start)))
	return nil
}

// ReplaceText swaps the text under quad for text, matching the original
// styling unless style overrides it.
func (s *Session) ReplaceText(ctx context.Context, quad geo.Quad, text string, style textedit.Style) error {
	s.mu.Lock()
	img := s.img
	te := s.textEditor()
	s.mu.Unlock()
	if img == nil {
		return ErrNoImage
	}
	start := time.Now()
	out, err := te.Replace(ctx, img, quad, text, style)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.apply(out)
	s.mu.Unlock()
	s.log.Info("text replaced",
		observability.Int("chars", len(text)),
		observability.Duration(observability.MetricRenderTime, time.Since(start)))
	return nil
}

// AddText draws text centered in the quad without removing anything.
func (s *Session) AddText(quad geo.Quad, text string, style textedit.Style) error {
	s.mu.Lock()
	img := s.img
	te := s.textEditor()
	s.mu.Unlock()
	if img == nil {
		return ErrNoImage
	}
	out, err := te.Add(img, quad, text, style)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.apply(out)
	s.mu.Unlock()
	return nil
}

// Undo steps back one snapshot. Reports whether a step was taken.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.hist.Undo()
	if !ok {
		return false
	}
	s.img = img
	s.dirty = true
	s.lastOCR = nil
	s.sel.Clear()
	return true
}

// Redo steps forward one snapshot. Reports whether a step was taken.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.hist.Redo()
	if !ok {
		return false
	}
	s.img = img
	s.dirty = true
	s.lastOCR = nil
	s.sel.Clear()
	return true
}

// CanUndo reports whether an undo step is available.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}
