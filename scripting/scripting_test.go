package scripting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wudi/imagekit/geo"
)

type recordingDOM struct {
	opened   string
	saved    string
	stitches [][2]int
	fills    []geo.Rect
	fillMode string
	ocrText  string
	ocrLangs []string
	replaced [][2]string
	logs     []string
	err      error
}

func (d *recordingDOM) Open(path string) error {
	d.opened = path
	return d.err
}

func (d *recordingDOM) Save(path string) (string, error) {
	d.saved = path
	if path == "" {
		return "default.png", d.err
	}
	return path, d.err
}

func (d *recordingDOM) Stitch(y0, y1 int) error {
	d.stitches = append(d.stitches, [2]int{y0, y1})
	return d.err
}

func (d *recordingDOM) Fill(_ context.Context, rect geo.Rect, mode string) error {
	d.fills = append(d.fills, rect)
	d.fillMode = mode
	return d.err
}

func (d *recordingDOM) OCR(_ context.Context, langs []string) (string, error) {
	d.ocrLangs = langs
	return d.ocrText, d.err
}

func (d *recordingDOM) ReplaceText(_ context.Context, oldText, newText string) error {
	d.replaced = append(d.replaced, [2]string{oldText, newText})
	return d.err
}

func (d *recordingDOM) Log(message string) {
	d.logs = append(d.logs, message)
}

func newTestEngine(t *testing.T, dom EditorDOM) *GojaEngine {
	t.Helper()
	engine := NewEngine()
	if err := engine.RegisterDOM(dom); err != nil {
		t.Fatalf("RegisterDOM: %v", err)
	}
	return engine
}

func TestExecuteContextCancellation(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if _, err := engine.Execute(ctx, "while (true) {}"); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestExecuteImmediateCancel(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Execute(ctx, "42"); err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

func TestScriptDrivesDOM(t *testing.T) {
	dom := &recordingDOM{ocrText: "found text"}
	engine := newTestEngine(t, dom)

	script := `
		open("shot.png");
		stitch(10, 40);
		fill(5, 5, 60, 60, "median");
		var text = ocr("en", "zh");
		replaceText("found", "fixed");
		log("done: " + text);
		save("out.png");
	`
	result, err := engine.Execute(context.Background(), script)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result != "out.png" {
		t.Errorf("result = %v, want save path", result)
	}
	if dom.opened != "shot.png" {
		t.Errorf("opened = %q", dom.opened)
	}
	if len(dom.stitches) != 1 || dom.stitches[0] != [2]int{10, 40} {
		t.Errorf("stitches = %v", dom.stitches)
	}
	if len(dom.fills) != 1 || dom.fills[0] != geo.NewRect(5, 5, 60, 60) || dom.fillMode != "median" {
		t.Errorf("fills = %v mode %q", dom.fills, dom.fillMode)
	}
	if len(dom.ocrLangs) != 2 || dom.ocrLangs[1] != "zh" {
		t.Errorf("ocr langs = %v", dom.ocrLangs)
	}
	if len(dom.replaced) != 1 || dom.replaced[0] != [2]string{"found", "fixed"} {
		t.Errorf("replaced = %v", dom.replaced)
	}
	if len(dom.logs) != 1 || dom.logs[0] != "done: found text" {
		t.Errorf("logs = %v", dom.logs)
	}
}

func TestScriptValueFlowsBack(t *testing.T) {
	dom := &recordingDOM{ocrText: "hello"}
	engine := newTestEngine(t, dom)

	result, err := engine.Execute(context.Background(), `ocr().toUpperCase()`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result != "HELLO" {
		t.Errorf("result = %v", result)
	}
}

func TestDOMErrorBecomesScriptException(t *testing.T) {
	dom := &recordingDOM{err: errors.New("no such file")}
	engine := newTestEngine(t, dom)

	_, err := engine.Execute(context.Background(), `open("missing.png")`)
	if err == nil || !strings.Contains(err.Error(), "no such file") {
		t.Fatalf("err = %v, want wrapped DOM error", err)
	}

	// The exception is catchable from the script side.
	result, err := engine.Execute(context.Background(), `
		var caught = "";
		try { open("missing.png"); } catch (e) { caught = "yes"; }
		caught;
	`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result != "yes" {
		t.Errorf("catch result = %v", result)
	}
}

func TestScriptArgumentValidation(t *testing.T) {
	dom := &recordingDOM{}
	engine := newTestEngine(t, dom)

	if _, err := engine.Execute(context.Background(), `stitch(5)`); err == nil {
		t.Fatalf("stitch with one argument succeeded")
	}
	if _, err := engine.Execute(context.Background(), `fill(1, 2)`); err == nil {
		t.Fatalf("fill with two arguments succeeded")
	}
	if _, err := engine.Execute(context.Background(), `replaceText("only")`); err == nil {
		t.Fatalf("replaceText with one argument succeeded")
	}
}
