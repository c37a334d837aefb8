package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wudi/imagekit/config"
	"github.com/wudi/imagekit/editor"
	"github.com/wudi/imagekit/geo"
	"github.com/wudi/imagekit/imagefile"
	"github.com/wudi/imagekit/observability"
	"github.com/wudi/imagekit/ocr"
	"github.com/wudi/imagekit/ocr/hocr"
	"github.com/wudi/imagekit/ocr/paddle"
	"github.com/wudi/imagekit/ocr/tesseract"
	"github.com/wudi/imagekit/recovery"
	"github.com/wudi/imagekit/scripting"
	"github.com/wudi/imagekit/textedit"
)

type options struct {
	inputs []string
	outArg string

	cfg config.Config

	stitch    string
	fill      string
	fillMode  string
	fillColor string
	runOCR    bool
	langs     string
	hocrOut   string
	replace   string
	script    string
	onError   recovery.Action
	verbose   bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "imgedit: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "imgedit: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: imgedit [flags] <image> [image...]\n")
		flag.PrintDefaults()
	}
	cfgPath := flag.String("config", "", "YAML config file")
	engine := flag.String("engine", "", "OCR engine: tesseract or paddle (overrides config)")
	modelRoot := flag.String("model-root", "", "Directory searched for ONNX models (overrides config)")
	stitch := flag.String("stitch", "", "Remove the horizontal band y0:y1 and join the remainder")
	fill := flag.String("fill", "", "Fill the region x0,y0,x1,y1")
	fillMode := flag.String("fill-mode", "", "Fill mode: inpaint, average, median or color")
	fillColor := flag.String("fill-color", "", "Fill color as #rrggbb (implies -fill-mode color)")
	runOCR := flag.Bool("ocr", false, "Recognize text and print it")
	langs := flag.String("langs", "", "Comma-separated OCR language hints (overrides config)")
	hocrOut := flag.String("hocr", "", "Write OCR output as hOCR to this file")
	replace := flag.String("replace", "", "Replace recognized text, as old=new")
	script := flag.String("script", "", "Run a JavaScript automation file against each image")
	out := flag.String("out", "", "Output path (directory when processing multiple images)")
	quality := flag.Int("quality", 0, "JPEG quality 1-100 (overrides config)")
	onError := flag.String("on-error", "fail", "Batch failure policy: fail, skip or warn")
	verbose := flag.Bool("v", false, "Log progress to stderr")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return options{}, fmt.Errorf("missing image path")
	}
	opts.inputs = flag.Args()
	opts.outArg = *out

	opts.cfg = config.Default()
	if *cfgPath != "" {
		cfg, err := config.LoadFile(*cfgPath)
		if err != nil {
			return options{}, err
		}
		opts.cfg = cfg
	}
	if *engine != "" {
		opts.cfg.Engine = *engine
	}
	if *modelRoot != "" {
		opts.cfg.ModelRoot = *modelRoot
	}
	if *quality != 0 {
		opts.cfg.JPEGQuality = *quality
	}
	if err := opts.cfg.Validate(); err != nil {
		return options{}, err
	}

	action, ok := recovery.ParseAction(*onError)
	if !ok {
		return options{}, fmt.Errorf("unknown -on-error value %q", *onError)
	}
	opts.onError = action

	opts.stitch = *stitch
	opts.fill = *fill
	opts.fillMode = *fillMode
	opts.fillColor = *fillColor
	opts.runOCR = *runOCR
	opts.langs = *langs
	opts.hocrOut = *hocrOut
	opts.replace = *replace
	opts.script = *script
	opts.verbose = *verbose

	if opts.replace != "" && !strings.Contains(opts.replace, "=") {
		return options{}, fmt.Errorf("-replace wants old=new, got %q", opts.replace)
	}
	if opts.fillColor != "" {
		if _, err := parseHexColor(opts.fillColor); err != nil {
			return options{}, err
		}
		if opts.fillMode == "" {
			opts.fillMode = string(editor.FillColor)
		}
	}
	if opts.fillMode == "" {
		opts.fillMode = opts.cfg.FillMode
	}
	return opts, nil
}

func run(opts options) error {
	ctx := context.Background()
	log := observability.Logger(observability.NopLogger{})
	if opts.verbose {
		log = observability.NewWriterLogger(os.Stderr)
	}

	engine, closeEngine, err := buildEngine(opts.cfg)
	if err != nil {
		return err
	}
	if closeEngine != nil {
		defer closeEngine()
	}

	strategy := recovery.ForAction(opts.onError)
	var failed int
	for i, path := range opts.inputs {
		if err := processOne(ctx, opts, engine, log, path); err != nil {
			loc := recovery.Location{Path: path, Index: i, Operation: "process"}
			switch strategy.OnError(err, loc) {
			case recovery.ActionFail:
				return fmt.Errorf("%s: %w", path, err)
			case recovery.ActionSkip:
				failed++
				fmt.Fprintf(os.Stderr, "imgedit: skipping %s: %v\n", path, err)
			case recovery.ActionWarn:
				failed++
				fmt.Fprintf(os.Stderr, "imgedit: warning: %s: %v\n", path, err)
			}
		}
	}
	if failed == len(opts.inputs) && failed > 0 {
		return fmt.Errorf("all %d inputs failed", failed)
	}
	return nil
}

// buildEngine returns the configured OCR backend. The returned close
// function is nil for engines without resources to release.
func buildEngine(cfg config.Config) (ocr.Engine, func(), error) {
	switch cfg.Engine {
	case "tesseract":
		return tesseract.NewEngine(), nil, nil
	case "paddle":
		eng, err := paddle.NewEngine(paddle.Config{ModelRoot: cfg.ModelRoot})
		if err != nil {
			return nil, nil, err
		}
		return eng, func() { eng.Close() }, nil
	case "noop":
		return ocr.NewNoopEngine(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown engine %q", cfg.Engine)
}

func processOne(ctx context.Context, opts options, engine ocr.Engine, log observability.Logger, path string) error {
	sess := editor.NewSession(
		editor.WithEngine(engine),
		editor.WithLogger(log),
		editor.WithHistoryLimit(opts.cfg.HistoryDepth),
	)
	if err := sess.Open(path); err != nil {
		return err
	}

	if opts.script != "" {
		return runScript(ctx, opts, sess, log)
	}

	if opts.stitch != "" {
		y0, y1, err := parseBand(opts.stitch)
		if err != nil {
			return err
		}
		b := sess.Image().Bounds()
		sess.Selection().Set(geo.NewRect(0, y0, b.Dx(), y1))
		if err := sess.ApplyStitch(); err != nil {
			return err
		}
	}

	if opts.fill != "" {
		rect, err := parseRect(opts.fill)
		if err != nil {
			return err
		}
		mode, err := editor.ParseFillMode(opts.fillMode)
		if err != nil {
			return err
		}
		fillOpts := editor.FillOptions{Mode: mode, Radius: opts.cfg.InpaintRadius}
		if opts.fillColor != "" {
			fillOpts.Color, _ = parseHexColor(opts.fillColor)
		}
		sess.Selection().Set(rect)
		if err := sess.ApplyFill(ctx, fillOpts); err != nil {
			return err
		}
	}

	if opts.runOCR || opts.hocrOut != "" || opts.replace != "" {
		if err := handleOCR(ctx, opts, sess, path); err != nil {
			return err
		}
	}

	if opts.outArg != "" || sess.Dirty() {
		saved, err := sess.Save(outputPath(opts, path), imagefile.SaveOptions{Quality: opts.cfg.JPEGQuality})
		if err != nil {
			return err
		}
		fmt.Println(saved)
	}
	return nil
}

func handleOCR(ctx context.Context, opts options, sess *editor.Session, path string) error {
	langs := opts.cfg.Languages
	if opts.langs != "" {
		langs = strings.Split(opts.langs, ",")
	}
	res, err := sess.RunOCR(ctx, ocr.WithLanguages(langs...))
	if err != nil {
		return err
	}

	if opts.runOCR {
		fmt.Println(res.PlainText)
	}
	if opts.hocrOut != "" {
		b := sess.Image().Bounds()
		doc := hocr.FromResult(res, filepath.Base(path), b.Dx(), b.Dy())
		data, err := hocr.Generate(doc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.hocrOut, data, 0o644); err != nil {
			return fmt.Errorf("write hocr: %w", err)
		}
	}
	if opts.replace != "" {
		old, repl, _ := strings.Cut(opts.replace, "=")
		quad, ok := findText(res, old)
		if !ok {
			return fmt.Errorf("text %q not found in %s", old, path)
		}
		if err := sess.ReplaceText(ctx, quad, repl, textedit.Style{}); err != nil {
			return err
		}
	}
	return nil
}

func runScript(ctx context.Context, opts options, sess *editor.Session, log observability.Logger) error {
	src, err := os.ReadFile(opts.script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	dom := scripting.NewSessionDOM(sess, log)
	dom.Quality = opts.cfg.JPEGQuality
	eng := scripting.NewEngine()
	if err := eng.RegisterDOM(dom); err != nil {
		return err
	}
	result, err := eng.Execute(ctx, string(src))
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Println(result)
	}
	return nil
}

// outputPath resolves where a processed image goes. With several inputs
// the -out flag names a directory.
func outputPath(opts options, input string) string {
	if opts.outArg == "" {
		return ""
	}
	if len(opts.inputs) > 1 {
		return filepath.Join(opts.outArg, filepath.Base(input))
	}
	return opts.outArg
}

func findText(res ocr.Result, wanted string) (geo.Quad, bool) {
	wanted = strings.TrimSpace(wanted)
	for _, w := range res.Words() {
		if strings.TrimSpace(w.Text) == wanted {
			return w.Bounds, true
		}
	}
	for _, block := range res.Blocks {
		for _, line := range block.Lines {
			if strings.TrimSpace(line.Text) == wanted {
				return line.Bounds, true
			}
		}
	}
	return geo.Quad{}, false
}

func parseBand(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("-stitch wants y0:y1, got %q", s)
	}
	y0, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("-stitch: %w", err)
	}
	y1, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("-stitch: %w", err)
	}
	return y0, y1, nil
}

func parseRect(s string) (geo.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Rect{}, fmt.Errorf("-fill wants x0,y0,x1,y1, got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geo.Rect{}, fmt.Errorf("-fill: %w", err)
		}
		vals[i] = v
	}
	return geo.NewRect(vals[0], vals[1], vals[2], vals[3]), nil
}

func parseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("color wants #rrggbb, got %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
