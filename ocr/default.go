package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrEngineUnavailable is returned by engines whose backing runtime or
// models are not installed. Callers can test for it to degrade gracefully
// instead of failing the whole edit.
var ErrEngineUnavailable = errors.New("ocr: engine unavailable")

var defaultEngine Engine = &noopEngine{}

// DefaultEngine returns the library's default OCR engine. Importing an
// engine subpackage (for example ocr/tesseract) replaces the initial no-op
// engine.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the library's default OCR engine.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

// Recognize submits images to the provided engine. If the engine supports
// batch operation it is used; otherwise calls are executed sequentially.
func Recognize(ctx context.Context, engine Engine, inputs []Input) ([]Result, error) {
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// RecognizeImage runs a single decoded image through the engine.
func RecognizeImage(ctx context.Context, engine Engine, id string, img image.Image, opts ...InputOption) (Result, error) {
	in, err := FromImage(id, img, opts...)
	if err != nil {
		return Result{}, err
	}
	return engine.Recognize(ctx, in)
}

// NewNoopEngine returns an engine that recognizes nothing. It is the
// initial default and useful when OCR is configured off.
func NewNoopEngine() Engine { return noopEngine{} }

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	return Result{InputID: input.ID}, nil
}
