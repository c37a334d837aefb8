package ocr

import (
	"context"

	"github.com/wudi/imagekit/geo"
)

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
	ImageFormatTIFF ImageFormat = "image/tiff"
)

// Input encapsulates a single image submitted for recognition.
type Input struct {
	// ID is an optional caller-provided identifier that is echoed back in
	// the corresponding Result.
	ID string
	// Image is the encoded image payload in the format specified by Format.
	Image []byte
	// Format declares the image content type (e.g., image/png).
	Format ImageFormat
	// DPI carries the effective dots-per-inch for the image. Providers such
	// as Tesseract use this for scaling and layout heuristics; zero means
	// unknown.
	DPI int
	// Languages is a list of BCP-47 language hints (e.g., "eng", "zh-Hans")
	// that providers can use to select trained data.
	Languages []string
	// Region restricts recognition to a subsection of the image. Nil means
	// the full image should be processed.
	Region *geo.Rect
	// Metadata allows callers to pass through engine-specific knobs (e.g.,
	// "psm" for Tesseract) without hard-coding them into the API surface.
	Metadata map[string]string
}

// Word represents a single recognized token. Bounds is the detector's
// four-point polygon; for engines that only report axis-aligned boxes the
// quad is the box's corners. Confidence is in [0, 1].
type Word struct {
	Text       string
	Bounds     geo.Quad
	Confidence float64
}

// Line groups words sharing a baseline.
type Line struct {
	Text       string
	Bounds     geo.Quad
	Words      []Word
	Confidence float64
}

// Block aggregates lines forming a logical block (paragraph, heading, etc).
type Block struct {
	Text       string
	Bounds     geo.Quad
	Lines      []Line
	Confidence float64
}

// Result captures OCR output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText contains the linearized text extracted from the image.
	PlainText string
	// Blocks carries the structured layout with positional metadata.
	Blocks []Block
	// Language indicates the dominant language detected, if known.
	Language string
}

// Words flattens the result's structure into a single word list, the shape
// the text-editing operations consume.
func (r Result) Words() []Word {
	var words []Word
	for _, b := range r.Blocks {
		for _, l := range b.Lines {
			words = append(words, l.Words...)
		}
	}
	return words
}

// Engine is the simplest OCR provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine handles multiple images in a single call, enabling providers
// that amortize setup costs.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}

// JobState models the lifecycle of an asynchronous OCR request.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStateCanceled  JobState = "canceled"
)

// JobStatus reports incremental progress for long-running jobs.
type JobStatus struct {
	State    JobState
	Message  string
	Progress float64
}

// Job represents an asynchronous OCR submission that can be polled or
// canceled.
type Job interface {
	ID() string
	Status(ctx context.Context) (JobStatus, error)
	Results(ctx context.Context) ([]Result, error)
	Cancel(ctx context.Context) error
}

// AsyncEngine submits OCR requests that may complete later. The editor uses
// this to keep recognition off the interaction path for large images.
type AsyncEngine interface {
	Name() string
	Start(ctx context.Context, inputs []Input) (Job, error)
}
