// Package ocr defines abstraction layers for plugging text-recognition
// engines (for example, Tesseract or local ONNX models) into the editing
// pipeline. The interfaces are intentionally small and transport-agnostic so
// engines can be backed by native libraries, bundled models, or remote APIs
// without leaking provider-specific concerns into callers.
package ocr
