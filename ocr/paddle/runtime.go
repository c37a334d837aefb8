package paddle

import (
	"fmt"
	"os"
	"runtime"
	"sort"

	ort "github.com/getcharzp/onnxruntime_purego"

	"github.com/wudi/imagekit/ocr"
)

// sessions wraps the ONNX runtime handle and the inference sessions built
// from it. All direct runtime calls live in this file.
type sessions struct {
	engine *ort.Engine
	opts   *ort.SessionOptions

	det *ort.Session
	rec *ort.Session
	cls *ort.Session
}

func openSessions(libPath string, models ModelPaths) (*sessions, error) {
	if libPath == "" {
		libPath = DefaultLibraryPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return nil, fmt.Errorf("onnxruntime library %s: %w", libPath, ocr.ErrEngineUnavailable)
	}
	engine, err := ort.NewEngine(libPath)
	if err != nil {
		return nil, fmt.Errorf("load onnxruntime: %w", err)
	}
	opts, err := engine.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	s := &sessions{engine: engine, opts: opts}
	if s.det, err = engine.NewSession(models.Det, opts); err != nil {
		s.Close()
		return nil, fmt.Errorf("detection session: %w", err)
	}
	if s.rec, err = engine.NewSession(models.Rec, opts); err != nil {
		s.Close()
		return nil, fmt.Errorf("recognition session: %w", err)
	}
	if models.Cls != "" {
		if s.cls, err = engine.NewSession(models.Cls, opts); err != nil {
			s.Close()
			return nil, fmt.Errorf("classifier session: %w", err)
		}
	}
	return s, nil
}

func (s *sessions) Close() {
	if s.det != nil {
		s.det.Destroy()
	}
	if s.rec != nil {
		s.rec.Destroy()
	}
	if s.cls != nil {
		s.cls.Destroy()
	}
}

// run feeds a single float32 tensor to a session and returns the flattened
// float32 contents of its first output. Model exports differ in input and
// output node naming, so the name is configurable and the output is picked
// deterministically.
func runSession(sess *ort.Session, inputName string, shape []int64, data []float32) ([]float32, error) {
	tensor, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, err
	}
	defer tensor.Destroy()

	outputs, err := sess.Run(map[string]*ort.Value{inputName: tensor})
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("inference produced no outputs")
	}
	sort.Strings(names)
	var result []float32
	for _, name := range names {
		value := outputs[name]
		if result == nil {
			data, err := ort.GetTensorData[float32](value)
			if err != nil {
				value.Destroy()
				return nil, fmt.Errorf("output %s: %w", name, err)
			}
			result = data
		}
		value.Destroy()
	}
	return result, nil
}

// DefaultLibraryPath returns the conventional location of the ONNX runtime
// shared library for the current platform.
func DefaultLibraryPath() string {
	const baseDir = "./lib/"
	const libName = "onnxruntime"

	if runtime.GOOS == "windows" {
		return baseDir + libName + ".dll"
	}
	var ext string
	switch runtime.GOOS {
	case "darwin":
		ext = "dylib"
	case "linux":
		ext = "so"
	default:
		return baseDir + libName + "_amd64.so"
	}
	return fmt.Sprintf("%s%s_%s.%s", baseDir, libName, runtime.GOARCH, ext)
}
