package paddle

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrModelsNotFound reports that no usable detection and recognition model
// pair could be located under the search root.
var ErrModelsNotFound = errors.New("paddle: no detection/recognition models found")

// ModelPaths points at the ONNX model files for each inference stage. Det
// and Rec are required, Cls (text orientation) is optional.
type ModelPaths struct {
	Det string
	Rec string
	Cls string
}

// DiscoverModels searches root for exported PaddleOCR models. A .paddlex
// directory placed by hand takes priority; models/paddleocr/{det,rec,cls}
// is the standard layout checked second. Stage assignment follows the
// directory names.
func DiscoverModels(root string) (ModelPaths, error) {
	if paths, ok := findModelsInDir(filepath.Join(root, ".paddlex")); ok {
		return paths, nil
	}

	base := filepath.Join(root, "models", "paddleocr")
	paths := ModelPaths{
		Det: modelFileIn(filepath.Join(base, "det")),
		Rec: modelFileIn(filepath.Join(base, "rec")),
		Cls: modelFileIn(filepath.Join(base, "cls")),
	}
	if paths.Det != "" && paths.Rec != "" {
		return paths, nil
	}
	return ModelPaths{}, fmt.Errorf("%w under %s", ErrModelsNotFound, root)
}

// findModelsInDir walks an unstructured model dump and classifies each
// directory holding a model file by its own or its parent's name.
func findModelsInDir(dir string) (ModelPaths, bool) {
	var paths ModelPaths
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ModelPaths{}, false
	}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isModelFile(path) {
			return nil
		}
		parent := filepath.Dir(path)
		name := strings.ToLower(filepath.Base(parent))
		grand := strings.ToLower(filepath.Base(filepath.Dir(parent)))
		switch {
		case stageIs(name, grand, "det", "detection"):
			if paths.Det == "" {
				paths.Det = path
			}
		case stageIs(name, grand, "rec", "recognition"):
			if paths.Rec == "" {
				paths.Rec = path
			}
		case stageIs(name, grand, "cls", "classify", "angle"):
			if paths.Cls == "" {
				paths.Cls = path
			}
		}
		return nil
	})
	return paths, paths.Det != "" && paths.Rec != ""
}

func stageIs(name, parent string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(name, m) || strings.Contains(parent, m) {
			return true
		}
	}
	return false
}

func isModelFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".onnx")
}

func modelFileIn(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && isModelFile(e.Name()) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

// findDict locates the recognition character dictionary: an explicit path
// wins, otherwise the first .txt next to the recognition model is used.
func findDict(explicit, recModel string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	dir := filepath.Dir(recModel)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("dictionary search in %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no character dictionary found in %s", dir)
}

// loadDict reads the dictionary, one character per line. Line order is the
// class index order used by CTC decoding.
func loadDict(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", path)
	}
	return lines, nil
}
