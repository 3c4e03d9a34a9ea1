// Package source classifies input paths into analysis sources, resolves
// module and dependency manifests, and enumerates the compiled units held
// by each source.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yeren108/emt4j/internal/model"
)

var (
	ErrNotExist    = errors.New("does not exist")
	ErrUnsupported = errors.New("unsupported source type")
	ErrManifest    = errors.New("manifest error")
	ErrContainer   = errors.New("cannot open container")
)

var extensionKinds = map[string]model.SourceKind{
	".class": model.SingleClass,
	".jar":   model.SingleArchive,
	".cfg":   model.OptionFile,
	".dat":   model.PriorAnalysisOutput,
}

// Classify maps a path to its source variant. The variant depends only on
// whether the path is a directory and on its extension.
func Classify(path string) (model.AnalysisSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.AnalysisSource{}, fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return model.AnalysisSource{}, fmt.Errorf("%s: %w", path, err)
	}
	if info.IsDir() {
		return model.AnalysisSource{Kind: model.Directory, Path: path}, nil
	}
	if kind, ok := extensionKinds[filepath.Ext(path)]; ok {
		return model.AnalysisSource{Kind: kind, Path: path}, nil
	}
	return model.AnalysisSource{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
}
