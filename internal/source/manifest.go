package source

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeren108/emt4j/internal/model"
)

// MarkerDir is the project-level directory holding the manifests.
const MarkerDir = ".emt4j"

const (
	modulesFile      = "modules"
	dependenciesFile = "dependencies"
)

// Skipped records an input path that could not be classified.
type Skipped struct {
	Path string
	Err  error
}

// Plan is the full set of inputs for a run.
type Plan struct {
	// Analysis holds sources that go through the executor, in input order.
	Analysis []model.AnalysisSource
	// ReportInputs holds finished artifacts handed straight to reporting.
	ReportInputs []string
	// Skipped holds one entry per warning issued during resolution.
	Skipped []Skipped
}

// Resolver accumulates a Plan from positional inputs. It is not safe for
// concurrent use.
type Resolver struct {
	logger *slog.Logger
	plan   Plan
}

// NewResolver returns a Resolver that reports warnings to logger.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Plan returns the accumulated plan.
func (r *Resolver) Plan() Plan {
	return r.plan
}

// Add resolves one positional input. A manifest marker directory expands to
// every path its manifests list. Classification failures are warnings and
// never returned; only manifest structure errors are.
func (r *Resolver) Add(path string) error {
	if filepath.Base(filepath.Clean(path)) == MarkerDir {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return r.addManifests(path)
		}
	}
	r.addPath(path, nil)
	return nil
}

func (r *Resolver) addManifests(dir string) error {
	err := readManifest(filepath.Join(dir, modulesFile), func(coord string, info *model.SourceInformation, paths string) {
		for _, p := range filepath.SplitList(paths) {
			if p = strings.TrimSpace(p); p != "" {
				r.addPath(p, info)
			}
		}
	}, false)
	if err != nil {
		return err
	}
	return readManifest(filepath.Join(dir, dependenciesFile), func(coord string, info *model.SourceInformation, path string) {
		path = strings.TrimSpace(path)
		if strings.HasSuffix(path, ".pom") {
			r.logger.Debug("skipping metadata-only dependency", "coordinate", coord, "path", path)
			return
		}
		r.addPath(path, info)
	}, true)
}

func (r *Resolver) addPath(path string, info *model.SourceInformation) {
	src, err := Classify(path)
	if err != nil {
		r.logger.Warn("skipping input", "path", path, "error", err)
		r.plan.Skipped = append(r.plan.Skipped, Skipped{Path: path, Err: err})
		return
	}
	if !src.NeedsAnalysis() {
		r.plan.ReportInputs = append(r.plan.ReportInputs, src.Path)
		return
	}
	src.Info = info
	r.plan.Analysis = append(r.plan.Analysis, src)
}

// readManifest calls fn for every non-blank `coordinate=value` line.
func readManifest(path string, fn func(coord string, info *model.SourceInformation, value string), dependency bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrManifest, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		coord, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("%w: %s:%d: missing '='", ErrManifest, path, lineNo)
		}
		info, err := sourceInformation(coord, dependency)
		if err != nil {
			return fmt.Errorf("%w: %s:%d: %w", ErrManifest, path, lineNo, err)
		}
		fn(coord, info, value)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrManifest, path, err)
	}
	return nil
}

// sourceInformation builds identity metadata from a group:artifact:version
// coordinate; the artifact becomes the identifier.
func sourceInformation(coord string, dependency bool) (*model.SourceInformation, error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 2 || parts[1] == "" {
		return nil, fmt.Errorf("coordinate %q has no artifact", coord)
	}
	return &model.SourceInformation{
		Identifier:   parts[1],
		IsDependency: dependency,
		Extras:       []string{coord},
	}, nil
}
