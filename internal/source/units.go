package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/yeren108/emt4j/internal/model"
)

// UnitKind says how a unit's bytes are interpreted.
type UnitKind int

const (
	ClassUnit UnitKind = iota + 1
	JavaSourceUnit
	OptionsUnit
)

// DefaultMaxUnitSize bounds the bytes read for a single unit.
const DefaultMaxUnitSize = 64 << 20

// Unit is one member of a source. Err is set when the member was found but
// its bytes could not be read; that is a per-unit failure, not a fatal one.
type Unit struct {
	Name string
	Kind UnitKind
	Data []byte
	Err  error
}

// Options controls unit enumeration.
type Options struct {
	IncludeSources bool
	MaxUnitSize    int64
}

func (o Options) maxSize() int64 {
	if o.MaxUnitSize <= 0 {
		return DefaultMaxUnitSize
	}
	return o.MaxUnitSize
}

// Units enumerates the units of src in a deterministic order and calls
// yield for each. An error from yield stops enumeration and is returned.
// Failure to open or walk a container is wrapped with ErrContainer.
func Units(ctx context.Context, src model.AnalysisSource, opts Options, yield func(Unit) error) error {
	switch src.Kind {
	case model.SingleClass:
		return yield(readFileUnit(src.Path, filepath.Base(src.Path), ClassUnit, opts))
	case model.OptionFile:
		return yield(readFileUnit(src.Path, filepath.Base(src.Path), OptionsUnit, opts))
	case model.SingleArchive:
		return archiveUnits(ctx, src.Path, "", opts, yield)
	case model.Directory:
		return directoryUnits(ctx, src.Path, opts, yield)
	default:
		return fmt.Errorf("%s: %s sources have no units", src.Path, src.Kind)
	}
}

func readFileUnit(path, name string, kind UnitKind, opts Options) Unit {
	u := Unit{Name: name, Kind: kind}
	f, err := os.Open(path)
	if err != nil {
		u.Err = err
		return u
	}
	defer f.Close()
	u.Data, u.Err = readLimited(f, opts.maxSize())
	return u
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("unit exceeds %d bytes", limit)
	}
	return data, nil
}

// archiveUnits yields every .class entry of a jar in archive order. prefix
// is prepended to entry names for archives nested in a directory source.
func archiveUnits(ctx context.Context, path, prefix string, opts Options, yield func(Unit) error) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrContainer, path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		u := Unit{Name: prefix + f.Name, Kind: ClassUnit}
		if int64(f.UncompressedSize64) > opts.maxSize() {
			u.Err = fmt.Errorf("unit exceeds %d bytes", opts.maxSize())
		} else {
			u.Data, u.Err = readEntry(f, opts.maxSize())
		}
		if err := yield(u); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readLimited(rc, limit)
}

// directoryUnits yields every member of root in lexical order, descending
// into hidden directories and following symlinks. A directory reached twice
// through links is walked once. Archives found in the tree are expanded in
// place. A root .gitignore only filters .java members.
func directoryUnits(ctx context.Context, root string, opts Options, yield func(Unit) error) error {
	w := &dirWalker{opts: opts, visited: make(map[string]struct{})}
	if opts.IncludeSources {
		w.gi = loadGitignore(root)
	}
	if err := w.walk(ctx, root, ""); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrContainer, root, err)
	}

	for _, e := range w.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasSuffix(e.rel, ".jar") {
			if err := archiveUnits(ctx, e.path, e.rel+"!/", opts, yield); err != nil {
				return err
			}
			continue
		}
		if err := yield(readFileUnit(e.path, e.rel, e.kind, opts)); err != nil {
			return err
		}
	}
	return nil
}

type dirEntry struct {
	path, rel string
	kind      UnitKind
}

type dirWalker struct {
	opts    Options
	gi      *ignore.GitIgnore
	visited map[string]struct{}
	entries []dirEntry
}

// walk collects the members of dir. rel is dir relative to the source root
// in slash form.
func (w *dirWalker) walk(ctx context.Context, dir, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if _, seen := w.visited[resolved]; seen {
		return nil
	}
	w.visited[resolved] = struct{}{}

	des, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, d := range des {
		path := filepath.Join(dir, d.Name())
		relPath := d.Name()
		if rel != "" {
			relPath = rel + "/" + d.Name()
		}

		isDir := d.IsDir()
		if d.Type()&os.ModeSymlink != 0 {
			// Dangling links are kept as files so the read failure surfaces.
			if info, err := os.Stat(path); err == nil {
				isDir = info.IsDir()
			}
		}
		if isDir {
			if err := w.walk(ctx, path, relPath); err != nil {
				return err
			}
			continue
		}

		kind := unitKindFor(d.Name(), w.opts)
		if kind == 0 {
			continue
		}
		if kind == JavaSourceUnit && w.gi != nil && w.gi.MatchesPath(relPath) {
			continue
		}
		w.entries = append(w.entries, dirEntry{path: path, rel: relPath, kind: kind})
	}
	return nil
}

// unitKindFor returns the kind of a directory member, or 0 when the member
// is not enumerated. Archives report ClassUnit since they expand to classes.
func unitKindFor(name string, opts Options) UnitKind {
	switch filepath.Ext(name) {
	case ".class", ".jar":
		return ClassUnit
	case ".java":
		if opts.IncludeSources {
			return JavaSourceUnit
		}
	}
	return 0
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
