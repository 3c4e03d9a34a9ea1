// Package executor runs the selected rules over every unit of every
// analysis source and funnels the results into one output stream.
//
// Sources are analyzed in parallel. Within a source, units are extracted
// and checked concurrently but handed to the writer in enumeration order,
// so the stream is deterministic per source.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/stream"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/yeren108/emt4j/internal/classfile"
	"github.com/yeren108/emt4j/internal/config"
	"github.com/yeren108/emt4j/internal/lang"
	"github.com/yeren108/emt4j/internal/logging"
	"github.com/yeren108/emt4j/internal/model"
	"github.com/yeren108/emt4j/internal/output"
	"github.com/yeren108/emt4j/internal/parse"
	"github.com/yeren108/emt4j/internal/progress"
	"github.com/yeren108/emt4j/internal/registry"
	"github.com/yeren108/emt4j/internal/rules"
	"github.com/yeren108/emt4j/internal/source"
	"github.com/yeren108/emt4j/internal/symcache"
)

// Options tunes an Executor. The zero value is usable.
type Options struct {
	// Workers bounds parallel sources and, separately, in-flight units per
	// source. Zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
	// Cache memoizes class file extraction across sources. Nil disables it.
	Cache  *symcache.Cache
	Source source.Options
}

// Stats summarizes a run.
type Stats struct {
	Sources  int
	Units    int
	Failed   int
	Records  int
	Findings int
}

// Executor holds the sources of one run. Add must not be called
// concurrently with Execute.
type Executor struct {
	cfg     config.CheckConfig
	sel     *registry.Selection
	opts    Options
	logger  *slog.Logger
	sources []model.AnalysisSource

	extractors sync.Map // file extension -> *lazyExtractor
}

type lazyExtractor struct {
	once sync.Once
	ex   *parse.Extractor
	err  error
}

// New returns an executor evaluating sel under cfg. Categories whose level
// is not in cfg.Priority are dropped for the whole run.
func New(cfg config.CheckConfig, sel *registry.Selection, opts Options) *Executor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	opts.Source.IncludeSources = opts.Source.IncludeSources || cfg.IncludeSources
	return &Executor{
		cfg:    cfg,
		sel:    sel.Filter(cfg.Priority),
		opts:   opts,
		logger: logger,
	}
}

// Add queues src for analysis. Sources that do not need analysis are
// rejected.
func (e *Executor) Add(src model.AnalysisSource) error {
	if !src.NeedsAnalysis() {
		return fmt.Errorf("%s: %s sources are not analyzed", src.Path, src.Kind)
	}
	e.sources = append(e.sources, src)
	return nil
}

// HasSource reports whether any source was added.
func (e *Executor) HasSource() bool {
	return len(e.sources) > 0
}

// Sources returns the queued sources in insertion order.
func (e *Executor) Sources() []model.AnalysisSource {
	out := make([]model.AnalysisSource, len(e.sources))
	copy(out, e.sources)
	return out
}

// Categories returns the rule categories that will run.
func (e *Executor) Categories() []string {
	return e.sel.Categories()
}

// Execute analyzes every source and appends a record to w for each unit
// that produced findings or failed to decode. It returns once all work has
// drained. The first fatal error, such as a container that cannot be
// opened, cancels the remaining work and is returned; the caller owns w and
// decides whether to commit it. With no sources, w is left untouched.
func (e *Executor) Execute(ctx context.Context, w *output.Writer, sink progress.Sink) (Stats, error) {
	var stats Stats
	if !e.HasSource() {
		return stats, nil
	}
	if sink == nil {
		sink = progress.Nop{}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make(chan model.Record, e.opts.Workers*4)
	writeErr := make(chan error, 1)
	go func() {
		var err error
		for rec := range records {
			if err != nil {
				continue
			}
			if err = w.Append(rec); err != nil {
				cancel()
				continue
			}
			stats.Records++
			stats.Findings += len(rec.Findings)
		}
		writeErr <- err
	}()

	var units, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, src := range e.sources {
		g.Go(func() error {
			return e.runSource(gctx, src, records, sink, &units, &failed)
		})
	}
	runErr := g.Wait()
	close(records)
	err := <-writeErr

	stats.Sources = len(e.sources)
	stats.Units = int(units.Load())
	stats.Failed = int(failed.Load())
	// A write failure cancels the sources, so it takes precedence.
	if err != nil {
		return stats, fmt.Errorf("writing output: %w", err)
	}
	if runErr != nil {
		return stats, runErr
	}
	return stats, ctx.Err()
}

func (e *Executor) runSource(ctx context.Context, src model.AnalysisSource, records chan<- model.Record, sink progress.Sink, units, failed *atomic.Int64) error {
	sink.Report(progress.Event{Kind: progress.SourceStarted, Source: src.Path})

	s := stream.New().WithMaxGoroutines(e.opts.Workers)
	n := 0
	err := source.Units(ctx, src, e.opts.Source, func(u source.Unit) error {
		n++
		s.Go(func() stream.Callback {
			rec, uerr := e.analyze(ctx, src, u)
			return func() {
				units.Inc()
				ev := progress.Event{Kind: progress.UnitDone, Source: src.Path, Unit: u.Name}
				if uerr != nil {
					failed.Inc()
					ev.Kind, ev.Err = progress.UnitFailed, uerr
					e.logger.Warn("unit failed", "path", src.Path, "unit", u.Name, "error", uerr)
				}
				sink.Report(ev)
				if rec == nil {
					return
				}
				select {
				case records <- *rec:
				case <-ctx.Done():
				}
			}
		})
		return nil
	})
	s.Wait()

	sink.Report(progress.Event{Kind: progress.SourceDone, Source: src.Path, Units: n, Err: err})
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", src.Path, err)
	}
	return ctx.Err()
}

// analyze returns the record for one unit, or nil when the unit is clean.
// The error reports a per-unit failure that is already folded into the
// record.
func (e *Executor) analyze(ctx context.Context, src model.AnalysisSource, u source.Unit) (*model.Record, error) {
	rec := &model.Record{
		Source: src.Path,
		Kind:   src.Kind,
		Info:   src.Info,
		Unit:   u.Name,
	}
	fail := func(err error) (*model.Record, error) {
		rec.Err = err.Error()
		return rec, err
	}
	if u.Err != nil {
		return fail(u.Err)
	}

	switch u.Kind {
	case source.OptionsUnit:
		rec.Findings = e.checkOptions(source.ParseOptions(u.Data))
	case source.JavaSourceUnit:
		ex, err := e.sourceExtractor(filepath.Ext(u.Name))
		if err != nil {
			return fail(err)
		}
		sym, err := ex.Extract(ctx, u.Data, u.Name)
		if err != nil {
			return fail(err)
		}
		rec.ClassName = sym.ClassName
		rec.Findings = e.check(sym)
	default:
		sym, err := e.opts.Cache.Extract(u.Data, classfile.Extract)
		if err != nil {
			return fail(err)
		}
		rec.ClassName = sym.ClassName
		rec.Findings = e.check(sym)
	}

	if len(rec.Findings) == 0 {
		return nil, nil
	}
	return rec, nil
}

// check evaluates every selected rule in category order.
func (e *Executor) check(sym *model.ClassSymbol) []model.Finding {
	var out []model.Finding
	for _, cat := range e.sel.Categories() {
		sel, _ := e.sel.Get(cat)
		out = appendLevel(out, sel.Rule.Check(e.cfg, sym), sel.Descriptor.Level)
	}
	return out
}

func (e *Executor) checkOptions(options []string) []model.Finding {
	var out []model.Finding
	for _, cat := range e.sel.Categories() {
		sel, _ := e.sel.Get(cat)
		oc, ok := sel.Rule.(rules.OptionChecker)
		if !ok {
			continue
		}
		out = appendLevel(out, oc.CheckOptions(e.cfg, options), sel.Descriptor.Level)
	}
	return out
}

func appendLevel(dst, fs []model.Finding, level string) []model.Finding {
	for _, f := range fs {
		if f.Level == "" {
			f.Level = level
		}
		dst = append(dst, f)
	}
	return dst
}

func (e *Executor) sourceExtractor(ext string) (*parse.Extractor, error) {
	v, _ := e.extractors.LoadOrStore(ext, &lazyExtractor{})
	je := v.(*lazyExtractor)
	je.once.Do(func() {
		l := lang.ForExtension(ext)
		if l == nil {
			je.err = fmt.Errorf("no parser for %q files", ext)
			return
		}
		je.ex, je.err = parse.NewExtractor(l)
	})
	return je.ex, je.err
}
