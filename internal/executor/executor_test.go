package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeren108/emt4j/internal/classfile/classtest"
	"github.com/yeren108/emt4j/internal/config"
	"github.com/yeren108/emt4j/internal/model"
	"github.com/yeren108/emt4j/internal/output"
	"github.com/yeren108/emt4j/internal/progress"
	"github.com/yeren108/emt4j/internal/registry"
	"github.com/yeren108/emt4j/internal/rules"
	_ "github.com/yeren108/emt4j/internal/rules/builtin"
	"github.com/yeren108/emt4j/internal/source"
	"github.com/yeren108/emt4j/internal/symcache"
)

// flagAll reports every unit it sees under its own category.
type flagAll struct{ category string }

func (r flagAll) Check(_ config.CheckConfig, sym *model.ClassSymbol) []model.Finding {
	return []model.Finding{{Category: r.category, Target: sym.ClassName}}
}

// flagType reports units referencing typ.
type flagType struct{ typ string }

func (r flagType) Check(_ config.CheckConfig, sym *model.ClassSymbol) []model.Finding {
	if !sym.HasType(r.typ) {
		return nil
	}
	return []model.Finding{{Category: "flag-type", Target: r.typ}}
}

func selection(t *testing.T, descs ...rules.Descriptor) *registry.Selection {
	t.Helper()
	sel, err := registry.Select(descs)
	require.NoError(t, err)
	return sel
}

func flagAllSelection(t *testing.T) *registry.Selection {
	return selection(t, rules.Descriptor{
		Type: "flag-all", Level: "p1", Name: "flag-all",
		New: func() rules.Rule { return flagAll{category: "flag-all"} },
	})
}

func checkConfig() config.CheckConfig {
	return config.CheckConfig{FromVersion: 8, ToVersion: 17}
}

func writeJar(t *testing.T, dir, name string, entries []string, data func(entry string) []byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e)
		require.NoError(t, err)
		_, err = w.Write(data(e))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func classEntries(pkg string, n int) []string {
	out := make([]string, n)
	for i := range out {
		// Reverse lexical order so archive order differs from sorted order.
		out[i] = fmt.Sprintf("%s/C%03d.class", pkg, n-i)
	}
	return out
}

func classBytes(entry string) []byte {
	return classtest.New(strings.TrimSuffix(entry, ".class")).Bytes()
}

// run executes ex into a fresh stream and returns its records.
func run(t *testing.T, ex *Executor, sink progress.Sink) (Stats, []model.Record, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.dat")
	w, err := output.Create(path, output.Header{From: 8, To: 17})
	require.NoError(t, err)
	defer w.Abort()

	stats, err := ex.Execute(context.Background(), w, sink)
	if err != nil {
		return stats, nil, err
	}
	require.NoError(t, w.Commit())
	_, recs, err := output.Read(path)
	require.NoError(t, err)
	return stats, recs, nil
}

func TestExecutePreservesUnitOrderPerSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	aEntries := classEntries("a", 60)
	bEntries := classEntries("b", 40)
	jarA := writeJar(t, dir, "a.jar", aEntries, classBytes)
	jarB := writeJar(t, dir, "b.jar", bEntries, classBytes)

	ex := New(checkConfig(), flagAllSelection(t), Options{Workers: 4})
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: jarA}))
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: jarB}))

	stats, recs, err := run(t, ex, nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{Sources: 2, Units: 100, Records: 100, Findings: 100}, stats)

	bySource := map[string][]string{}
	for _, r := range recs {
		bySource[r.Source] = append(bySource[r.Source], r.Unit)
		require.Len(t, r.Findings, 1)
		assert.Equal(t, "p1", r.Findings[0].Level)
		assert.Equal(t, strings.TrimSuffix(r.Unit, ".class"), r.ClassName)
	}
	assert.Equal(t, aEntries, bySource[jarA])
	assert.Equal(t, bEntries, bySource[jarB])
}

func TestExecuteDecodeErrorIsARecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entries := []string{"p/A.class", "p/Broken.class", "p/C.class"}
	jar := writeJar(t, dir, "lib.jar", entries, func(e string) []byte {
		if e == "p/Broken.class" {
			return []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0}
		}
		return classBytes(e)
	})

	sel := selection(t, rules.Descriptor{
		Type: "flag-type", Level: "p1", Name: "thread",
		New: func() rules.Rule { return flagType{typ: "java.lang.Thread"} },
	})
	ex := New(checkConfig(), sel, Options{Workers: 2})
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: jar}))

	stats, recs, err := run(t, ex, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Units)
	assert.Equal(t, 1, stats.Failed)

	// Clean units produce no record.
	require.Len(t, recs, 1)
	assert.Equal(t, "p/Broken.class", recs[0].Unit)
	assert.NotEmpty(t, recs[0].Err)
	assert.Empty(t, recs[0].Findings)
}

func TestExecuteBrokenContainerIsFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeJar(t, dir, "good.jar", classEntries("g", 5), classBytes)
	bad := filepath.Join(dir, "bad.jar")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0o644))

	ex := New(checkConfig(), flagAllSelection(t), Options{Workers: 2})
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: good}))
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: bad}))

	_, _, err := run(t, ex, nil)
	assert.ErrorIs(t, err, source.ErrContainer)
}

func TestExecuteWithoutSources(t *testing.T) {
	t.Parallel()

	ex := New(checkConfig(), flagAllSelection(t), Options{})
	err := ex.Add(model.AnalysisSource{Kind: model.PriorAnalysisOutput, Path: "agent.dat"})
	assert.Error(t, err)
	assert.False(t, ex.HasSource())
	assert.Empty(t, ex.Sources())

	// No writer is needed when nothing is analyzed.
	stats, err := ex.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestExecutePriorityFilter(t *testing.T) {
	t.Parallel()

	sel := selection(t,
		rules.Descriptor{Type: "first", Level: "p1", Name: "first", New: func() rules.Rule { return flagAll{category: "first"} }},
		rules.Descriptor{Type: "second", Level: "p2", Name: "second", New: func() rules.Rule { return flagAll{category: "second"} }},
	)
	cls := filepath.Join(t.TempDir(), "A.class")
	require.NoError(t, os.WriteFile(cls, classtest.New("A").Bytes(), 0o644))

	cfg := checkConfig()
	cfg.Priority = []string{"p2"}
	ex := New(cfg, sel, Options{})
	assert.Equal(t, []string{"second"}, ex.Categories())
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleClass, Path: cls}))

	_, recs, err := run(t, ex, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Findings, 1)
	assert.Equal(t, "second", recs[0].Findings[0].Category)
	assert.Equal(t, "p2", recs[0].Findings[0].Level)
}

func TestExecuteBuiltinRules(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cls := filepath.Join(dir, "Worker.class")
	require.NoError(t, os.WriteFile(cls, classtest.New("com/acme/Worker").
		Field("ctx", "Ljavax/xml/bind/JAXBContext;").
		Method("run", "()V",
			classtest.Call{Owner: "java/lang/Thread", Name: "stop", Desc: "(Ljava/lang/Throwable;)V", Line: 14},
		).
		Bytes(), 0o644))
	opts := filepath.Join(dir, "jvm.cfg")
	require.NoError(t, os.WriteFile(opts, []byte("-Xmx1g -XX:+UseConcMarkSweepGC\n"), 0o644))

	sel, err := registry.Select(rules.Registered())
	require.NoError(t, err)
	info := &model.SourceInformation{Identifier: "app", Extras: []string{"com.acme:app:1.0"}}
	ex := New(checkConfig(), sel, Options{})
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleClass, Path: cls, Info: info}))
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.OptionFile, Path: opts}))

	_, recs, err := run(t, ex, nil)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	bySource := map[string]model.Record{}
	for _, r := range recs {
		bySource[r.Source] = r
	}

	classRec := bySource[cls]
	assert.Equal(t, "com/acme/Worker", classRec.ClassName)
	assert.Equal(t, info, classRec.Info)
	var cats []string
	for _, f := range classRec.Findings {
		cats = append(cats, f.Category)
	}
	assert.Equal(t, []string{rules.TouchedMethod, rules.WholeClass}, cats)
	assert.Equal(t, []int{14}, classRec.Findings[0].Lines)

	optRec := bySource[opts]
	assert.Equal(t, model.OptionFile, optRec.Kind)
	require.Len(t, optRec.Findings, 1)
	assert.Equal(t, "-XX:+UseConcMarkSweepGC", optRec.Findings[0].Target)
	assert.Equal(t, "p1", optRec.Findings[0].Level)
}

func TestExecuteJavaSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := "package p;\nclass A {\n  void f() {\n    Thread t = null;\n    t.stop();\n  }\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.java"), []byte(src), 0o644))

	sel := selection(t, rules.Descriptor{
		Type: "flag-type", Level: "p3", Name: "thread",
		New: func() rules.Rule { return flagType{typ: "java.lang.Thread"} },
	})
	cfg := checkConfig()
	cfg.IncludeSources = true
	ex := New(cfg, sel, Options{})
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.Directory, Path: dir}))

	_, recs, err := run(t, ex, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A.java", recs[0].Unit)
	assert.Equal(t, "p/A", recs[0].ClassName)
}

func TestExecuteSharesCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entries := classEntries("dup", 3)
	first := writeJar(t, dir, "first.jar", entries, classBytes)
	second := writeJar(t, dir, "second.jar", entries, classBytes)

	cache, err := symcache.New(16)
	require.NoError(t, err)
	ex := New(checkConfig(), flagAllSelection(t), Options{Workers: 1, Cache: cache})
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: first}))
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: second}))

	_, recs, err := run(t, ex, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 6)
	hits, misses := cache.Stats()
	assert.Equal(t, int64(3), hits)
	assert.Equal(t, int64(3), misses)
}

type recordingSink struct {
	mu     sync.Mutex
	events []progress.Event
}

func (s *recordingSink) Report(ev progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func TestExecuteReportsProgress(t *testing.T) {
	t.Parallel()

	jar := writeJar(t, t.TempDir(), "lib.jar", classEntries("p", 3), classBytes)
	ex := New(checkConfig(), flagAllSelection(t), Options{})
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: jar}))

	sink := &recordingSink{}
	_, _, err := run(t, ex, sink)
	require.NoError(t, err)

	var kinds []progress.EventKind
	for _, ev := range sink.events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []progress.EventKind{
		progress.SourceStarted, progress.UnitDone, progress.UnitDone, progress.UnitDone, progress.SourceDone,
	}, kinds)
	assert.Equal(t, 3, sink.events[4].Units)
}

func TestExecuteCancelled(t *testing.T) {
	t.Parallel()

	jar := writeJar(t, t.TempDir(), "lib.jar", classEntries("p", 10), classBytes)
	ex := New(checkConfig(), flagAllSelection(t), Options{})
	require.NoError(t, ex.Add(model.AnalysisSource{Kind: model.SingleArchive, Path: jar}))

	w, err := output.Create(filepath.Join(t.TempDir(), "result.dat"), output.Header{})
	require.NoError(t, err)
	defer w.Abort()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ex.Execute(ctx, w, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
