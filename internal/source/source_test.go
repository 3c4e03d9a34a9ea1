package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeren108/emt4j/internal/classfile/classtest"
	"github.com/yeren108/emt4j/internal/logging"
	"github.com/yeren108/emt4j/internal/model"
)

func writeFile(t *testing.T, root, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeJar(t *testing.T, root, rel string, entries map[string][]byte, order []string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return writeFile(t, root, rel, buf.Bytes())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		rel  string
		want model.SourceKind
	}{
		{"A.class", model.SingleClass},
		{"lib.jar", model.SingleArchive},
		{"opts.cfg", model.OptionFile},
		{"agent.dat", model.PriorAnalysisOutput},
	}
	for _, tt := range tests {
		path := writeFile(t, dir, tt.rel, []byte("x"))
		src, err := Classify(path)
		require.NoError(t, err, tt.rel)
		assert.Equal(t, tt.want, src.Kind, tt.rel)
		assert.Equal(t, path, src.Path)
	}

	src, err := Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, model.Directory, src.Kind)

	// A directory wins over any extension.
	jarDir := filepath.Join(dir, "exploded.jar")
	require.NoError(t, os.Mkdir(jarDir, 0o755))
	src, err = Classify(jarDir)
	require.NoError(t, err)
	assert.Equal(t, model.Directory, src.Kind)

	_, err = Classify(writeFile(t, dir, "Main.java", []byte("class Main {}")))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Classify(filepath.Join(dir, "missing.class"))
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestNeedsAnalysis(t *testing.T) {
	t.Parallel()

	assert.False(t, model.AnalysisSource{Kind: model.PriorAnalysisOutput}.NeedsAnalysis())
	for _, k := range []model.SourceKind{model.SingleClass, model.SingleArchive, model.Directory, model.OptionFile} {
		assert.True(t, model.AnalysisSource{Kind: k}.NeedsAnalysis(), k.String())
	}
}

func TestResolverManifests(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	classes := filepath.Join(root, "out", "classes")
	require.NoError(t, os.MkdirAll(classes, 0o755))
	junit := writeFile(t, root, "repo/junit-4.12.jar", []byte("PK"))
	marker := filepath.Join(root, MarkerDir)

	writeFile(t, marker, "modules", []byte("com.acme:app:1.0="+classes+"\n"))
	writeFile(t, marker, "dependencies", []byte(
		"junit:junit:4.12="+junit+"\n"+
			"org.acme:parent:1=/repo/parent-1.pom\n"))

	r := NewResolver(logging.Discard())
	require.NoError(t, r.Add(marker))
	plan := r.Plan()

	require.Len(t, plan.Analysis, 2)
	assert.Empty(t, plan.Skipped)

	app := plan.Analysis[0]
	assert.Equal(t, model.Directory, app.Kind)
	require.NotNil(t, app.Info)
	assert.Equal(t, "app", app.Info.Identifier)
	assert.False(t, app.Info.IsDependency)
	assert.Equal(t, []string{"com.acme:app:1.0"}, app.Info.Extras)

	dep := plan.Analysis[1]
	assert.Equal(t, model.SingleArchive, dep.Kind)
	require.NotNil(t, dep.Info)
	assert.Equal(t, "junit", dep.Info.Identifier)
	assert.True(t, dep.Info.IsDependency)
}

func TestResolverModuleLineCounts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	require.NoError(t, os.MkdirAll(a, 0o755))
	require.NoError(t, os.MkdirAll(b, 0o755))
	readme := writeFile(t, root, "README.md", []byte("hi"))
	missing := filepath.Join(root, "gone")

	paths := strings.Join([]string{a, missing, b, readme}, string(os.PathListSeparator))
	marker := filepath.Join(root, MarkerDir)
	writeFile(t, marker, "modules", []byte("g:mod:1="+paths+"\n\n"))
	writeFile(t, marker, "dependencies", nil)

	r := NewResolver(logging.Discard())
	require.NoError(t, r.Add(marker))
	plan := r.Plan()

	assert.Len(t, plan.Analysis, 2)
	require.Len(t, plan.Skipped, 2)
	assert.ErrorIs(t, plan.Skipped[0].Err, ErrNotExist)
	assert.ErrorIs(t, plan.Skipped[1].Err, ErrUnsupported)
	// Both sources share the same line's metadata.
	assert.Same(t, plan.Analysis[0].Info, plan.Analysis[1].Info)
}

func TestResolverManifestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modules string
		deps    *string
	}{
		{"missing dependencies", "g:a:1=/x\n", nil},
		{"no equals", "g:a:1\n", ptr("")},
		{"no artifact", "group=/x\n", ptr("")},
		{"bad dependency line", "", ptr("junit\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			marker := filepath.Join(t.TempDir(), MarkerDir)
			writeFile(t, marker, "modules", []byte(tt.modules))
			if tt.deps != nil {
				writeFile(t, marker, "dependencies", []byte(*tt.deps))
			}
			err := NewResolver(logging.Discard()).Add(marker)
			assert.ErrorIs(t, err, ErrManifest)
		})
	}

	marker := filepath.Join(t.TempDir(), MarkerDir)
	require.NoError(t, os.MkdirAll(marker, 0o755))
	assert.ErrorIs(t, NewResolver(logging.Discard()).Add(marker), ErrManifest)
}

func ptr(s string) *string { return &s }

func TestResolverPriorOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dat := writeFile(t, dir, "agent.dat", []byte("x"))
	cls := writeFile(t, dir, "A.class", []byte("x"))

	r := NewResolver(logging.Discard())
	require.NoError(t, r.Add(dat))
	require.NoError(t, r.Add(cls))
	require.NoError(t, r.Add(filepath.Join(dir, "nope.jar")))

	plan := r.Plan()
	assert.Equal(t, []string{dat}, plan.ReportInputs)
	require.Len(t, plan.Analysis, 1)
	assert.Equal(t, cls, plan.Analysis[0].Path)
	assert.Nil(t, plan.Analysis[0].Info)
	assert.Len(t, plan.Skipped, 1)
}

func collect(t *testing.T, src model.AnalysisSource, opts Options) []Unit {
	t.Helper()
	var units []Unit
	err := Units(context.Background(), src, opts, func(u Unit) error {
		units = append(units, u)
		return nil
	})
	require.NoError(t, err)
	return units
}

func unitNames(units []Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}

func TestArchiveUnits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := classtest.New("p/A").Bytes()
	b := classtest.New("p/B").Bytes()
	jar := writeJar(t, dir, "lib.jar", map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"p/B.class":            b,
		"p/A.class":            a,
	}, []string{"META-INF/MANIFEST.MF", "p/B.class", "p/A.class"})

	units := collect(t, model.AnalysisSource{Kind: model.SingleArchive, Path: jar}, Options{})
	assert.Equal(t, []string{"p/B.class", "p/A.class"}, unitNames(units))
	assert.Equal(t, b, units[0].Data)
	for _, u := range units {
		assert.NoError(t, u.Err)
		assert.Equal(t, ClassUnit, u.Kind)
	}
}

func TestArchiveOpenFailure(t *testing.T) {
	t.Parallel()

	jar := writeFile(t, t.TempDir(), "broken.jar", []byte("not a zip"))
	err := Units(context.Background(), model.AnalysisSource{Kind: model.SingleArchive, Path: jar}, Options{}, func(Unit) error { return nil })
	assert.ErrorIs(t, err, ErrContainer)
}

func TestDirectoryUnits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "b/B.class", classtest.New("b/B").Bytes())
	writeFile(t, dir, "a/A.class", classtest.New("a/A").Bytes())
	writeFile(t, dir, "a/A.java", []byte("package a; class A {}"))
	writeFile(t, dir, "notes.txt", []byte("ignored"))
	writeFile(t, dir, ".hidden/H.class", classtest.New("H").Bytes())
	writeJar(t, dir, "lib/dep.jar", map[string][]byte{"d/D.class": classtest.New("d/D").Bytes()}, []string{"d/D.class"})

	src := model.AnalysisSource{Kind: model.Directory, Path: dir}
	units := collect(t, src, Options{})
	assert.Equal(t, []string{".hidden/H.class", "a/A.class", "b/B.class", "lib/dep.jar!/d/D.class"}, unitNames(units))

	units = collect(t, src, Options{IncludeSources: true})
	assert.Equal(t, []string{".hidden/H.class", "a/A.class", "a/A.java", "b/B.class", "lib/dep.jar!/d/D.class"}, unitNames(units))
	assert.Equal(t, JavaSourceUnit, units[2].Kind)
}

func TestDirectoryGitignoreFiltersSourcesOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", []byte("*.class\n*.jar\ntarget/\ngen/\n"))
	writeFile(t, dir, "target/classes/com/acme/App.class", classtest.New("com/acme/App").Bytes())
	writeFile(t, dir, "gen/Gen.java", []byte("class Gen {}"))
	writeFile(t, dir, "src/App.java", []byte("class App {}"))
	writeJar(t, dir, "lib/dep.jar", map[string][]byte{"d/D.class": classtest.New("d/D").Bytes()}, []string{"d/D.class"})

	units := collect(t, model.AnalysisSource{Kind: model.Directory, Path: dir}, Options{IncludeSources: true})
	assert.Equal(t, []string{"lib/dep.jar!/d/D.class", "src/App.java", "target/classes/com/acme/App.class"}, unitNames(units))
}

func TestDirectoryFollowsSymlinks(t *testing.T) {
	t.Parallel()

	store := t.TempDir()
	jar := writeJar(t, store, "real.jar", map[string][]byte{"d/D.class": classtest.New("d/D").Bytes()}, []string{"d/D.class"})
	shared := filepath.Join(store, "shared")
	writeFile(t, shared, "S.class", classtest.New("S").Bytes())

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.Symlink(jar, filepath.Join(dir, "lib", "dep.jar")))
	require.NoError(t, os.Symlink(shared, filepath.Join(dir, "shared")))
	// A link back to the root must not loop.
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "shared", "loop")))

	units := collect(t, model.AnalysisSource{Kind: model.Directory, Path: dir}, Options{})
	assert.Equal(t, []string{"lib/dep.jar!/d/D.class", "shared/S.class"}, unitNames(units))
	for _, u := range units {
		assert.NoError(t, u.Err)
	}
}

func TestDirectoryDanglingSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.class"), filepath.Join(dir, "A.class")))

	units := collect(t, model.AnalysisSource{Kind: model.Directory, Path: dir}, Options{})
	require.Len(t, units, 1)
	assert.Equal(t, "A.class", units[0].Name)
	assert.Error(t, units[0].Err)
}

func TestDirectoryNestedBrokenJar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "lib/bad.jar", []byte("garbage"))
	err := Units(context.Background(), model.AnalysisSource{Kind: model.Directory, Path: dir}, Options{}, func(Unit) error { return nil })
	assert.ErrorIs(t, err, ErrContainer)
}

func TestUnitsYieldErrorStops(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "A.class", []byte("x"))
	writeFile(t, dir, "B.class", []byte("x"))

	stop := errors.New("stop")
	calls := 0
	err := Units(context.Background(), model.AnalysisSource{Kind: model.Directory, Path: dir}, Options{}, func(Unit) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestUnitSizeLimit(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "Big.class", bytes.Repeat([]byte{1}, 100))
	units := collect(t, model.AnalysisSource{Kind: model.SingleClass, Path: path}, Options{MaxUnitSize: 10})
	require.Len(t, units, 1)
	assert.Error(t, units[0].Err)
}

func TestPriorOutputHasNoUnits(t *testing.T) {
	t.Parallel()

	err := Units(context.Background(), model.AnalysisSource{Kind: model.PriorAnalysisOutput, Path: "x.dat"}, Options{}, func(Unit) error { return nil })
	assert.Error(t, err)
}

func TestParseOptions(t *testing.T) {
	t.Parallel()

	data := []byte("# captured by the agent\n-Xmx2g -XX:+UseConcMarkSweepGC\n\n  # indented comment\n\t-Djava.endorsed.dirs=/opt/e\r\n")
	assert.Equal(t, []string{"-Xmx2g", "-XX:+UseConcMarkSweepGC", "-Djava.endorsed.dirs=/opt/e"}, ParseOptions(data))
	assert.Empty(t, ParseOptions(nil))
}
