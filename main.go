// emt4j analyzes compiled Java code for compatibility issues between two
// runtime releases and writes the findings to an intermediate stream that
// the reporting stage consumes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/yeren108/emt4j/internal/config"
	"github.com/yeren108/emt4j/internal/executor"
	"github.com/yeren108/emt4j/internal/logging"
	"github.com/yeren108/emt4j/internal/output"
	"github.com/yeren108/emt4j/internal/progress"
	"github.com/yeren108/emt4j/internal/registry"
	"github.com/yeren108/emt4j/internal/rules"
	_ "github.com/yeren108/emt4j/internal/rules/builtin"
	"github.com/yeren108/emt4j/internal/source"
	"github.com/yeren108/emt4j/internal/symcache"
	"github.com/yeren108/emt4j/internal/toon"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	from, to    int
	priority    string
	targetHome  string
	toolRoot    string
	out         string
	workers     int
	envFile     string
	logFile     string
	sources     bool
	plan        bool
	verbose     bool
	showVersion bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("emt4j", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: emt4j [flags] <input>...

Inputs are .class files, .jar files, directories, .cfg runtime option files,
.dat results of a previous run, or a .emt4j manifest directory.

Flags:
`)
		fs.PrintDefaults()
	}

	var f cliFlags
	fs.IntVar(&f.from, "f", config.DefaultFromVersion, "release the code runs on today")
	fs.IntVar(&f.to, "t", config.DefaultToVersion, "release to migrate to")
	fs.StringVar(&f.priority, "priority", "", "comma-separated issue levels to check, e.g. p1,p2")
	fs.StringVar(&f.targetHome, "j", "", "home directory of the target runtime")
	fs.StringVar(&f.toolRoot, "e", "", "root directory of external tools")
	fs.StringVar(&f.out, "o", "", "path of the analysis output (default: a new file in the temp directory)")
	fs.IntVar(&f.workers, "workers", 0, "parallel workers (default GOMAXPROCS)")
	fs.StringVar(&f.envFile, "env", "", "dotenv file with EMT4J_* defaults")
	fs.StringVar(&f.logFile, "log-file", "", "also write JSON logs to this file")
	fs.BoolVar(&f.sources, "sources", false, "also analyze .java files found in directories")
	fs.BoolVar(&f.plan, "plan", false, "print the resolved inputs and rules, then exit")
	fs.BoolVar(&f.verbose, "v", false, "verbose logging")
	fs.BoolVar(&f.showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if f.showVersion {
		_, _ = fmt.Fprintf(stdout, "emt4j %s\n", version)
		return nil
	}

	cfg, err := config.Load(f.envFile)
	if err != nil {
		return err
	}
	applyFlags(fs, &f, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(stderr, cfg.Check.Verbose, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer closeLog()

	checkTargetHome(logger, cfg)

	registered := rules.Registered()
	if err := registry.CheckLevels(registered, cfg.Check.Priority); err != nil {
		return err
	}
	sel, err := registry.Select(registered)
	if err != nil {
		return err
	}

	resolver := source.NewResolver(logger)
	for _, in := range fs.Args() {
		if err := resolver.Add(in); err != nil {
			return err
		}
	}
	plan := resolver.Plan()

	if f.plan {
		_, _ = fmt.Fprintln(stdout, toon.EncodePlan(plan, sel.Filter(cfg.Check.Priority), cfg.Check.FromVersion, cfg.Check.ToVersion))
		return nil
	}

	if len(plan.Analysis) == 0 && len(plan.ReportInputs) == 0 {
		fs.Usage()
		return config.ErrNoInput
	}

	cache, err := symcache.New(symcache.DefaultSize)
	if err != nil {
		return err
	}
	ex := executor.New(cfg.Check, sel, executor.Options{
		Workers: cfg.Workers,
		Logger:  logger,
		Cache:   cache,
	})
	for _, src := range plan.Analysis {
		if err := ex.Add(src); err != nil {
			return err
		}
	}

	reportInputs := plan.ReportInputs
	if ex.HasSource() {
		path, err := analyze(ctx, logger, cfg, ex)
		if err != nil {
			return err
		}
		hits, misses := cache.Stats()
		logger.Debug("symbol cache", "hits", hits, "misses", misses)
		reportInputs = append(reportInputs, path)
		_, _ = fmt.Fprintf(stdout, "Write internal file to %s done.\n", path)
	}

	for _, p := range reportInputs {
		_, _ = fmt.Fprintln(stdout, p)
	}
	return nil
}

// analyze runs ex into a fresh output stream and returns its path. The
// stream is only committed when the whole run succeeds.
func analyze(ctx context.Context, logger *slog.Logger, cfg config.RunConfig, ex *executor.Executor) (string, error) {
	path := cfg.OutputFile
	if path == "" {
		path = filepath.Join(os.TempDir(), "emt4j-"+uuid.NewString()+".dat")
	}
	w, err := output.Create(path, output.Header{From: cfg.Check.FromVersion, To: cfg.Check.ToVersion})
	if err != nil {
		return "", err
	}
	defer w.Abort()

	sink := progress.NewLogger(logger, 1024, progress.DefaultEvery)
	stats, err := ex.Execute(ctx, w, sink)
	sink.Close()
	if err != nil {
		return "", err
	}
	if err := w.Commit(); err != nil {
		return "", err
	}
	logger.Info("analysis written",
		"path", path,
		"sources", stats.Sources,
		"units", stats.Units,
		"failed", stats.Failed,
		"records", stats.Records,
		"findings", stats.Findings,
	)
	return path, nil
}

// applyFlags overlays explicitly set flags on cfg; flags win over the
// environment, which wins over defaults.
func applyFlags(fs *flag.FlagSet, f *cliFlags, cfg *config.RunConfig) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "f":
			cfg.Check.FromVersion = f.from
		case "t":
			cfg.Check.ToVersion = f.to
		case "priority":
			cfg.Check.Priority = config.ParsePriority(f.priority)
		case "j":
			cfg.TargetRuntimeHome = f.targetHome
		case "e":
			cfg.ExternalToolRoot = f.toolRoot
		case "o":
			cfg.OutputFile = f.out
		case "workers":
			cfg.Workers = f.workers
		case "log-file":
			cfg.LogFile = f.logFile
		case "sources":
			cfg.Check.IncludeSources = f.sources
		case "v":
			cfg.Check.Verbose = f.verbose
		}
	})
}

// checkTargetHome warns when the target runtime does not match the
// requested target release.
func checkTargetHome(logger *slog.Logger, cfg config.RunConfig) {
	if cfg.TargetRuntimeHome == "" {
		return
	}
	v, err := config.ReleaseVersion(cfg.TargetRuntimeHome)
	if err != nil {
		logger.Warn("cannot determine target runtime release", "path", cfg.TargetRuntimeHome, "error", err)
		return
	}
	if v != cfg.Check.ToVersion {
		logger.Warn("target runtime release differs from -t", "path", cfg.TargetRuntimeHome, "release", v, "to", cfg.Check.ToVersion)
	}
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-f": true, "--f": true,
	"-t": true, "--t": true,
	"-priority": true, "--priority": true,
	"-j": true, "--j": true,
	"-e": true, "--e": true,
	"-o": true, "--o": true,
	"-workers": true, "--workers": true,
	"-env": true, "--env": true,
	"-log-file": true, "--log-file": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			// Keep the terminator so inputs that start with '-' stay positional.
			flags = append(flags, "--")
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
