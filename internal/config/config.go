// Package config holds run-scoped configuration for an analysis run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultFromVersion = 8
	DefaultToVersion   = 11
)

var (
	ErrVersionRange = errors.New("from version should be less than to version")
	ErrNoInput      = errors.New("no usable input sources")
)

// CheckConfig is consulted by every rule evaluation.
type CheckConfig struct {
	FromVersion int
	ToVersion   int
	// Priority restricts the issue levels (p1, p2, ...) that run. Empty means all.
	Priority []string
	Verbose  bool
	// IncludeSources makes directory sources also yield .java files.
	IncludeSources bool
}

// Validate enforces FromVersion < ToVersion.
func (c CheckConfig) Validate() error {
	if c.FromVersion <= 0 || c.ToVersion <= 0 {
		return fmt.Errorf("%w: versions must be positive (from=%d, to=%d)", ErrVersionRange, c.FromVersion, c.ToVersion)
	}
	if c.FromVersion >= c.ToVersion {
		return fmt.Errorf("%w (from=%d, to=%d)", ErrVersionRange, c.FromVersion, c.ToVersion)
	}
	return nil
}

// InRange reports whether a change that takes effect in version v lies on
// the migration path, i.e. from < v <= to.
func (c CheckConfig) InRange(v int) bool {
	return c.FromVersion < v && v <= c.ToVersion
}

// RunConfig is the full configuration surface consumed by the core.
type RunConfig struct {
	Check             CheckConfig
	TargetRuntimeHome string
	ExternalToolRoot  string
	OutputFile        string
	Workers           int
	LogFile           string
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() RunConfig {
	return RunConfig{
		Check: CheckConfig{
			FromVersion: DefaultFromVersion,
			ToVersion:   DefaultToVersion,
		},
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Load returns Defaults overlaid with EMT4J_* values from the process
// environment and, when envFile is non-empty, from that dotenv file.
// Process environment wins over the file.
func Load(envFile string) (RunConfig, error) {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		if err != nil {
			return RunConfig{}, fmt.Errorf("reading env file %s: %w", envFile, err)
		}
		fileVals = vals
	}
	return fromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	})
}

func fromLookup(lookup func(string) (string, bool)) (RunConfig, error) {
	cfg := Defaults()
	ints := []struct {
		key string
		dst *int
	}{
		{"EMT4J_FROM", &cfg.Check.FromVersion},
		{"EMT4J_TO", &cfg.Check.ToVersion},
		{"EMT4J_WORKERS", &cfg.Workers},
	}
	for _, e := range ints {
		raw, ok := lookup(e.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return RunConfig{}, fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}
	if v, ok := lookup("EMT4J_PRIORITY"); ok {
		cfg.Check.Priority = ParsePriority(v)
	}
	if v, ok := lookup("EMT4J_TARGET_HOME"); ok {
		cfg.TargetRuntimeHome = strings.TrimSpace(v)
	}
	if v, ok := lookup("EMT4J_VERBOSE"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return RunConfig{}, fmt.Errorf("EMT4J_VERBOSE: %w", err)
		}
		cfg.Check.Verbose = b
	}
	return cfg, nil
}

// ParsePriority splits a comma separated level list such as "p1, P2".
// Bare numbers name the level of the same rank, so "1" is "p1".
func ParsePriority(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			p = "p" + strconv.Itoa(n)
		}
		out = append(out, p)
	}
	return out
}

// Validate checks the version range and optional directories.
func (c RunConfig) Validate() error {
	if err := c.Check.Validate(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	for _, d := range []struct{ flag, path string }{
		{"target runtime home", c.TargetRuntimeHome},
		{"external tool root", c.ExternalToolRoot},
	} {
		if d.path == "" {
			continue
		}
		info, err := os.Stat(d.path)
		if err != nil {
			return fmt.Errorf("%s: %w", d.flag, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s: %s is not a directory", d.flag, d.path)
		}
	}
	return nil
}

// ReleaseVersion reads the feature version of a runtime installation from
// its release file (JAVA_VERSION="11.0.2" yields 11, "1.8.0_292" yields 8).
func ReleaseVersion(home string) (int, error) {
	vals, err := godotenv.Read(filepath.Join(home, "release"))
	if err != nil {
		return 0, fmt.Errorf("reading release file: %w", err)
	}
	raw, ok := vals["JAVA_VERSION"]
	if !ok {
		return 0, fmt.Errorf("release file has no JAVA_VERSION")
	}
	return ParseFeatureVersion(raw)
}

// ParseFeatureVersion maps a version string to its feature release number.
func ParseFeatureVersion(raw string) (int, error) {
	v := strings.Trim(strings.TrimSpace(raw), `"`)
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == '.' || r == '_' || r == '-' || r == '+' })
	if len(parts) == 0 {
		return 0, fmt.Errorf("empty version %q", raw)
	}
	idx := 0
	if parts[0] == "1" && len(parts) > 1 {
		idx = 1
	}
	n, err := strconv.Atoi(parts[idx])
	if err != nil {
		return 0, fmt.Errorf("version %q: %w", raw, err)
	}
	return n, nil
}
