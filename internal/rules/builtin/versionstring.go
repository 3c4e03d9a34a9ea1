package builtin

import (
	"regexp"

	"github.com/yeren108/emt4j/internal/config"
	"github.com/yeren108/emt4j/internal/model"
	"github.com/yeren108/emt4j/internal/rules"
)

func init() {
	rules.Register(rules.Descriptor{
		Type:     rules.VersionString,
		Priority: 0,
		Level:    "p2",
		Name:     "legacy-version-format",
		New:      func() rules.Rule { return versionStringRule{} },
	})
}

// The version string scheme changed from 1.x to x in Java 9.
const versionSchemeChange = 9

var legacyVersion = regexp.MustCompile(`^1\.[0-8](\.|$)`)

var versionProperties = []string{"java.version", "java.specification.version", "java.vm.specification.version"}

// versionStringRule flags units that read a version property and compare it
// against hardcoded 1.x literals.
type versionStringRule struct{}

func (versionStringRule) Check(cfg config.CheckConfig, sym *model.ClassSymbol) []model.Finding {
	if !cfg.InRange(versionSchemeChange) {
		return nil
	}
	var prop string
	for _, p := range versionProperties {
		if sym.HasConstant(p) {
			prop = p
			break
		}
	}
	if prop == "" {
		return nil
	}
	var out []model.Finding
	for _, c := range sym.Constants {
		if !legacyVersion.MatchString(c) {
			continue
		}
		out = append(out, model.Finding{
			Category: rules.VersionString,
			Target:   c,
			Message:  "reads " + prop + " and compares against legacy version literal " + c,
			Lines: sortedUnique(callLines(sym, func(m model.Method) bool {
				return m.Owner == "java.lang.System" && m.Name == "getProperty"
			})),
		})
	}
	return out
}
