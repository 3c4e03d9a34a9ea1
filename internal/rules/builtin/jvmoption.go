package builtin

import (
	"fmt"
	"strings"

	"github.com/yeren108/emt4j/internal/config"
	"github.com/yeren108/emt4j/internal/model"
	"github.com/yeren108/emt4j/internal/rules"
)

func init() {
	rules.Register(rules.Descriptor{
		Type:     rules.JVMOption,
		Priority: 0,
		Level:    "p1",
		Name:     "removed-vm-option",
		New:      func() rules.Rule { return jvmOptionRule{entries: removedOptions} },
	})
}

type removedOption struct {
	Option  string
	Since   int
	Message string
}

// matches accepts the bare option and its key=value form.
func (e removedOption) matches(opt string) bool {
	return opt == e.Option || strings.HasPrefix(opt, e.Option+"=") || strings.HasPrefix(opt, e.Option+":")
}

var removedOptions = []removedOption{
	{"-XX:PermSize", 8, "permanent generation was removed; use -XX:MetaspaceSize"},
	{"-XX:MaxPermSize", 8, "permanent generation was removed; use -XX:MaxMetaspaceSize"},
	{"-Xincgc", 9, "incremental CMS was removed"},
	{"-XX:+CMSIncrementalMode", 9, "incremental CMS was removed"},
	{"-Djava.endorsed.dirs", 9, "the endorsed-standards override mechanism was removed"},
	{"-Djava.ext.dirs", 9, "the extension mechanism was removed"},
	{"-Xbootclasspath/p", 9, "use --patch-module instead"},
	{"-XX:+PrintGCDetails", 9, "replaced by unified logging (-Xlog:gc*)"},
	{"-XX:+PrintGCDateStamps", 9, "replaced by unified logging (-Xlog:gc*)"},
	{"-XX:+UseParNewGC", 10, "ParNew was removed"},
	{"-XX:+AggressiveOpts", 12, "removed"},
	{"-XX:+UseConcMarkSweepGC", 14, "the CMS collector was removed"},
	{"-XX:+UseBiasedLocking", 18, "biased locking was removed"},
}

// jvmOptionRule inspects captured runtime options; class units carry none.
type jvmOptionRule struct {
	entries []removedOption
}

func (jvmOptionRule) Check(config.CheckConfig, *model.ClassSymbol) []model.Finding {
	return nil
}

func (r jvmOptionRule) CheckOptions(cfg config.CheckConfig, options []string) []model.Finding {
	var out []model.Finding
	for _, opt := range options {
		for _, e := range r.entries {
			if !cfg.InRange(e.Since) || !e.matches(opt) {
				continue
			}
			out = append(out, model.Finding{
				Category: rules.JVMOption,
				Target:   opt,
				Message:  fmt.Sprintf("%s: %s (since %d)", opt, e.Message, e.Since),
			})
			break
		}
	}
	return out
}
