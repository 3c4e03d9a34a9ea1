package builtin

import (
	"fmt"

	"github.com/yeren108/emt4j/internal/config"
	"github.com/yeren108/emt4j/internal/model"
	"github.com/yeren108/emt4j/internal/rules"
)

func init() {
	rules.Register(rules.Descriptor{
		Type:     rules.TouchedMethod,
		Priority: 0,
		Level:    "p1",
		Name:     "removed-method",
		New:      func() rules.Rule { return touchedMethodRule{entries: removedMethods} },
	})
}

// removedMethod names a method whose behaviour changed or that was removed
// in Since. An empty Desc matches every overload, and a call with an
// unknown descriptor matches any entry for its name.
type removedMethod struct {
	Owner, Name, Desc string
	Since             int
	Message           string
}

func (e removedMethod) matches(m model.Method) bool {
	return m.Owner == e.Owner && m.Name == e.Name && (e.Desc == "" || m.Desc == "" || m.Desc == e.Desc)
}

var removedMethods = []removedMethod{
	{"java.lang.Thread", "stop", "(Ljava/lang/Throwable;)V", 11, "removed"},
	{"java.lang.Thread", "destroy", "()V", 11, "removed"},
	{"java.lang.System", "runFinalizersOnExit", "(Z)V", 11, "removed"},
	{"java.lang.Runtime", "runFinalizersOnExit", "(Z)V", 11, "removed"},
	{"java.lang.SecurityManager", "checkMemberAccess", "(Ljava/lang/Class;I)V", 11, "removed"},
	{"java.lang.SecurityManager", "checkTopLevelWindow", "", 11, "removed"},
	{"java.lang.SecurityManager", "checkSystemClipboardAccess", "", 11, "removed"},
	{"java.lang.SecurityManager", "checkAwtEventQueueAccess", "", 11, "removed"},
	{"java.lang.Runtime", "traceInstructions", "(Z)V", 13, "removed"},
	{"java.lang.Runtime", "traceMethodCalls", "(Z)V", 13, "removed"},
	{"java.lang.Thread", "countStackFrames", "()I", 14, "always throws UnsupportedOperationException"},
	{"java.lang.Thread", "suspend", "()V", 20, "always throws UnsupportedOperationException"},
	{"java.lang.Thread", "resume", "()V", 20, "always throws UnsupportedOperationException"},
}

type touchedMethodRule struct {
	entries []removedMethod
}

func (r touchedMethodRule) Check(cfg config.CheckConfig, sym *model.ClassSymbol) []model.Finding {
	var out []model.Finding
	for _, m := range sym.Calls {
		for _, e := range r.entries {
			if !cfg.InRange(e.Since) || !e.matches(m) {
				continue
			}
			out = append(out, model.Finding{
				Category: rules.TouchedMethod,
				Target:   m.String(),
				Message:  fmt.Sprintf("%s.%s: %s in %d", m.Owner, m.Name, e.Message, e.Since),
				Lines:    append([]int(nil), sym.CallLines[m]...),
			})
			break
		}
	}
	return out
}
