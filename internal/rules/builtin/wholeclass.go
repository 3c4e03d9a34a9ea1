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
		Type:     rules.WholeClass,
		Priority: 0,
		Level:    "p1",
		Name:     "removed-class",
		New:      func() rules.Rule { return wholeClassRule{entries: removedClasses} },
	})
}

// removedType is a class, or a package when Name ends with '.', that is no
// longer available from Since on.
type removedType struct {
	Name    string
	Since   int
	Message string
}

func (e removedType) matches(typ string) bool {
	if strings.HasSuffix(e.Name, ".") {
		return strings.HasPrefix(typ, e.Name)
	}
	return typ == e.Name
}

var removedClasses = []removedType{
	{"sun.misc.BASE64Encoder", 9, "removed; use java.util.Base64"},
	{"sun.misc.BASE64Decoder", 9, "removed; use java.util.Base64"},
	{"sun.reflect.Reflection", 9, "moved to jdk.internal.reflect and no longer accessible"},
	{"sun.misc.Cleaner", 9, "moved to jdk.internal.ref; use java.lang.ref.Cleaner"},
	{"javax.xml.bind.", 11, "JAXB was removed from the JDK; add jakarta.xml.bind dependencies"},
	{"javax.activation.", 11, "JavaBeans Activation Framework was removed from the JDK"},
	{"javax.xml.ws.", 11, "JAX-WS was removed from the JDK"},
	{"javax.jws.", 11, "JAX-WS was removed from the JDK"},
	{"javax.annotation.PostConstruct", 11, "Common Annotations were removed from the JDK"},
	{"javax.annotation.PreDestroy", 11, "Common Annotations were removed from the JDK"},
	{"javax.annotation.Resource", 11, "Common Annotations were removed from the JDK"},
	{"org.omg.CORBA.", 11, "CORBA was removed from the JDK"},
	{"javax.rmi.CORBA.", 11, "CORBA was removed from the JDK"},
	{"java.util.jar.Pack200", 14, "Pack200 was removed"},
	{"jdk.nashorn.", 15, "the Nashorn engine was removed"},
	{"java.rmi.activation.", 17, "RMI activation was removed"},
}

type wholeClassRule struct {
	entries []removedType
}

func (r wholeClassRule) Check(cfg config.CheckConfig, sym *model.ClassSymbol) []model.Finding {
	var out []model.Finding
	for _, typ := range sym.Types {
		for _, e := range r.entries {
			if !cfg.InRange(e.Since) || !e.matches(typ) {
				continue
			}
			out = append(out, model.Finding{
				Category: rules.WholeClass,
				Target:   typ,
				Message:  fmt.Sprintf("%s is unavailable since %d: %s", typ, e.Since, e.Message),
				Lines:    sortedUnique(callLines(sym, func(m model.Method) bool { return m.Owner == typ })),
			})
			break
		}
	}
	return out
}
