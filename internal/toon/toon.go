// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yeren108/emt4j/internal/registry"
	"github.com/yeren108/emt4j/internal/source"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// EncodePlan renders a resolved input plan and the rules that will run.
func EncodePlan(plan source.Plan, sel *registry.Selection, from, to int) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("from: %d", from))
	parts = append(parts, fmt.Sprintf("to: %d", to))

	var sourceRows [][]any
	for _, src := range plan.Analysis {
		id, dep := "", false
		if src.Info != nil {
			id = src.Info.Identifier
			dep = src.Info.IsDependency
		}
		sourceRows = append(sourceRows, []any{src.Path, src.Kind.String(), id, dep})
	}
	parts = append(parts, formatTabular("sources", []string{"path", "kind", "identifier", "dependency"}, sourceRows))

	var reportRows [][]any
	for _, p := range plan.ReportInputs {
		reportRows = append(reportRows, []any{p})
	}
	parts = append(parts, formatTabular("report_inputs", []string{"path"}, reportRows))

	var ruleRows [][]any
	if sel != nil {
		for _, cat := range sel.Categories() {
			d, _ := sel.Get(cat)
			ruleRows = append(ruleRows, []any{
				cat,
				d.Descriptor.Name,
				d.Descriptor.Priority,
				d.Descriptor.Level,
			})
		}
	}
	parts = append(parts, formatTabular("rules", []string{"category", "name", "priority", "level"}, ruleRows))

	if len(plan.Skipped) > 0 {
		var skipRows [][]any
		for _, sk := range plan.Skipped {
			skipRows = append(skipRows, []any{sk.Path, sk.Err.Error()})
		}
		parts = append(parts, formatTabular("skipped", []string{"path", "error"}, skipRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeCell(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

// encodeCell writes booleans and integers as TOON primitives; everything
// else is a string value.
func encodeCell(cell any) string {
	switch v := cell.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case string:
		return encodeValue(v)
	default:
		return encodeValue(fmt.Sprint(v))
	}
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
