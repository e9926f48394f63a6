// Package validate checks generated dashboards and rules: every PromQL
// expression must parse, and every metric it selects must be known.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/ebaybuy/tools/dashgen/rules"
)

// histogramSuffixes are the series a histogram exposes besides its name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects validation findings.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether there were no errors.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Dashboard validates every "expr" found in the dashboard's JSON form.
func Dashboard(dash any, known map[string]bool) *Result {
	res := &Result{}

	data, err := json.Marshal(dash)
	if err != nil {
		res.errorf("marshaling dashboard: %v", err)
		return res
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		res.errorf("decoding dashboard: %v", err)
		return res
	}

	exprs := collectExprs(doc, nil)
	if len(exprs) == 0 {
		res.Warnings = append(res.Warnings, "dashboard has no query expressions")
	}
	for _, expr := range exprs {
		checkExpr(res, "dashboard", expr, known)
	}
	return res
}

// Rules validates every expression of a rule CR. Recording rule names are
// added to known as they are seen, so alerts may reference them.
func Rules(cr rules.PrometheusRule, known map[string]bool) *Result {
	res := &Result{}

	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Name()
			if name == "" {
				res.errorf("group %s: rule has neither record nor alert", g.Name)
				continue
			}
			if r.Record != "" && !known[r.Record] {
				res.errorf("recording rule %s is not in the known metric set", r.Record)
			}
			checkExpr(res, g.Name+"/"+name, r.Expr, known)
		}
	}
	return res
}

func collectExprs(node any, out []string) []string {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if s, ok := child.(string); ok && key == "expr" {
				out = append(out, s)
				continue
			}
			out = collectExprs(child, out)
		}
	case []any:
		for _, child := range v {
			out = collectExprs(child, out)
		}
	}
	return out
}

func checkExpr(res *Result, where, expr string, known map[string]bool) {
	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		res.errorf("%s: invalid PromQL %q: %v", where, expr, err)
		return
	}

	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !isKnown(vs.Name, known) {
			res.errorf("%s: unknown metric %q in %q", where, vs.Name, expr)
		}
		return nil
	})
}

func isKnown(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}
