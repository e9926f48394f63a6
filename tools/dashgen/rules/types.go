// Package rules generates the ebaybuy recording and alert rules as
// Prometheus Operator PrometheusRule resources.
package rules

const (
	apiVersion = "monitoring.coreos.com/v1"
	kind       = "PrometheusRule"

	// ruleSelectorLabel is the label the Prometheus instance selects rule
	// resources by.
	ruleSelectorLabel = "prometheus"
	ruleSelector      = "system-rules-prometheus"
)

// PrometheusRule is the PrometheusRule custom resource.
type PrometheusRule struct {
	APIVersion string                 `yaml:"apiVersion"`
	Kind       string                 `yaml:"kind"`
	Metadata   PrometheusRuleMetadata `yaml:"metadata"`
	Spec       PrometheusRuleSpec     `yaml:"spec"`
}

// PrometheusRuleMetadata holds the resource name and labels.
type PrometheusRuleMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// PrometheusRuleSpec holds the rule groups.
type PrometheusRuleSpec struct {
	Groups []RuleGroup `yaml:"groups"`
}

// RuleGroup is a named collection of recording or alerting rules.
type RuleGroup struct {
	Name     string `yaml:"name"`
	Interval string `yaml:"interval,omitempty"`
	Rules    []Rule `yaml:"rules"`
}

// Rule is a recording rule when Record is set and an alert otherwise.
type Rule struct {
	Record      string            `yaml:"record,omitempty"`
	Alert       string            `yaml:"alert,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// Name is the recorded series or the alert name.
func (r Rule) Name() string {
	if r.Record != "" {
		return r.Record
	}
	return r.Alert
}

// newPrometheusRule wraps rules in a single-group resource labeled for the
// ebaybuy Prometheus and component.
func newPrometheusRule(name string, rules ...Rule) PrometheusRule {
	return PrometheusRule{
		APIVersion: apiVersion,
		Kind:       kind,
		Metadata: PrometheusRuleMetadata{
			Name: name,
			Labels: map[string]string{
				ruleSelectorLabel:        ruleSelector,
				"app.kubernetes.io/name": "ebaybuy",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{{Name: name, Rules: rules}},
		},
	}
}

// alertMeta is the severity and text attached to an alert.
type alertMeta struct {
	severity    string
	summary     string
	description string
}

func critical(summary, description string) alertMeta {
	return alertMeta{severity: "critical", summary: summary, description: description}
}

func warning(summary, description string) alertMeta {
	return alertMeta{severity: "warning", summary: summary, description: description}
}
