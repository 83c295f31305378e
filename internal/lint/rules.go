package lint

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lex00/cloudformation-schema-go/enums"
	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
	"github.com/lex00/satellite-fetcher-aws-go/intrinsics"
	corelint "github.com/lex00/wetwire-core-go/lint"
)

// IntegrationTimeoutSeconds is the API Gateway REST integration timeout.
const IntegrationTimeoutSeconds = 29

// AllRules returns every template rule.
func AllRules() []Rule {
	return []Rule{
		UndefinedReference{},
		DuplicatePathPart{},
		EmptyOutput{},
		IntegrationTimeout{},
		InvalidEnumValue{},
		UndefinedDependsOn{},
	}
}

func newIssue(rule Rule, resource string, severity Severity, msg, suggestion string) Issue {
	return Issue{
		Issue: corelint.Issue{
			Rule:       rule.ID(),
			Message:    msg,
			Suggestion: suggestion,
			Severity:   severity,
		},
		Resource: resource,
	}
}

// UndefinedReference detects intrinsic references to logical IDs that are
// not in the template.
type UndefinedReference struct{}

func (r UndefinedReference) ID() string { return "SFL001" }
func (r UndefinedReference) Description() string {
	return "Ref, Fn::GetAtt and Fn::Sub must name a defined resource"
}

func (r UndefinedReference) Check(t *satfetch.Template) []Issue {
	var issues []Issue

	check := func(owner string, refs []template.Reference) {
		seen := make(map[string]bool)
		for _, ref := range refs {
			if ref.Kind == template.KindDependsOn || intrinsics.IsPseudo(ref.Target) || seen[ref.Target] {
				continue
			}
			seen[ref.Target] = true
			if _, ok := t.Resources[ref.Target]; ok {
				continue
			}
			issues = append(issues, newIssue(r, owner, SeverityError,
				fmt.Sprintf("%s references undefined resource %q", ref.Kind, ref.Target),
				"Define the resource or fix the logical ID"))
		}
	}

	for _, name := range sortedKeys(t.Resources) {
		check(name, template.ReferencesOf(t.Resources[name]))
	}
	for _, name := range sortedKeys(t.Outputs) {
		check("Outputs."+name, template.ReferencesIn(t.Outputs[name].Value))
	}

	return issues
}

// UndefinedDependsOn detects DependsOn entries naming missing resources.
type UndefinedDependsOn struct{}

func (r UndefinedDependsOn) ID() string { return "SFL006" }
func (r UndefinedDependsOn) Description() string {
	return "DependsOn must name a defined resource"
}

func (r UndefinedDependsOn) Check(t *satfetch.Template) []Issue {
	var issues []Issue
	for _, name := range sortedKeys(t.Resources) {
		for _, dep := range t.Resources[name].DependsOn {
			if _, ok := t.Resources[dep]; ok {
				continue
			}
			issues = append(issues, newIssue(r, name, SeverityWarning,
				fmt.Sprintf("DependsOn names undefined resource %q", dep),
				"Remove the entry or define the resource"))
		}
	}
	return issues
}

// DuplicatePathPart detects two gateway resources with the same PathPart
// under the same parent.
type DuplicatePathPart struct{}

func (r DuplicatePathPart) ID() string { return "SFL002" }
func (r DuplicatePathPart) Description() string {
	return "PathPart must be unique under its parent gateway resource"
}

func (r DuplicatePathPart) Check(t *satfetch.Template) []Issue {
	var issues []Issue
	first := make(map[string]string)

	for _, name := range sortedKeys(t.Resources) {
		def := t.Resources[name]
		if def.Type != "AWS::ApiGateway::Resource" {
			continue
		}
		part, _ := def.Properties["PathPart"].(string)
		key := canonical(def.Properties["RestApiId"]) + "|" + canonical(def.Properties["ParentId"]) + "|" + part
		if prev, ok := first[key]; ok {
			issues = append(issues, newIssue(r, name, SeverityError,
				fmt.Sprintf("duplicate path part %q (already defined by %s)", part, prev),
				"Use a distinct PathPart or remove one of the resources"))
			continue
		}
		first[key] = name
	}
	return issues
}

// EmptyOutput detects outputs without a value.
type EmptyOutput struct{}

func (r EmptyOutput) ID() string { return "SFL003" }
func (r EmptyOutput) Description() string {
	return "Outputs must have a value"
}

func (r EmptyOutput) Check(t *satfetch.Template) []Issue {
	var issues []Issue
	for _, name := range sortedKeys(t.Outputs) {
		v := t.Outputs[name].Value
		if s, ok := v.(string); v == nil || ok && strings.TrimSpace(s) == "" {
			issues = append(issues, newIssue(r, "Outputs."+name, SeverityError,
				"output has an empty value", "Set Value to a literal or an intrinsic"))
		}
	}
	return issues
}

// IntegrationTimeout detects Lambda functions fronted by a REST API method
// whose timeout exceeds what the integration will wait.
type IntegrationTimeout struct{}

func (r IntegrationTimeout) ID() string { return "SFL004" }
func (r IntegrationTimeout) Description() string {
	return "Functions behind a REST method must time out within the integration limit"
}

func (r IntegrationTimeout) Check(t *satfetch.Template) []Issue {
	fronted := make(map[string]bool)
	for _, name := range sortedKeys(t.Resources) {
		def := t.Resources[name]
		if def.Type != "AWS::ApiGateway::Method" {
			continue
		}
		for _, ref := range template.ReferencesIn(def.Properties["Integration"]) {
			if target, ok := t.Resources[ref.Target]; ok && target.Type == "AWS::Lambda::Function" {
				fronted[ref.Target] = true
			}
		}
	}

	var issues []Issue
	for _, name := range sortedKeys(fronted) {
		timeout, ok := toFloat(t.Resources[name].Properties["Timeout"])
		if !ok || timeout <= IntegrationTimeoutSeconds {
			continue
		}
		issues = append(issues, newIssue(r, name, SeverityWarning,
			fmt.Sprintf("Timeout %gs exceeds the %ds REST API integration limit", timeout, IntegrationTimeoutSeconds),
			"Gateway requests will fail before the function finishes; lower Timeout or use the function URL"))
	}
	return issues
}

// InvalidEnumValue validates literal property values against CloudFormation enums.
type InvalidEnumValue struct{}

func (r InvalidEnumValue) ID() string { return "SFL005" }
func (r InvalidEnumValue) Description() string {
	return "Enum properties must hold an allowed value"
}

// Enum lookups; replaced in tests.
var (
	enumForProperty = enums.GetEnumForProperty
	validEnumValue  = enums.IsValidValue
)

// cfServiceToEnumService maps CloudFormation service names to the service
// names used by the enums package.
var cfServiceToEnumService = map[string]string{
	"lambda":     "lambda",
	"apigateway": "apigateway",
	"iam":        "iam",
}

func (r InvalidEnumValue) Check(t *satfetch.Template) []Issue {
	var issues []Issue
	for _, name := range sortedKeys(t.Resources) {
		def := t.Resources[name]
		parts := strings.Split(def.Type, "::")
		if len(parts) != 3 {
			continue
		}
		service := cfServiceToEnumService[strings.ToLower(parts[1])]
		if service == "" {
			continue
		}

		for _, prop := range sortedKeys(def.Properties) {
			enumName := enumForProperty(service, prop)
			if enumName == "" {
				continue
			}
			for _, value := range literalStrings(def.Properties[prop]) {
				if validEnumValue(service, enumName, value) {
					continue
				}
				issues = append(issues, newIssue(r, name, SeverityError,
					fmt.Sprintf("Invalid %s value: %q", prop, value),
					fmt.Sprintf("Use a %s %s value", service, enumName)))
			}
		}
	}
	return issues
}

// literalStrings returns the string literals of a scalar or list property.
// Intrinsic values are skipped.
func literalStrings(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		var out []string
		for _, elem := range val {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// canonical renders a property value as a comparable key.
func canonical(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
