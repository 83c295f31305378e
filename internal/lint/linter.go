// Package lint checks a synthesized CloudFormation template for structural
// mistakes that CloudFormation itself would only report at deploy time.
//
// Rules:
//
//	SFL001: Ref, Fn::GetAtt and Fn::Sub must name a defined resource
//	SFL002: PathPart must be unique under its parent gateway resource
//	SFL003: Outputs must have a value
//	SFL004: Functions behind a REST method must time out within the integration limit
//	SFL005: Enum properties must hold an allowed value
//	SFL006: DependsOn must name a defined resource
package lint

import (
	"sort"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
	corelint "github.com/lex00/wetwire-core-go/lint"
)

// Severity is an alias for corelint.Severity.
type Severity = corelint.Severity

// Severity constants.
const (
	SeverityError   = corelint.SeverityError
	SeverityWarning = corelint.SeverityWarning
	SeverityInfo    = corelint.SeverityInfo
)

// Issue is a corelint.Issue attributed to a template resource or output.
type Issue struct {
	corelint.Issue

	// Resource is the logical ID, or "Outputs.<name>" for outputs.
	Resource string
}

// Level returns the severity as "error", "warning" or "info".
func (i Issue) Level() string {
	switch i.Severity {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Rule checks a whole template.
type Rule interface {
	ID() string
	Description() string
	Check(t *satfetch.Template) []Issue
}

// Result contains the outcome of linting.
type Result struct {
	Success bool
	Issues  []Issue
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
	// Rules to skip.
	DisabledRules []string
	// File is recorded on every issue.
	File string
}

// LintTemplate runs the configured rules over t. Issues are ordered by
// resource, then rule.
func LintTemplate(t *satfetch.Template, opts Options) Result {
	var issues []Issue
	for _, rule := range getRules(opts) {
		for _, issue := range rule.Check(t) {
			if issue.Rule == "" {
				issue.Rule = rule.ID()
			}
			issue.File = opts.File
			issues = append(issues, issue)
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Resource != issues[j].Resource {
			return issues[i].Resource < issues[j].Resource
		}
		return issues[i].Rule < issues[j].Rule
	})

	return Result{
		Success: len(issues) == 0,
		Issues:  issues,
	}
}

// LintFile lints a template file in JSON or YAML form.
func LintFile(path string, opts Options) (Result, error) {
	t, err := template.LoadFile(path)
	if err != nil {
		return Result{}, err
	}
	if opts.File == "" {
		opts.File = path
	}
	return LintTemplate(t, opts), nil
}

// HasErrors reports whether any issue is an error.
func (r Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()

	disabled := make(map[string]bool)
	for _, id := range opts.DisabledRules {
		disabled[id] = true
	}

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if disabled[r.ID()] {
			continue
		}
		if len(enabled) > 0 && !enabled[r.ID()] {
			continue
		}
		filtered = append(filtered, r)
	}

	return filtered
}
