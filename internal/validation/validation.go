// Package validation checks a synthesized template before deployment.
//
// Two passes run over the same template:
//   - internal/lint: structural rules specific to this stack (SFL rules)
//   - cfn-lint-go: CloudFormation schema and best-practice rules (library dependency)
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	sflint "github.com/lex00/satellite-fetcher-aws-go/internal/lint"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
)

// LintResult contains the result of the template rules.
type LintResult struct {
	Passed bool     `json:"passed"`
	Issues []string `json:"issues"`
}

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// ValidationResult contains all validation results for a template.
type ValidationResult struct {
	Resources     int            `json:"resources"`
	LintResult    *LintResult    `json:"lint_result"`
	CfnLintResult *CfnLintResult `json:"cfn_lint_result"`
}

// Passed reports whether neither pass found an error.
func (r *ValidationResult) Passed() bool {
	return r.LintResult.Passed && r.CfnLintResult.Passed
}

// Contract converts the result to the `satfetch validate` JSON shape.
// Template rule errors and cfn-lint errors are both reported as errors.
func (r *ValidationResult) Contract() satfetch.ValidateResult {
	out := satfetch.ValidateResult{
		Success:   r.Passed(),
		Resources: r.Resources,
	}
	out.Errors = append(out.Errors, r.CfnLintResult.Errors...)
	out.Warnings = append(out.Warnings, r.CfnLintResult.Warnings...)
	for _, issue := range r.LintResult.Issues {
		if strings.HasPrefix(issue, "error ") {
			out.Errors = append(out.Errors, strings.TrimPrefix(issue, "error "))
		} else {
			out.Warnings = append(out.Warnings, strings.TrimPrefix(issue, "warning "))
		}
	}
	return out
}

// RunLint runs the template rules.
func RunLint(t *satfetch.Template) *LintResult {
	res := sflint.LintTemplate(t, sflint.Options{})

	result := &LintResult{
		Passed: !res.HasErrors(),
		Issues: []string{},
	}
	for _, issue := range res.Issues {
		result.Issues = append(result.Issues,
			fmt.Sprintf("%s %s: %s: %s", issue.Level(), issue.Rule, issue.Resource, issue.Message))
	}
	return result
}

// RunCfnLint runs cfn-lint-go on the given template file.
// This uses cfn-lint-go as a library dependency for guaranteed version control.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	// Check if file exists
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	// Create linter and run
	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	// No issues found
	if len(matches) == 0 {
		result.Passed = true
		return result, nil
	}

	// Categorize issues by level
	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Passed if no errors (warnings are acceptable)
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// RunCfnLintTemplate writes t to a temporary file and runs cfn-lint-go on it.
func RunCfnLintTemplate(t *satfetch.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}

	dir, err := os.MkdirTemp("", "satfetch-validate-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}

	return RunCfnLint(path)
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	// Format path if available
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// ValidateTemplate runs both passes. cfn-lint runs even when the template
// rules fail, to give as much feedback as possible.
func ValidateTemplate(t *satfetch.Template) (*ValidationResult, error) {
	result := &ValidationResult{
		Resources:  len(t.Resources),
		LintResult: RunLint(t),
	}

	cfnResult, err := RunCfnLintTemplate(t)
	if err != nil {
		return nil, fmt.Errorf("running cfn-lint: %w", err)
	}
	result.CfnLintResult = cfnResult

	return result, nil
}
