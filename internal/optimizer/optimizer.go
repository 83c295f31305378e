// Package optimizer provides CloudFormation optimization suggestions.
// It analyzes a synthesized template for security, cost, performance, and
// reliability improvements.
package optimizer

import (
	"sort"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
)

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions: "all", "security", "cost", "performance", "reliability"
	Category string
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions []satfetch.OptimizeSuggestion
	Summary     satfetch.OptimizeSummary
}

// Optimize analyzes template resources and returns optimization suggestions,
// ordered by resource and then rule.
func Optimize(t *satfetch.Template, opts Options) (*Result, error) {
	result := &Result{Suggestions: []satfetch.OptimizeSuggestion{}}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	// Apply all rules to each resource
	for _, name := range names {
		suggestions := analyzeResource(t, name, opts.Category)
		result.Suggestions = append(result.Suggestions, suggestions...)
	}

	// Calculate summary
	result.Summary = calculateSummary(result.Suggestions)

	return result, nil
}

// analyzeResource applies optimization rules to a single resource.
func analyzeResource(t *satfetch.Template, name, category string) []satfetch.OptimizeSuggestion {
	var suggestions []satfetch.OptimizeSuggestion

	def := t.Resources[name]
	for _, rule := range getRulesForType(def.Type) {
		if category != "" && category != "all" && rule.Category != category {
			continue
		}
		if suggestion := rule.Check(t, name, def); suggestion != nil {
			suggestion.Rule = rule.ID
			suggestion.Resource = name
			suggestion.Category = rule.Category
			if suggestion.Title == "" {
				suggestion.Title = rule.Title
			}
			suggestions = append(suggestions, *suggestion)
		}
	}

	return suggestions
}

// calculateSummary tallies suggestions by category.
func calculateSummary(suggestions []satfetch.OptimizeSuggestion) satfetch.OptimizeSummary {
	summary := satfetch.OptimizeSummary{}
	for _, s := range suggestions {
		switch s.Category {
		case "security":
			summary.Security++
		case "cost":
			summary.Cost++
		case "performance":
			summary.Performance++
		case "reliability":
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}

// Rule represents an optimization rule.
type Rule struct {
	ID          string
	Category    string
	Title       string
	Description string
	Check       func(t *satfetch.Template, name string, def satfetch.ResourceDef) *satfetch.OptimizeSuggestion
}

// getRulesForType returns applicable rules for a resource type.
func getRulesForType(resourceType string) []Rule {
	switch resourceType {
	case "AWS::Lambda::Function":
		return lambdaFunctionRules
	case "AWS::Lambda::Url":
		return functionURLRules
	case "AWS::ApiGateway::Method":
		return apiGatewayMethodRules
	case "AWS::ApiGateway::Stage":
		return apiGatewayStageRules
	}
	return nil
}

// AllRules returns every rule, for listing.
func AllRules() []Rule {
	var all []Rule
	all = append(all, functionURLRules...)
	all = append(all, apiGatewayMethodRules...)
	all = append(all, apiGatewayStageRules...)
	all = append(all, lambdaFunctionRules...)
	return all
}
