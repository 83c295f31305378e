package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/optimizer"
)

// validCategories lists all valid optimization categories.
var validCategories = map[string]bool{
	"all":         true,
	"security":    true,
	"cost":        true,
	"performance": true,
	"reliability": true,
}

// isValidCategory checks if a category is valid.
func isValidCategory(category string) bool {
	return validCategories[category]
}

// newOptimizeCmd creates the "optimize" subcommand for suggesting improvements.
func newOptimizeCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		category     string
		templateFile string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Suggest CloudFormation optimizations",
		Long: `Optimize analyzes the template and suggests improvements
for security, cost, performance, and reliability.

Categories:
    security     - Unauthenticated endpoints, wildcard CORS
    cost         - Function architecture
    performance  - Stage throttling
    reliability  - Concurrency limits on public functions

Suggestions are advisory; the command exits 0 when it finds some.

Examples:
    satfetch optimize
    satfetch optimize --category security
    satfetch optimize -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isValidCategory(category) {
				return fmt.Errorf("invalid category: %s (valid: all, security, cost, performance, reliability)", category)
			}

			t, err := opts.loadTemplate(cmd.Context(), templateFile)
			if err != nil {
				return fmt.Errorf("optimize failed: %w", err)
			}

			optResult, err := optimizer.Optimize(t, optimizer.Options{Category: category})
			if err != nil {
				return fmt.Errorf("optimize failed: %w", err)
			}

			return outputOptimizeResult(cmd.OutOrStdout(), satfetch.OptimizeResult{
				Suggestions: optResult.Suggestions,
				Summary:     optResult.Summary,
			}, len(t.Resources), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&category, "category", "c", "all", "Category: all, security, cost, performance, or reliability")
	cmd.Flags().StringVarP(&templateFile, "template", "t", "", "Read a saved template instead of synthesizing")

	return cmd
}

func outputOptimizeResult(w io.Writer, result satfetch.OptimizeResult, resourceCount int, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Suggestions) == 0 {
			fmt.Fprintf(w, "Analyzed %d resources. No optimization suggestions.\n", resourceCount)
			return nil
		}

		fmt.Fprintf(w, "Analyzed %d resources. Found %d suggestions:\n\n", resourceCount, result.Summary.Total)

		// Group by category
		byCat := map[string][]satfetch.OptimizeSuggestion{}
		for _, s := range result.Suggestions {
			byCat[s.Category] = append(byCat[s.Category], s)
		}

		categoryOrder := []string{"security", "cost", "performance", "reliability"}
		for _, cat := range categoryOrder {
			suggestions := byCat[cat]
			if len(suggestions) == 0 {
				continue
			}

			fmt.Fprintf(w, "=== %s (%d) ===\n", capitalize(cat), len(suggestions))
			for _, s := range suggestions {
				fmt.Fprintf(w, "\n[%s] %s (%s)\n", s.Severity, s.Title, s.Rule)
				fmt.Fprintf(w, "  Resource: %s\n", s.Resource)
				fmt.Fprintf(w, "  %s\n", s.Description)
				fmt.Fprintf(w, "  Suggestion: %s\n", s.Suggestion)
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Summary: %d security, %d cost, %d performance, %d reliability\n",
			result.Summary.Security, result.Summary.Cost,
			result.Summary.Performance, result.Summary.Reliability)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return string(s[0]-32) + s[1:]
}
