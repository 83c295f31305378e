package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/lint"
)

func newLintCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		templateFile string
		disabled     []string
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the template for issues",
		Long: `Lint checks the synthesized template for structural mistakes:

    SFL001  Ref, Fn::GetAtt and Fn::Sub name a defined resource
    SFL002  PathPart is unique under its parent gateway resource
    SFL003  Outputs have a value
    SFL004  Functions behind a REST method time out within the integration limit
    SFL005  Enum properties hold an allowed value
    SFL006  DependsOn names a defined resource

Exits with status 2 when an error is found; warnings are reported only.

Examples:
    satfetch lint
    satfetch lint -t template.json
    satfetch lint --disable SFL004 -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.loadTemplate(cmd.Context(), templateFile)
			if err != nil {
				return fmt.Errorf("lint failed: %w", err)
			}

			res := lint.LintTemplate(t, lint.Options{
				DisabledRules: disabled,
				File:          templateFile,
			})
			if err := outputLintResult(cmd.OutOrStdout(), toLintResult(res), outputFormat); err != nil {
				return err
			}
			if res.HasErrors() {
				return exitError{code: 2}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&templateFile, "template", "t", "", "Read a saved template instead of synthesizing")
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "Rule IDs to skip")

	return cmd
}

func toLintResult(res lint.Result) satfetch.LintResult {
	result := satfetch.LintResult{Success: res.Success}
	for _, issue := range res.Issues {
		result.Issues = append(result.Issues, satfetch.LintIssue{
			Resource: issue.Resource,
			Severity: issue.Level(),
			Message:  issue.Message,
			Rule:     issue.Rule,
		})
	}
	return result
}

func outputLintResult(w io.Writer, result satfetch.LintResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintln(w, "No issues found.")
			return nil
		}

		for _, issue := range result.Issues {
			fmt.Fprintf(w, "%s: %s: %s [%s]\n", issue.Severity, issue.Resource, issue.Message, issue.Rule)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
