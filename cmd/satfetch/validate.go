package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking template validity.
func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		templateFile string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the template with cfn-lint",
		Long: `Validate synthesizes the template and checks it.

Checks performed:
  - Template rules: the same rules as 'satfetch lint'
  - cfn-lint: CloudFormation schema and best-practice rules

Examples:
    satfetch validate
    satfetch validate --format json
    satfetch validate -t template.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.loadTemplate(cmd.Context(), templateFile)
			if err != nil {
				return outputValidateResult(cmd.OutOrStdout(), satfetch.ValidateResult{
					Errors: []string{err.Error()},
				}, outputFormat)
			}

			res, err := validation.ValidateTemplate(t)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			return outputValidateResult(cmd.OutOrStdout(), res.Contract(), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&templateFile, "template", "t", "", "Read a saved template instead of synthesizing")

	return cmd
}

func outputValidateResult(w io.Writer, result satfetch.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return exitError{code: 1}
	}

	return nil
}
