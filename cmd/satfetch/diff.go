package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/differ"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
)

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> [template2]",
		Short: "Compare two CloudFormation templates",
		Long: `Diff reports resources added, removed and modified between two templates.

With one argument, the saved template is compared with a fresh synth, which
shows what the next deployment would change.

Examples:
    satfetch diff deployed.json
    satfetch diff old.json new.yaml
    satfetch diff old.json new.json --ignore-order -f json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, opts, args, outputFormat, ignoreOrder)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")

	return cmd
}

func runDiff(cmd *cobra.Command, opts *globalOptions, args []string, format string, ignoreOrder bool) error {
	t1, err := template.LoadFile(args[0])
	if err != nil {
		return err
	}

	var t2 *satfetch.Template
	if len(args) == 2 {
		t2, err = template.LoadFile(args[1])
	} else {
		t2, err = opts.loadTemplate(cmd.Context(), "")
	}
	if err != nil {
		return err
	}

	result, err := differ.Compare(t1, t2, differ.Options{IgnoreOrder: ignoreOrder})
	if err != nil {
		return err
	}

	return outputDiffResult(cmd.OutOrStdout(), satfetch.DiffResult{
		Diff:    result.Diff,
		Summary: result.Summary,
	}, format)
}

func outputDiffResult(w io.Writer, result satfetch.DiffResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Summary.Total == 0 && len(result.Diff.Outputs) == 0 {
			fmt.Fprintln(w, "No differences.")
			return nil
		}

		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
			for _, c := range e.Changes {
				fmt.Fprintf(w, "    %s\n", c)
			}
		}
		if len(result.Diff.Outputs) > 0 {
			fmt.Fprintln(w, "Outputs:")
			for _, c := range result.Diff.Outputs {
				fmt.Fprintf(w, "    %s\n", c)
			}
		}

		fmt.Fprintf(w, "\nSummary: %d added, %d removed, %d modified\n",
			result.Summary.Added, result.Summary.Removed, result.Summary.Modified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
