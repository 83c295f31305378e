package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/smoke"
	"github.com/lex00/satellite-fetcher-aws-go/internal/stack"
)

func newOutputsCmd() *cobra.Command {
	var (
		outputFormat string
		stackName    string
		probe        bool
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "outputs <file>",
		Short: "Check a deployed stack's URL outputs",
		Long: `Outputs reads the outputs of a deployed stack and checks that FunctionUrl
and ApiGatewayUrl are present and well-formed. With --probe, each URL is
requested and any 5xx response or network error fails the check.

The file may be a deploy outputs file ({"Stack": {"Key": "value"}}), a flat
key/value object, or the JSON printed by 'aws cloudformation describe-stacks'.

Examples:
    satfetch outputs cdk-outputs.json
    satfetch outputs outputs.json --stack SatelliteFetcherAwsStack --probe`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputs, err := smoke.LoadOutputs(args[0], stackName)
			if err != nil {
				return err
			}

			checks := smoke.Check(outputs, stack.OutputFunctionURL, stack.OutputAPIGatewayURL)
			if probe {
				checks = smoke.Probe(cmd.Context(), &http.Client{Timeout: timeout}, checks)
			}

			return outputOutputsResult(cmd.OutOrStdout(), satfetch.OutputsResult{
				Success: smoke.Passed(checks),
				Outputs: checks,
			}, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&stackName, "stack", "", "Stack name when the file holds several stacks")
	cmd.Flags().BoolVar(&probe, "probe", false, "Send a GET request to each URL")
	cmd.Flags().DurationVar(&timeout, "timeout", smoke.DefaultTimeout, "Per-request timeout for --probe")

	return cmd
}

func outputOutputsResult(w io.Writer, result satfetch.OutputsResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		for _, c := range result.Outputs {
			switch {
			case c.Error != "":
				fmt.Fprintf(w, "FAIL %s: %s (%s)\n", c.Name, c.Error, c.Value)
			case c.StatusCode != 0:
				fmt.Fprintf(w, "OK   %s: %s [%d]\n", c.Name, c.Value, c.StatusCode)
			default:
				fmt.Fprintf(w, "OK   %s: %s\n", c.Name, c.Value)
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return exitError{code: 1}
	}

	return nil
}
