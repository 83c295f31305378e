package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/stack"
)

func newSynthCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
		outDir       string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate the CloudFormation template",
		Long: `Synth fingerprints the image directory, assembles the stack and writes the template.

With --outdir, the template and the container image asset manifest are written
as <stack>.template.json and <stack>.assets.json, ready for publishing.

Examples:
    satfetch synth
    satfetch synth -o template.json
    satfetch synth --format yaml
    satfetch synth --outdir cdk.out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd, opts, outputFormat, outputFile, outDir)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&outDir, "outdir", "", "Write template and asset manifest into this directory")

	return cmd
}

func runSynth(cmd *cobra.Command, opts *globalOptions, format, outputFile, outDir string) error {
	res, err := opts.synthesize(cmd.Context(), opts.logger())
	if err != nil {
		return outputResult(cmd, satfetch.BuildResult{
			Success: false,
			Errors:  []string{err.Error()},
		}, format, outputFile)
	}

	if outDir != "" {
		return writeAssembly(cmd, res, format, outDir)
	}

	return outputResult(cmd, satfetch.BuildResult{
		Success:  true,
		Template: *res.Template,
	}, format, outputFile)
}

func outputResult(cmd *cobra.Command, result satfetch.BuildResult, format, outputFile string) error {
	// Handle synth failures - output errors to stderr
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), e)
		}
		return exitError{code: 1}
	}

	data, err := encodeTemplate(&result.Template, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), data, outputFile)
}

// writeAssembly writes the template and asset manifest side by side.
func writeAssembly(cmd *cobra.Command, res *stack.Result, format, outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	data, err := encodeTemplate(res.Template, format)
	if err != nil {
		return err
	}
	name := res.Satellite.Stack.Name()
	templatePath := filepath.Join(outDir, name+".template."+format)
	if err := os.WriteFile(templatePath, data, 0644); err != nil {
		return err
	}

	entry, err := res.Image.ManifestAt(outDir)
	if err != nil {
		return err
	}
	manifest, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	assetsPath := filepath.Join(outDir, name+".assets.json")
	if err := os.WriteFile(assetsPath, manifest, 0644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d resources)\n", templatePath, len(res.Template.Resources))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (image %s)\n", assetsPath, res.Image.Hash)
	return nil
}
