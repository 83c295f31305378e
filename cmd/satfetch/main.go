// Command satfetch synthesizes the satellite fetcher stack into a CloudFormation template.
//
// Usage:
//
//	satfetch synth                Generate CloudFormation template
//	satfetch diff old.json        Compare a saved template with a fresh synth
//	satfetch graph                Dependency graph (DOT or Mermaid)
//	satfetch list                 List logical IDs and types
//	satfetch lint                 Check the template for issues
//	satfetch validate             Run cfn-lint on the template
//	satfetch optimize             Suggest security, cost and reliability fixes
//	satfetch assets               Show the container image asset
//	satfetch watch                Re-synthesize on changes
//	satfetch outputs out.json     Check a deployed stack's URLs
//	satfetch version              Show version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/config"
	"github.com/lex00/satellite-fetcher-aws-go/internal/stack"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
)

// exitError carries a process exit code out of a command without printing.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "satfetch",
		Short: "Synthesize the satellite fetcher stack into CloudFormation",
		Long: `satfetch builds the satellite fetcher stack: a containerized Lambda function
exposed through a public function URL and a REST API with /fire, /lightning
and /rain routes.

Settings come from satfetch.yaml (or --config), SATFETCH_* environment
variables and an optional .env file:

    SATFETCH_FUNCTION_MEMORY_MB=2048 satfetch synth -o template.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: satfetch.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Dotenv file loaded before reading the environment (default: .env if present)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		newSynthCmd(opts),
		newDiffCmd(opts),
		newGraphCmd(opts),
		newListCmd(opts),
		newLintCmd(opts),
		newValidateCmd(opts),
		newOptimizeCmd(opts),
		newAssetsCmd(opts),
		newWatchCmd(opts),
		newOutputsCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "satfetch %s\n", getVersion())
		},
	}
}

// logger returns the diagnostics logger. Results go to stdout; logs go to stderr.
func (g *globalOptions) logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if g.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func (g *globalOptions) loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		ConfigFile: g.configFile,
		EnvFile:    g.envFile,
	})
}

// synthesize loads the configuration and synthesizes the stack.
func (g *globalOptions) synthesize(ctx context.Context, log logrus.FieldLogger) (*stack.Result, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	if f := cfg.File(); f != "" {
		log.WithField("file", f).Debug("loaded config")
	}
	return stack.Synthesize(ctx, cfg, log)
}

// loadTemplate reads path when given and synthesizes otherwise.
func (g *globalOptions) loadTemplate(ctx context.Context, path string) (*satfetch.Template, error) {
	if path != "" {
		return template.LoadFile(path)
	}
	res, err := g.synthesize(ctx, g.logger())
	if err != nil {
		return nil, err
	}
	return res.Template, nil
}

// encodeTemplate renders t as json or yaml.
func encodeTemplate(t *satfetch.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(t)
	case "yaml":
		return template.ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

func writeOutput(w io.Writer, data []byte, outputFile string) error {
	if outputFile == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	return os.WriteFile(outputFile, data, 0644)
}
