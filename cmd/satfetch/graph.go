package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/satellite-fetcher-aws-go/internal/graph"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat  string
		includePseudo bool
		clusterByType bool
		templateFile  string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies.

GetAtt edges are blue; edges that exist only through DependsOn are dashed.

The output can be rendered with Graphviz:
    satfetch graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    satfetch graph -f mermaid

Examples:
    satfetch graph
    satfetch graph -p              # include pseudo-parameters
    satfetch graph -c              # cluster by service
    satfetch graph -t template.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			t, err := opts.loadTemplate(cmd.Context(), templateFile)
			if err != nil {
				return err
			}
			if len(t.Resources) == 0 {
				return fmt.Errorf("no resources found")
			}

			gen := &graph.Generator{
				Format:        graphFormat,
				IncludePseudo: includePseudo,
				ClusterByType: clusterByType,
			}
			return gen.Generate(t, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includePseudo, "include-pseudo", "p", false, "Include pseudo-parameter nodes in the graph")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service")
	cmd.Flags().StringVarP(&templateFile, "template", "t", "", "Read a saved template instead of synthesizing")

	return cmd
}
