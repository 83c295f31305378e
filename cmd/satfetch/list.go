package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		templateFile string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List template resources",
		Long: `List displays every logical ID in the template with its type.

Examples:
    satfetch list
    satfetch list --format json
    satfetch list -t template.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.loadTemplate(cmd.Context(), templateFile)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), buildListResult(t), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&templateFile, "template", "t", "", "Read a saved template instead of synthesizing")

	return cmd
}

func buildListResult(t *satfetch.Template) satfetch.ListResult {
	listResult := satfetch.ListResult{
		Resources: make([]satfetch.ListResource, 0, len(t.Resources)),
	}

	for name, def := range t.Resources {
		listResult.Resources = append(listResult.Resources, satfetch.ListResource{
			Name:      name,
			Type:      def.Type,
			DependsOn: template.Dependencies(def),
		})
	}

	// Sort by name for consistent output
	sort.Slice(listResult.Resources, func(i, j int) bool {
		return listResult.Resources[i].Name < listResult.Resources[j].Name
	})

	return listResult
}

func outputListResult(w io.Writer, result satfetch.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
