package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lex00/satellite-fetcher-aws-go/internal/asset"
)

func newAssetsCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Show the container image asset",
		Long: `Assets stages the image directory and prints its fingerprint and the asset
manifest that publishing tools use to build and push the image.

Examples:
    satfetch assets
    satfetch assets -f json > satellite-fetcher.assets.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.synthesize(cmd.Context(), opts.logger())
			if err != nil {
				return err
			}
			return outputAssets(cmd.OutOrStdout(), res.Image, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func outputAssets(w io.Writer, img *asset.Image, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(img.Manifest(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		fmt.Fprintf(w, "Hash:        %s\n", img.Hash)
		fmt.Fprintf(w, "Directory:   %s\n", img.Dir)
		fmt.Fprintf(w, "Dockerfile:  %s\n", img.Dockerfile)
		fmt.Fprintf(w, "Base images: %s\n", strings.Join(img.BaseImages, ", "))
		fmt.Fprintf(w, "Files:       %d\n", img.Files)
		fmt.Fprintf(w, "Repository:  %s\n", img.RepositoryName())

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
