package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grid-nexus/nexus-api/internal/service"
)

var (
	exportFormat string
	exportOut    string
)

// Example: nexusctl export 1b4e28ba-2fa1-41d2-883f-0016d3cca427 --format csv -o comments.csv
var exportCmd = &cobra.Command{
	Use:   "export <article_id>",
	Short: "Export an article's comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !service.ValidExportFormats[exportFormat] {
			return fmt.Errorf("format must be one of: ndjson, json, csv")
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		_, err = a.Services.Export.ExportComments(ctx, w, args[0], exportFormat)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", service.FormatNDJSON, "ndjson, json or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
