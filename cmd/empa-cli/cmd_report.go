package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "report <assessment-id>",
		Short: "Download the report of an assessment",
		Long: `Download the PDF (default) or XLSX report of a saved assessment.
The file is written to --out, or to the server-provided file name in the
current directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.client().Download(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = filepath.Base(f.FileName)
			}
			if err := os.WriteFile(path, f.Data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s (%d bytes)\n", path, len(f.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Report format: pdf | xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path")
	return cmd
}
