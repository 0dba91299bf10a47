package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/client"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server  string
	timeout time.Duration
	asJSON  bool
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server, o.timeout, nil)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	// rootCmd represents the base command
	rootCmd := &cobra.Command{
		Use:   "empa-cli",
		Short: "EMPA-CELA assessment command line client",
		Long: `Command line client for the EMPA-CELA assessment service.

Available commands:
  score   - Score a questionnaire without saving it
  areas   - List, save or remove affected anatomical areas of a patient
  assess  - Save a scored assessment for a patient
  report  - Download the PDF or XLSX report of an assessment`,
		SilenceUsage: true,
	}

	server := os.Getenv("EMPA_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "EMPA-CELA API base URL (or set EMPA_SERVER env)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print raw JSON results")

	rootCmd.AddCommand(newScoreCmd(opts))
	rootCmd.AddCommand(newAreasCmd(opts))
	rootCmd.AddCommand(newAssessCmd(opts))
	rootCmd.AddCommand(newReportCmd(opts))
	return rootCmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
