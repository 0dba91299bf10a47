package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/anatomy"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"

	"github.com/spf13/cobra"
)

func newAreasCmd(opts *rootOptions) *cobra.Command {
	areasCmd := &cobra.Command{
		Use:   "areas",
		Short: "Manage the affected anatomical areas of a patient",
		Long: `Manage the affected anatomical areas of a patient.

Available subcommands:
  list - List selected areas
  save - Add or update an area (one record per area name)
  rm   - Remove an area`,
	}

	listCmd := &cobra.Command{
		Use:   "list <patient-id>",
		Short: "List selected areas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().ListAreas(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printAreas(cmd.OutOrStdout(), resp.Areas)
		},
	}

	var form anatomy.Form
	saveCmd := &cobra.Command{
		Use:   "save <patient-id>",
		Short: "Add or update an area",
		Long: `Add or update an affected area. Severity (leve|moderado|severo) and
evolution (estable|mejoria|empeoramiento) are required; the start date
defaults to today.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !form.CanSubmit() {
				return anatomy.ErrIncompleteForm
			}
			resp, err := opts.client().SaveArea(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			verb := "updated"
			if resp.Created {
				verb = "added"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Area %s %s\n", resp.Area.Area, verb)
			return printAreas(cmd.OutOrStdout(), resp.Areas)
		},
	}
	saveCmd.Flags().StringVar(&form.Area, "area", "", "Area name as listed in the catalog")
	saveCmd.Flags().StringVar(&form.Severity, "severity", "", "leve | moderado | severo")
	saveCmd.Flags().StringVar(&form.Evolution, "evolution", "", "estable | mejoria | empeoramiento")
	saveCmd.Flags().StringVar(&form.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	saveCmd.Flags().StringVar(&form.FunctionalImpact, "impact", "", "Functional impact description")
	saveCmd.Flags().StringSliceVar(&form.Interventions, "intervention", nil, "Interventions (repeatable)")

	rmCmd := &cobra.Command{
		Use:   "rm <patient-id> <area>",
		Short: "Remove an area",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().RemoveArea(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Area %s removed\n", args[1])
			return printAreas(cmd.OutOrStdout(), resp.Areas)
		},
	}

	areasCmd.AddCommand(listCmd, saveCmd, rmCmd)
	return areasCmd
}

func printAreas(w io.Writer, areas []domain.SelectedArea) error {
	if len(areas) == 0 {
		_, err := fmt.Fprintln(w, "No areas selected")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AREA\tSEVERITY\tEVOLUTION\tSTART\tINTERVENTIONS")
	for _, a := range areas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.Area,
			anatomy.SeverityVisual(a.Severity).Label,
			anatomy.EvolutionLabel(a.Evolution),
			a.StartDate.String(),
			strings.Join(a.Interventions, ", "),
		)
	}
	return tw.Flush()
}
