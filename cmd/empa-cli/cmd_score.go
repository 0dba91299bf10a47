package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/scoring"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/service"

	"github.com/spf13/cobra"
)

func newScoreCmd(opts *rootOptions) *cobra.Command {
	var selections map[string]int

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a questionnaire without saving it",
		Long: `Send questionnaire selections to the service and print the total,
the priority tier and its recommendations.

Example:
  empa-cli score --set habla=2,deglucion=3,marcha=1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opts.client().Score(cmd.Context(), selections)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printScore(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringToIntVar(&selections, "set", nil, "Selections as group=value pairs")
	return cmd
}

func newAssessCmd(opts *rootOptions) *cobra.Command {
	var req service.SaveAssessmentRequest
	var birthDate string

	cmd := &cobra.Command{
		Use:   "assess <patient-id>",
		Short: "Save a scored assessment for a patient",
		Long: `Score the questionnaire and store it as an assessment together with the
patient's currently selected anatomical areas.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := domain.ParseDate(birthDate)
			if err != nil {
				return err
			}
			req.Patient.BirthDate = d
			a, err := opts.client().SaveAssessment(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assessment %s saved for patient %s\n", a.ID, a.PatientID)
			printScore(cmd.OutOrStdout(), &a.Score)
			return nil
		},
	}
	cmd.Flags().StringToIntVar(&req.Selections, "set", nil, "Selections as group=value pairs")
	cmd.Flags().StringVar(&req.Patient.Name, "name", "", "Patient name")
	cmd.Flags().StringVar(&req.Patient.DocumentID, "document", "", "Patient document ID")
	cmd.Flags().StringVar(&birthDate, "birth-date", "", "Patient birth date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Patient.Evaluator, "evaluator", "", "Evaluator name")
	cmd.Flags().StringVar(&req.Patient.Notes, "notes", "", "Free-text notes")
	return cmd
}

func printScore(w io.Writer, res *domain.ScoreResult) {
	fmt.Fprintf(w, "Total: %d (%s)\n", res.Total, res.Scheme)
	fmt.Fprintf(w, "%s\n", scoring.TierLabel(res.Tier))
	if res.OutOfRange {
		fmt.Fprintln(w, "WARNING: total outside the tier table, review manually")
	}
	if len(res.Recommendations) > 0 {
		fmt.Fprintln(w, "Recomendaciones:")
		fmt.Fprintln(w, "  - "+strings.Join(res.Recommendations, "\n  - "))
	}
}
