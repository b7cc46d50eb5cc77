package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearcomply/assess-cli/internal/model"
	"github.com/clearcomply/assess-cli/internal/scoring"
	"github.com/clearcomply/assess-cli/internal/store"
)

var (
	scoreAssessmentID string
	scoreSave         bool
	scoreSections     bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute assessment risk scores",
	Long: `Compute the 0-100 risk score for analyzed assessments.

Each answered question contributes rawScore x questionWeight x
sectionWeight x evidenceTierMultiplier; the assessment score is the
weighted average rescaled onto 0-100. Skipped questions are excluded
from both sides of the division.

Examples:
  # Score one assessment and persist the result
  score --assessment a1b2c3 --save

  # Dry-run scoring for all in-progress assessments
  score

  # Show the per-section breakdown
  score --assessment a1b2c3 --sections`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreAssessmentID, "assessment", "", "score a single assessment by ID")
	f.BoolVar(&scoreSave, "save", false, "mark assessments COMPLETED and persist scores")
	f.BoolVar(&scoreSections, "sections", false, "print per-section score breakdown")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var assessments []model.Assessment
	if scoreAssessmentID != "" {
		a, err := s.GetAssessment(ctx, scoreAssessmentID)
		if err != nil {
			return err
		}
		assessments = []model.Assessment{*a}
	} else {
		assessments, err = s.ListAssessments(ctx, store.AssessmentFilter{Status: model.StatusInProgress})
		if err != nil {
			return err
		}
	}

	if len(assessments) == 0 {
		fmt.Fprintln(os.Stdout, "no assessments to score")
		return nil
	}

	configHash := cfg.Scoring.Hash()
	for _, a := range assessments {
		score, err := scoring.AssessmentRiskScore(a.Answers)
		if err != nil {
			return eris.Wrapf(err, "score assessment %s", a.ID)
		}

		fmt.Fprintf(os.Stdout, "%-36s  %-24s  %6.2f\n", a.ID, a.OrgName, score)

		if scoreSections {
			sections, err := scoring.SectionScores(a.Answers)
			if err != nil {
				return eris.Wrapf(err, "section scores %s", a.ID)
			}
			for _, sec := range sections {
				fmt.Fprintf(os.Stdout, "  %-34s  w=%.1f  %6.2f  (%d answered)\n",
					sec.SectionID, sec.Weight, sec.Score, sec.Answered)
			}
		}

		if scoreSave {
			if err := s.CompleteWithScore(ctx, a.ID, score, configHash); err != nil {
				return err
			}
		}

		zap.L().Info("assessment scored",
			zap.String("assessment_id", a.ID),
			zap.Float64("risk_score", score),
			zap.Bool("saved", scoreSave),
		)
	}

	return nil
}
