package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearcomply/assess-cli/internal/gap"
)

var (
	gapsAssessmentID string
	gapsSave         bool
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Derive gaps and risks for an assessment",
	Long: `Derive Gap and Risk records from an assessment's below-threshold
answers. Answers scoring at or below the configured threshold (default 2
on the 0-5 scale) become gap candidates, grouped by category, with
severity escalated for high regulatory-priority sections.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		a, err := s.GetAssessment(ctx, gapsAssessmentID)
		if err != nil {
			return err
		}

		gaps, risks := gap.Derive(a.ID, a.Answers, cfg.Scoring)
		if len(gaps) == 0 {
			fmt.Fprintln(os.Stdout, "no gaps: all answers above threshold")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-24s  %-8s  %3s  %-16s  %-6s\n", "CATEGORY", "SEVERITY", "PRI", "COST", "EFFORT")
		for _, g := range gaps {
			fmt.Fprintf(os.Stdout, "%-24s  %-8s  %3d  %-16s  %-6s\n",
				g.Category, g.Severity, g.Priority, g.EstimatedCost, g.EstimatedEffort)
		}
		if avg, ok := gap.AverageControlEffectiveness(risks); ok {
			fmt.Fprintf(os.Stdout, "\naverage control effectiveness: %.0f%%\n", avg)
		}

		if gapsSave {
			if err := s.ReplaceFindings(ctx, a.ID, gaps, risks); err != nil {
				return eris.Wrapf(err, "save findings %s", a.ID)
			}
		}

		zap.L().Info("gaps derived",
			zap.String("assessment_id", a.ID),
			zap.Int("gaps", len(gaps)),
			zap.Int("risks", len(risks)),
			zap.Bool("saved", gapsSave),
		)
		return nil
	},
}

func init() {
	f := gapsCmd.Flags()
	f.StringVar(&gapsAssessmentID, "assessment", "", "assessment ID (required)")
	f.BoolVar(&gapsSave, "save", false, "persist derived gaps and risks")
	_ = gapsCmd.MarkFlagRequired("assessment")
	rootCmd.AddCommand(gapsCmd)
}
