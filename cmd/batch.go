package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearcomply/assess-cli/internal/gap"
	"github.com/clearcomply/assess-cli/internal/model"
	"github.com/clearcomply/assess-cli/internal/scoring"
	"github.com/clearcomply/assess-cli/internal/store"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score and derive findings for all pending assessments",
	Long: `Score every in-progress assessment, derive its gaps and risks, and
persist the results. Assessments are processed concurrently; each one is
an independent pure computation, so a failure in one is logged and does
not block the others.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		assessments, err := s.ListAssessments(ctx, store.AssessmentFilter{
			Status: model.StatusInProgress,
			Limit:  batchLimit,
		})
		if err != nil {
			return err
		}
		if len(assessments) == 0 {
			fmt.Fprintln(os.Stdout, "no pending assessments")
			return nil
		}

		configHash := cfg.Scoring.Hash()
		var scored, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentAssessments)
		for _, a := range assessments {
			g.Go(func() error {
				if err := processAssessment(gctx, s, a, configHash); err != nil {
					// Isolate per-assessment failures; the batch continues.
					failed.Add(1)
					zap.L().Error("batch: assessment failed",
						zap.String("assessment_id", a.ID),
						zap.Error(err),
					)
					return nil
				}
				scored.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int64("scored", scored.Load()),
			zap.Int64("failed", failed.Load()),
		)
		fmt.Fprintf(os.Stdout, "scored %d assessment(s), %d failed\n", scored.Load(), failed.Load())
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of assessments to process")
	rootCmd.AddCommand(batchCmd)
}

func processAssessment(ctx context.Context, s store.Store, a model.Assessment, configHash string) error {
	score, err := scoring.AssessmentRiskScore(a.Answers)
	if err != nil {
		return err
	}

	gaps, risks := gap.Derive(a.ID, a.Answers, cfg.Scoring)
	if err := s.ReplaceFindings(ctx, a.ID, gaps, risks); err != nil {
		return err
	}

	return s.CompleteWithScore(ctx, a.ID, score, configHash)
}
