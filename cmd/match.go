package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearcomply/assess-cli/internal/match"
	"github.com/clearcomply/assess-cli/internal/model"
	"github.com/clearcomply/assess-cli/internal/report"
)

var (
	matchAssessmentID string
	matchLimit        int
	matchFormat       string
	matchOutput       string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank vendor solutions for an assessment",
	Long: `Score every cataloged vendor against an assessment's gaps and the
organization's stated priorities. Each vendor gets a 0-140 composite:
up to 100 base (risk-area coverage, size fit, geography, price) plus up
to 40 boost (ranked-priority, feature, deployment, and speed matches).

Examples:
  # Top 10 vendors as a table
  match --assessment a1b2c3 --limit 10

  # Full ranking to a spreadsheet
  match --assessment a1b2c3 --format xlsx --output matches.xlsx`,
	RunE: runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchAssessmentID, "assessment", "", "assessment ID (required)")
	f.IntVar(&matchLimit, "limit", 0, "maximum number of results (0=all)")
	f.StringVar(&matchFormat, "format", "table", "output format: table, csv, or xlsx")
	f.StringVar(&matchOutput, "output", "", "output file path (default: stdout)")
	_ = matchCmd.MarkFlagRequired("assessment")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := s.GetAssessment(ctx, matchAssessmentID)
	if err != nil {
		return err
	}
	gaps, err := s.ListGaps(ctx, a.ID)
	if err != nil {
		return err
	}
	vendors, err := s.ListVendors(ctx)
	if err != nil {
		return err
	}
	prio, err := s.GetPriorities(ctx, a.OrgID)
	if err != nil {
		return err
	}
	if prio == nil {
		// No intake record: match on gaps alone with neutral priorities.
		prio = &model.OrganizationPriorities{OrgID: a.OrgID}
	}

	matches := match.Rank(gaps, *prio, vendors, cfg.Scoring)
	if matchLimit > 0 && len(matches) > matchLimit {
		matches = matches[:matchLimit]
	}

	zap.L().Info("vendors ranked",
		zap.String("assessment_id", a.ID),
		zap.Int("vendors", len(vendors)),
		zap.Int("returned", len(matches)),
	)

	switch matchFormat {
	case "table", "":
		fmt.Fprintf(os.Stdout, "%-28s  %6s  %-16s  %s\n", "VENDOR", "SCORE", "QUALITY", "TOP REASON")
		for _, m := range matches {
			reason := ""
			if len(m.MatchReasons) > 0 {
				reason = m.MatchReasons[0]
			}
			fmt.Fprintf(os.Stdout, "%-28s  %6.1f  %-16s  %s\n", m.VendorName, m.TotalScore, m.Quality, reason)
		}
		return nil
	case "csv":
		w, closeFn, err := outputWriter(matchOutput)
		if err != nil {
			return err
		}
		defer closeFn()
		return report.WriteMatchesCSV(w, matches)
	case "xlsx":
		if matchOutput == "" {
			return eris.New("match: --output is required for xlsx format")
		}
		return report.WriteMatchesXLSX(matchOutput, matches)
	default:
		return eris.Errorf("match: unknown format %q", matchFormat)
	}
}
