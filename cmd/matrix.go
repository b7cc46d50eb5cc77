package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/clearcomply/assess-cli/internal/report"
	"github.com/clearcomply/assess-cli/internal/strategy"
)

var (
	matrixAssessmentID string
	matrixFormat       string
	matrixOutput       string
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Build the remediation strategy matrix",
	Long: `Bucket an assessment's gaps into immediate (priority 8-10),
near-term (4-7), and strategic (1-3) remediation windows, with effort
distribution, estimated cost, and top vendor recommendations per window.

Gaps must be derived and saved first (see "gaps --save").`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		gaps, err := s.ListGaps(ctx, matrixAssessmentID)
		if err != nil {
			return err
		}
		vendors, err := s.ListVendors(ctx)
		if err != nil {
			return err
		}

		m := strategy.Build(gaps, vendors, cfg.Scoring)

		switch matrixFormat {
		case "table", "":
			printBucket("IMMEDIATE (0-3 months)", m.Immediate)
			printBucket("NEAR-TERM (3-12 months)", m.NearTerm)
			printBucket("STRATEGIC (12+ months)", m.Strategic)
			return nil
		case "csv":
			w, closeFn, err := outputWriter(matrixOutput)
			if err != nil {
				return err
			}
			defer closeFn()
			return report.WriteMatrixCSV(w, m)
		case "xlsx":
			if matrixOutput == "" {
				return eris.New("matrix: --output is required for xlsx format")
			}
			return report.WriteMatrixXLSX(matrixOutput, m)
		default:
			return eris.Errorf("matrix: unknown format %q", matrixFormat)
		}
	},
}

func init() {
	f := matrixCmd.Flags()
	f.StringVar(&matrixAssessmentID, "assessment", "", "assessment ID (required)")
	f.StringVar(&matrixFormat, "format", "table", "output format: table, csv, or xlsx")
	f.StringVar(&matrixOutput, "output", "", "output file path (default: stdout)")
	_ = matrixCmd.MarkFlagRequired("assessment")
	rootCmd.AddCommand(matrixCmd)
}

func printBucket(title string, b strategy.TimelineBucket) {
	fmt.Fprintf(os.Stdout, "\n%s: %d gap(s), est. %s\n", title, b.GapCount, b.EstimatedCostRange)
	for _, g := range b.Gaps {
		fmt.Fprintf(os.Stdout, "  [%d] %-24s %-8s %s effort\n", g.Priority, g.Category, g.Severity, g.EstimatedEffort)
	}
	if len(b.TopVendors) > 0 {
		fmt.Fprint(os.Stdout, "  vendors:")
		for _, v := range b.TopVendors {
			fmt.Fprintf(os.Stdout, " %s (%d gaps, %.1f★)", v.Name, v.GapsCovered, v.Rating)
		}
		fmt.Fprintln(os.Stdout)
	}
}

// outputWriter returns a writer for the given path, or stdout when empty.
func outputWriter(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create %s", path)
	}
	return f, func() { f.Close() }, nil
}
