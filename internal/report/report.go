// Package report renders match rankings and strategy matrices to CSV and
// XLSX for sharing outside the CLI.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/clearcomply/assess-cli/internal/match"
	"github.com/clearcomply/assess-cli/internal/model"
	"github.com/clearcomply/assess-cli/internal/strategy"
)

var matchHeader = []string{
	"vendor", "total_score", "quality",
	"risk_area_coverage", "size_fit", "geo_coverage", "price_score",
	"priority_boost", "feature_boost", "deployment_boost", "speed_boost",
	"reasons",
}

func matchRow(m match.VendorMatch) []string {
	reasons := ""
	for i, r := range m.MatchReasons {
		if i > 0 {
			reasons += "; "
		}
		reasons += r
	}
	return []string{
		m.VendorName,
		strconv.FormatFloat(m.TotalScore, 'f', 2, 64),
		m.Quality,
		strconv.FormatFloat(m.Base.RiskAreaCoverage, 'f', 2, 64),
		strconv.FormatFloat(m.Base.SizeFit, 'f', 2, 64),
		strconv.FormatFloat(m.Base.GeoCoverage, 'f', 2, 64),
		strconv.FormatFloat(m.Base.PriceScore, 'f', 2, 64),
		strconv.FormatFloat(m.Boost.TopPriorityBoost, 'f', 2, 64),
		strconv.FormatFloat(m.Boost.FeatureBoost, 'f', 2, 64),
		strconv.FormatFloat(m.Boost.DeploymentBoost, 'f', 2, 64),
		strconv.FormatFloat(m.Boost.SpeedBoost, 'f', 2, 64),
		reasons,
	}
}

// WriteMatchesCSV writes the ranked match list as CSV.
func WriteMatchesCSV(w io.Writer, matches []match.VendorMatch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(matchHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, m := range matches {
		if err := cw.Write(matchRow(m)); err != nil {
			return eris.Wrapf(err, "report: write csv row %s", m.VendorName)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteMatchesXLSX writes the ranked match list as an XLSX workbook.
func WriteMatchesXLSX(path string, matches []match.VendorMatch) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Vendor Matches")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range matchHeader {
		hr.AddCell().Value = h
	}
	for _, m := range matches {
		row := sheet.AddRow()
		for _, v := range matchRow(m) {
			row.AddCell().Value = v
		}
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

var matrixHeader = []string{
	"window", "gap_count", "estimated_cost_range",
	"effort_small", "effort_medium", "effort_large",
	"categories", "top_vendors",
}

func bucketRow(window string, b strategy.TimelineBucket) []string {
	categories := ""
	for i, g := range b.Gaps {
		if i > 0 {
			categories += "; "
		}
		categories += fmt.Sprintf("%s (%s)", g.Category, g.Severity)
	}
	vendors := ""
	for i, v := range b.TopVendors {
		if i > 0 {
			vendors += "; "
		}
		vendors += v.Name
	}
	return []string{
		window,
		strconv.Itoa(b.GapCount),
		b.EstimatedCostRange,
		strconv.Itoa(b.EffortDistribution[model.EffortSmall]),
		strconv.Itoa(b.EffortDistribution[model.EffortMedium]),
		strconv.Itoa(b.EffortDistribution[model.EffortLarge]),
		categories,
		vendors,
	}
}

// WriteMatrixCSV writes the strategy matrix as CSV, one row per window.
func WriteMatrixCSV(w io.Writer, m strategy.Matrix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(matrixHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, row := range [][]string{
		bucketRow("immediate", m.Immediate),
		bucketRow("near_term", m.NearTerm),
		bucketRow("strategic", m.Strategic),
	} {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write matrix row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteMatrixXLSX writes the strategy matrix as an XLSX workbook.
func WriteMatrixXLSX(path string, m strategy.Matrix) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Strategy Matrix")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range matrixHeader {
		hr.AddCell().Value = h
	}
	for _, row := range [][]string{
		bucketRow("immediate", m.Immediate),
		bucketRow("near_term", m.NearTerm),
		bucketRow("strategic", m.Strategic),
	} {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().Value = v
		}
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}
