// Package strategy builds the timeline-bucketed remediation plan from
// derived gaps and the vendor catalog.
package strategy

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/clearcomply/assess-cli/internal/config"
	"github.com/clearcomply/assess-cli/internal/model"
)

// VendorRecommendation is a vendor ranked within a timeline bucket.
type VendorRecommendation struct {
	VendorID    string  `json:"vendor_id"`
	Name        string  `json:"name"`
	GapsCovered int     `json:"gaps_covered"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// TimelineBucket groups the gaps falling into one remediation window.
type TimelineBucket struct {
	Gaps               []model.Gap               `json:"gaps"`
	GapCount           int                       `json:"gap_count"`
	EffortDistribution map[model.EffortRange]int `json:"effort_distribution"`
	EstimatedCostRange string                    `json:"estimated_cost_range"`
	TopVendors         []VendorRecommendation    `json:"top_vendors"`
}

// Matrix is the three-window remediation plan. Derived, not persisted;
// rebuilding from the same gap set yields identical contents.
type Matrix struct {
	Immediate TimelineBucket `json:"immediate"`
	NearTerm  TimelineBucket `json:"near_term"`
	Strategic TimelineBucket `json:"strategic"`
}

// costPrinter renders bucket totals with thousands grouping, matching the
// midpoint table the UI displays.
var costPrinter = message.NewPrinter(language.English)

// Build buckets gaps by priority into the three timeline windows and
// aggregates effort, cost, and vendor recommendations per bucket.
func Build(gaps []model.Gap, vendors []model.Vendor, cfg config.ScoringConfig) Matrix {
	var immediate, nearTerm, strategic []model.Gap
	for _, g := range gaps {
		switch {
		case g.Priority >= cfg.ImmediateMinPriority:
			immediate = append(immediate, g)
		case g.Priority >= cfg.NearTermMinPriority:
			nearTerm = append(nearTerm, g)
		default:
			strategic = append(strategic, g)
		}
	}

	return Matrix{
		Immediate: buildBucket(immediate, vendors, cfg.TopVendorsPerBucket),
		NearTerm:  buildBucket(nearTerm, vendors, cfg.TopVendorsPerBucket),
		Strategic: buildBucket(strategic, vendors, cfg.TopVendorsPerBucket),
	}
}

func buildBucket(gaps []model.Gap, vendors []model.Vendor, topN int) TimelineBucket {
	// Deterministic gap order inside the bucket: priority desc, then
	// priority score desc, then category asc.
	sorted := make([]model.Gap, len(gaps))
	copy(sorted, gaps)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		if sorted[i].PriorityScore != sorted[j].PriorityScore {
			return sorted[i].PriorityScore > sorted[j].PriorityScore
		}
		return sorted[i].Category < sorted[j].Category
	})

	effort := make(map[model.EffortRange]int)
	var costTotal int64
	for _, g := range sorted {
		if g.EstimatedEffort != "" {
			effort[g.EstimatedEffort]++
		}
		// Unknown cost ranges are left out of the total rather than
		// counted as zero-cost work.
		if mid, ok := g.EstimatedCost.Midpoint(); ok {
			costTotal += mid
		}
	}

	return TimelineBucket{
		Gaps:               sorted,
		GapCount:           len(sorted),
		EffortDistribution: effort,
		EstimatedCostRange: formatCost(costTotal),
		TopVendors:         topVendors(sorted, vendors, topN),
	}
}

// formatCost renders a midpoint sum as the human string shown in reports.
func formatCost(total int64) string {
	if total == 0 {
		return "$0"
	}
	return costPrinter.Sprintf("~$%d", total)
}

// topVendors ranks vendors by the number of bucket gaps whose category they
// cover, ties broken by rating descending then review count descending then
// name ascending.
func topVendors(gaps []model.Gap, vendors []model.Vendor, topN int) []VendorRecommendation {
	if len(gaps) == 0 || topN <= 0 {
		return nil
	}

	var recs []VendorRecommendation
	for _, v := range vendors {
		covered := 0
		for _, g := range gaps {
			if v.Covers(g.Category) {
				covered++
			}
		}
		if covered == 0 {
			continue
		}
		recs = append(recs, VendorRecommendation{
			VendorID:    v.ID,
			Name:        v.Name,
			GapsCovered: covered,
			Rating:      v.Rating,
			ReviewCount: v.ReviewCount,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].GapsCovered != recs[j].GapsCovered {
			return recs[i].GapsCovered > recs[j].GapsCovered
		}
		if recs[i].Rating != recs[j].Rating {
			return recs[i].Rating > recs[j].Rating
		}
		if recs[i].ReviewCount != recs[j].ReviewCount {
			return recs[i].ReviewCount > recs[j].ReviewCount
		}
		return recs[i].Name < recs[j].Name
	})

	if len(recs) > topN {
		recs = recs[:topN]
	}
	return recs
}
