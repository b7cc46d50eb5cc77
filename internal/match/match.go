// Package match computes the composite 0-140 vendor fitness score pairing
// an assessment's gaps and organization priorities against vendor profiles.
package match

import (
	"fmt"
	"math"
	"sort"

	"github.com/clearcomply/assess-cli/internal/config"
	"github.com/clearcomply/assess-cli/internal/model"
)

// Quality labels for match tiers. Boundaries are inclusive at the lower
// bound of each tier.
const (
	QualityHighlyRelevant = "Highly Relevant"
	QualityGoodMatch      = "Good Match"
	QualityFairMatch      = "Fair Match"
)

// BaseScore holds the four independently capped fit components, summing to
// at most 100.
type BaseScore struct {
	RiskAreaCoverage float64 `json:"risk_area_coverage"` // 0-40
	SizeFit          float64 `json:"size_fit"`           // 0-20
	GeoCoverage      float64 `json:"geo_coverage"`       // 0-20
	PriceScore       float64 `json:"price_score"`        // 0-20
	Total            float64 `json:"total"`
}

// PriorityBoost holds the four boost components, summing to at most 40.
type PriorityBoost struct {
	TopPriorityBoost float64 `json:"top_priority_boost"` // 20/15/10/0
	FeatureBoost     float64 `json:"feature_boost"`      // 0-10
	DeploymentBoost  float64 `json:"deployment_boost"`   // 0-5
	SpeedBoost       float64 `json:"speed_boost"`        // 0-5
	Total            float64 `json:"total"`
}

// VendorMatch is the scored pairing of one vendor against one assessment.
type VendorMatch struct {
	VendorID     string        `json:"vendor_id"`
	VendorName   string        `json:"vendor_name"`
	Base         BaseScore     `json:"base"`
	Boost        PriorityBoost `json:"boost"`
	TotalScore   float64       `json:"total_score"` // 0-140
	Quality      string        `json:"quality"`
	MatchReasons []string      `json:"match_reasons"`
	Rating       float64       `json:"rating"`
}

// Score computes the match score for a single vendor. Pure and
// deterministic: identical inputs produce identical output, reasons
// included.
func Score(gaps []model.Gap, prio model.OrganizationPriorities, vendor model.Vendor, cfg config.ScoringConfig) VendorMatch {
	base := baseScore(gaps, prio, vendor)
	boost := priorityBoost(gaps, prio, vendor)

	total := base.Total + boost.Total
	m := VendorMatch{
		VendorID:   vendor.ID,
		VendorName: vendor.Name,
		Base:       base,
		Boost:      boost,
		TotalScore: round2(total),
		Quality:    qualityFor(total, cfg),
		Rating:     vendor.Rating,
	}
	m.MatchReasons = reasons(m, gaps, prio, vendor)
	return m
}

// Rank scores every vendor and sorts by total score descending, ties by
// rating descending then name ascending.
func Rank(gaps []model.Gap, prio model.OrganizationPriorities, vendors []model.Vendor, cfg config.ScoringConfig) []VendorMatch {
	matches := make([]VendorMatch, 0, len(vendors))
	for _, v := range vendors {
		matches = append(matches, Score(gaps, prio, v, cfg))
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].TotalScore != matches[j].TotalScore {
			return matches[i].TotalScore > matches[j].TotalScore
		}
		if matches[i].Rating != matches[j].Rating {
			return matches[i].Rating > matches[j].Rating
		}
		return matches[i].VendorName < matches[j].VendorName
	})
	return matches
}

func qualityFor(total float64, cfg config.ScoringConfig) string {
	switch {
	case total >= cfg.HighlyRelevantMin:
		return QualityHighlyRelevant
	case total >= cfg.GoodMatchMin:
		return QualityGoodMatch
	default:
		return QualityFairMatch
	}
}

func baseScore(gaps []model.Gap, prio model.OrganizationPriorities, vendor model.Vendor) BaseScore {
	b := BaseScore{
		RiskAreaCoverage: riskAreaCoverage(gaps, vendor),
		SizeFit:          sizeFit(prio.CompanySize, vendor),
		GeoCoverage:      geoCoverage(prio.Jurisdictions, vendor),
		PriceScore:       priceScore(prio.BudgetRange, vendor.PriceRange),
	}
	b.Total = round2(b.RiskAreaCoverage + b.SizeFit + b.GeoCoverage + b.PriceScore)
	return b
}

// riskAreaCoverage scales 0-40 with the fraction of the assessment's gap
// categories the vendor covers. No gaps means nothing to cover.
func riskAreaCoverage(gaps []model.Gap, vendor model.Vendor) float64 {
	if len(gaps) == 0 {
		return 0
	}
	covered := 0
	for _, g := range gaps {
		if vendor.Covers(g.Category) {
			covered++
		}
	}
	return round2(40 * float64(covered) / float64(len(gaps)))
}

// sizeFit awards 20 for an exact segment match, 10 for an adjacent
// segment, 0 otherwise. An unspecified organization size scores neutral.
func sizeFit(size model.CompanySize, vendor model.Vendor) float64 {
	if size == "" {
		return 10
	}
	best := math.MaxInt32
	for _, seg := range vendor.TargetSegments {
		if d, ok := size.Distance(seg); ok && d < best {
			best = d
		}
	}
	switch best {
	case 0:
		return 20
	case 1:
		return 10
	default:
		return 0
	}
}

// geoCoverage scales 0-20 with the fraction of the organization's
// jurisdictions the vendor serves. No stated jurisdictions scores neutral.
func geoCoverage(jurisdictions []string, vendor model.Vendor) float64 {
	if len(jurisdictions) == 0 {
		return 10
	}
	covered := 0
	for _, j := range jurisdictions {
		if vendor.CoversGeo(j) {
			covered++
		}
	}
	return round2(20 * float64(covered) / float64(len(jurisdictions)))
}

// priceScore is an inverse function of the bucket distance between the
// organization's budget and the vendor's price range. Unknown on either
// side scores neutral.
func priceScore(budget, price model.CostRange) float64 {
	d, ok := budget.Distance(price)
	if !ok {
		return 10
	}
	switch d {
	case 0:
		return 20
	case 1:
		return 12
	case 2:
		return 6
	default:
		return 0
	}
}

func priorityBoost(gaps []model.Gap, prio model.OrganizationPriorities, vendor model.Vendor) PriorityBoost {
	b := PriorityBoost{
		TopPriorityBoost: topPriorityBoost(prio.RankedPriorities, vendor),
		FeatureBoost:     featureBoost(prio.MustHaveFeatures, vendor),
		DeploymentBoost:  deploymentBoost(prio.DeploymentPreference, vendor),
		SpeedBoost:       speedBoost(prio.ImplementationUrgency, vendor),
	}
	b.Total = round2(b.TopPriorityBoost + b.FeatureBoost + b.DeploymentBoost + b.SpeedBoost)
	return b
}

// topPriorityBoost awards fixed points for covering the organization's #1,
// #2, or #3 ranked priority. The best matching rank wins; the values are a
// fixed table, not a formula.
func topPriorityBoost(ranked []string, vendor model.Vendor) float64 {
	points := []float64{20, 15, 10}
	for i, category := range ranked {
		if i >= len(points) {
			break
		}
		if vendor.Covers(category) {
			return points[i]
		}
	}
	return 0
}

// featureBoost scales 0-10 with must-have feature coverage.
func featureBoost(mustHave []string, vendor model.Vendor) float64 {
	if len(mustHave) == 0 {
		return 0
	}
	covered := 0
	for _, f := range mustHave {
		if vendor.HasFeature(f) {
			covered++
		}
	}
	return round2(10 * float64(covered) / float64(len(mustHave)))
}

// deploymentBoost awards 5 when the vendor offers the preferred
// deployment model.
func deploymentBoost(preference string, vendor model.Vendor) float64 {
	if preference == "" || !vendor.SupportsDeployment(preference) {
		return 0
	}
	return 5
}

// speedBoost awards 5 when the vendor's implementation timeline fits the
// organization's urgency window, 3 when it fits with up to 50% overrun.
func speedBoost(urgency model.Urgency, vendor model.Vendor) float64 {
	maxWeeks, ok := urgency.MaxWeeks()
	if !ok || vendor.ImplementationWeeks <= 0 {
		return 0
	}
	switch {
	case vendor.ImplementationWeeks <= maxWeeks:
		return 5
	case float64(vendor.ImplementationWeeks) <= float64(maxWeeks)*1.5:
		return 3
	default:
		return 0
	}
}

// reasons builds the ordered human-readable explanation list. Highest-weight
// factors come first so UI presentation order is stable: priority match,
// gap coverage, feature, budget, size, geography.
func reasons(m VendorMatch, gaps []model.Gap, prio model.OrganizationPriorities, vendor model.Vendor) []string {
	var out []string

	if m.Boost.TopPriorityBoost > 0 {
		rank := map[float64]int{20: 1, 15: 2, 10: 3}[m.Boost.TopPriorityBoost]
		out = append(out, fmt.Sprintf("Covers your #%d priority area (%s)", rank, prio.RankedPriorities[rank-1]))
	}
	if m.Base.RiskAreaCoverage > 0 {
		covered := 0
		for _, g := range gaps {
			if vendor.Covers(g.Category) {
				covered++
			}
		}
		out = append(out, fmt.Sprintf("Addresses %d of %d identified gap areas", covered, len(gaps)))
	}
	if m.Boost.FeatureBoost > 0 {
		out = append(out, "Provides must-have features you selected")
	}
	if m.Base.PriceScore >= 12 {
		out = append(out, "Pricing aligns with your stated budget")
	}
	if m.Base.SizeFit >= 20 {
		out = append(out, "Built for organizations of your size")
	}
	if m.Base.GeoCoverage >= 20 {
		out = append(out, "Covers all of your jurisdictions")
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
