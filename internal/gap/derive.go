// Package gap derives Gap and Risk records from below-threshold answers.
package gap

import (
	"fmt"
	"math"
	"sort"

	"github.com/clearcomply/assess-cli/internal/config"
	"github.com/clearcomply/assess-cli/internal/model"
)

// severityForScore maps a raw answer score band to a gap severity.
// Scores above the gap threshold never reach this function.
func severityForScore(score float64) model.Severity {
	switch {
	case score < 1:
		return model.SeverityCritical
	case score < 2:
		return model.SeverityHigh
	case score < 3:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// priorityFor computes the 1-10 remediation priority from severity and the
// category's regulatory priority. Monotonic in both inputs; a failing
// foundational question always pins the category to 10.
func priorityFor(sev model.Severity, regPriority int, foundationalFailure bool) int {
	if foundationalFailure {
		return 10
	}
	base := 2 + sev.Rank()*2 // LOW 2, MEDIUM 4, HIGH 6, CRITICAL 8
	switch {
	case regPriority >= 8:
		base += 2
	case regPriority >= 5:
		base++
	}
	if base > 10 {
		base = 10
	}
	if base < 1 {
		base = 1
	}
	return base
}

// costForSeverity estimates remediation cost from severity and the number
// of deficient answers in the category.
func costForSeverity(sev model.Severity, answers int) model.CostRange {
	switch sev {
	case model.SeverityCritical:
		if answers > 2 {
			return model.CostOver250K
		}
		return model.Cost100K250K
	case model.SeverityHigh:
		if answers > 2 {
			return model.Cost100K250K
		}
		return model.Cost50K100K
	case model.SeverityMedium:
		return model.CostRange10K50K
	default:
		return model.CostUnder10K
	}
}

// effortForSeverity estimates remediation effort from severity and the
// number of deficient answers in the category.
func effortForSeverity(sev model.Severity, answers int) model.EffortRange {
	switch {
	case sev == model.SeverityCritical || answers > 3:
		return model.EffortLarge
	case sev == model.SeverityHigh || answers > 1:
		return model.EffortMedium
	default:
		return model.EffortSmall
	}
}

// riskProfile maps gap severity onto the likelihood/impact pair used for
// the heat-map lookup.
func riskProfile(sev model.Severity) (model.Likelihood, model.Impact) {
	switch sev {
	case model.SeverityCritical:
		return model.LikelihoodLikely, model.ImpactCatastrophic
	case model.SeverityHigh:
		return model.LikelihoodPossible, model.ImpactSevere
	case model.SeverityMedium:
		return model.LikelihoodPossible, model.ImpactModerate
	default:
		return model.LikelihoodUnlikely, model.ImpactMinor
	}
}

// candidate accumulates below-threshold answers for one category.
type candidate struct {
	category            string
	worstScore          float64
	scoreSum            float64
	count               int
	regPriority         int
	foundationalFailure bool
	tier2Count          int
}

// Derive turns below-threshold answers into Gap and Risk records, one pair
// per deficient category. An answer set with no below-threshold answers
// yields empty slices.
//
// Output ordering is deterministic for reproducible reports: priority
// descending, then severity descending, then category ascending.
func Derive(assessmentID string, answers []model.Answer, cfg config.ScoringConfig) ([]model.Gap, []model.Risk) {
	byCategory := make(map[string]*candidate)
	for _, a := range answers {
		if a.Skipped || a.Score > cfg.GapScoreThreshold {
			continue
		}
		c, ok := byCategory[a.CategoryTag]
		if !ok {
			c = &candidate{category: a.CategoryTag, worstScore: a.Score}
			byCategory[a.CategoryTag] = c
		}
		if a.Score < c.worstScore {
			c.worstScore = a.Score
		}
		if a.RegulatoryPriority > c.regPriority {
			c.regPriority = a.RegulatoryPriority
		}
		if a.Foundational && a.Score == 0 {
			c.foundationalFailure = true
		}
		if a.EvidenceTier == model.Tier2 {
			c.tier2Count++
		}
		c.scoreSum += a.Score
		c.count++
	}

	if len(byCategory) == 0 {
		return nil, nil
	}

	gaps := make([]model.Gap, 0, len(byCategory))
	risks := make([]model.Risk, 0, len(byCategory))
	for _, c := range byCategory {
		sev := severityForScore(c.worstScore)
		if c.regPriority >= cfg.RegulatoryEscalationMin {
			sev = sev.Escalate()
		}
		prio := priorityFor(sev, c.regPriority, c.foundationalFailure)

		gaps = append(gaps, model.Gap{
			AssessmentID:    assessmentID,
			Category:        c.category,
			Severity:        sev,
			Priority:        prio,
			PriorityScore:   priorityScore(c, sev),
			EstimatedCost:   costForSeverity(sev, c.count),
			EstimatedEffort: effortForSeverity(sev, c.count),
			Foundational:    c.foundationalFailure,
			AnswerCount:     c.count,
			Description:     fmt.Sprintf("%d control(s) scoring at or below %.0f in %s", c.count, cfg.GapScoreThreshold, c.category),
		})

		likelihood, impact := riskProfile(sev)
		risks = append(risks, model.Risk{
			AssessmentID:         assessmentID,
			Category:             c.category,
			Likelihood:           likelihood,
			Impact:               impact,
			RiskLevel:            model.RiskLevelFor(likelihood, impact),
			ControlEffectiveness: controlEffectiveness(c),
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Priority != gaps[j].Priority {
			return gaps[i].Priority > gaps[j].Priority
		}
		if gaps[i].Severity.Rank() != gaps[j].Severity.Rank() {
			return gaps[i].Severity.Rank() > gaps[j].Severity.Rank()
		}
		return gaps[i].Category < gaps[j].Category
	})
	sort.Slice(risks, func(i, j int) bool {
		return risks[i].Category < risks[j].Category
	})

	return gaps, risks
}

// priorityScore is the continuous companion to the integer priority, used
// to break ties inside a timeline bucket.
func priorityScore(c *candidate, sev model.Severity) float64 {
	mean := c.scoreSum / float64(c.count)
	raw := float64(sev.Rank()+1)*2.0 + float64(c.regPriority)/10.0 + (5.0-mean)/10.0
	return math.Round(raw*100) / 100
}

// controlEffectiveness derives an evidence-backed effectiveness percentage
// for the category, or nil when no system-generated evidence supports one.
// Nil risks are excluded from averages, not treated as zero.
func controlEffectiveness(c *candidate) *float64 {
	if c.tier2Count == 0 {
		return nil
	}
	mean := c.scoreSum / float64(c.count)
	eff := math.Round(mean / 5.0 * 100)
	return &eff
}

// AverageControlEffectiveness averages the known effectiveness values
// across risks, skipping nil entries. Returns 0 and false when no risk
// carries a value.
func AverageControlEffectiveness(risks []model.Risk) (float64, bool) {
	var sum float64
	var n int
	for _, r := range risks {
		if r.ControlEffectiveness == nil {
			continue
		}
		sum += *r.ControlEffectiveness
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
