package scoring

import (
	"math"
	"sort"

	"github.com/clearcomply/assess-cli/internal/model"
)

// rawScoreMax is the upper bound of the per-answer evidence score scale.
const rawScoreMax = 5.0

// WeightedAnswer pairs an answer with its computed contribution to the
// assessment score. Consumed by the gap deriver and by reports that need
// the per-question breakdown.
type WeightedAnswer struct {
	Answer       model.Answer `json:"answer"`
	Weight       float64      `json:"weight"`       // questionWeight * sectionWeight
	Contribution float64      `json:"contribution"` // rawScore * weight * tier multiplier
}

// WeightAnswers computes the weighted contribution for every answered
// question. Skipped answers are excluded entirely: they must not count as
// zero in either the numerator or the denominator.
func WeightAnswers(answers []model.Answer) []WeightedAnswer {
	out := make([]WeightedAnswer, 0, len(answers))
	for _, a := range answers {
		if a.Skipped {
			continue
		}
		w := a.QuestionWeight * a.SectionWeight
		out = append(out, WeightedAnswer{
			Answer:       a,
			Weight:       w,
			Contribution: a.Score * w * a.EvidenceTier.Multiplier(),
		})
	}
	return out
}

// AssessmentRiskScore produces the 0-100 risk score for an assessment from
// its answers: the tier-adjusted weighted average of raw scores on the 0-5
// scale, rescaled onto 0-100.
//
// The formula is kept explicit rather than shortcut through per-section
// averages: the section weight structure can legitimately push two
// assessments with near-identical raw answer averages tens of points apart,
// and that divergence must stay inspectable.
func AssessmentRiskScore(answers []model.Answer) (float64, error) {
	weighted := WeightAnswers(answers)

	values := make([]float64, len(weighted))
	weights := make([]float64, len(weighted))
	for i, wa := range weighted {
		// The tier multiplier scales the value, not the weight: weak
		// evidence drags the score down without shrinking the question's
		// share of the total.
		values[i] = wa.Answer.Score * wa.Answer.EvidenceTier.Multiplier()
		weights[i] = wa.Weight
	}

	avg, err := WeightedAverage(values, weights)
	if err != nil {
		return 0, err
	}

	score := ScaleScore(avg, 0, rawScoreMax, 0, 100)
	return math.Round(score*100) / 100, nil
}

// SectionScore is the per-section breakdown of an assessment score.
type SectionScore struct {
	SectionID string  `json:"section_id"`
	Weight    float64 `json:"weight"`
	Score     float64 `json:"score"` // 0-100
	Answered  int     `json:"answered"`
}

// SectionScores computes a 0-100 score per section, for report drill-down.
// Sections are returned in section-ID order for reproducible output.
func SectionScores(answers []model.Answer) ([]SectionScore, error) {
	type acc struct {
		values  []float64
		weights []float64
		weight  float64
	}
	bySection := make(map[string]*acc)
	for _, a := range answers {
		if a.Skipped {
			continue
		}
		s, ok := bySection[a.SectionID]
		if !ok {
			s = &acc{weight: a.SectionWeight}
			bySection[a.SectionID] = s
		}
		s.values = append(s.values, a.Score*a.EvidenceTier.Multiplier())
		s.weights = append(s.weights, a.QuestionWeight)
	}

	ids := make([]string, 0, len(bySection))
	for id := range bySection {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]SectionScore, 0, len(ids))
	for _, id := range ids {
		s := bySection[id]
		avg, err := WeightedAverage(s.values, s.weights)
		if err != nil {
			return nil, err
		}
		out = append(out, SectionScore{
			SectionID: id,
			Weight:    s.weight,
			Score:     math.Round(ScaleScore(avg, 0, rawScoreMax, 0, 100)*100) / 100,
			Answered:  len(s.values),
		})
	}
	return out, nil
}
