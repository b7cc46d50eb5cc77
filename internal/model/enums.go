package model

// Severity classifies how badly a compliance gap misses the mark.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// severityRank orders severities for comparison and tie-breaking.
// Higher rank means more severe.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the numeric rank of the severity; unknown values rank lowest.
func (s Severity) Rank() int { return severityRank[s] }

// Escalate raises the severity one band, capped at CRITICAL.
func (s Severity) Escalate() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	case SeverityHigh, SeverityCritical:
		return SeverityCritical
	}
	return s
}

// Likelihood is the 5-level probability rating of a risk materializing.
type Likelihood string

const (
	LikelihoodRare     Likelihood = "RARE"
	LikelihoodUnlikely Likelihood = "UNLIKELY"
	LikelihoodPossible Likelihood = "POSSIBLE"
	LikelihoodLikely   Likelihood = "LIKELY"
	LikelihoodCertain  Likelihood = "CERTAIN"
)

var likelihoodRank = map[Likelihood]int{
	LikelihoodRare:     1,
	LikelihoodUnlikely: 2,
	LikelihoodPossible: 3,
	LikelihoodLikely:   4,
	LikelihoodCertain:  5,
}

// Rank returns the 1-5 rank of the likelihood; unknown values rank 1.
func (l Likelihood) Rank() int {
	if r, ok := likelihoodRank[l]; ok {
		return r
	}
	return 1
}

// Impact is the 5-level consequence rating of a risk materializing.
type Impact string

const (
	ImpactNegligible   Impact = "NEGLIGIBLE"
	ImpactMinor        Impact = "MINOR"
	ImpactModerate     Impact = "MODERATE"
	ImpactSevere       Impact = "SEVERE"
	ImpactCatastrophic Impact = "CATASTROPHIC"
)

var impactRank = map[Impact]int{
	ImpactNegligible:   1,
	ImpactMinor:        2,
	ImpactModerate:     3,
	ImpactSevere:       4,
	ImpactCatastrophic: 5,
}

// Rank returns the 1-5 rank of the impact; unknown values rank 1.
func (i Impact) Rank() int {
	if r, ok := impactRank[i]; ok {
		return r
	}
	return 1
}

// RiskLevel is the heat-map color band of a risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor looks up the heat-map band for a likelihood/impact pair.
// The grid score is likelihoodRank * impactRank on the 5x5 matrix; the cut
// points drive report colors and must not drift: <5 LOW, 5-9 MEDIUM,
// 10-14 HIGH, >=15 CRITICAL.
func RiskLevelFor(l Likelihood, i Impact) RiskLevel {
	score := l.Rank() * i.Rank()
	switch {
	case score >= 15:
		return RiskCritical
	case score >= 10:
		return RiskHigh
	case score >= 5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CostRange buckets an estimated remediation or product cost.
type CostRange string

const (
	CostUnder10K    CostRange = "UNDER_10K"
	CostRange10K50K CostRange = "RANGE_10K_50K"
	Cost50K100K     CostRange = "RANGE_50K_100K"
	Cost100K250K    CostRange = "RANGE_100K_250K"
	CostOver250K    CostRange = "OVER_250K"
)

// costRangeMidpoints are the fixed midpoints used when summing bucket costs.
// The UI renders the same table; totals must agree with it exactly.
var costRangeMidpoints = map[CostRange]int64{
	CostUnder10K:    5_000,
	CostRange10K50K: 30_000,
	Cost50K100K:     75_000,
	Cost100K250K:    175_000,
	CostOver250K:    400_000,
}

// costRangeOrder ranks cost ranges for distance comparisons.
var costRangeOrder = map[CostRange]int{
	CostUnder10K:    0,
	CostRange10K50K: 1,
	Cost50K100K:     2,
	Cost100K250K:    3,
	CostOver250K:    4,
}

// Midpoint returns the fixed midpoint for the cost range, and false for an
// unknown or empty range. Unknown ranges are excluded from totals, not
// counted as zero.
func (c CostRange) Midpoint() (int64, bool) {
	m, ok := costRangeMidpoints[c]
	return m, ok
}

// Distance returns the absolute bucket distance between two cost ranges,
// and false when either side is unknown.
func (c CostRange) Distance(other CostRange) (int, bool) {
	a, ok := costRangeOrder[c]
	if !ok {
		return 0, false
	}
	b, ok := costRangeOrder[other]
	if !ok {
		return 0, false
	}
	if a > b {
		return a - b, true
	}
	return b - a, true
}

// EffortRange buckets the estimated remediation effort for a gap.
type EffortRange string

const (
	EffortSmall  EffortRange = "SMALL"
	EffortMedium EffortRange = "MEDIUM"
	EffortLarge  EffortRange = "LARGE"
)

// CompanySize segments an organization by headcount band.
type CompanySize string

const (
	SizeMicro      CompanySize = "MICRO"
	SizeSmall      CompanySize = "SMALL"
	SizeMedium     CompanySize = "MEDIUM"
	SizeLarge      CompanySize = "LARGE"
	SizeEnterprise CompanySize = "ENTERPRISE"
)

var companySizeOrder = map[CompanySize]int{
	SizeMicro:      0,
	SizeSmall:      1,
	SizeMedium:     2,
	SizeLarge:      3,
	SizeEnterprise: 4,
}

// Distance returns the absolute segment distance between two company sizes,
// and false when either side is unknown.
func (s CompanySize) Distance(other CompanySize) (int, bool) {
	a, ok := companySizeOrder[s]
	if !ok {
		return 0, false
	}
	b, ok := companySizeOrder[other]
	if !ok {
		return 0, false
	}
	if a > b {
		return a - b, true
	}
	return b - a, true
}

// AssessmentStatus tracks the assessment lifecycle.
type AssessmentStatus string

const (
	StatusDraft      AssessmentStatus = "DRAFT"
	StatusInProgress AssessmentStatus = "IN_PROGRESS"
	StatusCompleted  AssessmentStatus = "COMPLETED"
)

// Urgency expresses how quickly an organization needs a solution in place.
type Urgency string

const (
	UrgencyImmediate Urgency = "IMMEDIATE"
	UrgencyQuarter   Urgency = "THIS_QUARTER"
	UrgencyYear      Urgency = "THIS_YEAR"
	UrgencyFlexible  Urgency = "FLEXIBLE"
)

// MaxWeeks returns the implementation window implied by the urgency, and
// false when the urgency imposes no deadline.
func (u Urgency) MaxWeeks() (int, bool) {
	switch u {
	case UrgencyImmediate:
		return 4, true
	case UrgencyQuarter:
		return 12, true
	case UrgencyYear:
		return 52, true
	default:
		return 0, false
	}
}
