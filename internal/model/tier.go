package model

// EvidenceTier classifies the confidence of a piece of supporting evidence.
// Tier 2 (system-generated) is the strongest, tier 0 (self-declared) the
// weakest. Tiers are assigned at ingestion time and never mutated;
// re-classification produces a new value.
type EvidenceTier string

const (
	Tier0 EvidenceTier = "TIER_0" // self-declared
	Tier1 EvidenceTier = "TIER_1" // policy document
	Tier2 EvidenceTier = "TIER_2" // system-generated
)

// tierRank orders tiers by confidence. Higher rank means stronger evidence.
var tierRank = map[EvidenceTier]int{
	Tier0: 0,
	Tier1: 1,
	Tier2: 2,
}

// tierMultipliers maps each tier to its scoring multiplier.
var tierMultipliers = map[EvidenceTier]float64{
	Tier0: 0.6,
	Tier1: 0.8,
	Tier2: 1.0,
}

// Multiplier returns the scoring multiplier for the tier. Unknown or empty
// tiers fall back to the tier-0 multiplier: unclassified evidence is treated
// as the weakest, never rejected.
func (t EvidenceTier) Multiplier() float64 {
	if m, ok := tierMultipliers[t]; ok {
		return m
	}
	return tierMultipliers[Tier0]
}

// ParseEvidenceTier converts an externally supplied string (e.g. from JSON or
// a CSV import) into an EvidenceTier. Unrecognized values degrade to Tier0.
func ParseEvidenceTier(s string) EvidenceTier {
	t := EvidenceTier(s)
	if _, ok := tierRank[t]; ok {
		return t
	}
	return Tier0
}

// BestTier returns the highest-confidence tier present in the list.
// An empty list yields Tier0.
func BestTier(tiers []EvidenceTier) EvidenceTier {
	best := Tier0
	for _, t := range tiers {
		if tierRank[t] > tierRank[best] {
			best = t
		}
	}
	return best
}
