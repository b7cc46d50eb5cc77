package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearcomply/assess-cli/internal/config"
	"github.com/clearcomply/assess-cli/internal/model"
)

func bucketGap(category string, priority int, cost model.CostRange, effort model.EffortRange) model.Gap {
	return model.Gap{
		Category:        category,
		Priority:        priority,
		EstimatedCost:   cost,
		EstimatedEffort: effort,
	}
}

func TestBuildBucketBoundaries(t *testing.T) {
	cfg := config.DefaultScoring()
	gaps := []model.Gap{
		bucketGap("a", 10, model.CostUnder10K, model.EffortSmall),
		bucketGap("b", 8, model.CostUnder10K, model.EffortSmall),
		bucketGap("c", 7, model.CostUnder10K, model.EffortSmall),
		bucketGap("d", 4, model.CostUnder10K, model.EffortSmall),
		bucketGap("e", 3, model.CostUnder10K, model.EffortSmall),
		bucketGap("f", 1, model.CostUnder10K, model.EffortSmall),
	}

	m := Build(gaps, nil, cfg)

	assert.Equal(t, 2, m.Immediate.GapCount, "priority 8-10 is immediate")
	assert.Equal(t, 2, m.NearTerm.GapCount, "priority 4-7 is near term")
	assert.Equal(t, 2, m.Strategic.GapCount, "priority 1-3 is strategic")
}

func TestBuildCostTotals(t *testing.T) {
	cfg := config.DefaultScoring()
	tests := []struct {
		name string
		gaps []model.Gap
		want string
	}{
		{"empty bucket", nil, "$0"},
		{"single midpoint", []model.Gap{
			bucketGap("a", 9, model.Cost50K100K, model.EffortMedium),
		}, "~$75,000"},
		{"midpoints sum with grouping", []model.Gap{
			bucketGap("a", 9, model.Cost100K250K, model.EffortLarge),
			bucketGap("b", 8, model.CostRange10K50K, model.EffortSmall),
		}, "~$205,000"},
		{"unknown cost excluded from total", []model.Gap{
			bucketGap("a", 9, model.Cost50K100K, model.EffortMedium),
			bucketGap("b", 8, model.CostRange(""), model.EffortSmall),
		}, "~$75,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Build(tt.gaps, nil, cfg)
			assert.Equal(t, tt.want, m.Immediate.EstimatedCostRange)
		})
	}
}

func TestBuildEffortDistribution(t *testing.T) {
	cfg := config.DefaultScoring()
	gaps := []model.Gap{
		bucketGap("a", 9, model.CostUnder10K, model.EffortLarge),
		bucketGap("b", 9, model.CostUnder10K, model.EffortLarge),
		bucketGap("c", 8, model.CostUnder10K, model.EffortSmall),
	}

	m := Build(gaps, nil, cfg)
	assert.Equal(t, map[model.EffortRange]int{
		model.EffortLarge: 2,
		model.EffortSmall: 1,
	}, m.Immediate.EffortDistribution)
}

func TestBuildGapOrderWithinBucket(t *testing.T) {
	cfg := config.DefaultScoring()
	gaps := []model.Gap{
		{Category: "bbb", Priority: 8, PriorityScore: 8.5},
		{Category: "aaa", Priority: 8, PriorityScore: 8.5},
		{Category: "ccc", Priority: 10, PriorityScore: 9.0},
		{Category: "ddd", Priority: 8, PriorityScore: 9.2},
	}

	m := Build(gaps, nil, cfg)
	got := make([]string, 0, len(m.Immediate.Gaps))
	for _, g := range m.Immediate.Gaps {
		got = append(got, g.Category)
	}
	assert.Equal(t, []string{"ccc", "ddd", "aaa", "bbb"}, got)
}

func TestTopVendors(t *testing.T) {
	cfg := config.DefaultScoring()
	gaps := []model.Gap{
		bucketGap("access-control", 9, model.CostUnder10K, model.EffortSmall),
		bucketGap("encryption", 9, model.CostUnder10K, model.EffortSmall),
		bucketGap("monitoring", 8, model.CostUnder10K, model.EffortSmall),
	}
	vendors := []model.Vendor{
		{ID: "v1", Name: "Argus", Categories: []string{"access-control"}, Rating: 4.0, ReviewCount: 10},
		{ID: "v2", Name: "Bastion", Categories: []string{"access-control", "encryption"}, Rating: 3.5, ReviewCount: 5},
		{ID: "v3", Name: "Cobalt", Categories: []string{"access-control"}, Rating: 4.0, ReviewCount: 30},
		{ID: "v4", Name: "Drift", Categories: []string{"access-control"}, Rating: 4.0, ReviewCount: 30},
		{ID: "v5", Name: "Echo", Categories: []string{"payments"}, Rating: 5.0, ReviewCount: 99},
	}

	m := Build(gaps, vendors, cfg)
	top := m.Immediate.TopVendors
	require.Len(t, top, 3, "capped at the configured top count")

	// Coverage first, then rating, then review count, then name; vendors
	// covering nothing never appear.
	assert.Equal(t, "v2", top[0].VendorID)
	assert.Equal(t, 2, top[0].GapsCovered)
	assert.Equal(t, "v3", top[1].VendorID)
	assert.Equal(t, "v4", top[2].VendorID)
}

func TestBuildDeterministic(t *testing.T) {
	cfg := config.DefaultScoring()
	gaps := []model.Gap{
		bucketGap("aaa", 9, model.Cost100K250K, model.EffortLarge),
		bucketGap("bbb", 5, model.CostRange10K50K, model.EffortMedium),
		bucketGap("ccc", 2, model.CostUnder10K, model.EffortSmall),
	}
	vendors := []model.Vendor{
		{ID: "v1", Name: "Argus", Categories: []string{"aaa", "bbb", "ccc"}, Rating: 4.2},
	}

	first := Build(gaps, vendors, cfg)
	second := Build(gaps, vendors, cfg)
	assert.Equal(t, first, second)
	assert.Equal(t, first.Immediate.EstimatedCostRange, second.Immediate.EstimatedCostRange)
}
