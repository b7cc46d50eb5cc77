package scoring

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedSum(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		weights []float64
		want    float64
		wantErr bool
	}{
		{"empty inputs", nil, nil, 0, false},
		{"empty values", nil, []float64{1, 2}, 0, false},
		{"empty weights", []float64{1, 2}, nil, 0, false},
		{"single pair", []float64{4}, []float64{2}, 8, false},
		{"multiple pairs", []float64{1, 2, 3}, []float64{3, 2, 1}, 10, false},
		{"zero weights", []float64{5, 5}, []float64{0, 0}, 0, false},
		{"length mismatch", []float64{1, 2, 3}, []float64{1, 2}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeightedSum(tt.values, tt.weights)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrLengthMismatch))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		weights []float64
		want    float64
		wantErr bool
	}{
		{"empty yields zero", nil, nil, 0, false},
		{"zero total weight yields zero", []float64{5}, []float64{0}, 0, false},
		{"uniform weights", []float64{2, 4}, []float64{1, 1}, 3, false},
		{"skewed weights", []float64{0, 5}, []float64{1, 4}, 4, false},
		{"length mismatch", []float64{1}, []float64{1, 2}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeightedAverage(tt.values, tt.weights)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestScaleScore(t *testing.T) {
	tests := []struct {
		name                   string
		score                  float64
		fromMin, fromMax       float64
		toMin, toMax           float64
		want                   float64
	}{
		{"midpoint", 3, 0, 5, 0, 100, 60},
		{"source min", 0, 0, 5, 0, 100, 0},
		{"source max", 5, 0, 5, 0, 100, 100},
		{"clamps below", -1, 0, 5, 0, 100, 0},
		{"clamps above", 7, 0, 5, 0, 100, 100},
		{"degenerate source yields target min", 3, 2, 2, 0, 100, 0},
		{"inverted target", 1, 0, 5, 100, 0, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleScore(tt.score, tt.fromMin, tt.fromMax, tt.toMin, tt.toMax)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestStats(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   ScoreStats
	}{
		{"empty", nil, ScoreStats{}},
		{"single", []float64{7}, ScoreStats{Min: 7, Max: 7, Mean: 7, Median: 7, Count: 1}},
		{"odd count median", []float64{3, 1, 2}, ScoreStats{Min: 1, Max: 3, Mean: 2, Median: 2, Count: 3}},
		{"even count midpoint median", []float64{4, 1, 2, 3}, ScoreStats{Min: 1, Max: 4, Mean: 2.5, Median: 2.5, Count: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Stats(tt.scores)
			assert.Equal(t, tt.want.Count, got.Count)
			assert.InDelta(t, tt.want.Min, got.Min, 0.001)
			assert.InDelta(t, tt.want.Max, got.Max, 0.001)
			assert.InDelta(t, tt.want.Mean, got.Mean, 0.001)
			assert.InDelta(t, tt.want.Median, got.Median, 0.001)
		})
	}
}

func TestStatsDoesNotMutateInput(t *testing.T) {
	scores := []float64{3, 1, 2}
	Stats(scores)
	assert.Equal(t, []float64{3, 1, 2}, scores)
}
