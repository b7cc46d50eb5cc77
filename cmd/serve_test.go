package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearcomply/assess-cli/internal/config"
	"github.com/clearcomply/assess-cli/internal/model"
	"github.com/clearcomply/assess-cli/internal/store"
)

func newServeTestEnv(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	cfg = &config.Config{
		Scoring: config.DefaultScoring(),
		Server: config.ServerConfig{
			AllowedOrigins: []string{"*"},
			RatePerSec:     1000,
			RateBurst:      1000,
		},
	}
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return newRouter(s), s
}

func TestServeHealth(t *testing.T) {
	router, _ := newServeTestEnv(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeScoreEndpoint(t *testing.T) {
	router, s := newServeTestEnv(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAssessment(ctx, model.Assessment{
		ID: "asmt-1", OrgID: "org-1", OrgName: "Acme", TemplateID: "tpl-1",
		Status: model.StatusInProgress,
		Answers: []model.Answer{
			{QuestionID: "q-1", Score: 1, EvidenceTier: model.Tier1, QuestionWeight: 1, SectionID: "sec-1", SectionWeight: 1, CategoryTag: "access-control"},
			{QuestionID: "q-2", Score: 4, EvidenceTier: model.Tier2, QuestionWeight: 1, SectionID: "sec-1", SectionWeight: 1, CategoryTag: "monitoring"},
		},
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assessments/asmt-1/score", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AssessmentID string  `json:"assessment_id"`
		RiskScore    float64 `json:"risk_score"`
		GapCount     int     `json:"gap_count"`
		RiskCount    int     `json:"risk_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "asmt-1", resp.AssessmentID)
	// (1*0.8 + 4*1.0) / 2 = 2.4 raw, 48 on the 0-100 scale.
	assert.InDelta(t, 48, resp.RiskScore, 0.01)
	assert.Equal(t, 1, resp.GapCount, "only the below-threshold answer produces a gap")
	assert.Equal(t, 1, resp.RiskCount)

	// The score and findings were persisted.
	a, err := s.GetAssessment(context.Background(), "asmt-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, a.Status)
	require.NotNil(t, a.RiskScore)
	assert.InDelta(t, 48, *a.RiskScore, 0.01)

	gaps, err := s.ListGaps(context.Background(), "asmt-1")
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, "access-control", gaps[0].Category)
}

func TestServeScoreMissingAssessment(t *testing.T) {
	router, _ := newServeTestEnv(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assessments/missing/score", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeMatrixEndpoint(t *testing.T) {
	router, s := newServeTestEnv(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAssessment(ctx, model.Assessment{
		ID: "asmt-1", OrgID: "org-1", OrgName: "Acme", TemplateID: "tpl-1",
	}))
	require.NoError(t, s.ReplaceFindings(ctx, "asmt-1", []model.Gap{
		{AssessmentID: "asmt-1", Category: "encryption", Severity: model.SeverityCritical, Priority: 10, EstimatedCost: model.Cost100K250K},
	}, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assessments/asmt-1/matrix", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var m struct {
		Immediate struct {
			GapCount           int    `json:"gap_count"`
			EstimatedCostRange string `json:"estimated_cost_range"`
		} `json:"immediate"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 1, m.Immediate.GapCount)
	assert.Equal(t, "~$175,000", m.Immediate.EstimatedCostRange)
}

func TestServeMatchesEndpoint(t *testing.T) {
	router, s := newServeTestEnv(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAssessment(ctx, model.Assessment{
		ID: "asmt-1", OrgID: "org-1", OrgName: "Acme", TemplateID: "tpl-1",
	}))
	require.NoError(t, s.ReplaceFindings(ctx, "asmt-1", []model.Gap{
		{AssessmentID: "asmt-1", Category: "encryption", Severity: model.SeverityHigh, Priority: 6},
	}, nil))
	_, err := s.SaveVendors(ctx, []model.Vendor{
		{ID: "v1", Name: "Argus", Categories: []string{"encryption"}, Rating: 4.8},
		{ID: "v2", Name: "Beacon", Categories: []string{"payments"}, Rating: 4.0},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assessments/asmt-1/matches", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var matches []struct {
		VendorName string  `json:"vendor_name"`
		TotalScore float64 `json:"total_score"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "Argus", matches[0].VendorName, "covering vendor ranks first")
	assert.Greater(t, matches[0].TotalScore, matches[1].TotalScore)
}

func TestServeRateLimit(t *testing.T) {
	cfg = &config.Config{
		Scoring: config.DefaultScoring(),
		Server: config.ServerConfig{
			AllowedOrigins: []string{"*"},
			RatePerSec:     1,
			RateBurst:      1,
		},
	}
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	router := newRouter(s)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
