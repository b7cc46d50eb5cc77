package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearcomply/assess-cli/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresSaveTemplate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO templates`).
		WithArgs("tpl-1", "SOC 2", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveTemplate(context.Background(), model.Template{ID: "tpl-1", Name: "SOC 2"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetTemplateNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT spec FROM templates`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"spec"}))

	_, err := s.GetTemplate(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAssessment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	answers, err := json.Marshal([]model.Answer{{
		ID: "ans-1", QuestionID: "q-1", Score: 2, EvidenceTier: model.Tier1, CategoryTag: "access-control",
	}})
	require.NoError(t, err)

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, org_id, org_name, template_id, status, risk_score, answers, created_at, completed_at FROM assessments`).
		WithArgs("asmt-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "org_name", "template_id", "status", "risk_score", "answers", "created_at", "completed_at",
		}).AddRow("asmt-1", "org-1", "Acme", "tpl-1", "IN_PROGRESS", nil, answers, created, nil))

	a, err := s.GetAssessment(context.Background(), "asmt-1")
	require.NoError(t, err)
	assert.Equal(t, "asmt-1", a.ID)
	assert.Equal(t, model.StatusInProgress, a.Status)
	assert.Nil(t, a.RiskScore)
	assert.Nil(t, a.CompletedAt)
	require.Len(t, a.Answers, 1)
	assert.Equal(t, model.Tier1, a.Answers[0].EvidenceTier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteWithScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assessments SET status`).
		WithArgs("COMPLETED", 46.92, pgxmock.AnyArg(), "asmt-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO assessment_scores`).
		WithArgs(pgxmock.AnyArg(), "asmt-1", 46.92, "abc123", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.CompleteWithScore(context.Background(), "asmt-1", 46.92, "abc123")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteWithScoreMissing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assessments SET status`).
		WithArgs("COMPLETED", 50.0, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.CompleteWithScore(context.Background(), "missing", 50.0, "abc")
	assert.ErrorContains(t, err, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReplaceFindings(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM gaps`).
		WithArgs("asmt-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM risks`).
		WithArgs("asmt-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO gaps`).
		WithArgs(pgxmock.AnyArg(), "asmt-1", "encryption", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO risks`).
		WithArgs(pgxmock.AnyArg(), "asmt-1", "encryption", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	gaps := []model.Gap{{AssessmentID: "asmt-1", Category: "encryption", Severity: model.SeverityHigh, Priority: 6}}
	risks := []model.Risk{{AssessmentID: "asmt-1", Category: "encryption", RiskLevel: model.RiskHigh}}
	err := s.ReplaceFindings(context.Background(), "asmt-1", gaps, risks)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListGaps(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	detail, err := json.Marshal(model.Gap{
		ID: "g-1", AssessmentID: "asmt-1", Category: "access-control",
		Severity: model.SeverityCritical, Priority: 10,
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT detail FROM gaps`).
		WithArgs("asmt-1").
		WillReturnRows(pgxmock.NewRows([]string{"detail"}).AddRow(detail))

	gaps, err := s.ListGaps(context.Background(), "asmt-1")
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, model.SeverityCritical, gaps[0].Severity)
	assert.Equal(t, 10, gaps[0].Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetPrioritiesAbsent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM org_priorities`).
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}))

	p, err := s.GetPriorities(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Nil(t, p, "absent priorities are nil, nil")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListVendors(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	profile, err := json.Marshal(model.Vendor{ID: "v1", Name: "Argus", Rating: 4.8})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT profile FROM vendors`).
		WillReturnRows(pgxmock.NewRows([]string{"profile"}).AddRow(profile))

	vendors, err := s.ListVendors(context.Background())
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Argus", vendors[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
