package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/clearcomply/assess-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS templates (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	spec TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vendors (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	profile TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY,
	org_id       TEXT NOT NULL,
	org_name     TEXT NOT NULL,
	template_id  TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'DRAFT',
	risk_score   REAL,
	answers      TEXT NOT NULL DEFAULT '[]',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS assessment_scores (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id),
	score         REAL NOT NULL,
	config_hash   TEXT NOT NULL,
	scored_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS gaps (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id),
	category      TEXT NOT NULL,
	detail        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS risks (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id),
	category      TEXT NOT NULL,
	detail        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS org_priorities (
	org_id TEXT PRIMARY KEY,
	data   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments(status);
CREATE INDEX IF NOT EXISTS idx_assessments_org ON assessments(org_id);
CREATE INDEX IF NOT EXISTS idx_gaps_assessment ON gaps(assessment_id);
CREATE INDEX IF NOT EXISTS idx_risks_assessment ON risks(assessment_id);
CREATE INDEX IF NOT EXISTS idx_scores_assessment ON assessment_scores(assessment_id);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveTemplate(ctx context.Context, tpl model.Template) error {
	spec, err := json.Marshal(tpl)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal template")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, spec) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, spec = excluded.spec`,
		tpl.ID, tpl.Name, string(spec),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save template %s", tpl.ID)
	}
	return nil
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	var spec string
	err := s.db.QueryRowContext(ctx, `SELECT spec FROM templates WHERE id = ?`, id).Scan(&spec)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("sqlite: template %s not found", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get template %s", id)
	}
	var tpl model.Template
	if err := json.Unmarshal([]byte(spec), &tpl); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal template %s", id)
	}
	return &tpl, nil
}

func (s *SQLiteStore) SaveVendors(ctx context.Context, vendors []model.Vendor) (int, error) {
	if len(vendors) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	saved := 0
	for _, v := range vendors {
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		profile, err := json.Marshal(v)
		if err != nil {
			return saved, eris.Wrapf(err, "sqlite: marshal vendor %s", v.Name)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO vendors (id, name, profile) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, profile = excluded.profile`,
			v.ID, v.Name, string(profile),
		)
		if err != nil {
			return saved, eris.Wrapf(err, "sqlite: save vendor %s", v.Name)
		}
		saved++
	}
	if err := tx.Commit(); err != nil {
		return saved, eris.Wrap(err, "sqlite: commit vendors")
	}
	return saved, nil
}

func (s *SQLiteStore) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT profile FROM vendors ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list vendors")
	}
	defer rows.Close()

	var vendors []model.Vendor
	for rows.Next() {
		var profile string
		if err := rows.Scan(&profile); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan vendor")
		}
		var v model.Vendor
		if err := json.Unmarshal([]byte(profile), &v); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal vendor")
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, a model.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusDraft
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal answers %s", a.ID)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, org_id, org_name, template_id, status, risk_score, answers, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   org_id = excluded.org_id, org_name = excluded.org_name,
		   template_id = excluded.template_id, status = excluded.status,
		   answers = excluded.answers`,
		a.ID, a.OrgID, a.OrgName, a.TemplateID, string(a.Status), a.RiskScore, string(answers), a.CreatedAt, a.CompletedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save assessment %s", a.ID)
	}
	return nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, org_name, template_id, status, risk_score, answers, created_at, completed_at
		 FROM assessments WHERE id = ?`, id)

	a, err := scanAssessment(row.Scan)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("sqlite: assessment %s not found", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get assessment %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `SELECT id, org_id, org_name, template_id, status, risk_score, answers, created_at, completed_at
	          FROM assessments WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.OrgID != "" {
		query += ` AND org_id = ?`
		args = append(args, filter.OrgID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// scanAssessment decodes one assessment row from either a Row or Rows scan.
func scanAssessment(scan func(dest ...any) error) (*model.Assessment, error) {
	var a model.Assessment
	var status, answers string
	var riskScore sql.NullFloat64
	var completedAt sql.NullTime
	if err := scan(&a.ID, &a.OrgID, &a.OrgName, &a.TemplateID, &status, &riskScore, &answers, &a.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	a.Status = model.AssessmentStatus(status)
	if riskScore.Valid {
		a.RiskScore = &riskScore.Float64
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, eris.Wrap(err, "unmarshal answers")
	}
	return &a, nil
}

func (s *SQLiteStore) CompleteWithScore(ctx context.Context, assessmentID string, score float64, configHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE assessments SET status = ?, risk_score = ?, completed_at = COALESCE(completed_at, ?) WHERE id = ?`,
		string(model.StatusCompleted), score, now, assessmentID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete assessment %s", assessmentID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: assessment %s not found", assessmentID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assessment_scores (id, assessment_id, score, config_hash, scored_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), assessmentID, score, configHash, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert score record %s", assessmentID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit score")
}

func (s *SQLiteStore) ListScoreHistory(ctx context.Context, assessmentID string) ([]ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, assessment_id, score, config_hash, scored_at FROM assessment_scores
		 WHERE assessment_id = ? ORDER BY scored_at DESC`, assessmentID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list score history %s", assessmentID)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.Score, &r.ConfigHash, &r.ScoredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score record")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReplaceFindings(ctx context.Context, assessmentID string, gaps []model.Gap, risks []model.Risk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"gaps", "risks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE assessment_id = ?`, assessmentID); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s for %s", table, assessmentID)
		}
	}

	for _, g := range gaps {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		detail, err := json.Marshal(g)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal gap")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gaps (id, assessment_id, category, detail) VALUES (?, ?, ?, ?)`,
			g.ID, assessmentID, g.Category, string(detail),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert gap %s", g.Category)
		}
	}
	for _, r := range risks {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		detail, err := json.Marshal(r)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal risk")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO risks (id, assessment_id, category, detail) VALUES (?, ?, ?, ?)`,
			r.ID, assessmentID, r.Category, string(detail),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert risk %s", r.Category)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit findings")
}

func (s *SQLiteStore) ListGaps(ctx context.Context, assessmentID string) ([]model.Gap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT detail FROM gaps WHERE assessment_id = ? ORDER BY category`, assessmentID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list gaps %s", assessmentID)
	}
	defer rows.Close()

	var out []model.Gap
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan gap")
		}
		var g model.Gap
		if err := json.Unmarshal([]byte(detail), &g); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal gap")
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListRisks(ctx context.Context, assessmentID string) ([]model.Risk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT detail FROM risks WHERE assessment_id = ? ORDER BY category`, assessmentID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list risks %s", assessmentID)
	}
	defer rows.Close()

	var out []model.Risk
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan risk")
		}
		var r model.Risk
		if err := json.Unmarshal([]byte(detail), &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal risk")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SavePriorities(ctx context.Context, p model.OrganizationPriorities) error {
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal priorities")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO org_priorities (org_id, data) VALUES (?, ?)
		 ON CONFLICT(org_id) DO UPDATE SET data = excluded.data`,
		p.OrgID, string(data),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save priorities %s", p.OrgID)
	}
	return nil
}

func (s *SQLiteStore) GetPriorities(ctx context.Context, orgID string) (*model.OrganizationPriorities, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM org_priorities WHERE org_id = ?`, orgID).Scan(&data)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get priorities %s", orgID)
	}
	var p model.OrganizationPriorities
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal priorities %s", orgID)
	}
	return &p, nil
}
