package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/clearcomply/assess-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS templates (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	spec JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS vendors (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	profile JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY,
	org_id       TEXT NOT NULL,
	org_name     TEXT NOT NULL,
	template_id  TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'DRAFT',
	risk_score   DOUBLE PRECISION,
	answers      JSONB NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS assessment_scores (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id),
	score         DOUBLE PRECISION NOT NULL,
	config_hash   TEXT NOT NULL,
	scored_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS gaps (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id),
	category      TEXT NOT NULL,
	detail        JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS risks (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id),
	category      TEXT NOT NULL,
	detail        JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS org_priorities (
	org_id TEXT PRIMARY KEY,
	data   JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments(status);
CREATE INDEX IF NOT EXISTS idx_assessments_org ON assessments(org_id);
CREATE INDEX IF NOT EXISTS idx_gaps_assessment ON gaps(assessment_id);
CREATE INDEX IF NOT EXISTS idx_risks_assessment ON risks(assessment_id);
CREATE INDEX IF NOT EXISTS idx_scores_assessment ON assessment_scores(assessment_id);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveTemplate(ctx context.Context, tpl model.Template) error {
	spec, err := json.Marshal(tpl)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal template")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO templates (id, name, spec) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, spec = EXCLUDED.spec`,
		tpl.ID, tpl.Name, spec,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save template %s", tpl.ID)
	}
	return nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	var spec []byte
	err := s.pool.QueryRow(ctx, `SELECT spec FROM templates WHERE id = $1`, id).Scan(&spec)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: template %s not found", id)
		}
		return nil, eris.Wrapf(err, "postgres: get template %s", id)
	}
	var tpl model.Template
	if err := json.Unmarshal(spec, &tpl); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal template %s", id)
	}
	return &tpl, nil
}

func (s *PostgresStore) SaveVendors(ctx context.Context, vendors []model.Vendor) (int, error) {
	if len(vendors) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	saved := 0
	for _, v := range vendors {
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		profile, err := json.Marshal(v)
		if err != nil {
			return saved, eris.Wrapf(err, "postgres: marshal vendor %s", v.Name)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO vendors (id, name, profile) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, profile = EXCLUDED.profile`,
			v.ID, v.Name, profile,
		)
		if err != nil {
			return saved, eris.Wrapf(err, "postgres: save vendor %s", v.Name)
		}
		saved++
	}
	if err := tx.Commit(ctx); err != nil {
		return saved, eris.Wrap(err, "postgres: commit vendors")
	}
	return saved, nil
}

func (s *PostgresStore) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	rows, err := s.pool.Query(ctx, `SELECT profile FROM vendors ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list vendors")
	}
	defer rows.Close()

	var vendors []model.Vendor
	for rows.Next() {
		var profile []byte
		if err := rows.Scan(&profile); err != nil {
			return nil, eris.Wrap(err, "postgres: scan vendor")
		}
		var v model.Vendor
		if err := json.Unmarshal(profile, &v); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal vendor")
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (s *PostgresStore) SaveAssessment(ctx context.Context, a model.Assessment) error {
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
		return eris.Wrapf(err, "postgres: marshal answers %s", a.ID)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (id, org_id, org_name, template_id, status, risk_score, answers, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   org_id = EXCLUDED.org_id, org_name = EXCLUDED.org_name,
		   template_id = EXCLUDED.template_id, status = EXCLUDED.status,
		   answers = EXCLUDED.answers`,
		a.ID, a.OrgID, a.OrgName, a.TemplateID, string(a.Status), a.RiskScore, answers, a.CreatedAt, a.CompletedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save assessment %s", a.ID)
	}
	return nil
}

const selectAssessment = `SELECT id, org_id, org_name, template_id, status, risk_score, answers, created_at, completed_at FROM assessments`

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.pool.QueryRow(ctx, selectAssessment+` WHERE id = $1`, id)
	a, err := scanPgAssessment(row.Scan)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: assessment %s not found", id)
		}
		return nil, eris.Wrapf(err, "postgres: get assessment %s", id)
	}
	return a, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := selectAssessment + ` WHERE 1=1`
	var args []any
	argNum := 1
	if filter.Status != "" {
		query += ` AND status = $1`
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.OrgID != "" {
		query += ` AND org_id = $` + strconv.Itoa(argNum)
		args = append(args, filter.OrgID)
		argNum++
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(argNum)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		a, err := scanPgAssessment(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanPgAssessment(scan func(dest ...any) error) (*model.Assessment, error) {
	var a model.Assessment
	var status string
	var answers []byte
	var riskScore sql.NullFloat64
	var completedAt *time.Time
	if err := scan(&a.ID, &a.OrgID, &a.OrgName, &a.TemplateID, &status, &riskScore, &answers, &a.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	a.Status = model.AssessmentStatus(status)
	if riskScore.Valid {
		a.RiskScore = &riskScore.Float64
	}
	a.CompletedAt = completedAt
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return nil, eris.Wrap(err, "unmarshal answers")
	}
	return &a, nil
}

func (s *PostgresStore) CompleteWithScore(ctx context.Context, assessmentID string, score float64, configHash string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx,
		`UPDATE assessments SET status = $1, risk_score = $2, completed_at = COALESCE(completed_at, $3) WHERE id = $4`,
		string(model.StatusCompleted), score, now, assessmentID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete assessment %s", assessmentID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: assessment %s not found", assessmentID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO assessment_scores (id, assessment_id, score, config_hash, scored_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), assessmentID, score, configHash, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert score record %s", assessmentID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit score")
}

func (s *PostgresStore) ListScoreHistory(ctx context.Context, assessmentID string) ([]ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, assessment_id, score, config_hash, scored_at FROM assessment_scores
		 WHERE assessment_id = $1 ORDER BY scored_at DESC`, assessmentID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list score history %s", assessmentID)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.Score, &r.ConfigHash, &r.ScoredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score record")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ReplaceFindings(ctx context.Context, assessmentID string, gaps []model.Gap, risks []model.Risk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, table := range []string{"gaps", "risks"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE assessment_id = $1`, assessmentID); err != nil {
			return eris.Wrapf(err, "postgres: clear %s for %s", table, assessmentID)
		}
	}

	for _, g := range gaps {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		detail, err := json.Marshal(g)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal gap")
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO gaps (id, assessment_id, category, detail) VALUES ($1, $2, $3, $4)`,
			g.ID, assessmentID, g.Category, detail,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert gap %s", g.Category)
		}
	}
	for _, r := range risks {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		detail, err := json.Marshal(r)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal risk")
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO risks (id, assessment_id, category, detail) VALUES ($1, $2, $3, $4)`,
			r.ID, assessmentID, r.Category, detail,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert risk %s", r.Category)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit findings")
}

func (s *PostgresStore) ListGaps(ctx context.Context, assessmentID string) ([]model.Gap, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT detail FROM gaps WHERE assessment_id = $1 ORDER BY category`, assessmentID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list gaps %s", assessmentID)
	}
	defer rows.Close()

	var out []model.Gap
	for rows.Next() {
		var detail []byte
		if err := rows.Scan(&detail); err != nil {
			return nil, eris.Wrap(err, "postgres: scan gap")
		}
		var g model.Gap
		if err := json.Unmarshal(detail, &g); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal gap")
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListRisks(ctx context.Context, assessmentID string) ([]model.Risk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT detail FROM risks WHERE assessment_id = $1 ORDER BY category`, assessmentID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list risks %s", assessmentID)
	}
	defer rows.Close()

	var out []model.Risk
	for rows.Next() {
		var detail []byte
		if err := rows.Scan(&detail); err != nil {
			return nil, eris.Wrap(err, "postgres: scan risk")
		}
		var r model.Risk
		if err := json.Unmarshal(detail, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal risk")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SavePriorities(ctx context.Context, p model.OrganizationPriorities) error {
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal priorities")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO org_priorities (org_id, data) VALUES ($1, $2)
		 ON CONFLICT (org_id) DO UPDATE SET data = EXCLUDED.data`,
		p.OrgID, data,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save priorities %s", p.OrgID)
	}
	return nil
}

func (s *PostgresStore) GetPriorities(ctx context.Context, orgID string) (*model.OrganizationPriorities, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM org_priorities WHERE org_id = $1`, orgID).Scan(&data)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get priorities %s", orgID)
	}
	var p model.OrganizationPriorities
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal priorities %s", orgID)
	}
	return &p, nil
}
