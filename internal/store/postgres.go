package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sntry/leadgen-cli/internal/db"
	"github.com/sntry/leadgen-cli/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres connects to PostgreSQL and verifies the connection.
func NewPostgres(ctx context.Context, dsn string, cfg PoolConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse dsn")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	city         TEXT NOT NULL DEFAULT '',
	completeness DOUBLE PRECISION NOT NULL DEFAULT 0,
	record       JSONB NOT NULL,
	saved_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id         UUID PRIMARY KEY,
	run_id     TEXT NOT NULL,
	rank       INTEGER NOT NULL,
	lead_score DOUBLE PRECISION NOT NULL,
	lead       JSONB NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_businesses_city ON businesses(city);
CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category);
CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var businessColumns = []string{"id", "name", "category", "city", "completeness", "record", "saved_at"}

// SaveBusinesses bulk-loads cleaned records over the COPY protocol.
func (s *PostgresStore) SaveBusinesses(ctx context.Context, records []model.CleanedBusinessRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal business record")
		}
		rows = append(rows, []any{
			uuid.New().String(), rec.Name, rec.Category, rec.Address.City,
			rec.CompletenessScore, string(data), now,
		})
	}

	n, err := db.CopyRows(ctx, s.pool, "businesses", businessColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save businesses")
	}
	return int(n), nil
}

func (s *PostgresStore) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.CleanedBusinessRecord, error) {
	query := `SELECT record FROM businesses WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.City != "" {
		query += ` AND city = ` + arg(filter.City)
	}
	if filter.Category != "" {
		query += ` AND category = ` + arg(filter.Category)
	}
	if filter.MinCompleteness > 0 {
		query += ` AND completeness >= ` + arg(filter.MinCompleteness)
	}
	query += ` ORDER BY saved_at DESC, name ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ` + arg(filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list businesses")
	}
	defer rows.Close()

	var records []model.CleanedBusinessRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan business row")
		}
		var rec model.CleanedBusinessRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal business record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate businesses")
}

var leadColumns = []string{"id", "run_id", "rank", "lead_score", "lead", "saved_at"}

// SaveLeads bulk-loads a ranked lead list for one pipeline run.
func (s *PostgresStore) SaveLeads(ctx context.Context, runID string, leads []model.LeadRecord) error {
	if len(leads) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(leads))
	for i, lead := range leads {
		data, err := json.Marshal(lead)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal lead")
		}
		rows = append(rows, []any{
			uuid.New().String(), runID, i, lead.LeadScore, string(data), now,
		})
	}

	if _, err := db.CopyRows(ctx, s.pool, "leads", leadColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: save leads")
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, runID string) ([]model.LeadRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lead FROM leads WHERE run_id = $1 ORDER BY rank ASC`, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.LeadRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead row")
		}
		var lead model.LeadRecord
		if err := json.Unmarshal(data, &lead); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

// placeholder returns the pgx positional placeholder for index n (1-based).
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
