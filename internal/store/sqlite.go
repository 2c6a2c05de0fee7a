package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sntry/leadgen-cli/internal/model"
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	city         TEXT NOT NULL DEFAULT '',
	completeness REAL NOT NULL DEFAULT 0,
	record       TEXT NOT NULL,
	saved_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	rank       INTEGER NOT NULL,
	lead_score REAL NOT NULL,
	lead       TEXT NOT NULL,
	saved_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_businesses_city ON businesses(city);
CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category);
CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBusinesses inserts cleaned records, one row per record with the full
// record as JSON plus extracted filter columns. Returns the inserted count.
func (s *SQLiteStore) SaveBusinesses(ctx context.Context, records []model.CleanedBusinessRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save businesses")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO businesses (id, name, category, city, completeness, record, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert business")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal business record")
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), rec.Name, rec.Category, rec.Address.City,
			rec.CompletenessScore, string(data), now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert business %s", rec.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit save businesses")
	}
	return len(records), nil
}

func (s *SQLiteStore) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.CleanedBusinessRecord, error) {
	query := `SELECT record FROM businesses WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.MinCompleteness > 0 {
		query += ` AND completeness >= ?`
		args = append(args, filter.MinCompleteness)
	}
	query += ` ORDER BY saved_at DESC, name ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.CleanedBusinessRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan business row")
		}
		var rec model.CleanedBusinessRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal business record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate businesses")
}

// SaveLeads stores a ranked lead list for one pipeline run. Rank is the
// position in the input slice, which callers keep score-sorted.
func (s *SQLiteStore) SaveLeads(ctx context.Context, runID string, leads []model.LeadRecord) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save leads")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (id, run_id, rank, lead_score, lead, saved_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert lead")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for i, lead := range leads {
		data, err := json.Marshal(lead)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal lead")
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, i, lead.LeadScore, string(data), now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert lead %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save leads")
}

func (s *SQLiteStore) ListLeads(ctx context.Context, runID string) ([]model.LeadRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead FROM leads WHERE run_id = ? ORDER BY rank ASC`, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.LeadRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead row")
		}
		var lead model.LeadRecord
		if err := json.Unmarshal([]byte(data), &lead); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}
