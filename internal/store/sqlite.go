package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/policyscope/policyscan/internal/model"
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
CREATE TABLE IF NOT EXISTS companies (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	domain      TEXT NOT NULL UNIQUE,
	name        TEXT,
	email       TEXT,
	country     TEXT,
	delete_link TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS discovered_policies (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	domain        TEXT NOT NULL,
	doc_type      TEXT NOT NULL,
	url           TEXT NOT NULL,
	method        TEXT NOT NULL,
	confidence    REAL NOT NULL,
	http_status   INTEGER,
	is_canonical  INTEGER NOT NULL DEFAULT 0,
	discovered_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(domain, doc_type)
);

CREATE TABLE IF NOT EXISTS field_provenance (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	domain     TEXT NOT NULL,
	field_key  TEXT NOT NULL,
	value      TEXT,
	confidence REAL NOT NULL,
	source     TEXT,
	retained   INTEGER NOT NULL DEFAULT 0,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_country ON companies(country);
CREATE INDEX IF NOT EXISTS idx_discovered_policies_domain ON discovered_policies(domain);
CREATE INDEX IF NOT EXISTS idx_field_provenance_run_id ON field_provenance(run_id);
CREATE INDEX IF NOT EXISTS idx_field_provenance_domain ON field_provenance(domain);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, company model.Company) (*model.Company, error) {
	now := time.Now().UTC()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO companies (domain, name, email, country, delete_link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			name        = COALESCE(NULLIF(excluded.name, ''), companies.name),
			email       = COALESCE(NULLIF(excluded.email, ''), companies.email),
			country     = COALESCE(NULLIF(excluded.country, ''), companies.country),
			delete_link = COALESCE(NULLIF(excluded.delete_link, ''), companies.delete_link),
			updated_at  = excluded.updated_at
		RETURNING id, domain, name, email, country, delete_link`,
		company.Domain, company.Name, company.Email, company.Country, company.DeleteLink, now, now,
	)

	var out model.Company
	var name, email, country, deleteLink sql.NullString
	if err := row.Scan(&out.ID, &out.Domain, &name, &email, &country, &deleteLink); err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert company %s", company.Domain)
	}
	out.Name = name.String
	out.Email = email.String
	out.Country = country.String
	out.DeleteLink = deleteLink.String
	return &out, nil
}

// UpsertCompanies merges a roster of companies one row at a time; SQLite has
// no staged bulk path.
func (s *SQLiteStore) UpsertCompanies(ctx context.Context, companies []model.Company) error {
	for _, c := range companies {
		if _, err := s.UpsertCompany(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, domain string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, name, email, country, delete_link FROM companies WHERE domain = ?`,
		domain,
	)
	return scanCompany(row)
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT id, domain, name, email, country, delete_link FROM companies WHERE 1=1`
	var args []any

	if filter.Country != "" {
		query += ` AND country = ?`
		args = append(args, filter.Country)
	}
	query += ` ORDER BY domain`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies")
}

func (s *SQLiteStore) SaveDiscoveredPolicies(ctx context.Context, domain string, policies []model.DiscoveredPolicy) error {
	if len(policies) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, p := range policies {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO discovered_policies (domain, doc_type, url, method, confidence, http_status, is_canonical, discovered_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(domain, doc_type) DO UPDATE SET
				url           = excluded.url,
				method        = excluded.method,
				confidence    = excluded.confidence,
				http_status   = excluded.http_status,
				is_canonical  = excluded.is_canonical,
				discovered_at = excluded.discovered_at`,
			domain, string(p.DocType), p.URL, string(p.DiscoveredVia), p.Confidence, p.HTTPStatus, p.IsCanonical, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: save policy %s/%s", domain, p.DocType)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit policies")
}

func (s *SQLiteStore) GetDiscoveredPolicies(ctx context.Context, domain string) ([]model.DiscoveredPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, doc_type, method, confidence, http_status, is_canonical
		FROM discovered_policies WHERE domain = ? ORDER BY doc_type`,
		domain,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get policies %s", domain)
	}
	defer rows.Close()

	var policies []model.DiscoveredPolicy
	for rows.Next() {
		var p model.DiscoveredPolicy
		var status sql.NullInt64
		if err := rows.Scan(&p.URL, &p.DocType, &p.DiscoveredVia, &p.Confidence, &status, &p.IsCanonical); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan policy")
		}
		p.HTTPStatus = int(status.Int64)
		policies = append(policies, p)
	}
	return policies, eris.Wrap(rows.Err(), "sqlite: get policies")
}

func (s *SQLiteStore) SaveFieldProvenance(ctx context.Context, provRows []model.FieldProvenance) error {
	if len(provRows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	for _, r := range provRows {
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO field_provenance (run_id, domain, field_key, value, confidence, source, retained, error, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Domain, r.FieldKey, r.Value, r.Confidence, r.Source, r.Retained, r.Error, createdAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: save provenance %s/%s", r.Domain, r.FieldKey)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit provenance")
}

func (s *SQLiteStore) ListFieldProvenance(ctx context.Context, runID string) ([]model.FieldProvenance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, domain, field_key, value, confidence, source, retained, error, created_at
		FROM field_provenance WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list provenance %s", runID)
	}
	defer rows.Close()

	var out []model.FieldProvenance
	for rows.Next() {
		var r model.FieldProvenance
		var value, source, errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.RunID, &r.Domain, &r.FieldKey, &value, &r.Confidence, &source, &r.Retained, &errMsg, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provenance")
		}
		r.Value = value.String
		r.Source = source.String
		r.Error = errMsg.String
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list provenance")
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(row scanner) (*model.Company, error) {
	var c model.Company
	var name, email, country, deleteLink sql.NullString
	if err := row.Scan(&c.ID, &c.Domain, &name, &email, &country, &deleteLink); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(err, "sqlite: company not found")
		}
		return nil, eris.Wrap(err, "sqlite: scan company")
	}
	c.Name = name.String
	c.Email = email.String
	c.Country = country.String
	c.DeleteLink = deleteLink.String
	return &c, nil
}
