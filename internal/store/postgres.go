package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/policyscope/policyscan/internal/db"
	"github.com/policyscope/policyscan/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id          BIGSERIAL PRIMARY KEY,
	domain      TEXT NOT NULL UNIQUE,
	name        TEXT,
	email       TEXT,
	country     TEXT,
	delete_link TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS discovered_policies (
	id            BIGSERIAL PRIMARY KEY,
	domain        TEXT NOT NULL,
	doc_type      TEXT NOT NULL,
	url           TEXT NOT NULL,
	method        TEXT NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	http_status   INTEGER,
	is_canonical  BOOLEAN NOT NULL DEFAULT false,
	discovered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(domain, doc_type)
);

CREATE TABLE IF NOT EXISTS field_provenance (
	id         BIGSERIAL PRIMARY KEY,
	run_id     TEXT NOT NULL,
	domain     TEXT NOT NULL,
	field_key  TEXT NOT NULL,
	value      TEXT,
	confidence DOUBLE PRECISION NOT NULL,
	source     TEXT,
	retained   BOOLEAN NOT NULL DEFAULT false,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_country ON companies(country);
CREATE INDEX IF NOT EXISTS idx_discovered_policies_domain ON discovered_policies(domain);
CREATE INDEX IF NOT EXISTS idx_field_provenance_run_id ON field_provenance(run_id);
CREATE INDEX IF NOT EXISTS idx_field_provenance_domain ON field_provenance(domain);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, company model.Company) (*model.Company, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO companies (domain, name, email, country, delete_link, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (domain) DO UPDATE SET
			name        = COALESCE(NULLIF(EXCLUDED.name, ''), companies.name),
			email       = COALESCE(NULLIF(EXCLUDED.email, ''), companies.email),
			country     = COALESCE(NULLIF(EXCLUDED.country, ''), companies.country),
			delete_link = COALESCE(NULLIF(EXCLUDED.delete_link, ''), companies.delete_link),
			updated_at  = now()
		RETURNING id, domain, COALESCE(name, ''), COALESCE(email, ''), COALESCE(country, ''), COALESCE(delete_link, '')`,
		company.Domain, company.Name, company.Email, company.Country, company.DeleteLink,
	)

	var out model.Company
	if err := row.Scan(&out.ID, &out.Domain, &out.Name, &out.Email, &out.Country, &out.DeleteLink); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert company %s", company.Domain)
	}
	return &out, nil
}

// UpsertCompanies merges a roster of companies in a single round trip via a
// staged bulk upsert. Blank incoming fields never clobber stored values,
// matching UpsertCompany.
func (s *PostgresStore) UpsertCompanies(ctx context.Context, companies []model.Company) error {
	if len(companies) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(companies))
	for i, c := range companies {
		rows[i] = []any{c.Domain, c.Name, c.Email, c.Country, c.DeleteLink, now}
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:           "companies",
		Columns:         []string{"domain", "name", "email", "country", "delete_link", "updated_at"},
		ConflictKeys:    []string{"domain"},
		PreserveOnEmpty: []string{"name", "email", "country", "delete_link"},
	}, rows)
	return eris.Wrapf(err, "postgres: upsert %d companies", len(companies))
}

func (s *PostgresStore) GetCompany(ctx context.Context, domain string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, domain, COALESCE(name, ''), COALESCE(email, ''), COALESCE(country, ''), COALESCE(delete_link, '')
		FROM companies WHERE domain = $1`,
		domain,
	)

	var c model.Company
	if err := row.Scan(&c.ID, &c.Domain, &c.Name, &c.Email, &c.Country, &c.DeleteLink); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(err, "postgres: company %s not found", domain)
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", domain)
	}
	return &c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT id, domain, COALESCE(name, ''), COALESCE(email, ''), COALESCE(country, ''), COALESCE(delete_link, '')
		FROM companies WHERE 1=1`
	var args []any

	if filter.Country != "" {
		args = append(args, filter.Country)
		query += ` AND country = $1`
	}
	query += ` ORDER BY domain`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Domain, &c.Name, &c.Email, &c.Country, &c.DeleteLink); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies")
}

// SaveDiscoveredPolicies replaces the per-(domain, doc type) rows with the
// outcome of the latest discovery run, staged through a bulk upsert.
func (s *PostgresStore) SaveDiscoveredPolicies(ctx context.Context, domain string, policies []model.DiscoveredPolicy) error {
	if len(policies) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(policies))
	for i, p := range policies {
		rows[i] = []any{domain, string(p.DocType), p.URL, string(p.DiscoveredVia), p.Confidence, p.HTTPStatus, p.IsCanonical, now}
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "discovered_policies",
		Columns:      []string{"domain", "doc_type", "url", "method", "confidence", "http_status", "is_canonical", "discovered_at"},
		ConflictKeys: []string{"domain", "doc_type"},
	}, rows)
	return eris.Wrapf(err, "postgres: save policies %s", domain)
}

func (s *PostgresStore) GetDiscoveredPolicies(ctx context.Context, domain string) ([]model.DiscoveredPolicy, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT url, doc_type, method, confidence, COALESCE(http_status, 0), is_canonical
		FROM discovered_policies WHERE domain = $1 ORDER BY doc_type`,
		domain,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get policies %s", domain)
	}
	defer rows.Close()

	var policies []model.DiscoveredPolicy
	for rows.Next() {
		var p model.DiscoveredPolicy
		if err := rows.Scan(&p.URL, &p.DocType, &p.DiscoveredVia, &p.Confidence, &p.HTTPStatus, &p.IsCanonical); err != nil {
			return nil, eris.Wrap(err, "postgres: scan policy")
		}
		policies = append(policies, p)
	}
	return policies, eris.Wrap(rows.Err(), "postgres: get policies")
}

// SaveFieldProvenance bulk-inserts audit rows using the COPY protocol.
func (s *PostgresStore) SaveFieldProvenance(ctx context.Context, provRows []model.FieldProvenance) error {
	if len(provRows) == 0 {
		return nil
	}

	rows := make([][]any, len(provRows))
	for i, r := range provRows {
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rows[i] = []any{r.RunID, r.Domain, r.FieldKey, r.Value, r.Confidence, r.Source, r.Retained, r.Error, createdAt}
	}

	_, err := db.CopyFrom(ctx, s.pool, "field_provenance",
		[]string{"run_id", "domain", "field_key", "value", "confidence", "source", "retained", "error", "created_at"},
		rows,
	)
	return eris.Wrap(err, "postgres: save provenance")
}

func (s *PostgresStore) ListFieldProvenance(ctx context.Context, runID string) ([]model.FieldProvenance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, domain, field_key, COALESCE(value, ''), confidence, COALESCE(source, ''), retained, COALESCE(error, ''), created_at
		FROM field_provenance WHERE run_id = $1 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list provenance %s", runID)
	}
	defer rows.Close()

	var out []model.FieldProvenance
	for rows.Next() {
		var r model.FieldProvenance
		if err := rows.Scan(&r.ID, &r.RunID, &r.Domain, &r.FieldKey, &r.Value, &r.Confidence, &r.Source, &r.Retained, &r.Error, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan provenance")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list provenance")
}
