package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a staged bulk merge into a target table.
type UpsertConfig struct {
	Table        string   // target table, optionally schema-qualified
	Columns      []string // columns present in every row
	ConflictKeys []string // columns forming the unique constraint

	// PreserveOnEmpty lists text columns where a blank incoming value keeps
	// the stored one instead of overwriting it. Matches the single-row
	// company upsert, where a partial scan must not erase known fields.
	PreserveOnEmpty []string
}

// BulkUpsert merges rows into cfg.Table in one round trip: COPY into a
// session-local staging table, then INSERT ... ON CONFLICT DO UPDATE from it.
// Non-conflict columns are overwritten from the incoming row unless listed in
// PreserveOnEmpty. Returns the number of rows merged.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx)

	staging := stagingName(cfg.Table)
	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{staging}.Sanitize(),
		sanitizeTable(cfg.Table),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create staging table for %s", cfg.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{staging}, cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into staging table for %s", cfg.Table)
	}

	tag, err := tx.Exec(ctx, mergeSQL(cfg, staging))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

// stagingName derives a session-local staging table name from the target.
func stagingName(table string) string {
	return "_stage_" + strings.ReplaceAll(table, ".", "_")
}

// mergeSQL builds the INSERT ... ON CONFLICT statement that moves staged rows
// into the target table.
func mergeSQL(cfg UpsertConfig, staging string) string {
	conflict := make(map[string]bool, len(cfg.ConflictKeys))
	for _, k := range cfg.ConflictKeys {
		conflict[k] = true
	}
	preserve := make(map[string]bool, len(cfg.PreserveOnEmpty))
	for _, c := range cfg.PreserveOnEmpty {
		preserve[c] = true
	}

	target := sanitizeTable(cfg.Table)
	var set []string
	for _, col := range cfg.Columns {
		if conflict[col] {
			continue
		}
		quoted := pgx.Identifier{col}.Sanitize()
		if preserve[col] {
			set = append(set, fmt.Sprintf(
				"%s = COALESCE(NULLIF(EXCLUDED.%s, ''), %s.%s)",
				quoted, quoted, target, quoted,
			))
		} else {
			set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", quoted, quoted))
		}
	}

	colList := quoteAndJoin(cfg.Columns)
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		target,
		colList,
		colList,
		pgx.Identifier{staging}.Sanitize(),
		quoteAndJoin(cfg.ConflictKeys),
		strings.Join(set, ", "),
	)
}

// sanitizeTable handles schema-qualified table names.
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
