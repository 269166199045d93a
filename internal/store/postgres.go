package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// DB is the PostgreSQL backed store for every repository interface the
// server uses.
type DB struct {
	*sql.DB
}

// Open connects and pings the database.
func Open(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{sqlDB}, nil
}

// Migrate creates missing tables.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	full_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user'))
);

CREATE TABLE IF NOT EXISTS shift_hours (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stoppage_reasons (
	id SERIAL PRIMARY KEY,
	reason TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS moulds (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	cavity INTEGER NOT NULL DEFAULT 0,
	target_cycle DOUBLE PRECISION NOT NULL DEFAULT 0,
	part_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
	machine TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS dpr_reports (
	id BIGSERIAL PRIMARY KEY,
	report_date DATE NOT NULL,
	shift TEXT NOT NULL CHECK (shift IN ('DAY', 'NIGHT')),
	shift_incharge TEXT NOT NULL DEFAULT '',
	summary JSONB NOT NULL DEFAULT '{}',
	shift_total JSONB NOT NULL DEFAULT '{}',
	posting_status TEXT NOT NULL DEFAULT '',
	posted_by TEXT NOT NULL DEFAULT '',
	posted_at TIMESTAMPTZ,
	is_reference BOOLEAN NOT NULL DEFAULT false,
	origin TEXT NOT NULL DEFAULT 'manual',
	import_batch TEXT NOT NULL DEFAULT '',
	created_by INTEGER REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (report_date, shift, is_reference)
);

CREATE TABLE IF NOT EXISTS dpr_lines (
	id BIGSERIAL PRIMARY KEY,
	report_id BIGINT NOT NULL REFERENCES dpr_reports(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	line_id TEXT NOT NULL,
	operator TEXT NOT NULL DEFAULT '',
	current_run JSONB NOT NULL,
	changeover_run JSONB
);
CREATE INDEX IF NOT EXISTS idx_dpr_lines_report ON dpr_lines(report_id);

CREATE TABLE IF NOT EXISTS boms (
	id SERIAL PRIMARY KEY,
	category TEXT NOT NULL CHECK (category IN ('SFG', 'FG', 'LOCAL_FG')),
	code TEXT NOT NULL,
	product TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	status TEXT NOT NULL DEFAULT 'DRAFT',
	items JSONB NOT NULL DEFAULT '[]',
	released_by TEXT NOT NULL DEFAULT '',
	released_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (category, code, version)
);

CREATE TABLE IF NOT EXISTS silos (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	material TEXT NOT NULL,
	capacity_kg DOUBLE PRECISION NOT NULL,
	level_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS silo_transactions (
	id SERIAL PRIMARY KEY,
	silo_id INTEGER NOT NULL REFERENCES silos(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	quantity_kg DOUBLE PRECISION NOT NULL,
	level_after DOUBLE PRECISION NOT NULL,
	reference TEXT NOT NULL DEFAULT '',
	created_by INTEGER REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS checklist_items (
	id SERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	sort INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS changeover_checklists (
	id SERIAL PRIMARY KEY,
	report_date DATE NOT NULL,
	shift TEXT NOT NULL,
	line_id TEXT NOT NULL,
	from_mould TEXT NOT NULL,
	to_mould TEXT NOT NULL,
	checks JSONB NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT 'OPEN',
	completed_by TEXT NOT NULL DEFAULT '',
	completed_at TIMESTAMPTZ,
	created_by INTEGER REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	settings JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// mapErr turns driver errors into store errors.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Detail)
	}
	return err
}

// affected returns ErrNotFound when res touched no rows.
func affected(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
