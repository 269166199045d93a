package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	"production_report/internal/models"
)

// ErrNotDraft is returned when a released BOM is edited or deleted.
var ErrNotDraft = errors.New("bom is not a draft")

const bomColumns = "id, category, code, product, version, status, items, released_by, released_at, created_at"

func scanBOM(row interface{ Scan(...any) error }, b *models.BOM) error {
	var items []byte
	var releasedAt sql.NullTime
	if err := row.Scan(&b.ID, &b.Category, &b.Code, &b.Product, &b.Version, &b.Status,
		&items, &b.ReleasedBy, &releasedAt, &b.CreatedAt); err != nil {
		return err
	}
	if releasedAt.Valid {
		t := releasedAt.Time
		b.ReleasedAt = &t
	}
	return json.Unmarshal(items, &b.Items)
}

// ListBOMs returns BOMs, optionally filtered by category and status.
func (db *DB) ListBOMs(ctx context.Context, category models.BOMCategory, status models.BOMStatus) ([]models.BOM, error) {
	query := "SELECT " + bomColumns + " FROM boms WHERE true"
	var args []any
	if category != "" {
		args = append(args, category)
		query += " AND category = $" + strconv.Itoa(len(args))
	}
	if status != "" {
		args = append(args, status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY category, code, version"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boms := []models.BOM{}
	for rows.Next() {
		var b models.BOM
		if err := scanBOM(rows, &b); err != nil {
			return nil, err
		}
		boms = append(boms, b)
	}
	return boms, rows.Err()
}

func (db *DB) CreateBOM(ctx context.Context, b *models.BOM) error {
	items, err := json.Marshal(b.Items)
	if err != nil {
		return err
	}
	if b.Version == 0 {
		b.Version = 1
	}
	b.Status = models.BOMDraft
	return mapErr(db.QueryRowContext(ctx, `
		INSERT INTO boms (category, code, product, version, status, items)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		b.Category, b.Code, b.Product, b.Version, b.Status, items).Scan(&b.ID, &b.CreatedAt))
}

// UpdateBOM rewrites a draft BOM.
func (db *DB) UpdateBOM(ctx context.Context, b *models.BOM) error {
	items, err := json.Marshal(b.Items)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE boms SET category = $1, code = $2, product = $3, version = $4, items = $5
		WHERE id = $6 AND status = $7`,
		b.Category, b.Code, b.Product, b.Version, items, b.ID, models.BOMDraft)
	return db.draftOnly(ctx, b.ID, affected(res, err))
}

// DeleteBOM removes a draft BOM.
func (db *DB) DeleteBOM(ctx context.Context, id int) error {
	res, err := db.ExecContext(ctx, "DELETE FROM boms WHERE id = $1 AND status = $2", id, models.BOMDraft)
	return db.draftOnly(ctx, id, affected(res, err))
}

// draftOnly tells a missing BOM apart from a released one after a
// draft-only write touched no rows.
func (db *DB) draftOnly(ctx context.Context, id int, err error) error {
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM boms WHERE id = $1)", id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrNotDraft
	}
	return ErrNotFound
}

// ReleaseBOMs releases the given drafts of one category, or every draft
// of it when ids is empty. It returns how many rows changed.
func (db *DB) ReleaseBOMs(ctx context.Context, category models.BOMCategory, ids []int, by string) (int, error) {
	query := `UPDATE boms SET status = $1, released_by = $2, released_at = $3
		WHERE category = $4 AND status = $5`
	args := []any{models.BOMReleased, by, time.Now(), category, models.BOMDraft}
	if len(ids) > 0 {
		query += " AND id = ANY($6)"
		args = append(args, pq.Array(ids))
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
