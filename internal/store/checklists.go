package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"production_report/internal/models"
)

// Checklist template items

func (db *DB) ListChecklistItems(ctx context.Context) ([]models.ChecklistItem, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, title, sort FROM checklist_items ORDER BY sort, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.ChecklistItem{}
	for rows.Next() {
		var it models.ChecklistItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Sort); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (db *DB) CreateChecklistItem(ctx context.Context, it *models.ChecklistItem) error {
	return mapErr(db.QueryRowContext(ctx,
		"INSERT INTO checklist_items (title, sort) VALUES ($1, $2) RETURNING id", it.Title, it.Sort).Scan(&it.ID))
}

func (db *DB) UpdateChecklistItem(ctx context.Context, it *models.ChecklistItem) error {
	return affected(db.ExecContext(ctx, "UPDATE checklist_items SET title = $1, sort = $2 WHERE id = $3", it.Title, it.Sort, it.ID))
}

func (db *DB) DeleteChecklistItem(ctx context.Context, id int) error {
	return affected(db.ExecContext(ctx, "DELETE FROM checklist_items WHERE id = $1", id))
}

// Changeover checklists

const checklistColumns = `id, report_date::text, shift, line_id, from_mould, to_mould, checks, status,
	completed_by, completed_at, COALESCE(created_by, 0), created_at`

func scanChecklist(row interface{ Scan(...any) error }, c *models.ChangeoverChecklist) error {
	var checks []byte
	var completedAt sql.NullTime
	if err := row.Scan(&c.ID, &c.Date, &c.Shift, &c.LineID, &c.FromMould, &c.ToMould, &checks, &c.Status,
		&c.CompletedBy, &completedAt, &c.CreatedBy, &c.CreatedAt); err != nil {
		return err
	}
	if completedAt.Valid {
		t := completedAt.Time
		c.CompletedAt = &t
	}
	return json.Unmarshal(checks, &c.Checks)
}

// ListChecklists returns the checklists of a date, or all when date is empty.
func (db *DB) ListChecklists(ctx context.Context, date string) ([]models.ChangeoverChecklist, error) {
	query := "SELECT " + checklistColumns + " FROM changeover_checklists"
	var args []any
	if date != "" {
		query += " WHERE report_date = $1"
		args = append(args, date)
	}
	query += " ORDER BY report_date DESC, line_id, id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []models.ChangeoverChecklist{}
	for rows.Next() {
		var c models.ChangeoverChecklist
		if err := scanChecklist(rows, &c); err != nil {
			return nil, err
		}
		lists = append(lists, c)
	}
	return lists, rows.Err()
}

func (db *DB) GetChecklist(ctx context.Context, id int) (*models.ChangeoverChecklist, error) {
	var c models.ChangeoverChecklist
	if err := scanChecklist(db.QueryRowContext(ctx, "SELECT "+checklistColumns+" FROM changeover_checklists WHERE id = $1", id), &c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (db *DB) CreateChecklist(ctx context.Context, c *models.ChangeoverChecklist) error {
	checks, err := json.Marshal(c.Checks)
	if err != nil {
		return err
	}
	var createdBy any
	if c.CreatedBy != 0 {
		createdBy = c.CreatedBy
	}
	return mapErr(db.QueryRowContext(ctx, `
		INSERT INTO changeover_checklists (report_date, shift, line_id, from_mould, to_mould, checks, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`,
		c.Date, c.Shift, c.LineID, c.FromMould, c.ToMould, checks, c.Status, createdBy).Scan(&c.ID, &c.CreatedAt))
}

// UpdateChecklist stores the checks and completion state of c.
func (db *DB) UpdateChecklist(ctx context.Context, c *models.ChangeoverChecklist) error {
	checks, err := json.Marshal(c.Checks)
	if err != nil {
		return err
	}
	return affected(db.ExecContext(ctx, `
		UPDATE changeover_checklists SET checks = $1, status = $2, completed_by = $3, completed_at = $4
		WHERE id = $5`,
		checks, c.Status, c.CompletedBy, c.CompletedAt, c.ID))
}
