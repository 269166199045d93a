package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"production_report/internal/dpr"
)

// ReportFilter narrows ListReports. Zero values match everything.
type ReportFilter struct {
	Date      string
	Shift     dpr.Shift
	Reference *bool
}

const reportColumns = `id, report_date::text, shift, shift_incharge, summary, shift_total,
	posting_status, posted_by, posted_at, is_reference, origin, import_batch,
	COALESCE(created_by, 0), created_at, updated_at`

func scanReport(row interface{ Scan(...any) error }, d *dpr.DPRData) error {
	var summary, total []byte
	var postedAt sql.NullTime
	err := row.Scan(&d.ID, &d.Date, &d.Shift, &d.ShiftIncharge, &summary, &total,
		&d.PostingStatus, &d.PostedBy, &postedAt, &d.IsReference, &d.Origin, &d.ImportBatch,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return err
	}
	if postedAt.Valid {
		t := postedAt.Time
		d.PostedAt = &t
	}
	if err := json.Unmarshal(summary, &d.Summary); err != nil {
		return fmt.Errorf("decode summary of report %d: %w", d.ID, err)
	}
	if err := json.Unmarshal(total, &d.ShiftTotal); err != nil {
		return fmt.Errorf("decode shift total of report %d: %w", d.ID, err)
	}
	return nil
}

// ListReports returns report headers and totals without their lines.
func (db *DB) ListReports(ctx context.Context, f ReportFilter) ([]dpr.DPRData, error) {
	query := "SELECT " + reportColumns + " FROM dpr_reports WHERE true"
	var args []any
	if f.Date != "" {
		args = append(args, f.Date)
		query += " AND report_date = $" + strconv.Itoa(len(args))
	}
	if f.Shift != "" {
		args = append(args, f.Shift)
		query += " AND shift = $" + strconv.Itoa(len(args))
	}
	if f.Reference != nil {
		args = append(args, *f.Reference)
		query += " AND is_reference = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY report_date DESC, shift, created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []dpr.DPRData{}
	for rows.Next() {
		var d dpr.DPRData
		if err := scanReport(rows, &d); err != nil {
			return nil, err
		}
		reports = append(reports, d)
	}
	return reports, rows.Err()
}

// GetReport loads a report with its lines.
func (db *DB) GetReport(ctx context.Context, id int64) (*dpr.DPRData, error) {
	var d dpr.DPRData
	if err := scanReport(db.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM dpr_reports WHERE id = $1", id), &d); err != nil {
		return nil, mapErr(err)
	}
	if err := db.loadLines(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// FindReport loads the report stored for a date and shift.
func (db *DB) FindReport(ctx context.Context, date string, shift dpr.Shift, reference bool) (*dpr.DPRData, error) {
	var d dpr.DPRData
	err := scanReport(db.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM dpr_reports WHERE report_date = $1 AND shift = $2 AND is_reference = $3",
		date, shift, reference), &d)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := db.loadLines(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (db *DB) loadLines(ctx context.Context, d *dpr.DPRData) error {
	rows, err := db.QueryContext(ctx, `
		SELECT line_id, operator, current_run, changeover_run
		FROM dpr_lines WHERE report_id = $1 ORDER BY position`, d.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	d.Machines = []dpr.MachineData{}
	for rows.Next() {
		var m dpr.MachineData
		var current, changeover []byte
		if err := rows.Scan(&m.LineID, &m.Operator, &current, &changeover); err != nil {
			return err
		}
		if err := json.Unmarshal(current, &m.Current); err != nil {
			return fmt.Errorf("decode line %s of report %d: %w", m.LineID, d.ID, err)
		}
		if changeover != nil {
			m.Changeover = &dpr.ProductionRun{}
			if err := json.Unmarshal(changeover, m.Changeover); err != nil {
				return fmt.Errorf("decode changeover of line %s, report %d: %w", m.LineID, d.ID, err)
			}
		}
		d.Machines = append(d.Machines, m)
	}
	return rows.Err()
}

// CreateReport inserts the report and its lines in one transaction.
func (db *DB) CreateReport(ctx context.Context, d *dpr.DPRData) error {
	summary, total, err := encodeTotals(d)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var createdBy any
	if d.CreatedBy != 0 {
		createdBy = d.CreatedBy
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO dpr_reports (report_date, shift, shift_incharge, summary, shift_total,
			is_reference, origin, import_batch, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		d.Date, d.Shift, d.ShiftIncharge, summary, total,
		d.IsReference, d.Origin, d.ImportBatch, createdBy).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	if err := insertLines(ctx, tx, d); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateReport rewrites a draft report. Lines are replaced wholesale.
// Posted reports are left untouched and dpr.ErrPosted is returned.
func (db *DB) UpdateReport(ctx context.Context, d *dpr.DPRData) error {
	summary, total, err := encodeTotals(d)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status dpr.PostingStatus
	err = tx.QueryRowContext(ctx, "SELECT posting_status FROM dpr_reports WHERE id = $1 FOR UPDATE", d.ID).Scan(&status)
	if err != nil {
		return mapErr(err)
	}
	if status == dpr.StatusPosted {
		return dpr.ErrPosted
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE dpr_reports SET report_date = $1, shift = $2, shift_incharge = $3, summary = $4,
			shift_total = $5, is_reference = $6, origin = $7, import_batch = $8, updated_at = now()
		WHERE id = $9
		RETURNING updated_at`,
		d.Date, d.Shift, d.ShiftIncharge, summary, total,
		d.IsReference, d.Origin, d.ImportBatch, d.ID).Scan(&d.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM dpr_lines WHERE report_id = $1", d.ID); err != nil {
		return fmt.Errorf("delete lines of report %d: %w", d.ID, err)
	}
	if err := insertLines(ctx, tx, d); err != nil {
		return err
	}
	return tx.Commit()
}

func insertLines(ctx context.Context, tx *sql.Tx, d *dpr.DPRData) error {
	for i, m := range d.Machines {
		current, err := json.Marshal(m.Current)
		if err != nil {
			return err
		}
		// changeover_run stays NULL for single-run lines.
		var changeover any
		if m.Changeover != nil {
			b, err := json.Marshal(m.Changeover)
			if err != nil {
				return err
			}
			changeover = b
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO dpr_lines (report_id, position, line_id, operator, current_run, changeover_run)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			d.ID, i, m.LineID, m.Operator, current, changeover)
		if err != nil {
			return fmt.Errorf("insert line %s of report %d: %w", m.LineID, d.ID, err)
		}
	}
	return nil
}

func encodeTotals(d *dpr.DPRData) ([]byte, []byte, error) {
	summary, err := json.Marshal(d.Summary)
	if err != nil {
		return nil, nil, err
	}
	total, err := json.Marshal(d.ShiftTotal)
	if err != nil {
		return nil, nil, err
	}
	return summary, total, nil
}

// DeleteReport removes a draft report and its lines.
func (db *DB) DeleteReport(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM dpr_reports WHERE id = $1 AND posting_status <> $2", id, dpr.StatusPosted)
	if err := affected(res, err); !errors.Is(err, ErrNotFound) {
		return err
	}
	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM dpr_reports WHERE id = $1)", id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return dpr.ErrPosted
	}
	return ErrNotFound
}

// MarkPosted records the posting of a manual report. It is the only
// write allowed on the draft -> posted edge.
func (db *DB) MarkPosted(ctx context.Context, id int64, by string, at time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE dpr_reports SET posting_status = $1, posted_by = $2, posted_at = $3, updated_at = now()
		WHERE id = $4 AND posting_status <> $1 AND NOT is_reference`,
		dpr.StatusPosted, by, at, id)
	if err := affected(res, err); errors.Is(err, ErrNotFound) {
		return dpr.ErrAlreadyPosted
	} else if err != nil {
		return err
	}
	return nil
}
