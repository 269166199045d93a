package store

import (
	"context"

	"production_report/internal/models"
)

// Shift hours

func (db *DB) ListShiftHours(ctx context.Context) ([]models.ShiftHours, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, start_time, end_time FROM shift_hours ORDER BY start_time")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []models.ShiftHours{}
	for rows.Next() {
		var s models.ShiftHours
		if err := rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

func (db *DB) CreateShiftHours(ctx context.Context, s *models.ShiftHours) error {
	return mapErr(db.QueryRowContext(ctx,
		"INSERT INTO shift_hours (name, start_time, end_time) VALUES ($1, $2, $3) RETURNING id",
		s.Name, s.StartTime, s.EndTime).Scan(&s.ID))
}

func (db *DB) UpdateShiftHours(ctx context.Context, s *models.ShiftHours) error {
	return affected(db.ExecContext(ctx,
		"UPDATE shift_hours SET name = $1, start_time = $2, end_time = $3 WHERE id = $4",
		s.Name, s.StartTime, s.EndTime, s.ID))
}

func (db *DB) DeleteShiftHours(ctx context.Context, id int) error {
	return affected(db.ExecContext(ctx, "DELETE FROM shift_hours WHERE id = $1", id))
}

// Stoppage reasons

func (db *DB) ListStoppageReasons(ctx context.Context) ([]models.StoppageReason, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, reason FROM stoppage_reasons ORDER BY reason")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reasons := []models.StoppageReason{}
	for rows.Next() {
		var r models.StoppageReason
		if err := rows.Scan(&r.ID, &r.Reason); err != nil {
			return nil, err
		}
		reasons = append(reasons, r)
	}
	return reasons, rows.Err()
}

func (db *DB) CreateStoppageReason(ctx context.Context, r *models.StoppageReason) error {
	return mapErr(db.QueryRowContext(ctx,
		"INSERT INTO stoppage_reasons (reason) VALUES ($1) RETURNING id", r.Reason).Scan(&r.ID))
}

func (db *DB) UpdateStoppageReason(ctx context.Context, r *models.StoppageReason) error {
	return affected(db.ExecContext(ctx, "UPDATE stoppage_reasons SET reason = $1 WHERE id = $2", r.Reason, r.ID))
}

func (db *DB) DeleteStoppageReason(ctx context.Context, id int) error {
	return affected(db.ExecContext(ctx, "DELETE FROM stoppage_reasons WHERE id = $1", id))
}

// Moulds

const mouldColumns = "id, name, cavity, target_cycle, part_weight, machine, updated_at"

func scanMould(row interface{ Scan(...any) error }, m *models.Mould) error {
	return row.Scan(&m.ID, &m.Name, &m.Cavity, &m.TargetCycle, &m.PartWeight, &m.Machine, &m.UpdatedAt)
}

func (db *DB) ListMoulds(ctx context.Context) ([]models.Mould, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+mouldColumns+" FROM moulds ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	moulds := []models.Mould{}
	for rows.Next() {
		var m models.Mould
		if err := scanMould(rows, &m); err != nil {
			return nil, err
		}
		moulds = append(moulds, m)
	}
	return moulds, rows.Err()
}

func (db *DB) GetMouldByName(ctx context.Context, name string) (*models.Mould, error) {
	var m models.Mould
	if err := scanMould(db.QueryRowContext(ctx, "SELECT "+mouldColumns+" FROM moulds WHERE name = $1", name), &m); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (db *DB) CreateMould(ctx context.Context, m *models.Mould) error {
	return mapErr(db.QueryRowContext(ctx, `
		INSERT INTO moulds (name, cavity, target_cycle, part_weight, machine)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, updated_at`,
		m.Name, m.Cavity, m.TargetCycle, m.PartWeight, m.Machine).Scan(&m.ID, &m.UpdatedAt))
}

func (db *DB) UpdateMould(ctx context.Context, m *models.Mould) error {
	return affected(db.ExecContext(ctx, `
		UPDATE moulds SET name = $1, cavity = $2, target_cycle = $3, part_weight = $4, machine = $5, updated_at = now()
		WHERE id = $6`,
		m.Name, m.Cavity, m.TargetCycle, m.PartWeight, m.Machine, m.ID))
}

func (db *DB) DeleteMould(ctx context.Context, id int) error {
	return affected(db.ExecContext(ctx, "DELETE FROM moulds WHERE id = $1", id))
}
