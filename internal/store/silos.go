package store

import (
	"context"
	"fmt"

	"production_report/internal/models"
)

func (db *DB) ListSilos(ctx context.Context) ([]models.Silo, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, material, capacity_kg, level_kg, updated_at FROM silos ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	silos := []models.Silo{}
	for rows.Next() {
		var s models.Silo
		if err := rows.Scan(&s.ID, &s.Name, &s.Material, &s.CapacityKg, &s.LevelKg, &s.UpdatedAt); err != nil {
			return nil, err
		}
		silos = append(silos, s)
	}
	return silos, rows.Err()
}

func (db *DB) GetSilo(ctx context.Context, id int) (*models.Silo, error) {
	var s models.Silo
	err := db.QueryRowContext(ctx, "SELECT id, name, material, capacity_kg, level_kg, updated_at FROM silos WHERE id = $1", id).
		Scan(&s.ID, &s.Name, &s.Material, &s.CapacityKg, &s.LevelKg, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (db *DB) CreateSilo(ctx context.Context, s *models.Silo) error {
	if s.LevelKg > s.CapacityKg {
		return fmt.Errorf("%w: level %.1f kg above capacity %.1f kg", models.ErrCapacityExceeded, s.LevelKg, s.CapacityKg)
	}
	return mapErr(db.QueryRowContext(ctx, `
		INSERT INTO silos (name, material, capacity_kg, level_kg) VALUES ($1, $2, $3, $4)
		RETURNING id, updated_at`,
		s.Name, s.Material, s.CapacityKg, s.LevelKg).Scan(&s.ID, &s.UpdatedAt))
}

// RecordSiloTransaction applies tx to the locked silo row and appends it
// to the silo's ledger.
func (db *DB) RecordSiloTransaction(ctx context.Context, tx *models.SiloTransaction) error {
	dbTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	var s models.Silo
	err = dbTx.QueryRowContext(ctx,
		"SELECT id, name, material, capacity_kg, level_kg FROM silos WHERE id = $1 FOR UPDATE", tx.SiloID).
		Scan(&s.ID, &s.Name, &s.Material, &s.CapacityKg, &s.LevelKg)
	if err != nil {
		return mapErr(err)
	}

	level, err := models.ApplySiloTransaction(s, *tx)
	if err != nil {
		return err
	}
	tx.LevelAfter = level

	if _, err := dbTx.ExecContext(ctx, "UPDATE silos SET level_kg = $1, updated_at = now() WHERE id = $2", level, s.ID); err != nil {
		return fmt.Errorf("update silo %d: %w", s.ID, err)
	}

	var createdBy any
	if tx.CreatedBy != 0 {
		createdBy = tx.CreatedBy
	}
	err = dbTx.QueryRowContext(ctx, `
		INSERT INTO silo_transactions (silo_id, kind, quantity_kg, level_after, reference, created_by)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		tx.SiloID, tx.Kind, tx.QuantityKg, tx.LevelAfter, tx.Reference, createdBy).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	return dbTx.Commit()
}

// ListSiloTransactions returns the latest transactions of a silo first.
func (db *DB) ListSiloTransactions(ctx context.Context, siloID, limit int) ([]models.SiloTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, silo_id, kind, quantity_kg, level_after, reference, COALESCE(created_by, 0), created_at
		FROM silo_transactions WHERE silo_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, siloID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []models.SiloTransaction{}
	for rows.Next() {
		var t models.SiloTransaction
		if err := rows.Scan(&t.ID, &t.SiloID, &t.Kind, &t.QuantityKg, &t.LevelAfter, &t.Reference, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
