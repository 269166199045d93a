package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCapacityExceeded  = errors.New("silo capacity exceeded")
	ErrInsufficientStock = errors.New("insufficient material in silo")
	ErrInvalidQuantity   = errors.New("invalid quantity")
)

type SiloTxKind string

const (
	SiloReceipt SiloTxKind = "RECEIPT"
	SiloIssue   SiloTxKind = "ISSUE"
	SiloAdjust  SiloTxKind = "ADJUST"
)

type Silo struct {
	ID         int       `json:"id"`
	Name       string    `json:"name" validate:"required"`
	Material   string    `json:"material" validate:"required"`
	CapacityKg float64   `json:"capacity_kg" validate:"gt=0"`
	LevelKg    float64   `json:"level_kg" validate:"gte=0"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SiloTransaction struct {
	ID         int        `json:"id"`
	SiloID     int        `json:"silo_id"`
	Kind       SiloTxKind `json:"kind" validate:"required,oneof=RECEIPT ISSUE ADJUST"`
	QuantityKg float64    `json:"quantity_kg" validate:"gte=0"`
	LevelAfter float64    `json:"level_after"`
	Reference  string     `json:"reference,omitempty"`
	CreatedBy  int        `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ApplySiloTransaction returns the silo level after tx. Receipts may not
// overfill, issues may not go below zero and adjustments set an absolute
// level within capacity.
func ApplySiloTransaction(s Silo, tx SiloTransaction) (float64, error) {
	if tx.QuantityKg < 0 {
		return 0, ErrInvalidQuantity
	}
	switch tx.Kind {
	case SiloReceipt:
		if tx.QuantityKg == 0 {
			return 0, ErrInvalidQuantity
		}
		level := s.LevelKg + tx.QuantityKg
		if level > s.CapacityKg {
			return 0, fmt.Errorf("%w: %s holds %.1f of %.1f kg, receipt %.1f kg",
				ErrCapacityExceeded, s.Name, s.LevelKg, s.CapacityKg, tx.QuantityKg)
		}
		return level, nil
	case SiloIssue:
		if tx.QuantityKg == 0 {
			return 0, ErrInvalidQuantity
		}
		if tx.QuantityKg > s.LevelKg {
			return 0, fmt.Errorf("%w: %s holds %.1f kg, issue %.1f kg",
				ErrInsufficientStock, s.Name, s.LevelKg, tx.QuantityKg)
		}
		return s.LevelKg - tx.QuantityKg, nil
	case SiloAdjust:
		if tx.QuantityKg > s.CapacityKg {
			return 0, fmt.Errorf("%w: %s capacity %.1f kg, level %.1f kg",
				ErrCapacityExceeded, s.Name, s.CapacityKg, tx.QuantityKg)
		}
		return tx.QuantityKg, nil
	default:
		return 0, fmt.Errorf("unknown silo transaction kind %q", tx.Kind)
	}
}
