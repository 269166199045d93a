package models

import "time"

type BOMCategory string

const (
	BOMCategorySFG     BOMCategory = "SFG"
	BOMCategoryFG      BOMCategory = "FG"
	BOMCategoryLocalFG BOMCategory = "LOCAL_FG"
)

// BOMCategories is the release order.
var BOMCategories = []BOMCategory{BOMCategorySFG, BOMCategoryFG, BOMCategoryLocalFG}

func (c BOMCategory) Valid() bool {
	for _, k := range BOMCategories {
		if c == k {
			return true
		}
	}
	return false
}

type BOMStatus string

const (
	BOMDraft    BOMStatus = "DRAFT"
	BOMReleased BOMStatus = "RELEASED"
)

type BOMItem struct {
	Material string  `json:"material" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Unit     string  `json:"unit" validate:"required"`
}

type BOM struct {
	ID         int         `json:"id"`
	Category   BOMCategory `json:"category" validate:"required,oneof=SFG FG LOCAL_FG"`
	Code       string      `json:"code" validate:"required"`
	Product    string      `json:"product" validate:"required"`
	Version    int         `json:"version"`
	Status     BOMStatus   `json:"status"`
	Items      []BOMItem   `json:"items" validate:"dive"`
	ReleasedBy string      `json:"released_by,omitempty"`
	ReleasedAt *time.Time  `json:"released_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// BOMReleaseResult is the outcome of releasing one category.
type BOMReleaseResult struct {
	Category BOMCategory `json:"category"`
	Released int         `json:"released"`
	Error    string      `json:"error,omitempty"`
}
