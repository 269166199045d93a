package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrChecklistIncomplete = errors.New("checklist has unchecked items")
	ErrChecklistClosed     = errors.New("checklist already completed")
)

type ChecklistStatus string

const (
	ChecklistOpen      ChecklistStatus = "OPEN"
	ChecklistCompleted ChecklistStatus = "COMPLETED"
)

// ChecklistItem is a template step of a mould changeover.
type ChecklistItem struct {
	ID    int    `json:"id"`
	Title string `json:"title" validate:"required"`
	Sort  int    `json:"sort"`
}

type ChecklistCheck struct {
	ItemID int    `json:"item_id"`
	Title  string `json:"title"`
	Done   bool   `json:"done"`
	Remark string `json:"remark,omitempty"`
}

type ChangeoverChecklist struct {
	ID          int              `json:"id"`
	Date        string           `json:"date" validate:"required,datetime=2006-01-02"`
	Shift       string           `json:"shift" validate:"required,oneof=DAY NIGHT"`
	LineID      string           `json:"line_id" validate:"required"`
	FromMould   string           `json:"from_mould" validate:"required"`
	ToMould     string           `json:"to_mould" validate:"required,nefield=FromMould"`
	Checks      []ChecklistCheck `json:"checks"`
	Status      ChecklistStatus  `json:"status"`
	CompletedBy string           `json:"completed_by,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	CreatedBy   int              `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewChecklist opens a checklist with one unchecked entry per template item.
func NewChecklist(c ChangeoverChecklist, items []ChecklistItem) ChangeoverChecklist {
	c.Status = ChecklistOpen
	c.Checks = make([]ChecklistCheck, 0, len(items))
	for _, it := range items {
		c.Checks = append(c.Checks, ChecklistCheck{ItemID: it.ID, Title: it.Title})
	}
	return c
}

// UpdateChecks copies done flags and remarks from checks onto c by item id.
func UpdateChecks(c *ChangeoverChecklist, checks []ChecklistCheck) error {
	if c.Status == ChecklistCompleted {
		return ErrChecklistClosed
	}
	byItem := make(map[int]ChecklistCheck, len(checks))
	for _, ch := range checks {
		byItem[ch.ItemID] = ch
	}
	for i := range c.Checks {
		if ch, ok := byItem[c.Checks[i].ItemID]; ok {
			c.Checks[i].Done = ch.Done
			c.Checks[i].Remark = ch.Remark
		}
	}
	return nil
}

// CompleteChecklist closes c once every item is checked.
func CompleteChecklist(c *ChangeoverChecklist, by string, at time.Time) error {
	if c.Status == ChecklistCompleted {
		return ErrChecklistClosed
	}
	var open []string
	for _, ch := range c.Checks {
		if !ch.Done {
			open = append(open, ch.Title)
		}
	}
	if len(open) > 0 {
		return fmt.Errorf("%w: %s", ErrChecklistIncomplete, strings.Join(open, ", "))
	}
	c.Status = ChecklistCompleted
	c.CompletedBy = by
	c.CompletedAt = &at
	return nil
}
