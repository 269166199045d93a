package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeoverChecklist(t *testing.T) {
	items := []ChecklistItem{
		{ID: 1, Title: "Hopper purged"},
		{ID: 2, Title: "Cooling lines connected"},
		{ID: 3, Title: "First article approved"},
	}
	c := NewChecklist(ChangeoverChecklist{LineID: "M4", FromMould: "CAP-28MM", ToMould: "JAR-1L"}, items)

	require.Len(t, c.Checks, 3)
	assert.Equal(t, ChecklistOpen, c.Status)

	require.NoError(t, UpdateChecks(&c, []ChecklistCheck{
		{ItemID: 1, Done: true},
		{ItemID: 2, Done: true, Remark: "leak on B side fixed"},
		{ItemID: 99, Done: true},
	}))
	assert.Equal(t, "leak on B side fixed", c.Checks[1].Remark)

	err := CompleteChecklist(&c, "setter", time.Now())
	assert.ErrorIs(t, err, ErrChecklistIncomplete)
	assert.Contains(t, err.Error(), "First article approved")
	assert.Equal(t, ChecklistOpen, c.Status)

	require.NoError(t, UpdateChecks(&c, []ChecklistCheck{{ItemID: 3, Done: true}}))
	require.NoError(t, CompleteChecklist(&c, "setter", time.Now()))
	assert.Equal(t, ChecklistCompleted, c.Status)
	assert.Equal(t, "setter", c.CompletedBy)

	assert.ErrorIs(t, UpdateChecks(&c, nil), ErrChecklistClosed)
	assert.ErrorIs(t, CompleteChecklist(&c, "setter", time.Now()), ErrChecklistClosed)
}

func TestBOMCategoryValid(t *testing.T) {
	assert.True(t, BOMCategoryLocalFG.Valid())
	assert.False(t, BOMCategory("RM").Valid())
}
