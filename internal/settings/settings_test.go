package settings

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[int][]byte

func (m memStore) LoadSettings(_ context.Context, userID int) ([]byte, error) {
	return m[userID], nil
}

func (m memStore) SaveSettings(_ context.Context, userID int, doc []byte) error {
	m[userID] = doc
	return nil
}

func TestMerge(t *testing.T) {
	base := Defaults()
	got := Merge(base, Preferences{
		Columns:  map[string]bool{"remark": true, "lumps": false, "colour": true},
		Sections: map[string]bool{"quality": true},
	})

	assert.True(t, got.Columns["remark"])
	assert.False(t, got.Columns["lumps"])
	assert.NotContains(t, got.Columns, "colour")
	assert.True(t, got.Sections["quality"])
	// base untouched
	assert.False(t, base.Columns["remark"])
}

func TestLoadDefaults(t *testing.T) {
	p, err := LoadDefaults(strings.NewReader("columns:\n  remark: true\nsections:\n  summary: false\n  unknown: true\n"))
	require.NoError(t, err)
	assert.True(t, p.Columns["remark"])
	assert.False(t, p.Sections["summary"])
	assert.NotContains(t, p.Sections, "unknown")

	p, err = LoadDefaults(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)
}

func TestManager(t *testing.T) {
	store := memStore{}
	m := NewManager(Defaults(), store)
	ctx := context.Background()

	p, err := m.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)

	p.Columns["rej_kgs"] = false
	p.Columns["bogus"] = true
	saved, err := m.Save(ctx, 7, p)
	require.NoError(t, err)
	assert.False(t, saved.Columns["rej_kgs"])
	assert.NotContains(t, saved.Columns, "bogus")

	var raw Preferences
	require.NoError(t, json.Unmarshal(store[7], &raw))
	assert.NotContains(t, raw.Columns, "bogus")

	loaded, err := m.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	store[8] = []byte("{not json")
	_, err = m.Load(ctx, 8)
	assert.Error(t, err)
}
