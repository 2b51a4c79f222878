package unit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brigade
// ├── battalion
// │   ├── companyA
// │   └── companyB
// └── support
func testTree() (Index, map[string]uuid.UUID) {
	ids := map[string]uuid.UUID{
		"brigade":   uuid.New(),
		"battalion": uuid.New(),
		"companyA":  uuid.New(),
		"companyB":  uuid.New(),
		"support":   uuid.New(),
	}
	ptr := func(name string) *uuid.UUID { v := ids[name]; return &v }
	units := []Unit{
		{ID: ids["brigade"], Code: "BDE-1", Name: "1st Brigade"},
		{ID: ids["battalion"], Code: "BN-1", Name: "1st Battalion", ParentID: ptr("brigade")},
		{ID: ids["companyA"], Code: "CO-A", Name: "Alpha Company", ParentID: ptr("battalion")},
		{ID: ids["companyB"], Code: "CO-B", Name: "Bravo Company", ParentID: ptr("battalion")},
		{ID: ids["support"], Code: "SPT", Name: "Support Detachment", ParentID: ptr("brigade")},
	}
	return BuildIndex(units), ids
}

func TestIndex_IsDescendantOf(t *testing.T) {
	idx, ids := testTree()

	assert.True(t, idx.IsDescendantOf(ids["companyA"], ids["battalion"]))
	assert.True(t, idx.IsDescendantOf(ids["companyA"], ids["brigade"]))
	assert.True(t, idx.IsDescendantOf(ids["battalion"], ids["battalion"]), "scope is reflexive")

	assert.False(t, idx.IsDescendantOf(ids["battalion"], ids["companyA"]), "never upward")
	assert.False(t, idx.IsDescendantOf(ids["support"], ids["battalion"]), "never across siblings")
	assert.False(t, idx.IsDescendantOf(uuid.New(), ids["brigade"]), "unknown ids are out of scope")
}

func TestIndex_Descendants(t *testing.T) {
	idx, ids := testTree()

	got := idx.Descendants(ids["battalion"])
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []uuid.UUID{ids["companyA"], ids["companyB"]}, got)

	assert.Len(t, idx.Descendants(ids["brigade"]), 4)
	assert.Empty(t, idx.Descendants(ids["companyA"]))
	assert.Nil(t, idx.Descendants(uuid.New()))
}

func TestIndex_Ancestors(t *testing.T) {
	idx, ids := testTree()

	got := idx.Ancestors(ids["companyA"])
	require.Equal(t, []uuid.UUID{ids["battalion"], ids["brigade"]}, got)
	assert.Empty(t, idx.Ancestors(ids["brigade"]))
}

func TestIndex_CycleSafety(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	// a and b point at each other; the index must terminate anyway.
	units := []Unit{
		{ID: a, Code: "A", ParentID: &b},
		{ID: b, Code: "B", ParentID: &a},
	}
	idx := BuildIndex(units)

	other := uuid.New()
	assert.False(t, idx.IsDescendantOf(a, other))
	assert.True(t, idx.IsDescendantOf(a, b))
	assert.NotPanics(t, func() { idx.Descendants(a) })
	assert.NotPanics(t, func() { idx.Ancestors(a) })
}
