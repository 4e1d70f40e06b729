package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterState_IncludesEverything(t *testing.T) {
	store := NewStore(sampleRecords(), "test")
	fs := NewFilterState(store)

	assert.Equal(t, []string{"Alice", "Bob", "Carla"}, fs.People())
	assert.Equal(t, []string{
		"Digital Cellar & Collection Management",
		"Discovery & Education",
		"Logistics, Delivery & Post-Purchase Care",
		"Wine Investment & Financial Tools",
	}, fs.Areas())
	assert.Len(t, fs.Features(), 4)
}

func TestApplyFilters_SinglePerson(t *testing.T) {
	store := NewStore(sampleRecords(), "test")
	fs := NewFilterState(store).Set(FilterPerson, "Alice", false).Set(FilterPerson, "Carla", false)

	filtered := ApplyFilters(Aggregate(store), fs)

	require.Len(t, filtered, 3)
	want := map[string][3]float64{
		"Pairing Guide":     {3, 2, 0},
		"Cellar Tracker":    {2, 4, 100},
		"Delivery Tracking": {1, 5, 0},
	}
	for _, f := range filtered {
		w, ok := want[f.Name]
		require.True(t, ok, f.Name)
		assert.Equal(t, w[0], f.AvgImpact, f.Name)
		assert.Equal(t, w[1], f.AvgEffort, f.Name)
		assert.Equal(t, w[2], f.SelectionRate, f.Name)
		require.Len(t, f.Evaluations, 1)
		assert.Equal(t, "Bob", f.Evaluations[0].Person)
	}
}

func TestApplyFilters(t *testing.T) {
	store := NewStore(sampleRecords(), "test")
	all := NewFilterState(store)

	tests := []struct {
		name     string
		filters  FilterState
		expected []string
	}{
		{
			name:     "all included",
			filters:  all,
			expected: []string{"Pairing Guide", "Cellar Tracker", "Price Alerts", "Delivery Tracking"},
		},
		{
			name:     "area excluded",
			filters:  all.Set(FilterArea, "Discovery & Education", false),
			expected: []string{"Cellar Tracker", "Price Alerts", "Delivery Tracking"},
		},
		{
			name:     "feature excluded",
			filters:  all.Set(FilterFeature, "Price Alerts", false),
			expected: []string{"Pairing Guide", "Cellar Tracker", "Delivery Tracking"},
		},
		{
			name:     "only Carla keeps only what she evaluated",
			filters:  all.Set(FilterPerson, "Alice", false).Set(FilterPerson, "Bob", false),
			expected: []string{"Pairing Guide"},
		},
		{
			name:     "zero value excludes everything",
			filters:  FilterState{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := ApplyFilters(Aggregate(store), tt.filters)
			names := make([]string, 0, len(filtered))
			for _, f := range filtered {
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	store := NewStore(sampleRecords(), "test")
	features := Aggregate(store)
	before := features[0].AvgImpact

	_ = ApplyFilters(features, NewFilterState(store).Set(FilterPerson, "Alice", false))

	assert.Equal(t, before, features[0].AvgImpact)
	assert.Len(t, features[0].Evaluations, 3)
}

func TestFilterState_SetIsCopyOnWrite(t *testing.T) {
	store := NewStore(sampleRecords(), "test")
	original := NewFilterState(store)

	next := original.Set(FilterPerson, "Alice", false)

	assert.True(t, original.HasPerson("Alice"))
	assert.False(t, next.HasPerson("Alice"))
	assert.True(t, next.Set(FilterPerson, "Alice", true).HasPerson("Alice"))
	assert.Equal(t, original.People(), original.Set(FilterKind("bogus"), "Alice", false).People())
}

func TestFilterState_JSON(t *testing.T) {
	fs := NewFilterState(NewStore(sampleRecords(), "test")).Set(FilterPerson, "Bob", false)

	data, err := json.Marshal(fs)
	require.NoError(t, err)

	var decoded FilterState
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, fs.People(), decoded.People())
	assert.Equal(t, fs.Areas(), decoded.Areas())
	assert.Equal(t, fs.Features(), decoded.Features())
	assert.JSONEq(t, `["Alice","Carla"]`, mustJSON(t, decoded.People()))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
