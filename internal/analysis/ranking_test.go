package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scored(name string, score, impact, effort float64) ScoredFeature {
	return ScoredFeature{
		AggregatedFeature: AggregatedFeature{Name: name, AvgImpact: impact, AvgEffort: effort},
		Score:             score,
		Quadrant:          Classify(impact, effort),
	}
}

func names(features []ScoredFeature) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = f.Name
	}
	return out
}

func TestSortFeatures(t *testing.T) {
	input := []ScoredFeature{
		scored("beta", 60, 4, 2),
		scored("Alpha", 70, 3, 2),
		scored("gamma", 60, 4, 5),
		scored("delta", 50, 2, 2),
	}

	tests := []struct {
		name     string
		spec     SortSpec
		expected []string
	}{
		{name: "score desc keeps tie order", spec: SortSpec{SortByScore, SortDesc}, expected: []string{"Alpha", "beta", "gamma", "delta"}},
		{name: "score asc keeps tie order", spec: SortSpec{SortByScore, SortAsc}, expected: []string{"delta", "beta", "gamma", "Alpha"}},
		{name: "impact desc", spec: SortSpec{SortByImpact, SortDesc}, expected: []string{"beta", "gamma", "Alpha", "delta"}},
		{name: "effort asc", spec: SortSpec{SortByEffort, SortAsc}, expected: []string{"beta", "Alpha", "delta", "gamma"}},
		{name: "effort desc", spec: SortSpec{SortByEffort, SortDesc}, expected: []string{"gamma", "beta", "Alpha", "delta"}},
		{name: "name is case-insensitive", spec: SortSpec{SortByName, SortAsc}, expected: []string{"Alpha", "beta", "delta", "gamma"}},
		{name: "name desc", spec: SortSpec{SortByName, SortDesc}, expected: []string{"gamma", "delta", "beta", "Alpha"}},
		{name: "unknown field sorts by score", spec: SortSpec{SortField("size"), SortDesc}, expected: []string{"Alpha", "beta", "gamma", "delta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, names(SortFeatures(input, tt.spec)))
		})
	}

	assert.Equal(t, []string{"beta", "Alpha", "gamma", "delta"}, names(input), "input must not be reordered")
}

func TestSortFeatures_StableOnAllEqual(t *testing.T) {
	input := []ScoredFeature{
		scored("one", 50, 3, 3),
		scored("two", 50, 3, 3),
		scored("three", 50, 3, 3),
	}

	for _, order := range []SortOrder{SortAsc, SortDesc} {
		for _, field := range []SortField{SortByScore, SortByImpact, SortByEffort} {
			assert.Equal(t, []string{"one", "two", "three"}, names(SortFeatures(input, SortSpec{field, order})))
		}
	}
}

func TestInQuadrant(t *testing.T) {
	input := []ScoredFeature{
		scored("slow", 55, 4, 4),
		scored("fast", 65, 4, 2),
		scored("faster", 80, 5, 1),
		scored("meh", 40, 2, 4),
	}

	assert.Equal(t, []string{"faster", "fast"}, names(InQuadrant(input, QuadrantQuickWins)))
	assert.Equal(t, []string{"slow"}, names(InQuadrant(input, QuadrantMajorProjects)))
	assert.Empty(t, InQuadrant(input, QuadrantFillIns))
}

func TestQuadrant(t *testing.T) {
	assert.True(t, QuadrantFillIns.Valid())
	assert.False(t, Quadrant("north").Valid())
	assert.Equal(t, "Quick Wins - High Impact, Low Effort", QuadrantQuickWins.Title())
	assert.Equal(t, "Quadrant Features", Quadrant("north").Title())
}
