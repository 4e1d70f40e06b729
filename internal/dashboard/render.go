package dashboard

import (
	"sort"
	"time"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
)

// Snapshot is everything a presentation layer needs to draw one frame.
type Snapshot struct {
	Dataset  DatasetInfo       `json:"dataset"`
	State    State             `json:"state"`
	Weights  WeightIndicator   `json:"weights"`
	Counts   analysis.Counts   `json:"counts"`
	Matrix   []MatrixPoint     `json:"matrix"`
	Table    []TableRow        `json:"table"`
	Quadrant *QuadrantPanel    `json:"quadrant,omitempty"`
	Options  FilterOptions     `json:"options"`
	Palette  map[string]string `json:"palette"`
}

type DatasetInfo struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Records  int       `json:"records"`
	Issues   int       `json:"issues"`
}

type WeightIndicator struct {
	analysis.WeightState
	Total int  `json:"total"`
	Valid bool `json:"valid"`
}

// MatrixPoint is one bubble on the matrix. Coordinates are the possibly
// scaled averages; DisplayImpact and DisplayEffort are always the originals.
type MatrixPoint struct {
	analysis.ScoredFeature
	Color         string  `json:"color"`
	DisplayImpact float64 `json:"display_impact"`
	DisplayEffort float64 `json:"display_effort"`
}

type TableRow struct {
	Rank          int               `json:"rank"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	MacroArea     string            `json:"macro_area"`
	Color         string            `json:"color"`
	Score         float64           `json:"score"`
	AvgImpact     float64           `json:"avg_impact"`
	AvgEffort     float64           `json:"avg_effort"`
	SelectionRate float64           `json:"selection_rate"`
	Quadrant      analysis.Quadrant `json:"quadrant"`
	SelectedBy    []string          `json:"selected_by"`
}

type QuadrantPanel struct {
	Quadrant analysis.Quadrant `json:"quadrant"`
	Title    string            `json:"title"`
	Features []MatrixPoint     `json:"features"`
}

type PersonOption struct {
	Name         string `json:"name"`
	FeatureCount int    `json:"feature_count"`
	Checked      bool   `json:"checked"`
}

type AreaOption struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Color   string `json:"color"`
	Checked bool   `json:"checked"`
}

type FeatureOption struct {
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

type FilterOptions struct {
	People   []PersonOption  `json:"people"`
	Areas    []AreaOption    `json:"areas"`
	Features []FeatureOption `json:"features"`
}

// Render computes the snapshot for state over store. The matrix and the
// quadrant panel use scaled values; the table always ranks the unscaled view.
func Render(store *analysis.Store, s State) Snapshot {
	weights := s.Weights.Sanitize()
	scaled := analysis.ComputeView(store, s.Filters, weights, s.Scaling)
	unscaled := scaled
	if s.Scaling.Impact || s.Scaling.Effort {
		unscaled = analysis.ComputeView(store, s.Filters, weights, analysis.ScalingState{})
	}

	snap := Snapshot{
		Dataset: DatasetInfo{
			ID:       store.ID(),
			Source:   store.Source(),
			LoadedAt: store.LoadedAt(),
			Records:  store.Len(),
			Issues:   len(store.Issues()),
		},
		State: s.Clone(),
		Weights: WeightIndicator{
			WeightState: s.Weights,
			Total:       s.Weights.Total(),
			Valid:       s.Weights.Valid(),
		},
		Counts:  analysis.CountFeatures(scaled),
		Matrix:  matrixPoints(scaled),
		Table:   tableRows(analysis.SortFeatures(unscaled, s.Sort)),
		Options: filterOptions(store, s.Filters),
		Palette: analysis.Palette(),
	}

	if s.View == ViewMatrix && s.SelectedQuadrant.Valid() {
		snap.Quadrant = &QuadrantPanel{
			Quadrant: s.SelectedQuadrant,
			Title:    s.SelectedQuadrant.Title(),
			Features: matrixPoints(analysis.InQuadrant(scaled, s.SelectedQuadrant)),
		}
	}
	return snap
}

func matrixPoints(features []analysis.ScoredFeature) []MatrixPoint {
	points := make([]MatrixPoint, 0, len(features))
	for _, f := range features {
		points = append(points, MatrixPoint{
			ScoredFeature: f,
			Color:         analysis.ColorFor(f.MacroArea),
			DisplayImpact: f.DisplayImpact(),
			DisplayEffort: f.DisplayEffort(),
		})
	}
	return points
}

func tableRows(features []analysis.ScoredFeature) []TableRow {
	rows := make([]TableRow, 0, len(features))
	for i, f := range features {
		selectedBy := f.SelectedBy()
		if selectedBy == nil {
			selectedBy = []string{}
		}
		rows = append(rows, TableRow{
			Rank:          i + 1,
			Name:          f.Name,
			Description:   f.Description,
			MacroArea:     f.MacroArea,
			Color:         analysis.ColorFor(f.MacroArea),
			Score:         f.Score,
			AvgImpact:     f.AvgImpact,
			AvgEffort:     f.AvgEffort,
			SelectionRate: f.SelectionRate,
			Quadrant:      f.Quadrant,
			SelectedBy:    selectedBy,
		})
	}
	return rows
}

func filterOptions(store *analysis.Store, fs analysis.FilterState) FilterOptions {
	opts := FilterOptions{
		People:   []PersonOption{},
		Areas:    []AreaOption{},
		Features: []FeatureOption{},
	}

	for _, p := range store.People() {
		opts.People = append(opts.People, PersonOption{
			Name:         p.Name,
			FeatureCount: p.FeatureCount,
			Checked:      fs.HasPerson(p.Name),
		})
	}
	sort.SliceStable(opts.People, func(i, j int) bool { return opts.People[i].Name < opts.People[j].Name })

	areaCounts := make(map[string]int)
	for _, f := range analysis.Aggregate(store) {
		area := analysis.NormalizeMacroArea(f.MacroArea)
		if _, seen := areaCounts[area]; !seen {
			opts.Areas = append(opts.Areas, AreaOption{Name: area, Color: analysis.ColorFor(area), Checked: fs.HasArea(area)})
		}
		areaCounts[area]++
		opts.Features = append(opts.Features, FeatureOption{Name: f.Name, Checked: fs.HasFeature(f.Name)})
	}
	for i := range opts.Areas {
		opts.Areas[i].Count = areaCounts[opts.Areas[i].Name]
	}
	sort.SliceStable(opts.Areas, func(i, j int) bool { return opts.Areas[i].Name < opts.Areas[j].Name })
	sort.SliceStable(opts.Features, func(i, j int) bool { return opts.Features[i].Name < opts.Features[j].Name })

	return opts
}
