// Package dashboard holds the application state of one dashboard session,
// the events that change it and the render step that turns it into a
// presentation snapshot.
package dashboard

import (
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
)

// View is the active presentation of the features.
type View string

const (
	ViewMatrix View = "matrix"
	ViewTable  View = "table"
)

func (v View) Valid() bool {
	return v == ViewMatrix || v == ViewTable
}

// State is everything a user can change. It is a plain value: transitions
// return a new State and never touch the previous one.
type State struct {
	Filters          analysis.FilterState  `json:"filters"`
	Weights          analysis.WeightState  `json:"weights"`
	Scaling          analysis.ScalingState `json:"scaling"`
	View             View                  `json:"view"`
	Sort             analysis.SortSpec     `json:"sort"`
	SelectedQuadrant analysis.Quadrant     `json:"selected_quadrant,omitempty"`
}

// NewState is the state right after a load: everything included, default
// weights, no scaling, matrix view, best score first.
func NewState(store *analysis.Store) State {
	return State{
		Filters: analysis.NewFilterState(store),
		Weights: analysis.DefaultWeights(),
		View:    ViewMatrix,
		Sort:    analysis.DefaultSort(),
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Filters = s.Filters.Clone()
	return s
}
