package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/errors"
)

// EventType names an event on the wire.
type EventType string

const (
	EventSetWeight      EventType = "set_weight"
	EventSetWeights     EventType = "set_weights"
	EventToggleFilter   EventType = "toggle_filter"
	EventToggleScaling  EventType = "toggle_scaling"
	EventSwitchView     EventType = "switch_view"
	EventSortTable      EventType = "sort_table"
	EventSelectQuadrant EventType = "select_quadrant"
	EventClearQuadrant  EventType = "clear_quadrant"
)

// Event is one user intent. Applying it never mutates the input state.
type Event interface {
	Type() EventType
	apply(State) (State, error)
}

// Apply is the state transition function.
func Apply(s State, ev Event) (State, error) {
	if ev == nil {
		return s, errors.NewValidationError("event is required")
	}
	next, err := ev.apply(s.Clone())
	if err != nil {
		return s, err
	}
	return next, nil
}

// WeightInput is a slider value as the client sent it. Numbers and strings
// are both accepted so that garbage can fall back to the default instead of
// failing the request.
type WeightInput string

func (w *WeightInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*w = WeightInput(s)
		return nil
	}
	*w = WeightInput(strings.TrimSpace(string(data)))
	return nil
}

// SetWeight changes one weight. Invalid values fall back to that weight's
// default.
type SetWeight struct {
	Kind  analysis.WeightKind `json:"kind"`
	Value WeightInput         `json:"value"`
}

func (SetWeight) Type() EventType { return EventSetWeight }

func (e SetWeight) apply(s State) (State, error) {
	if !e.Kind.Valid() {
		return s, errors.NewValidationError("unknown weight", string(e.Kind))
	}
	s.Weights = s.Weights.With(e.Kind, analysis.ParseWeight(e.Kind, string(e.Value)))
	return s, nil
}

// WeightInputs is a full set of slider values as the client sent them.
type WeightInputs struct {
	Impact     WeightInput `json:"impact"`
	Effort     WeightInput `json:"effort"`
	Preference WeightInput `json:"preference"`
}

// Parse applies ParseWeight to every slider, so missing or garbage values
// become that weight's default.
func (in WeightInputs) Parse() analysis.WeightState {
	return analysis.WeightState{
		Impact:     analysis.ParseWeight(analysis.WeightImpact, string(in.Impact)),
		Effort:     analysis.ParseWeight(analysis.WeightEffort, string(in.Effort)),
		Preference: analysis.ParseWeight(analysis.WeightPreference, string(in.Preference)),
	}
}

// SetWeights replaces all three weights at once.
type SetWeights struct {
	Weights analysis.WeightState `json:"weights"`
}

func (SetWeights) Type() EventType { return EventSetWeights }

func (e *SetWeights) UnmarshalJSON(data []byte) error {
	var raw struct {
		Weights WeightInputs `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Weights = raw.Weights.Parse()
	return nil
}

func (e SetWeights) apply(s State) (State, error) {
	s.Weights = e.Weights.Sanitize()
	return s, nil
}

// ToggleFilter includes or excludes one person, area or feature.
type ToggleFilter struct {
	Kind     analysis.FilterKind `json:"kind"`
	Value    string              `json:"value"`
	Included bool                `json:"included"`
}

func (ToggleFilter) Type() EventType { return EventToggleFilter }

func (e ToggleFilter) apply(s State) (State, error) {
	if !e.Kind.Valid() {
		return s, errors.NewValidationError("unknown filter kind", string(e.Kind))
	}
	s.Filters = s.Filters.Set(e.Kind, e.Value, e.Included)
	return s, nil
}

// ToggleScaling flips impact or effort scaling.
type ToggleScaling struct {
	Metric analysis.Metric `json:"metric"`
}

func (ToggleScaling) Type() EventType { return EventToggleScaling }

func (e ToggleScaling) apply(s State) (State, error) {
	if !e.Metric.Valid() {
		return s, errors.NewValidationError("unknown scaling metric", string(e.Metric))
	}
	s.Scaling = s.Scaling.Toggle(e.Metric)
	return s, nil
}

// SwitchView changes between matrix and table. Leaving the matrix closes the
// quadrant panel.
type SwitchView struct {
	View View `json:"view"`
}

func (SwitchView) Type() EventType { return EventSwitchView }

func (e SwitchView) apply(s State) (State, error) {
	if !e.View.Valid() {
		return s, errors.NewValidationError("unknown view", string(e.View))
	}
	s.View = e.View
	if e.View != ViewMatrix {
		s.SelectedQuadrant = ""
	}
	return s, nil
}

// SortTable sets the table ordering. An empty order keeps the current one.
type SortTable struct {
	Field analysis.SortField `json:"field"`
	Order analysis.SortOrder `json:"order"`
}

func (SortTable) Type() EventType { return EventSortTable }

func (e SortTable) apply(s State) (State, error) {
	if !e.Field.Valid() {
		return s, errors.NewValidationError("unknown sort field", string(e.Field))
	}
	order := e.Order
	if order == "" {
		order = s.Sort.Order
	}
	if !order.Valid() {
		return s, errors.NewValidationError("unknown sort order", string(e.Order))
	}
	s.Sort = analysis.SortSpec{Field: e.Field, Order: order}
	return s, nil
}

// SelectQuadrant opens the panel for a quadrant, or closes it when that
// quadrant is already open.
type SelectQuadrant struct {
	Quadrant analysis.Quadrant `json:"quadrant"`
}

func (SelectQuadrant) Type() EventType { return EventSelectQuadrant }

func (e SelectQuadrant) apply(s State) (State, error) {
	if !e.Quadrant.Valid() {
		return s, errors.NewValidationError("unknown quadrant", string(e.Quadrant))
	}
	if s.SelectedQuadrant == e.Quadrant {
		s.SelectedQuadrant = ""
	} else {
		s.SelectedQuadrant = e.Quadrant
	}
	return s, nil
}

// ClearQuadrant closes the quadrant panel.
type ClearQuadrant struct{}

func (ClearQuadrant) Type() EventType { return EventClearQuadrant }

func (ClearQuadrant) apply(s State) (State, error) {
	s.SelectedQuadrant = ""
	return s, nil
}

type envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEvent reads {"type": "...", "payload": {...}}.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewValidationError("malformed event", err.Error())
	}

	var ev Event
	switch env.Type {
	case EventSetWeight:
		ev = &SetWeight{}
	case EventSetWeights:
		ev = &SetWeights{}
	case EventToggleFilter:
		ev = &ToggleFilter{}
	case EventToggleScaling:
		ev = &ToggleScaling{}
	case EventSwitchView:
		ev = &SwitchView{}
	case EventSortTable:
		ev = &SortTable{}
	case EventSelectQuadrant:
		ev = &SelectQuadrant{}
	case EventClearQuadrant:
		return ClearQuadrant{}, nil
	default:
		return nil, errors.NewValidationError("unknown event type", string(env.Type))
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, ev); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("malformed %s payload", env.Type), err.Error())
		}
	}
	return deref(ev), nil
}

func deref(ev Event) Event {
	switch e := ev.(type) {
	case *SetWeight:
		return *e
	case *SetWeights:
		return *e
	case *ToggleFilter:
		return *e
	case *ToggleScaling:
		return *e
	case *SwitchView:
		return *e
	case *SortTable:
		return *e
	case *SelectQuadrant:
		return *e
	}
	return ev
}
