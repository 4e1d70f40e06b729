package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

// PersonSummary is a person present in the dataset with the number of
// evaluations they contributed.
type PersonSummary struct {
	Name         string `json:"name"`
	FeatureCount int    `json:"feature_count"`
}

// Store is the immutable snapshot of one data load. Accessors hand out
// copies so nothing downstream can mutate the snapshot.
type Store struct {
	id          string
	source      string
	loadedAt    time.Time
	evaluations []Evaluation
	people      []PersonSummary
	issues      []Issue
}

// NewStore preprocesses records into a fresh snapshot.
func NewStore(records []types.PersonRecord, source string) *Store {
	evaluations, issues := NewPreprocessor().ProcessRecords(records)

	counts := make(map[string]int)
	for _, e := range evaluations {
		counts[e.Person]++
	}

	people := make([]PersonSummary, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, e := range evaluations {
		if _, ok := seen[e.Person]; ok {
			continue
		}
		seen[e.Person] = struct{}{}
		people = append(people, PersonSummary{Name: e.Person, FeatureCount: counts[e.Person]})
	}

	return &Store{
		id:          uuid.New().String(),
		source:      source,
		loadedAt:    time.Now(),
		evaluations: evaluations,
		people:      people,
		issues:      issues,
	}
}

// EmptyStore is the degraded snapshot used when loading fails.
func EmptyStore(source string) *Store {
	return NewStore(nil, source)
}

// ID uniquely identifies this load.
func (s *Store) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

func (s *Store) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

func (s *Store) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// Evaluations returns the evaluations in ingestion order.
func (s *Store) Evaluations() []Evaluation {
	if s == nil {
		return nil
	}
	return append([]Evaluation(nil), s.evaluations...)
}

// People returns the people in first-appearance order.
func (s *Store) People() []PersonSummary {
	if s == nil {
		return nil
	}
	return append([]PersonSummary(nil), s.people...)
}

// Issues returns the records rejected during preprocessing.
func (s *Store) Issues() []Issue {
	if s == nil {
		return nil
	}
	return append([]Issue(nil), s.issues...)
}

// Len is the number of accepted evaluations.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.evaluations)
}
