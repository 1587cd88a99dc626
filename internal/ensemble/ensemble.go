package ensemble

import (
	"fmt"

	"github.com/go-dcs/dcs/internal/evaluation"
	"github.com/go-dcs/dcs/internal/learner"
)

// worstBaseline is the comparison seed for the worst-member scan. It is above
// any valid accuracy percentage, so even an all-zero ensemble yields a victim.
const worstBaseline = 101.0

// Member couples a model with the evaluator tracking its running accuracy.
type Member struct {
	Model learner.Classifier
	Eval  evaluation.Evaluator
}

func New(capacity int) (*Ensemble, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("ensemble capacity must be at least 1, got %d", capacity)
	}
	return &Ensemble{capacity: capacity}, nil
}

// Ensemble is an ordered, capacity-bounded collection of members. Order is
// insertion order, not accuracy order.
type Ensemble struct {
	capacity int
	members  []Member
}

func (e *Ensemble) Len() int {
	return len(e.members)
}

func (e *Ensemble) Capacity() int {
	return e.capacity
}

// Members returns the live member slice for iteration; callers must not
// reorder it.
func (e *Ensemble) Members() []Member {
	return e.members
}

// Add appends m, evicting the current worst member first when the ensemble is
// full. It reports whether an eviction happened.
func (e *Ensemble) Add(m Member) bool {
	evicted := false
	if len(e.members) == e.capacity {
		e.Remove(e.Worst())
		evicted = true
	}
	e.members = append(e.members, m)
	return evicted
}

// Worst returns the index of the member with the smallest tracked accuracy.
// Ties go to the earliest index.
func (e *Ensemble) Worst() int {
	idx := 0
	worst := worstBaseline
	for i := range e.members {
		acc := e.members[i].Eval.Measurements()[evaluation.SlotAccuracy].Value
		if acc < worst {
			worst = acc
			idx = i
		}
	}
	return idx
}

// Remove drops the member at idx keeping the relative order of the rest.
func (e *Ensemble) Remove(idx int) {
	e.members = append(e.members[:idx], e.members[idx+1:]...)
}

// Models returns an independent snapshot of the current member models.
func (e *Ensemble) Models() []learner.Classifier {
	models := make([]learner.Classifier, len(e.members))
	for i := range e.members {
		models[i] = e.members[i].Model
	}
	return models
}

func (e *Ensemble) Measurements() []evaluation.Measurement {
	return []evaluation.Measurement{{Name: "ensemble size", Value: float64(len(e.members))}}
}
