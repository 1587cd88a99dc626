package evaluation

import (
	"testing"

	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
)

type example struct {
	vec    geom.Point
	label  int
	weight float64
}

func (e example) Vector() learner.Vector { return e.vec }
func (e example) Label() int             { return e.label }
func (e example) Weight() float64        { return e.weight }

func TestBasicAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		results  []struct {
			label int
			votes []float64
		}
		expected float64
	}{
		{
			name: "all_correct",
			results: []struct {
				label int
				votes []float64
			}{
				{label: 0, votes: []float64{1, 0}},
				{label: 1, votes: []float64{0, 1}},
			},
			expected: 100,
		},
		{
			name: "half_correct",
			results: []struct {
				label int
				votes []float64
			}{
				{label: 0, votes: []float64{1, 0}},
				{label: 0, votes: []float64{0, 1}},
			},
			expected: 50,
		},
		{
			name: "none_correct",
			results: []struct {
				label int
				votes []float64
			}{
				{label: 1, votes: []float64{1, 0}},
			},
			expected: 0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ev := NewBasic()
			for _, r := range test.results {
				ev.AddResult(example{vec: geom.Point{0}, label: r.label, weight: 1}, r.votes)
			}
			got := ev.Measurements()[SlotAccuracy].Value
			if got != test.expected {
				t.Errorf("accuracy measurement got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestBasicEmptyMeasurements(t *testing.T) {
	ev := NewBasic()
	m := ev.Measurements()
	if m[SlotClassified].Value != 0 || m[SlotAccuracy].Value != 0 {
		t.Errorf("fresh evaluator measurements must be zero, got: %v", m)
	}
}

func TestBasicUnlabeledSkipped(t *testing.T) {
	ev := NewBasic()
	ev.AddResult(example{vec: geom.Point{0}, label: -1, weight: 1}, []float64{1, 0})
	if got := ev.Measurements()[SlotClassified].Value; got != 0 {
		t.Errorf("unlabeled example must not be counted, classified got: %v", got)
	}
}

func TestBasicCopyIndependence(t *testing.T) {
	ev := NewBasic()
	ev.AddResult(example{vec: geom.Point{0}, label: 0, weight: 1}, []float64{1, 0})
	ev1 := ev.Copy()
	ev1.AddResult(example{vec: geom.Point{0}, label: 1, weight: 1}, []float64{1, 0})
	if ev.Measurements()[SlotAccuracy].Value != 100 {
		t.Errorf("mutating a copy must not change the original accuracy")
	}
	if ev1.Measurements()[SlotAccuracy].Value != 50 {
		t.Errorf("copy must carry the original state forward")
	}
}
