package evaluation

import (
	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
)

// Measurement slots produced by the basic evaluator. SlotAccuracy is the
// running accuracy percentage used for ensemble eviction.
const (
	SlotClassified = 0
	SlotAccuracy   = 1
	SlotKappa      = 2
)

type Measurement struct {
	Name  string
	Value float64
}

// Evaluator accumulates (prediction, true label) pairs and exposes running
// statistics as an ordered measurement list.
type Evaluator interface {
	Copy() Evaluator
	AddResult(ex learner.Example, votes []float64)
	Measurements() []Measurement
}

var _ Evaluator = (*Basic)(nil)

func NewBasic() *Basic {
	return &Basic{}
}

// Basic tracks weighted accuracy and the kappa statistic from the marginal
// predicted/observed class distributions.
type Basic struct {
	weightSeen    float64
	weightCorrect float64
	rowKappa      []float64
	colKappa      []float64
}

func (e *Basic) Copy() Evaluator {
	e1 := &Basic{weightSeen: e.weightSeen, weightCorrect: e.weightCorrect}
	e1.rowKappa = append(e1.rowKappa, e.rowKappa...)
	e1.colKappa = append(e1.colKappa, e.colKappa...)
	return e1
}

func (e *Basic) Reset() {
	e.weightSeen = 0
	e.weightCorrect = 0
	e.rowKappa = nil
	e.colKappa = nil
}

// AddResult records one prediction against the example's true label.
// Unlabeled examples are skipped.
func (e *Basic) AddResult(ex learner.Example, votes []float64) {
	label := ex.Label()
	if label < 0 {
		return
	}
	w := ex.Weight()
	if w <= 0 {
		w = 1
	}

	predicted := geom.NewPoint(votes).MaxIndex()
	e.weightSeen += w
	if predicted == label {
		e.weightCorrect += w
	}
	if predicted >= 0 {
		e.rowKappa = grown(e.rowKappa, predicted)
		e.rowKappa[predicted] += w
	}
	e.colKappa = grown(e.colKappa, label)
	e.colKappa[label] += w
}

func (e *Basic) Measurements() []Measurement {
	return []Measurement{
		{Name: "classified instances", Value: e.weightSeen},
		{Name: "classifications correct (percent)", Value: 100 * e.accuracy()},
		{Name: "kappa statistic (percent)", Value: 100 * e.kappa()},
	}
}

func (e *Basic) accuracy() float64 {
	if e.weightSeen == 0 {
		return 0
	}
	return e.weightCorrect / e.weightSeen
}

func (e *Basic) kappa() float64 {
	if e.weightSeen == 0 {
		return 0
	}
	p0 := e.accuracy()
	pc := 0.0
	for i := range e.colKappa {
		row := 0.0
		if i < len(e.rowKappa) {
			row = e.rowKappa[i]
		}
		pc += (row / e.weightSeen) * (e.colKappa[i] / e.weightSeen)
	}
	if pc == 1 {
		return 1
	}
	return (p0 - pc) / (1 - pc)
}

func grown(v []float64, idx int) []float64 {
	for len(v) <= idx {
		v = append(v, 0.0)
	}
	return v
}
