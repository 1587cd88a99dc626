package bayes

import (
	"math"

	"github.com/go-dcs/dcs/internal/learner"
)

var _ learner.Classifier = (*bayes)(nil)

const defaultVarSmoothing = 1e-9

type Option func(*bayes)

// WithVarSmoothing sets the variance floor added to every feature variance.
func WithVarSmoothing(eps float64) Option {
	return func(b *bayes) {
		b.opts.varSmoothing = eps
	}
}

type Options struct {
	varSmoothing float64
}

// New returns an online Gaussian naive Bayes classifier. Classes and feature
// dimensions grow as labeled examples arrive; training supports fractional
// and integer weights.
func New(opts ...Option) *bayes {
	b := &bayes{opts: Options{varSmoothing: defaultVarSmoothing}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type classStats struct {
	weight float64
	mean   []float64
	m2     []float64
}

func (c *classStats) grow(dims int) {
	for len(c.mean) < dims {
		c.mean = append(c.mean, 0.0)
		c.m2 = append(c.m2, 0.0)
	}
}

type bayes struct {
	opts    Options
	total   float64
	classes []*classStats
}

func (b *bayes) Reset() {
	b.total = 0
	b.classes = nil
}

func (b *bayes) Copy() learner.Classifier {
	b1 := &bayes{opts: b.opts, total: b.total}
	b1.classes = make([]*classStats, len(b.classes))
	for i, c := range b.classes {
		if c == nil {
			continue
		}
		c1 := &classStats{weight: c.weight}
		c1.mean = append(c1.mean, c.mean...)
		c1.m2 = append(c1.m2, c.m2...)
		b1.classes[i] = c1
	}
	return b1
}

// Train updates per-class running means and variances with the weighted
// incremental formulas.
func (b *bayes) Train(ex learner.Example) {
	label := ex.Label()
	if label < 0 {
		return
	}
	w := ex.Weight()
	if w <= 0 {
		w = 1
	}

	for len(b.classes) <= label {
		b.classes = append(b.classes, &classStats{})
	}
	c := b.classes[label]

	points := ex.Vector().Points()
	c.grow(len(points))

	c.weight += w
	b.total += w
	for i, x := range points {
		delta := x - c.mean[i]
		c.mean[i] += delta * w / c.weight
		c.m2[i] += w * delta * (x - c.mean[i])
	}
}

// Votes returns relative class likelihoods scaled so the best class scores 1.
// All components are strictly positive once any class has been seen.
func (b *bayes) Votes(vec learner.Vector) []float64 {
	if b.total == 0 || len(b.classes) == 0 {
		return []float64{}
	}

	points := vec.Points()
	logs := make([]float64, len(b.classes))
	maxLog := math.Inf(-1)
	for i, c := range b.classes {
		if c == nil || c.weight == 0 {
			logs[i] = math.Inf(-1)
			continue
		}
		l := math.Log(c.weight / b.total)
		for j, x := range points {
			mean, variance := 0.0, b.opts.varSmoothing
			if j < len(c.mean) {
				mean = c.mean[j]
				variance = c.m2[j]/c.weight + b.opts.varSmoothing
			}
			diff := x - mean
			l += -0.5*math.Log(2*math.Pi*variance) - diff*diff/(2*variance)
		}
		logs[i] = l
		if l > maxLog {
			maxLog = l
		}
	}

	votes := make([]float64, len(logs))
	for i, l := range logs {
		if math.IsInf(l, -1) {
			continue
		}
		votes[i] = math.Exp(l - maxLog)
	}
	return votes
}
