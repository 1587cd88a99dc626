package classifier

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/valyala/fastrand"
)

type sample struct {
	vec    geom.Point
	label  int
	weight float64
}

func (s sample) Vector() learner.Vector { return s.vec }
func (s sample) Label() int             { return s.label }

func (s sample) Weight() float64 {
	if s.weight == 0 {
		return 1
	}
	return s.weight
}

// trainRecorder keeps every example it was trained on and answers queries
// with a fixed vote vector.
type trainRecorder struct {
	votes   []float64
	trained []learner.Example
}

func (m *trainRecorder) Reset() {}

func (m *trainRecorder) Copy() learner.Classifier {
	return &trainRecorder{votes: m.votes}
}

func (m *trainRecorder) Train(ex learner.Example) {
	m.trained = append(m.trained, ex)
}

func (m *trainRecorder) Votes(vec learner.Vector) []float64 {
	return m.votes
}

type slowModel struct {
	delay   time.Duration
	trained *int32
}

func (m *slowModel) Reset()                   {}
func (m *slowModel) Copy() learner.Classifier { return m }

func (m *slowModel) Train(ex learner.Example) {
	time.Sleep(m.delay)
	atomic.AddInt32(m.trained, 1)
}

func (m *slowModel) Votes(vec learner.Vector) []float64 { return nil }

func provider(models ...learner.Classifier) learner.ProvideFn {
	i := -1
	return func() (learner.Classifier, error) {
		i++
		if i >= len(models) {
			return nil, fmt.Errorf("factory exhausted after %d models", len(models))
		}
		return models[i], nil
	}
}

func feed(t *testing.T, d *DCS, examples ...learner.Example) {
	t.Helper()
	for _, ex := range examples {
		if err := d.Train(context.Background(), ex); err != nil {
			t.Fatalf("training: %v", err)
		}
	}
}

func labels(examples []learner.Example) []int {
	out := make([]int, len(examples))
	for i := range examples {
		out[i] = examples[i].Label()
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTrainChunkBoundary(t *testing.T) {
	first := &trainRecorder{}
	second := &trainRecorder{}
	d, err := New(
		provider(first, second),
		WithChunkSize(3),
		WithEnsembleSize(5),
		WithBagging(false),
	)
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}

	examples := make([]learner.Example, 8)
	for i := range examples {
		examples[i] = sample{vec: geom.Point{float64(i)}, label: i}
	}

	feed(t, d, examples[:3]...)
	if d.Len() != 0 {
		t.Fatalf("ensemble grew before the chunk completed, size: %d", d.Len())
	}

	// The fourth example fills no chunk: it only triggers the pass over the
	// three buffered ones and is discarded.
	feed(t, d, examples[3])
	if d.Len() != 1 {
		t.Fatalf("ensemble size after first chunk got: %d, expected: 1", d.Len())
	}
	if got := labels(first.trained); !equalInts(got, []int{0, 1, 2}) {
		t.Errorf("first chunk trained labels got: %v, expected: [0 1 2]", got)
	}

	feed(t, d, examples[4:]...)
	if d.Len() != 2 {
		t.Fatalf("ensemble size after second chunk got: %d, expected: 2", d.Len())
	}
	if got := labels(first.trained); !equalInts(got, []int{0, 1, 2, 4, 5, 6}) {
		t.Errorf("surviving member trained labels got: %v, expected: [0 1 2 4 5 6]", got)
	}
	if got := labels(second.trained); !equalInts(got, []int{4, 5, 6}) {
		t.Errorf("new member trained labels got: %v, expected: [4 5 6]", got)
	}
}

func TestTrainEvictsWorst(t *testing.T) {
	a := &trainRecorder{votes: []float64{1, 0}}
	b := &trainRecorder{votes: []float64{0, 1}}
	c := &trainRecorder{votes: []float64{1, 0}}
	d, err := New(
		provider(a, b, c),
		WithChunkSize(1),
		WithEnsembleSize(2),
		WithBagging(false),
	)
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}

	feed(t, d,
		sample{vec: geom.Point{0}, label: 0}, sample{vec: geom.Point{1}, label: 0},
		sample{vec: geom.Point{2}, label: 0}, sample{vec: geom.Point{3}, label: 0},
	)
	if d.Len() != 2 {
		t.Fatalf("ensemble size got: %d, expected: 2", d.Len())
	}

	// A labeled query drives the evaluators apart: a is right, b is wrong.
	if _, err := d.Votes(context.Background(), sample{vec: geom.Point{0}, label: 0}); err != nil {
		t.Fatalf("querying: %v", err)
	}

	feed(t, d, sample{vec: geom.Point{4}, label: 0}, sample{vec: geom.Point{5}, label: 0})
	models := d.Models()
	if len(models) != 2 {
		t.Fatalf("ensemble size after eviction got: %d, expected: 2", len(models))
	}
	if models[0] != learner.Classifier(a) || models[1] != learner.Classifier(c) {
		t.Errorf("the least accurate member must be evicted, survivors: %v", models)
	}
}

func TestTrainBagging(t *testing.T) {
	tests := []struct {
		name     string
		draw     int
		expected []float64
	}{
		{name: "zero_draw_skips_example", draw: 0, expected: nil},
		{name: "positive_draw_scales_weight", draw: 2, expected: []float64{2, 2}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			model := &trainRecorder{}
			d, err := New(provider(model), WithChunkSize(2), WithEnsembleSize(1))
			if err != nil {
				t.Fatalf("creating classifier: %v", err)
			}
			d.poissonFn = func(rng *fastrand.RNG) int { return test.draw }

			feed(t, d,
				sample{vec: geom.Point{0}, label: 0},
				sample{vec: geom.Point{1}, label: 1},
				sample{vec: geom.Point{2}, label: 0},
			)
			if len(model.trained) != len(test.expected) {
				t.Fatalf("trained examples got: %d, expected: %d", len(model.trained), len(test.expected))
			}
			for i, w := range test.expected {
				if got := model.trained[i].Weight(); got != w {
					t.Errorf("example %d weight got: %v, expected: %v", i, got, w)
				}
			}
		})
	}
}

func TestTrainTimeoutBarrier(t *testing.T) {
	var trained int32
	model := &slowModel{delay: 5 * time.Millisecond, trained: &trained}
	d, err := New(
		provider(model),
		WithChunkSize(50),
		WithEnsembleSize(1),
		WithBagging(false),
		WithTrainTimeout(20*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}

	examples := make([]learner.Example, 51)
	for i := range examples {
		examples[i] = sample{vec: geom.Point{float64(i)}, label: 0}
	}
	feed(t, d, examples...)

	if got := atomic.LoadInt32(&trained); got >= 50 {
		t.Errorf("barrier expiry must cut the pass short, trained: %d", got)
	}
}

func TestNewInitEnsemble(t *testing.T) {
	d, err := New(
		provider(&trainRecorder{}, &trainRecorder{}, &trainRecorder{}),
		WithEnsembleSize(3),
		WithInitEnsemble(true),
	)
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}
	if d.Len() != 3 {
		t.Errorf("initiated ensemble size got: %d, expected: 3", d.Len())
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "zero_ensemble_size", opts: []Option{WithEnsembleSize(0)}},
		{name: "zero_chunk_size", opts: []Option{WithChunkSize(0)}},
		{name: "zero_workers", opts: []Option{WithWorkers(0)}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := New(provider(&trainRecorder{}), test.opts...); err == nil {
				t.Errorf("invalid option set must be rejected")
			}
		})
	}
}
