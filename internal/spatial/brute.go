package spatial

import (
	"fmt"

	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/pkg/container/pqueue"
)

var _ Index = (*brute)(nil)

func newBrute(distFn geom.DistanceFn) *brute {
	return &brute{distFn: distFn}
}

type brute struct {
	distFn geom.DistanceFn
	data   []learner.Example
}

func (b *brute) Len() int {
	return len(b.data)
}

func (b *brute) Build(examples ...learner.Example) error {
	if err := validate(examples); err != nil {
		return err
	}
	b.data = make([]learner.Example, len(examples))
	copy(b.data, examples)
	return nil
}

func (b *brute) KNN(vec learner.Vector, k int) ([]learner.Example, error) {
	if len(b.data) == 0 {
		return nil, fmt.Errorf("index is not built")
	}
	pq := pqueue.New(pqueue.WithCap(uint(k)))
	for _, ex := range b.data {
		distance, err := b.distFn(vec.Points(), ex.Vector().Points())
		if err != nil {
			return nil, fmt.Errorf(
				"unable to compute distance between %v and %v: %w",
				vec.Points(), ex.Vector().Points(),
				err,
			)
		}
		pq.Push(ex, distance)
	}
	knn := make([]learner.Example, pq.Len())
	for i, item := range pq.PopAll() {
		knn[i] = item.(learner.Example)
	}
	if len(knn) < k {
		return nil, ErrKNNShortage
	}
	return knn, nil
}
