package spatial

import (
	"fmt"

	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/pkg/container/kdtree"
)

var _ Index = (*kd)(nil)

// indexedExample adapts an example to the kd-tree item contract while keeping
// the example itself reachable from query results.
type indexedExample struct {
	ex learner.Example
}

func (e indexedExample) Dim(idx int) float64 { return e.ex.Vector().Dim(idx) }
func (e indexedExample) Dimensions() int     { return e.ex.Vector().Dimensions() }
func (e indexedExample) Points() []float64   { return e.ex.Vector().Points() }

func newKD(distFn geom.DistanceFn) *kd {
	return &kd{distFn: distFn}
}

type kd struct {
	distFn geom.DistanceFn
	tree   *kdtree.Tree
}

func (b *kd) Len() int {
	if b.tree == nil {
		return 0
	}
	return b.tree.Len()
}

func (b *kd) Build(examples ...learner.Example) error {
	if err := validate(examples); err != nil {
		return err
	}
	items := make([]kdtree.Item, len(examples))
	for i := range examples {
		items[i] = indexedExample{ex: examples[i]}
	}
	tree := kdtree.New(func(vec, vec1 []float64) (float64, error) {
		return b.distFn(vec, vec1)
	})
	tree.Build(items...)
	b.tree = tree
	return nil
}

func (b *kd) KNN(vec learner.Vector, k int) ([]learner.Example, error) {
	if b.tree == nil {
		return nil, fmt.Errorf("index is not built")
	}
	items, err := b.tree.KNN(queryItem{vec: vec}, k)
	if err != nil {
		return nil, err
	}
	if len(items) < k {
		return nil, ErrKNNShortage
	}
	output := make([]learner.Example, len(items))
	for i := range items {
		output[i] = items[i].(indexedExample).ex
	}
	return output, nil
}

type queryItem struct {
	vec learner.Vector
}

func (q queryItem) Dim(idx int) float64 { return q.vec.Dim(idx) }
func (q queryItem) Dimensions() int     { return q.vec.Dimensions() }
func (q queryItem) Points() []float64   { return q.vec.Points() }
