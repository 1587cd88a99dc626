package spatial

import (
	"fmt"

	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
)

type AlgType string

const (
	AlgTypeKD    AlgType = "KD"
	AlgTypeBrute AlgType = "BRUTE"
)

type MetricType string

const (
	MetricTypeEuclidean MetricType = "EUCLIDEAN"
	MetricTypeChebyshev MetricType = "CHEBYSHEV"
	MetricTypeManhattan MetricType = "MANHATTAN"
)

// ProvideFn is the factory contract for a fresh, empty index.
type ProvideFn func() (Index, error)

// Index answers k-nearest-neighbor queries over one fixed batch of examples.
// Build replaces the whole batch; the index is read-only between builds.
type Index interface {
	Len() int
	Build(examples ...learner.Example) error
	KNN(vec learner.Vector, k int) ([]learner.Example, error)
}

var (
	ErrDegenerateBatch = fmt.Errorf("batch is empty or has no dimensions")
	ErrKNNShortage     = fmt.Errorf("knn less minimal value")
)

func For(alg AlgType, distFn geom.DistanceFn) (Index, error) {
	switch alg {
	case AlgTypeKD:
		return newKD(distFn), nil
	case AlgTypeBrute:
		return newBrute(distFn), nil
	default:
		return nil, fmt.Errorf("unknown spatial index type: %s", alg)
	}
}

func DistanceFor(metric MetricType) (geom.DistanceFn, error) {
	switch metric {
	case MetricTypeEuclidean:
		return geom.EuclideanDistance, nil
	case MetricTypeChebyshev:
		return geom.ChebyshevDistance, nil
	case MetricTypeManhattan:
		return geom.ManhattanDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance metric type: %s", metric)
	}
}

func validate(examples []learner.Example) error {
	if len(examples) == 0 || examples[0].Vector().Dimensions() == 0 {
		return ErrDegenerateBatch
	}
	return nil
}
