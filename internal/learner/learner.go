package learner

// ProvideFn is the factory contract for a fresh base learner instance.
type ProvideFn func() (Classifier, error)

type Vector interface {
	Dim(idx int) float64
	Dimensions() int
	Points() []float64
}

// Example is one observation from a stream. Label returns -1 when the
// observation carries no class label.
type Example interface {
	Vector() Vector
	Label() int
	Weight() float64
}

// Classifier is an incrementally trainable model. Votes returns the raw
// per-class score vector; an empty or all-zero vector means the model has no
// opinion about the example.
type Classifier interface {
	Reset()
	Copy() Classifier
	Train(ex Example)
	Votes(vec Vector) []float64
}
