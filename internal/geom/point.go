package geom

import (
	"math"
	"sort"
)

type Point []float64

func NewPoint(vec []float64) Point {
	return vec
}

func (v Point) Dimensions() int {
	return len(v)
}

func (v Point) Dim(idx int) float64 {
	return v[idx]
}

func (v Point) Points() []float64 {
	return v
}

func (v Point) Copy() Point {
	var v1 = make(Point, len(v))
	copy(v1, v)
	return v1
}

// Norm divides every component by the vector sum, making components sum to 1.
func (v Point) Norm() {
	sum := v.Sum()
	for i := 0; i < len(v); i++ {
		v[i] /= sum
	}
}

func (v Point) Scale(value float64) {
	for i := range v {
		v[i] *= value
	}
}

func (v Point) Zero() {
	for i := range v {
		v[i] = 0.0
	}
}

func (v Point) Sum() float64 {
	var s float64
	for i := range v {
		s += v[i]
	}
	return s
}

func (v Point) Magnitude() float64 {
	result := 0.0
	for i := range v {
		result += math.Pow(v[i], 2)
	}
	return math.Sqrt(result)
}

// Add sums vec into v element-wise, growing the receiver when vec is longer.
// The grown vector is returned.
func (v Point) Add(vec Point) Point {
	v1 := v
	for len(v1) < len(vec) {
		v1 = append(v1, 0.0)
	}
	for i := range vec {
		v1[i] += vec[i]
	}
	return v1
}

// Inc increments the component at idx by one, growing the vector when idx is
// out of range. The grown vector is returned.
func (v Point) Inc(idx int) Point {
	v1 := v
	for len(v1) <= idx {
		v1 = append(v1, 0.0)
	}
	v1[idx]++
	return v1
}

// MaxIndex returns the index of the largest component, the first one on ties,
// or -1 for an empty vector.
func (v Point) MaxIndex() int {
	if len(v) == 0 {
		return -1
	}
	idx := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[idx] {
			idx = i
		}
	}
	return idx
}

func (v Point) SizeEqual(vec Point) bool {
	return len(v) == len(vec)
}

func (v Point) Equal(vec Point) bool {
	if len(v) != len(vec) {
		return false
	}
	for i, value := range v {
		if vec[i] != value {
			return false
		}
	}
	return true
}

func (v Point) Max() float64 {
	var max float64
	for i := range v {
		if v[i] > max {
			max = v[i]
		}
	}
	return max
}

func (v Point) Min() float64 {
	var min = math.MaxFloat64
	for i := range v {
		if v[i] < min {
			min = v[i]
		}
	}
	return min
}

func (v Point) Mean() float64 {
	return v.Sum() / float64(len(v))
}

func (v Point) Median() float64 {
	var p float64
	v1 := v.Copy()
	sort.Slice(v1, func(i, j int) bool {
		return v1[i] < v1[j]
	})
	if len(v1)%2 == 0 {
		vc := v1[len(v1)/2-1 : len(v1)/2+1]
		p = vc.Sum() / float64(len(vc))
	} else {
		p = v1[len(v1)/2]
	}

	return p
}
