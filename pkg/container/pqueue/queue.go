package pqueue

import (
	"sort"
)

type Option func(*Queue)

func WithOrderAsc() Option {
	return func(q *Queue) {
		q.order = orderAsc
	}
}

func WithOrderDesc() Option {
	return func(q *Queue) {
		q.order = orderDesc
	}
}

// WithCap bounds the queue: items past the cap are discarded on Push.
func WithCap(size uint) Option {
	return func(q *Queue) {
		q.cap = int(size)
	}
}

type order uint8

const (
	orderAsc order = iota
	orderDesc
)

type item struct {
	value interface{}
	prior float64
}

func New(opts ...Option) *Queue {
	q := &Queue{order: orderAsc, cap: -1}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Queue is a small priority queue kept sorted on every Push.
type Queue struct {
	order order
	cap   int
	items []item
}

func (q *Queue) Push(val interface{}, priority float64) {
	q.items = append(q.items, item{value: val, prior: priority})
	sort.Sort(q)
	if q.cap >= 0 && q.cap < len(q.items) {
		q.items = q.items[:q.cap]
	}
}

// Head removes and returns the highest-priority value or nil when empty.
func (q *Queue) Head() interface{} {
	if len(q.items) == 0 {
		return nil
	}
	x := q.items[0]
	q.items = q.items[1:]
	return x.value
}

func (q *Queue) PopAll() []interface{} {
	pulled := make([]interface{}, len(q.items))
	for i := range q.items {
		pulled[i] = q.items[i].value
	}
	q.items = q.items[:0]
	return pulled
}

// Seek returns the value and priority at idx without removing it.
func (q *Queue) Seek(idx int) (interface{}, float64) {
	it := q.items[idx]
	return it.value, it.prior
}

func (q *Queue) Cap() int { return q.cap }

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *Queue) Less(i, j int) bool {
	if q.order == orderAsc {
		return q.items[i].prior < q.items[j].prior
	}
	return q.items[i].prior > q.items[j].prior
}
