package kdtree

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-dcs/dcs/pkg/container/pqueue"
)

// Item is a point stored in the tree.
type Item interface {
	Dim(idx int) float64
	Dimensions() int
	Points() []float64
}

func New(distFn func(vec, vec1 []float64) (float64, error)) *Tree {
	return &Tree{
		root:   nil,
		len:    0,
		distFn: distFn,
	}
}

type Tree struct {
	root   *node
	len    int
	distFn func(vec, vec1 []float64) (float64, error)
}

// Build replaces the tree contents with a balanced tree over items.
func (t *Tree) Build(items ...Item) {
	t.len = len(items)
	t.root = buildTreeRecursive(items, 0)
}

func (t *Tree) Len() int {
	return t.len
}

func (t *Tree) Insert(p Item) {
	if t.root == nil {
		t.root = &node{Key: p}
	} else {
		t.root.Insert(p, 0)
	}
	t.len += 1
}

func (t *Tree) Balance() {
	t.root = buildTreeRecursive(t.Items(), 0)
}

func (t *Tree) Items() []Item {
	if t.root == nil {
		return []Item{}
	}
	return t.root.Items()
}

// KNN returns up to k stored items closest to p, nearest first.
func (t *Tree) KNN(p Item, k int) ([]Item, error) {
	if t.root == nil || k == 0 {
		return []Item{}, fmt.Errorf("root is nil or K is 0")
	}

	queue := pqueue.New(pqueue.WithCap(uint(k)))

	if err := t.knn(p, k, t.root, 0, queue); err != nil {
		return []Item{}, err
	}

	items := make([]Item, queue.Len())
	for i := 0; i < k && 0 < queue.Len(); i++ {
		items[i] = queue.Head().(*node).Key
	}

	return items, nil
}

func (t *Tree) knn(p Item, k int, first *node, dim int, queue *pqueue.Queue) error {
	if k == 0 || first == nil {
		return nil
	}

	var path []*node
	currentNode := first

	for currentNode != nil {
		path = append(path, currentNode)
		if p.Dim(dim) < currentNode.Key.Dim(dim) {
			currentNode = currentNode.Left
		} else {
			currentNode = currentNode.Right
		}
		dim = (dim + 1) % p.Dimensions()
	}

	dim = (dim - 1 + p.Dimensions()) % p.Dimensions()
	for path, currentNode = popLast(path); currentNode != nil; path, currentNode = popLast(path) {
		currentDistance, err := t.distFn(p.Points(), currentNode.Key.Points())
		if err != nil {
			return fmt.Errorf("compute knn error: %w", err)
		}
		checkedDistance := getKthOrLastDistance(queue, k-1)
		if currentDistance < checkedDistance {
			queue.Push(currentNode, currentDistance)
			checkedDistance = getKthOrLastDistance(queue, k-1)
		}

		if distanceForDimension(p, currentNode.Key, dim) < checkedDistance {
			var next *node
			if p.Dim(dim) < currentNode.Key.Dim(dim) {
				next = currentNode.Right
			} else {
				next = currentNode.Left
			}
			if err := t.knn(p, k, next, (dim+1)%p.Dimensions(), queue); err != nil {
				return err
			}
		}
		dim = (dim - 1 + p.Dimensions()) % p.Dimensions()
	}
	return nil
}

type sortItems struct {
	dim   int
	items []Item
}

func (b *sortItems) Len() int {
	return len(b.items)
}

func (b *sortItems) Less(i, j int) bool {
	return b.items[i].Dim(b.dim) < b.items[j].Dim(b.dim)
}

func (b *sortItems) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
}

func buildTreeRecursive(items []Item, dim int) *node {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return &node{Key: items[0]}
	}

	sort.Sort(&sortItems{dim: dim, items: items})
	mid := len(items) / 2
	root := items[mid]
	nextDim := (dim + 1) % root.Dimensions()
	return &node{
		Key:   root,
		Left:  buildTreeRecursive(items[:mid], nextDim),
		Right: buildTreeRecursive(items[mid+1:], nextDim),
	}
}

func distanceForDimension(vec, vec1 Item, dim int) float64 {
	return math.Abs(vec1.Dim(dim) - vec.Dim(dim))
}

func popLast(arr []*node) ([]*node, *node) {
	l := len(arr) - 1
	if l < 0 {
		return arr, nil
	}
	return arr[:l], arr[l]
}

func getKthOrLastDistance(queue *pqueue.Queue, i int) float64 {
	if queue.Len() <= i {
		return math.MaxFloat64
	}
	_, distance := queue.Seek(i)
	return distance
}
