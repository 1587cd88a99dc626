package kdtree

type node struct {
	Key   Item
	Left  *node
	Right *node
}

func (n *node) Items() []Item {
	var items []Item
	if n.Left != nil {
		items = n.Left.Items()
	}
	items = append(items, n.Key)
	if n.Right != nil {
		items = append(items, n.Right.Items()...)
	}
	return items
}

func (n *node) Insert(p Item, dim int) {
	if p.Dim(dim) < n.Key.Dim(dim) {
		n.insertLeft(p, dim)
	} else {
		n.insertRight(p, dim)
	}
}

func (n *node) insertLeft(p Item, dim int) {
	if n.Left == nil {
		n.Left = &node{Key: p}
	} else {
		n.Left.Insert(p, (dim+1)%n.Key.Dimensions())
	}
}

func (n *node) insertRight(p Item, dim int) {
	if n.Right == nil {
		n.Right = &node{Key: p}
	} else {
		n.Right.Insert(p, (dim+1)%n.Key.Dimensions())
	}
}
