package bptree

import (
	"cmp"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 32

// BPlusTree is an in-memory ordered map with linked leaves for range
// scans. One RWMutex guards the whole tree; lookups and scans run
// concurrently, mutations serialize.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	size   int
	mu     sync.RWMutex
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for range scans
}

// New creates a B+Tree with the given order. Orders below 3 fall back
// to DefaultOrder.
func New[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root: &node[K, V]{
			isLeaf: true,
			keys:   make([]K, 0, order),
			values: make([]V, 0, order),
		},
		order:  order,
		height: 1,
	}
}

// Len returns the number of keys stored.
func (t *BPlusTree[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Height returns the current depth of the tree.
func (t *BPlusTree[K, V]) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height
}

// Search locates the value associated with key, if it exists.
func (t *BPlusTree[K, V]) Search(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := t.findLeaf(key)
	for i, k := range leaf.keys {
		if k == key {
			return leaf.values[i], true
		}
	}
	var zero V
	return zero, false
}

// Insert adds a key-value pair, replacing the value of an existing
// key.
func (t *BPlusTree[K, V]) Insert(key K, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaf := t.findLeaf(key)
	idx := lowerBound(leaf.keys, key)
	if idx < len(leaf.keys) && leaf.keys[idx] == key {
		leaf.values[idx] = value
		return
	}

	leaf.keys = insertAt(leaf.keys, idx, key)
	leaf.values = insertAt(leaf.values, idx, value)
	t.size++

	if len(leaf.keys) > t.order {
		t.splitLeaf(leaf)
	}
}

// Range calls fn for every key k with from <= k < to, in ascending
// order, walking the leaf links. Returning false stops the scan.
func (t *BPlusTree[K, V]) Range(from, to K, fn func(key K, value V) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := t.findLeaf(from)
	idx := lowerBound(leaf.keys, from)
	for leaf != nil {
		for ; idx < len(leaf.keys); idx++ {
			if leaf.keys[idx] >= to {
				return
			}
			if !fn(leaf.keys[idx], leaf.values[idx]) {
				return
			}
		}
		leaf = leaf.next
		idx = 0
	}
}

// Scan calls fn for every key in ascending order. Returning false
// stops the scan.
func (t *BPlusTree[K, V]) Scan(fn func(key K, value V) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := t.root
	for !leaf.isLeaf {
		leaf = leaf.children[0]
	}
	for leaf != nil {
		for i := range leaf.keys {
			if !fn(leaf.keys[i], leaf.values[i]) {
				return
			}
		}
		leaf = leaf.next
	}
}

// findLeaf descends to the leaf that does or would hold key. Callers
// hold the tree lock.
func (t *BPlusTree[K, V]) findLeaf(key K) *node[K, V] {
	current := t.root
	for !current.isLeaf {
		idx := lowerBound(current.keys, key)
		// Keys equal to a separator live in the right subtree.
		if idx < len(current.keys) && current.keys[idx] == key {
			idx++
		}
		current = current.children[idx]
	}
	return current
}

// splitLeaf handles a leaf that has overflowed.
func (t *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	right := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, leaf.keys[mid:]...),
		values: append([]V{}, leaf.values[mid:]...),
		next:   leaf.next,
		parent: leaf.parent,
	}
	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = right

	t.insertInParent(leaf, right.keys[0], right)
}

// splitInternal handles an internal node that has overflowed.
func (t *BPlusTree[K, V]) splitInternal(internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	right := &node[K, V]{
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}
	for _, child := range right.children {
		child.parent = right
	}
	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	t.insertInParent(internal, splitKey, right)
}

// insertInParent links a freshly split right sibling under left's
// parent, growing a new root when left was the root.
func (t *BPlusTree[K, V]) insertInParent(left *node[K, V], key K, right *node[K, V]) {
	if left.parent == nil {
		t.root = &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent = t.root
		right.parent = t.root
		t.height++
		return
	}

	parent := left.parent
	idx := lowerBound(parent.keys, key)
	parent.keys = insertAt(parent.keys, idx, key)
	parent.children = insertAt(parent.children, idx+1, right)
	right.parent = parent

	if len(parent.keys) > t.order {
		t.splitInternal(parent)
	}
}

// lowerBound returns the first index whose key is >= target.
func lowerBound[K cmp.Ordered](keys []K, target K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// insertAt inserts v at index i, shifting the tail right.
func insertAt[T any](s []T, i int, v T) []T {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
