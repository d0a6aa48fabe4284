package model

import (
	"math/rand/v2"
	"sort"
)

// Node is one node of a regression tree. Child index 0 marks a leaf: the
// root is never a child.
type Node struct {
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a fitted CART regression tree stored as a flat node slice.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Left != 0 {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// TreeConfig bounds tree growth.
type TreeConfig struct {
	MaxDepth    int `json:"max_depth"`    // 0 means unlimited
	MinLeaf     int `json:"min_leaf"`     // minimum samples per leaf
	MaxFeatures int `json:"max_features"` // 0 means every feature
}

type treeBuilder struct {
	X     [][]float64
	y     []float64
	width int
	cfg   TreeConfig
	rng   *rand.Rand
	nodes []Node
}

// growTree fits a tree on the rows listed in idx. idx is reordered.
func growTree(X [][]float64, y []float64, idx []int, cfg TreeConfig, rng *rand.Rand) Tree {
	if cfg.MinLeaf < 1 {
		cfg.MinLeaf = 1
	}
	b := &treeBuilder{X: X, y: y, width: len(X[0]), cfg: cfg, rng: rng}
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	id := len(b.nodes)
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	b.nodes = append(b.nodes, Node{Value: sum / float64(len(idx))})

	if len(idx) < 2*b.cfg.MinLeaf || (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) || constant(b.y, idx) {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}

	split := partition(idx, func(i int) bool { return b.X[i][feature] <= threshold })
	left := b.build(idx[:split], depth+1)
	right := b.build(idx[split:], depth+1)

	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = left
	b.nodes[id].Right = right
	return id
}

// bestSplit finds the split maximizing variance reduction. It compares
// sumL²/nL + sumR²/nR, which differs from the negated child SSE by a
// constant.
func (b *treeBuilder) bestSplit(idx []int, total float64) (int, float64, bool) {
	n := len(idx)
	best := total * total / float64(n)
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, n)
	for _, f := range b.candidateFeatures() {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.X[sorted[i]][f] < b.X[sorted[j]][f] })

		left := 0.0
		for k := 1; k < n; k++ {
			left += b.y[sorted[k-1]]
			if k < b.cfg.MinLeaf || n-k < b.cfg.MinLeaf {
				continue
			}
			lo, hi := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if lo >= hi {
				continue
			}
			right := total - left
			score := left*left/float64(k) + right*right/float64(n-k)
			if score > best+1e-12 {
				best = score
				bestFeature = f
				bestThreshold = midpoint(lo, hi)
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *treeBuilder) candidateFeatures() []int {
	if b.cfg.MaxFeatures <= 0 || b.cfg.MaxFeatures >= b.width {
		all := make([]int, b.width)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := b.rng.Perm(b.width)[:b.cfg.MaxFeatures]
	sort.Ints(perm)
	return perm
}

func midpoint(lo, hi float64) float64 {
	m := lo + (hi-lo)/2
	if m >= hi {
		return lo
	}
	return m
}

func constant(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}

// partition moves rows satisfying keep to the front and returns their count.
func partition(idx []int, keep func(int) bool) int {
	n := 0
	for i, v := range idx {
		if keep(v) {
			idx[i], idx[n] = idx[n], idx[i]
			n++
		}
	}
	return n
}
