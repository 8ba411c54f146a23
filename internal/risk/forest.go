package risk

import (
	"fmt"
	"math/rand"
	"sort"
)

// Class indexes used by the forest. They map onto risk tiers in ascending
// severity and onto the label column of the training table.
const (
	ClassLow = iota
	ClassMedium
	ClassHigh
	numClasses
)

// Node is one decision-tree node in its serialized form. Internal nodes
// route on Values()[Feature] <= Threshold; leaves carry the class
// distribution observed at fit time.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Leaf      bool      `json:"leaf"`
	Probs     []float64 `json:"probs,omitempty"`
}

// Tree is a single CART tree stored as a flat node array rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) predict(x []float64) []float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Leaf {
			return n.Probs
		}
		if x[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// Forest is an ensemble of CART trees voting by averaged leaf
// distributions.
type Forest struct {
	Trees []Tree `json:"trees"`
}

// Predict returns the averaged class probability distribution for one
// feature vector. Forests with no trees predict a uniform distribution.
func (f *Forest) Predict(x []float64) []float64 {
	probs := make([]float64, numClasses)
	if f == nil || len(f.Trees) == 0 {
		for i := range probs {
			probs[i] = 1.0 / float64(numClasses)
		}
		return probs
	}

	for _, t := range f.Trees {
		leaf := t.predict(x)
		for i := range probs {
			probs[i] += leaf[i]
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	return probs
}

// ForestConfig controls fitting. A fixed Seed with a fixed input table
// produces a byte-identical forest, which the retraining contract relies
// on.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinLeafSamples  int
	FeaturesPerTree int
	Seed            int64
}

// DefaultForestConfig mirrors the training harness defaults.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:          50,
		MaxDepth:       8,
		MinLeafSamples: 2,
		Seed:           42,
	}
}

// FitForest grows a random forest over the sample matrix. Each tree is fit
// on a bootstrap resample; splits search a random feature subset.
func FitForest(samples [][]float64, labels []int, cfg ForestConfig) (*Forest, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("fit forest: no samples")
	}
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("fit forest: %d samples but %d labels", len(samples), len(labels))
	}
	for _, label := range labels {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("fit forest: label %d out of range", label)
		}
	}

	if cfg.Trees <= 0 {
		cfg.Trees = DefaultForestConfig().Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultForestConfig().MaxDepth
	}
	if cfg.MinLeafSamples <= 0 {
		cfg.MinLeafSamples = DefaultForestConfig().MinLeafSamples
	}

	featureCount := len(samples[0])
	mtry := cfg.FeaturesPerTree
	if mtry <= 0 || mtry > featureCount {
		// sqrt(p) rounded up, the usual random-forest default.
		mtry = 1
		for mtry*mtry < featureCount {
			mtry++
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	forest := &Forest{Trees: make([]Tree, 0, cfg.Trees)}
	for i := 0; i < cfg.Trees; i++ {
		indices := make([]int, len(samples))
		for j := range indices {
			indices[j] = rng.Intn(len(samples))
		}

		g := &grower{
			samples: samples,
			labels:  labels,
			cfg:     cfg,
			mtry:    mtry,
			rng:     rng,
		}
		g.grow(indices, 0)
		forest.Trees = append(forest.Trees, Tree{Nodes: g.nodes})
	}
	return forest, nil
}

type grower struct {
	samples [][]float64
	labels  []int
	cfg     ForestConfig
	mtry    int
	rng     *rand.Rand
	nodes   []Node
}

// grow appends the subtree for the given sample indices and returns its
// root node index.
func (g *grower) grow(indices []int, depth int) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{})

	counts := make([]float64, numClasses)
	for _, i := range indices {
		counts[g.labels[i]]++
	}

	if depth >= g.cfg.MaxDepth || len(indices) < 2*g.cfg.MinLeafSamples || pure(counts) {
		g.nodes[idx] = leafNode(counts, len(indices))
		return idx
	}

	feature, threshold, ok := g.bestSplit(indices, counts)
	if !ok {
		g.nodes[idx] = leafNode(counts, len(indices))
		return idx
	}

	var left, right []int
	for _, i := range indices {
		if g.samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < g.cfg.MinLeafSamples || len(right) < g.cfg.MinLeafSamples {
		g.nodes[idx] = leafNode(counts, len(indices))
		return idx
	}

	leftIdx := g.grow(left, depth+1)
	rightIdx := g.grow(right, depth+1)
	g.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: leftIdx, Right: rightIdx}
	return idx
}

// bestSplit searches a random feature subset for the gini-optimal
// threshold among midpoints of adjacent distinct values.
func (g *grower) bestSplit(indices []int, parentCounts []float64) (int, float64, bool) {
	total := float64(len(indices))
	parentGini := gini(parentCounts, total)

	perm := g.rng.Perm(len(g.samples[0]))
	candidates := perm[:g.mtry]
	sort.Ints(candidates)

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for _, feature := range candidates {
		order := make([]int, len(indices))
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool {
			return g.samples[order[a]][feature] < g.samples[order[b]][feature]
		})

		leftCounts := make([]float64, numClasses)
		rightCounts := make([]float64, numClasses)
		copy(rightCounts, parentCounts)

		for pos := 0; pos < len(order)-1; pos++ {
			label := g.labels[order[pos]]
			leftCounts[label]++
			rightCounts[label]--

			cur := g.samples[order[pos]][feature]
			next := g.samples[order[pos+1]][feature]
			if cur == next {
				continue
			}

			nLeft := float64(pos + 1)
			nRight := total - nLeft
			weighted := (nLeft*gini(leftCounts, nLeft) + nRight*gini(rightCounts, nRight)) / total
			gain := parentGini - weighted
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (cur + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	return impurity
}

func pure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func leafNode(counts []float64, total int) Node {
	probs := make([]float64, numClasses)
	if total > 0 {
		for i, c := range counts {
			probs[i] = c / float64(total)
		}
	}
	return Node{Leaf: true, Probs: probs}
}
