package regressor

import (
	"errors"
	"fmt"
	"math"
)

// Model types understood by the loader.
const (
	TypeLinear       = "linear"
	TypeDecisionTree = "decision_tree"
	TypeRandomForest = "random_forest"
)

// Artifact is the on-disk form of a fitted regressor (JSON or YAML).
//
// Trees use a flat node array: node 0 is the root, a split sends a row left
// when row[feature] <= threshold, and child indices always point forward.
type Artifact struct {
	Name         string    `json:"name" yaml:"name"`
	Type         string    `json:"type" yaml:"type"`
	Features     []string  `json:"features" yaml:"features"`
	Intercept    float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
	Trees        []Tree    `json:"trees,omitempty" yaml:"trees,omitempty"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes" yaml:"nodes"`
}

type TreeNode struct {
	Feature   int     `json:"feature" yaml:"feature"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Left      int     `json:"left" yaml:"left"`
	Right     int     `json:"right" yaml:"right"`
	Value     float64 `json:"value" yaml:"value"`
	Leaf      bool    `json:"leaf" yaml:"leaf"`
}

// Validate checks the artifact is internally consistent so Predict can walk
// trees without bounds surprises.
func (a *Artifact) Validate() error {
	if len(a.Features) == 0 {
		return errors.New("features must not be empty")
	}
	seen := make(map[string]struct{}, len(a.Features))
	for _, f := range a.Features {
		if f == "" {
			return errors.New("feature names must not be empty")
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("duplicate feature %q", f)
		}
		seen[f] = struct{}{}
	}

	switch a.Type {
	case TypeLinear:
		if len(a.Coefficients) != len(a.Features) {
			return fmt.Errorf("linear model has %d coefficients for %d features", len(a.Coefficients), len(a.Features))
		}
		if !finite(a.Intercept) {
			return errors.New("intercept is not finite")
		}
		for i, c := range a.Coefficients {
			if !finite(c) {
				return fmt.Errorf("coefficient %d is not finite", i)
			}
		}
	case TypeDecisionTree:
		if len(a.Trees) != 1 {
			return fmt.Errorf("decision_tree needs exactly one tree, got %d", len(a.Trees))
		}
		return a.Trees[0].validate(len(a.Features))
	case TypeRandomForest:
		if len(a.Trees) == 0 {
			return errors.New("random_forest has no trees")
		}
		for i := range a.Trees {
			if err := a.Trees[i].validate(len(a.Features)); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	case "":
		return errors.New("model type is required")
	default:
		return fmt.Errorf("unsupported model type %q", a.Type)
	}
	return nil
}

func (t *Tree) validate(nFeatures int) error {
	n := len(t.Nodes)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range t.Nodes {
		if node.Leaf {
			if !finite(node.Value) {
				return fmt.Errorf("node %d: leaf value is not finite", i)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.Feature)
		}
		if !finite(node.Threshold) {
			return fmt.Errorf("node %d: threshold is not finite", i)
		}
		for _, child := range []int{node.Left, node.Right} {
			if child <= i || child >= n {
				return fmt.Errorf("node %d: child index %d invalid", i, child)
			}
		}
	}
	return nil
}

func (t *Tree) predict(row []float64) float64 {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
