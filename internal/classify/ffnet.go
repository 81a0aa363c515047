// SPDX-License-Identifier: MIT
package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/dsp"
)

// Weight artifact layout. Kept deliberately small: dense layers with
// [out][in] weight rows, tanh/relu/linear hidden activations and a softmax
// output over the four classes. Training happens offline; this file only
// runs the forward pass.
type ffnetArtifact struct {
	Inputs  int          `json:"inputs"`
	Classes []string     `json:"classes"`
	Layers  []ffnetLayer `json:"layers"`
}

type ffnetLayer struct {
	Activation string      `json:"activation"`
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
}

const (
	actTanh    = "tanh"
	actReLU    = "relu"
	actLinear  = "linear"
	actSoftmax = "softmax"
)

// FFNet is the trained strategy: a feed-forward network over the frame's mel
// cepstra. Classify is synchronous and side-effect-free, so one instance can
// be swapped into a running pipeline.
type FFNet struct {
	inputs  int
	classes []Class
	layers  []ffnetLayer
}

var _ Classifier = (*FFNet)(nil)

// LoadFFNet reads and validates a JSON weights artifact. Any failure wraps
// ErrModelNotReady so callers can uniformly fall back to the heuristic.
func LoadFFNet(path string) (*FFNet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotReady, err)
	}
	net, err := ParseFFNet(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelNotReady, path, err)
	}
	return net, nil
}

// ParseFFNet validates the artifact shape: layer widths must chain from the
// input count to one output per class, and the output activation must be
// softmax.
func ParseFFNet(data []byte) (*FFNet, error) {
	var art ffnetArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parsing weights artifact: %w", err)
	}
	if art.Inputs < 1 {
		return nil, fmt.Errorf("artifact declares %d inputs", art.Inputs)
	}
	if len(art.Layers) == 0 {
		return nil, fmt.Errorf("artifact has no layers")
	}

	classes := make([]Class, 0, len(art.Classes))
	seen := map[Class]bool{}
	for _, s := range art.Classes {
		c, ok := ParseClass(s)
		if !ok {
			return nil, fmt.Errorf("artifact class %q is not a drum class", s)
		}
		if seen[c] {
			return nil, fmt.Errorf("artifact repeats class %q", s)
		}
		seen[c] = true
		classes = append(classes, c)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("artifact declares no classes")
	}

	width := art.Inputs
	for i, layer := range art.Layers {
		if len(layer.Weights) == 0 {
			return nil, fmt.Errorf("layer %d has no weight rows", i)
		}
		for r, row := range layer.Weights {
			if len(row) != width {
				return nil, fmt.Errorf("layer %d row %d has %d weights, want %d", i, r, len(row), width)
			}
		}
		if len(layer.Biases) != len(layer.Weights) {
			return nil, fmt.Errorf("layer %d has %d biases for %d rows", i, len(layer.Biases), len(layer.Weights))
		}
		last := i == len(art.Layers)-1
		switch layer.Activation {
		case actTanh, actReLU, actLinear:
			if last {
				return nil, fmt.Errorf("output layer activation must be %s, got %s", actSoftmax, layer.Activation)
			}
		case actSoftmax:
			if !last {
				return nil, fmt.Errorf("layer %d: %s is only valid on the output layer", i, actSoftmax)
			}
		default:
			return nil, fmt.Errorf("layer %d has unknown activation %q", i, layer.Activation)
		}
		width = len(layer.Weights)
	}
	if width != len(classes) {
		return nil, fmt.Errorf("output width %d does not match %d classes", width, len(classes))
	}

	return &FFNet{inputs: art.Inputs, classes: classes, layers: art.Layers}, nil
}

func (n *FFNet) Name() string { return "trained" }

func (n *FFNet) Ready() bool { return len(n.layers) > 0 }

// Inputs returns the cepstral coefficient count the artifact was trained on.
func (n *FFNet) Inputs() int { return n.inputs }

// Classify runs the forward pass over feats.MFCC.
func (n *FFNet) Classify(_ *dsp.Frame, feats *dsp.Features) (Result, error) {
	if feats == nil {
		return Result{}, fmt.Errorf("trained: nil features")
	}
	if len(feats.MFCC) != n.inputs {
		return Result{}, fmt.Errorf("trained: frame has %d cepstra, model wants %d", len(feats.MFCC), n.inputs)
	}

	x := make([]float64, n.inputs)
	copy(x, feats.MFCC)
	for _, layer := range n.layers {
		y := make([]float64, len(layer.Weights))
		for o, row := range layer.Weights {
			sum := layer.Biases[o]
			for i, w := range row {
				sum += w * x[i]
			}
			y[o] = sum
		}
		applyActivation(layer.Activation, y)
		x = y
	}

	scores := make([]Score, len(n.classes))
	for i, c := range n.classes {
		scores[i] = Score{Class: c, Probability: x[i]}
	}
	sortScores(scores)
	return Result{Scores: scores, Best: scores[0].Class, Confidence: scores[0].Probability}, nil
}

func applyActivation(name string, v []float64) {
	switch name {
	case actTanh:
		for i := range v {
			v[i] = math.Tanh(v[i])
		}
	case actReLU:
		for i := range v {
			if v[i] < 0 {
				v[i] = 0
			}
		}
	case actSoftmax:
		// Shift by the max logit so the exponentials stay finite.
		max := v[0]
		for _, x := range v[1:] {
			if x > max {
				max = x
			}
		}
		sum := 0.0
		for i := range v {
			v[i] = math.Exp(v[i] - max)
			sum += v[i]
		}
		for i := range v {
			v[i] /= sum
		}
	case actLinear:
	}
}
