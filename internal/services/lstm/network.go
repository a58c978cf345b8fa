// Package lstm implements a small stacked LSTM regressor: LSTM layers
// followed by a single-unit dense head, trained with MSE and Adam.
package lstm

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var ErrInputShape = errors.New("input shape mismatch")

// Config describes the architecture of a Network.
type Config struct {
	WindowSize int
	Features   int
	Units      int
	Layers     int
}

// Layer is one LSTM layer. Gate rows are ordered input, forget, cell, output;
// Kernel is (4*Units x InputSize) and Recurrent is (4*Units x Units), row-major.
type Layer struct {
	InputSize       int       `json:"input_size"`
	Units           int       `json:"units"`
	ReturnSequences bool      `json:"return_sequences"`
	Kernel          []float64 `json:"kernel"`
	Recurrent       []float64 `json:"recurrent"`
	Bias            []float64 `json:"bias"`
}

// Dense is the single-output regression head.
type Dense struct {
	InputSize int       `json:"input_size"`
	Weights   []float64 `json:"weights"`
	Bias      []float64 `json:"bias"`
}

// Network is immutable once trained; Predict is safe for concurrent use.
type Network struct {
	WindowSize int      `json:"window_size"`
	Features   int      `json:"features"`
	Layers     []*Layer `json:"layers"`
	Head       *Dense   `json:"head"`
}

// New builds a freshly initialised network. Kernels use Glorot uniform
// initialisation and forget-gate biases start at one.
func New(cfg Config, rng *rand.Rand) (*Network, error) {
	if cfg.WindowSize < 1 || cfg.Features < 1 || cfg.Units < 1 || cfg.Layers < 1 {
		return nil, fmt.Errorf("invalid lstm config %+v", cfg)
	}
	n := &Network{WindowSize: cfg.WindowSize, Features: cfg.Features}
	in := cfg.Features
	for i := 0; i < cfg.Layers; i++ {
		l := &Layer{
			InputSize:       in,
			Units:           cfg.Units,
			ReturnSequences: i < cfg.Layers-1,
			Kernel:          glorot(rng, 4*cfg.Units*in, in, 4*cfg.Units),
			Recurrent:       glorot(rng, 4*cfg.Units*cfg.Units, cfg.Units, 4*cfg.Units),
			Bias:            make([]float64, 4*cfg.Units),
		}
		for u := 0; u < cfg.Units; u++ {
			l.Bias[cfg.Units+u] = 1
		}
		n.Layers = append(n.Layers, l)
		in = cfg.Units
	}
	n.Head = &Dense{
		InputSize: in,
		Weights:   glorot(rng, in, in, 1),
		Bias:      make([]float64, 1),
	}
	return n, nil
}

// InputShape returns (timesteps, features).
func (n *Network) InputShape() (int, int) { return n.WindowSize, n.Features }

// Validate checks internal consistency after decoding.
func (n *Network) Validate() error {
	if len(n.Layers) == 0 || n.Head == nil {
		return errors.New("network has no layers")
	}
	in := n.Features
	for i, l := range n.Layers {
		if l.InputSize != in {
			return fmt.Errorf("layer %d: input size %d, want %d", i, l.InputSize, in)
		}
		g := 4 * l.Units
		if len(l.Kernel) != g*l.InputSize || len(l.Recurrent) != g*l.Units || len(l.Bias) != g {
			return fmt.Errorf("layer %d: weight dimensions do not match %d units", i, l.Units)
		}
		if l.ReturnSequences != (i < len(n.Layers)-1) {
			return fmt.Errorf("layer %d: only the last layer may collapse the sequence", i)
		}
		in = l.Units
	}
	if n.Head.InputSize != in || len(n.Head.Weights) != in || len(n.Head.Bias) != 1 {
		return fmt.Errorf("dense head does not match last layer width %d", in)
	}
	return nil
}

// Predict runs one window of shape (WindowSize x Features).
func (n *Network) Predict(window [][]float64) (float64, error) {
	if len(window) != n.WindowSize {
		return 0, fmt.Errorf("%w: got %d timesteps, want %d", ErrInputShape, len(window), n.WindowSize)
	}
	for t, row := range window {
		if len(row) != n.Features {
			return 0, fmt.Errorf("%w: timestep %d has %d features, want %d", ErrInputShape, t, len(row), n.Features)
		}
	}
	y, _ := n.forward(window)
	return y, nil
}

type layerCache struct {
	xs    [][]float64
	hs    [][]float64 // len T+1, hs[0] is the zero state
	cs    [][]float64 // len T+1
	gates [][]float64 // activated i, f, g, o per step
}

type netCache struct {
	layers []*layerCache
	last   []float64
}

func (n *Network) forward(xs [][]float64) (float64, *netCache) {
	cache := &netCache{layers: make([]*layerCache, len(n.Layers))}
	seq := xs
	for i, l := range n.Layers {
		out, lc := l.forward(seq)
		cache.layers[i] = lc
		seq = out
	}
	cache.last = seq[len(seq)-1]
	y := n.Head.Bias[0]
	for k, w := range n.Head.Weights {
		y += w * cache.last[k]
	}
	return y, cache
}

func (l *Layer) forward(xs [][]float64) ([][]float64, *layerCache) {
	T, U, In := len(xs), l.Units, l.InputSize
	lc := &layerCache{
		xs:    xs,
		hs:    make([][]float64, T+1),
		cs:    make([][]float64, T+1),
		gates: make([][]float64, T),
	}
	lc.hs[0] = make([]float64, U)
	lc.cs[0] = make([]float64, U)

	for t := 0; t < T; t++ {
		x, hPrev, cPrev := xs[t], lc.hs[t], lc.cs[t]
		z := make([]float64, 4*U)
		for r := 0; r < 4*U; r++ {
			s := l.Bias[r]
			kr := l.Kernel[r*In : (r+1)*In]
			for k, v := range x {
				s += kr[k] * v
			}
			rr := l.Recurrent[r*U : (r+1)*U]
			for k, v := range hPrev {
				s += rr[k] * v
			}
			z[r] = s
		}
		h := make([]float64, U)
		c := make([]float64, U)
		for u := 0; u < U; u++ {
			ig := sigmoid(z[u])
			fg := sigmoid(z[U+u])
			gg := math.Tanh(z[2*U+u])
			og := sigmoid(z[3*U+u])
			z[u], z[U+u], z[2*U+u], z[3*U+u] = ig, fg, gg, og
			c[u] = fg*cPrev[u] + ig*gg
			h[u] = og * math.Tanh(c[u])
		}
		lc.gates[t] = z
		lc.hs[t+1] = h
		lc.cs[t+1] = c
	}
	return lc.hs[1:], lc
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func glorot(rng *rand.Rand, size, fanIn, fanOut int) []float64 {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	w := make([]float64, size)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
	return w
}
