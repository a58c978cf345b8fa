package lstm

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// TrainConfig controls mini-batch Adam training.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	// OnEpoch, when set, is called after every epoch.
	OnEpoch func(epoch int, trainLoss, valLoss float64)
}

func (c *TrainConfig) setDefaults() {
	if c.Epochs <= 0 {
		c.Epochs = 20
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.001
	}
	if c.Beta1 == 0 {
		c.Beta1 = 0.9
	}
	if c.Beta2 == 0 {
		c.Beta2 = 0.999
	}
	if c.Epsilon == 0 {
		c.Epsilon = 1e-7
	}
}

// Dataset is a set of windows with their next-step labels.
type Dataset struct {
	X [][][]float64
	Y []float64
}

func (d Dataset) Len() int { return len(d.Y) }

// History holds per-epoch losses. ValLoss is NaN when no validation set was given.
type History struct {
	TrainLoss []float64
	ValLoss   []float64
}

// Final returns the last recorded train and validation losses.
func (h History) Final() (float64, float64) {
	if len(h.TrainLoss) == 0 {
		return math.NaN(), math.NaN()
	}
	return h.TrainLoss[len(h.TrainLoss)-1], h.ValLoss[len(h.ValLoss)-1]
}

// Fit trains n in place. Batches are taken in chronological order.
func (n *Network) Fit(ctx context.Context, train, val Dataset, cfg TrainConfig) (History, error) {
	cfg.setDefaults()
	if train.Len() == 0 {
		return History{}, errors.New("empty training set")
	}
	if len(train.X) != len(train.Y) || len(val.X) != len(val.Y) {
		return History{}, errors.New("inputs and labels differ in length")
	}
	for i, x := range train.X {
		if len(x) != n.WindowSize {
			return History{}, fmt.Errorf("%w: sample %d has %d timesteps", ErrInputShape, i, len(x))
		}
	}

	params := n.params()
	opt := newAdam(params, cfg)
	grads := zerosLike(params)
	var hist History

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		var sum float64
		for start := 0; start < train.Len(); start += cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return hist, err
			}
			end := start + cfg.BatchSize
			if end > train.Len() {
				end = train.Len()
			}
			for _, g := range grads {
				clear(g)
			}
			sum += n.accumulate(train.X[start:end], train.Y[start:end], grads)
			opt.step(params, grads)
		}
		trainLoss := sum / float64(train.Len())
		valLoss := n.Evaluate(val)
		hist.TrainLoss = append(hist.TrainLoss, trainLoss)
		hist.ValLoss = append(hist.ValLoss, valLoss)
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(epoch, trainLoss, valLoss)
		}
	}
	return hist, nil
}

// Evaluate returns the mean squared error over d, or NaN when d is empty.
func (n *Network) Evaluate(d Dataset) float64 {
	if d.Len() == 0 {
		return math.NaN()
	}
	var sum float64
	for i, x := range d.X {
		y, _ := n.forward(x)
		diff := y - d.Y[i]
		sum += diff * diff
	}
	return sum / float64(d.Len())
}

// accumulate adds batch-mean MSE gradients into grads and returns the summed
// squared error of the batch.
func (n *Network) accumulate(xs [][][]float64, ys []float64, grads [][]float64) float64 {
	var sse float64
	scale := 2 / float64(len(ys))
	for i, x := range xs {
		yhat, cache := n.forward(x)
		diff := yhat - ys[i]
		sse += diff * diff
		n.backward(cache, diff*scale, grads)
	}
	return sse
}

// backward propagates dy (dLoss/dOutput) and accumulates into grads, which
// follow the order of params().
func (n *Network) backward(cache *netCache, dy float64, grads [][]float64) {
	gi := 3 * len(n.Layers)
	headW, headB := grads[gi], grads[gi+1]
	dLast := make([]float64, n.Head.InputSize)
	for k, w := range n.Head.Weights {
		headW[k] += dy * cache.last[k]
		dLast[k] = dy * w
	}
	headB[0] += dy

	T := n.WindowSize
	dSeq := make([][]float64, T)
	for t := range dSeq {
		dSeq[t] = make([]float64, n.Layers[len(n.Layers)-1].Units)
	}
	dSeq[T-1] = dLast

	for i := len(n.Layers) - 1; i >= 0; i-- {
		l := n.Layers[i]
		dSeq = l.backward(cache.layers[i], dSeq, grads[3*i], grads[3*i+1], grads[3*i+2])
	}
}

func (l *Layer) backward(lc *layerCache, dHs [][]float64, gK, gR, gB []float64) [][]float64 {
	T, U, In := len(lc.xs), l.Units, l.InputSize
	dXs := make([][]float64, T)
	dhNext := make([]float64, U)
	dcNext := make([]float64, U)
	dz := make([]float64, 4*U)

	for t := T - 1; t >= 0; t-- {
		gates := lc.gates[t]
		c, cPrev, hPrev, x := lc.cs[t+1], lc.cs[t], lc.hs[t], lc.xs[t]
		for u := 0; u < U; u++ {
			ig, fg, gg, og := gates[u], gates[U+u], gates[2*U+u], gates[3*U+u]
			tc := math.Tanh(c[u])
			dh := dHs[t][u] + dhNext[u]
			do := dh * tc
			dc := dh*og*(1-tc*tc) + dcNext[u]
			di := dc * gg
			dg := dc * ig
			df := dc * cPrev[u]
			dcNext[u] = dc * fg

			dz[u] = di * ig * (1 - ig)
			dz[U+u] = df * fg * (1 - fg)
			dz[2*U+u] = dg * (1 - gg*gg)
			dz[3*U+u] = do * og * (1 - og)
		}

		dx := make([]float64, In)
		clear(dhNext)
		for r := 0; r < 4*U; r++ {
			d := dz[r]
			if d == 0 {
				continue
			}
			gB[r] += d
			kr := l.Kernel[r*In : (r+1)*In]
			gkr := gK[r*In : (r+1)*In]
			for k := 0; k < In; k++ {
				gkr[k] += d * x[k]
				dx[k] += d * kr[k]
			}
			rr := l.Recurrent[r*U : (r+1)*U]
			grr := gR[r*U : (r+1)*U]
			for k := 0; k < U; k++ {
				grr[k] += d * hPrev[k]
				dhNext[k] += d * rr[k]
			}
		}
		dXs[t] = dx
	}
	return dXs
}

// params lists trainable tensors: per layer kernel, recurrent, bias; then
// head weights and bias.
func (n *Network) params() [][]float64 {
	out := make([][]float64, 0, 3*len(n.Layers)+2)
	for _, l := range n.Layers {
		out = append(out, l.Kernel, l.Recurrent, l.Bias)
	}
	return append(out, n.Head.Weights, n.Head.Bias)
}

func zerosLike(ps [][]float64) [][]float64 {
	out := make([][]float64, len(ps))
	for i, p := range ps {
		out[i] = make([]float64, len(p))
	}
	return out
}

type adam struct {
	cfg  TrainConfig
	m, v [][]float64
	t    int
}

func newAdam(params [][]float64, cfg TrainConfig) *adam {
	return &adam{cfg: cfg, m: zerosLike(params), v: zerosLike(params)}
}

func (a *adam) step(params, grads [][]float64) {
	a.t++
	b1, b2 := a.cfg.Beta1, a.cfg.Beta2
	c1 := 1 - math.Pow(b1, float64(a.t))
	c2 := 1 - math.Pow(b2, float64(a.t))
	lr := a.cfg.LearningRate
	for i, p := range params {
		g, m, v := grads[i], a.m[i], a.v[i]
		for j := range p {
			m[j] = b1*m[j] + (1-b1)*g[j]
			v[j] = b2*v[j] + (1-b2)*g[j]*g[j]
			p[j] -= lr * (m[j] / c1) / (math.Sqrt(v[j]/c2) + a.cfg.Epsilon)
		}
	}
}
