package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Pruner periodically evicts idle buckets so the key space stays bounded.
type Pruner struct {
	limiter  *Limiter
	interval time.Duration
	maxIdle  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPruner(l *Limiter, interval, maxIdle time.Duration) *Pruner {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxIdle <= 0 {
		maxIdle = 10 * time.Minute
	}
	return &Pruner{limiter: l, interval: interval, maxIdle: maxIdle}
}

func (p *Pruner) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		t := time.NewTicker(p.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				p.limiter.Prune(p.maxIdle)
			}
		}
	}()
	return nil
}

func (p *Pruner) Stop(context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}
