package viewer

import (
	"context"
	"sync"
	"time"
)

// Animation calls Evolve on the render thread every Interval until the
// window stops.
type Animation struct {
	Interval time.Duration
	Evolve   func(dt time.Duration)
	running  bool
}

func NewAnimation(interval time.Duration, evolve func(dt time.Duration)) *Animation {
	return &Animation{Interval: interval, Evolve: evolve}
}

func (a *Animation) Run(ctx context.Context, wg *sync.WaitGroup, updates chan<- func()) {
	if a.running || a.Evolve == nil || a.Interval <= 0 {
		return
	}
	a.running = true
	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(a.Interval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				dt := now.Sub(last)
				last = now
				select {
				case updates <- func() { a.Evolve(dt) }:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}
