package emulator

import (
	"context"
	"math/rand"
	"time"
)

// Ticker paces live emulation.
type Ticker struct {
	interval time.Duration
	jitter   time.Duration
}

func NewTicker(interval, jitter time.Duration) *Ticker {
	return &Ticker{
		interval: interval,
		jitter:   jitter,
	}
}

// Tick emits immediately, then once per interval until ctx is done.
func (t *Ticker) Tick(ctx context.Context) <-chan time.Time {
	tickChan := make(chan time.Time)

	go func() {
		defer close(tickChan)

		select {
		case tickChan <- time.Now():
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case tickTime := <-ticker.C:
				if t.jitter > 0 {
					tickTime = t.addJitter(tickTime)
				}
				select {
				case tickChan <- tickTime:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return tickChan
}

func (t *Ticker) addJitter(baseTime time.Time) time.Time {
	jitterDuration := time.Duration(float64(t.jitter) * (rand.Float64()*2 - 1))
	return baseTime.Add(jitterDuration)
}
