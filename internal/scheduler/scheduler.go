package scheduler

import (
	"context"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Interval reports the current wait between runs. A value <= 0 pauses the
// schedule until it turns positive again.
type Interval func() time.Duration

func Fixed(d time.Duration) Interval {
	return func() time.Duration { return d }
}

// Every runs task now and then again each time the interval elapses after
// the previous run finished, until ctx is done. Runs never overlap. The
// interval is read before and after every run, so a change takes effect
// from the next cycle. While it is paused the interval is re-read every
// recheck.
func Every(ctx context.Context, name string, interval Interval, recheck time.Duration, task Task) {
	if recheck <= 0 {
		recheck = time.Minute
	}
	for {
		wait := recheck
		if d := interval(); d > 0 {
			runTask(ctx, name, task)
			if d = interval(); d > 0 {
				wait = d
			}
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func runTask(ctx context.Context, name string, task Task) {
	if ctx.Err() != nil {
		return
	}
	if err := task(ctx); err != nil {
		log.Printf("[scheduler:%s] error: %v", name, err)
	}
}
