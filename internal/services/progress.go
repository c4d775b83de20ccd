package services

import (
	"sync"
	"time"
)

// ProgressCallback is called during generation to report progress.
type ProgressCallback func(step, message string, current, total int)

const (
	progressTotal = 100
	progressStep  = 5
	progressCap   = 95
)

// progressTracker advances a simulated percentage while a provider call is
// outstanding. Stop is safe to call more than once; only the first call
// reports completion.
type progressTracker struct {
	report ProgressCallback
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func startProgress(report ProgressCallback, interval time.Duration, message string) *progressTracker {
	t := &progressTracker{
		report: report,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if report == nil {
		close(t.done)
		return t
	}

	report("generate", message, 0, progressTotal)
	go t.run(interval, message)
	return t
}

func (t *progressTracker) run(interval time.Duration, message string) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current := 0
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if current >= progressCap {
				continue
			}
			current = min(current+progressStep, progressCap)
			t.report("generate", message, current, progressTotal)
		}
	}
}

// Stop halts the ticker and reports 100.
func (t *progressTracker) Stop(message string) {
	t.once.Do(func() {
		close(t.stop)
		<-t.done
		if t.report != nil {
			t.report("complete", message, progressTotal, progressTotal)
		}
	})
}
