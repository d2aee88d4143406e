package session

import (
	"time"

	"sketchlog/internal/logging"
)

// startWorker launches the background rotation ticker so idle loggers still
// rotate on schedule. No-op when rotation is disabled or already running.
func (l *Logger) startWorker() {
	l.mu.Lock()
	if !l.schedule.Enabled() || l.workerStop != nil || !l.active {
		l.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	l.workerStop = stop
	l.workerDone = done
	interval := l.schedule.Interval()
	l.mu.Unlock()

	logging.RotationDebug("Background rotation worker started for %q (interval %v)", l.name, interval)
	go l.runWorker(interval, stop, done)
}

// stopWorker shuts the rotation ticker down and waits briefly for it.
func (l *Logger) stopWorker() {
	l.mu.Lock()
	stop := l.workerStop
	done := l.workerDone
	l.workerStop = nil
	l.workerDone = nil
	l.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
}

func (l *Logger) runWorker(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			if l.active {
				l.maybeRotateLocked(now)
			}
			l.mu.Unlock()
		}
	}
}
