package poll

import (
	"time"

	"livepoll/internal/domain"
)

// Timer is a pending scheduled callback
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d on its own goroutine
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type runtimeScheduler struct{}

func (runtimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RoundObserver is told about every resolved round. It is called from
// inside the coordinator's critical section and must return immediately.
type RoundObserver interface {
	RoundResolved(entry domain.HistoryEntry)
}

// RoundObserverFunc adapts a function to RoundObserver
type RoundObserverFunc func(entry domain.HistoryEntry)

func (f RoundObserverFunc) RoundResolved(entry domain.HistoryEntry) { f(entry) }
