package domain

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	clockMu sync.RWMutex
	clock   = clockwork.NewRealClock()
)

// SetClock replaces the time source that stamps RunSummary.GeneratedAt.
// Tests freeze it with a fake clock; nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clockMu.Lock()
	clock = c
	clockMu.Unlock()
}

// now is safe to call from concurrent runs.
func now() time.Time {
	clockMu.RLock()
	defer clockMu.RUnlock()
	return clock.Now().UTC()
}
