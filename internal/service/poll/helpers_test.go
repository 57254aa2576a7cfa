package poll

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"livepoll/internal/domain"
)

// manualScheduler records deadlines instead of arming real timers
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (t *manualTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Fire runs the callback even when the timer was stopped, the way a runtime
// timer that already fired races a Stop call.
func (t *manualTimer) Fire() {
	t.f()
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Last(t *testing.T) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.timers, "no deadline was scheduled")
	return s.timers[len(s.timers)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingConn is a Connection that keeps everything it receives
type recordingConn struct {
	id     string
	mu     sync.Mutex
	events []domain.Event
	full   bool
	closed int
}

func newRecordingConn(id string) *recordingConn {
	return &recordingConn{id: id}
}

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Deliver(ev domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.events = append(c.events, ev)
	return true
}

func (c *recordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func (c *recordingConn) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *recordingConn) Events() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Event(nil), c.events...)
}

func (c *recordingConn) OfType(typ domain.EventType) []domain.Event {
	var out []domain.Event
	for _, ev := range c.Events() {
		if ev.Type() == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (c *recordingConn) Count(typ domain.EventType) int {
	return len(c.OfType(typ))
}

func (c *recordingConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

type testSession struct {
	coord       *Coordinator
	broadcaster *Broadcaster
	scheduler   *manualScheduler
	clock       *fakeClock
	resolved    []domain.HistoryEntry
	mu          sync.Mutex
}

func newTestSession(t *testing.T, opts ...Option) *testSession {
	t.Helper()
	s := &testSession{
		broadcaster: NewBroadcaster(zap.NewNop()),
		scheduler:   &manualScheduler{},
		clock:       newFakeClock(),
	}
	observer := RoundObserverFunc(func(entry domain.HistoryEntry) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.resolved = append(s.resolved, entry)
	})
	all := append([]Option{
		WithScheduler(s.scheduler),
		WithClock(s.clock.Now),
		WithObserver(observer),
	}, opts...)
	s.coord = NewCoordinator(s.broadcaster, all...)
	return s
}

func (s *testSession) presenter(id string) *recordingConn {
	conn := newRecordingConn(id)
	s.broadcaster.Register(conn)
	s.coord.JoinPresenter(id)
	return conn
}

func (s *testSession) participant(id, name string) *recordingConn {
	conn := newRecordingConn(id)
	s.broadcaster.Register(conn)
	s.coord.JoinParticipant(id, name)
	return conn
}

func (s *testSession) Resolved() []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.HistoryEntry(nil), s.resolved...)
}

func lastTally(t *testing.T, conn *recordingConn) domain.TallyUpdated {
	t.Helper()
	events := conn.OfType(domain.EventTallyUpdated)
	require.NotEmpty(t, events, "no tally-updated event received")
	return events[len(events)-1].(domain.TallyUpdated)
}

func lastRoster(t *testing.T, conn *recordingConn) domain.RosterUpdated {
	t.Helper()
	events := conn.OfType(domain.EventRosterUpdated)
	require.NotEmpty(t, events, "no roster-updated event received")
	return events[len(events)-1].(domain.RosterUpdated)
}
