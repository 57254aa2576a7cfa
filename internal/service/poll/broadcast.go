package poll

import (
	"sync"

	"go.uber.org/zap"

	"livepoll/internal/domain"
)

// Connection is a registered transport endpoint. Deliver must not block; it
// returns false when the event could not be queued, after which the
// transport is expected to drop the connection.
type Connection interface {
	ID() string
	Deliver(ev domain.Event) bool
	Close()
}

// Emitter is what the Coordinator needs from the broadcast layer
type Emitter interface {
	EmitToParticipants(ev domain.Event)
	EmitToPresenters(ev domain.Event)
	EmitToOne(id string, ev domain.Event) bool
	EmitToAll(ev domain.Event)
	JoinPresenters(id string)
	JoinParticipants(id string)
	LeaveParticipants(id string)
}

// Broadcaster routes events to the presenter and participant audiences.
// A connection belongs to at most one audience. "All" means every connection
// that joined an audience; registered but unjoined connections only receive
// direct events.
type Broadcaster struct {
	mu           sync.RWMutex
	conns        map[string]Connection
	presenters   map[string]struct{}
	participants map[string]struct{}
	logger       *zap.Logger
}

// NewBroadcaster creates an empty router
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		conns:        make(map[string]Connection),
		presenters:   make(map[string]struct{}),
		participants: make(map[string]struct{}),
		logger:       logger,
	}
}

// Register makes a connection addressable
func (b *Broadcaster) Register(conn Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[conn.ID()] = conn
}

// Unregister forgets a connection and its audience membership
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, id)
	delete(b.presenters, id)
	delete(b.participants, id)
}

// JoinPresenters moves a connection into the presenter audience
func (b *Broadcaster) JoinPresenters(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.conns[id]; !ok {
		return
	}
	delete(b.participants, id)
	b.presenters[id] = struct{}{}
}

// JoinParticipants moves a connection into the participant audience
func (b *Broadcaster) JoinParticipants(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.conns[id]; !ok {
		return
	}
	delete(b.presenters, id)
	b.participants[id] = struct{}{}
}

// LeaveParticipants drops a connection from the participant audience
func (b *Broadcaster) LeaveParticipants(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.participants, id)
}

// Counts returns the audience sizes
func (b *Broadcaster) Counts() (presenters, participants, connections int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.presenters), len(b.participants), len(b.conns)
}

// CloseAll closes every registered connection. Transports unregister
// themselves as their connections shut down.
func (b *Broadcaster) CloseAll() {
	b.mu.RLock()
	conns := make([]Connection, 0, len(b.conns))
	for _, conn := range b.conns {
		conns = append(conns, conn)
	}
	b.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
	if len(conns) > 0 {
		b.logger.Info("Closed open connections", zap.Int("count", len(conns)))
	}
}

func (b *Broadcaster) EmitToParticipants(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.emitGroup(b.participants, ev)
}

func (b *Broadcaster) EmitToPresenters(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.emitGroup(b.presenters, ev)
}

func (b *Broadcaster) EmitToAll(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.emitGroup(b.presenters, ev)
	b.emitGroup(b.participants, ev)
}

// EmitToOne delivers to a single registered connection regardless of audience
func (b *Broadcaster) EmitToOne(id string, ev domain.Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	conn, ok := b.conns[id]
	if !ok {
		return false
	}
	return b.deliver(conn, ev)
}

// emitGroup expects b.mu to be held
func (b *Broadcaster) emitGroup(group map[string]struct{}, ev domain.Event) {
	for id := range group {
		if conn, ok := b.conns[id]; ok {
			b.deliver(conn, ev)
		}
	}
}

func (b *Broadcaster) deliver(conn Connection, ev domain.Event) bool {
	if conn.Deliver(ev) {
		return true
	}
	b.logger.Debug("Event not delivered",
		zap.String("connection_id", conn.ID()),
		zap.String("event", string(ev.Type())))
	return false
}
