// Package splitcast implements a one-producer / many-consumer frame
// splitter: a thread-safe fan-out queue that distributes reference-
// counted frame buffers from a single producer to any number of
// registered clients, each with its own bounded backlog.
package splitcast

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// teardownState is the Splitter's one-shot rendezvous signal: at most one
// waiting Put consumes a non-OK value, after which it latches back to OK.
type teardownState int

const (
	stateOK teardownState = iota
	stateClosed
	stateFlushed
)

// Info reports a Splitter's immutable construction-time limits.
type Info struct {
	MaxBuffers int
	MaxClients int
}

// Splitter is the fan-out engine described by this package's design
// notes: a single global mutex guards the client registry and every
// client's FIFO; a shared push condition wakes the producer whenever a
// consumer drains a slot, a client is removed, or teardown happens; each
// client has its own pull condition so a wake can target exactly one
// waiter.
type Splitter struct {
	cfg        Config
	log        zerolog.Logger
	clock      Clock
	instanceID string

	mtx    sync.Mutex
	pushCV *sync.Cond

	clients map[ClientID]*clientContext
	order   []ClientID // ascending id order, maintained incrementally
	nextID  uint64

	state teardownState
}

// New constructs a Splitter with the given limits. MaxBuffers and
// MaxClients must each be >= 1.
func New(cfg Config, opts ...Option) (*Splitter, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	s := &Splitter{
		cfg:        cfg,
		log:        log.Logger,
		clock:      realClock{},
		instanceID: newInstanceID(),
		clients:    make(map[ClientID]*clientContext),
	}
	s.pushCV = sync.NewCond(&s.mtx)
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("splitter_id", s.instanceID).Logger()
	return s, nil
}

// InfoGet returns the Splitter's configured limits.
func (s *Splitter) InfoGet() Info {
	return Info{MaxBuffers: s.cfg.MaxBuffers, MaxClients: s.cfg.MaxClients}
}

// Put attempts to enqueue frame to every currently registered, non-
// deleted client within timeout. See the package design notes for the
// full contract; in short: OK if every client accepted it, Timeout if
// the deadline passed while some client was still full (that client
// still receives the frame via a forced drop of its oldest buffered
// frame), or Closed/Flushed if a teardown happened during the wait.
func (s *Splitter) Put(ctx context.Context, frame *Frame, timeout time.Duration) Result {
	deadline := s.clock.Now().Add(timeout)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	var stalled []ClientID
	for _, id := range s.order {
		c := s.clients[id]
		if c.deleted {
			continue
		}
		if !c.full(s.cfg.MaxBuffers) {
			c.push(frame, s.cfg.MaxBuffers)
			c.pullCV.Broadcast()
			continue
		}
		stalled = append(stalled, id)
	}

	result := OK
	for len(stalled) > 0 && result != Timeout {
		outcome := waitUntil(ctx, s.pushCV, deadline)
		if outcome == waitTimedOut || outcome == waitCanceled {
			result = Timeout
			// Fall through: still rescan so a last-moment wake isn't
			// wasted, per the algorithm's "finish the loop body" rule.
		}

		if s.state != stateOK {
			if s.state == stateClosed {
				result = Closed
			} else {
				result = Flushed
			}
			stalled = nil
			s.state = stateOK
			break
		}

		remaining := stalled[:0]
		for _, id := range stalled {
			c, ok := s.clients[id]
			if !ok || c.deleted {
				continue
			}
			if !c.full(s.cfg.MaxBuffers) {
				c.push(frame, s.cfg.MaxBuffers)
				c.pullCV.Broadcast()
				continue
			}
			remaining = append(remaining, id)
		}
		stalled = remaining
	}

	for _, id := range stalled {
		c, ok := s.clients[id]
		if !ok || c.deleted {
			continue
		}
		c.push(frame, s.cfg.MaxBuffers) // FIFO already full: this forces a drop
		s.logDrop(id, c.drops)
		c.pullCV.Broadcast()
	}

	return result
}

// Get pops the next frame for clientID, waiting up to timeout if the
// FIFO is currently empty.
func (s *Splitter) Get(ctx context.Context, clientID ClientID, timeout time.Duration) (*Frame, Result) {
	deadline := s.clock.Now().Add(timeout)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	c, ok := s.clients[clientID]
	if !ok {
		return nil, UnknownClient
	}

	for len(c.fifo) == 0 && !c.deleted {
		if waitUntil(ctx, c.pullCV, deadline) != waitWoke && len(c.fifo) == 0 && !c.deleted {
			return nil, Timeout
		}
	}

	// Deletion takes precedence over draining, regardless of whether the
	// FIFO is non-empty: any buffered frames are discarded along with
	// the client's removal. Checked unconditionally here, whether or
	// not the wait above actually ran, per the package design notes.
	if c.deleted {
		s.pushCV.Broadcast()
		return nil, Eos
	}

	if len(c.fifo) == 0 {
		return nil, Timeout
	}

	f := c.pop()
	s.pushCV.Broadcast()
	return f, OK
}

// ClientAdd registers a new client if the configured capacity allows it.
func (s *Splitter) ClientAdd() (ClientID, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if len(s.clients) >= s.cfg.MaxClients {
		return 0, false
	}

	s.nextID++
	id := ClientID(s.nextID)
	s.clients[id] = newClientContext(id, &s.mtx)
	s.order = append(s.order, id)
	return id, true
}

// ClientRemove unregisters id, if present, waking any Get waiting on it
// (which returns Eos) and any Put stalled on it (which stops waiting for
// it).
func (s *Splitter) ClientRemove(id ClientID) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c, ok := s.clients[id]
	if !ok {
		return false
	}

	c.deleted = true
	c.pullCV.Broadcast()
	delete(s.clients, id)
	s.order = removeID(s.order, id)
	s.pushCV.Broadcast()
	return true
}

// ClientGetCount reports the number of currently registered clients.
func (s *Splitter) ClientGetCount() (int, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.clients), true
}

// Close marks every client for deletion, wakes every waiter, and clears
// the registry. Idempotent: a second call is a no-op.
func (s *Splitter) Close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	affected := 0
	for _, id := range s.order {
		c := s.clients[id]
		c.deleted = true
		c.pullCV.Broadcast()
		affected++
	}
	s.logTeardown("close", affected)

	s.clients = make(map[ClientID]*clientContext)
	s.order = nil
	s.state = stateClosed
	s.pushCV.Broadcast()
}

// Flush discards every client's buffered frames, counting each as a
// drop, and wakes every waiter so they can re-check their predicate.
func (s *Splitter) Flush() Result {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	affected := 0
	for _, id := range s.order {
		c := s.clients[id]
		c.drainToDrops()
		c.pullCV.Broadcast()
		affected++
	}
	s.logTeardown("flush", affected)

	s.state = stateFlushed
	s.pushCV.Broadcast()
	return OK
}

func removeID(order []ClientID, id ClientID) []ClientID {
	for i, existing := range order {
		if existing == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
