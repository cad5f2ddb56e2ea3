package splitcast

// ClientsIterator is a scoped snapshot-free view over a Splitter's
// client registry, held while the Splitter's global lock is held. Go has
// no scope-based RAII, so the lock acquired by BeginClientsIteration
// must be released explicitly via End(); while held, it excludes every
// other Splitter operation, matching the locking contract every other
// method on Splitter already follows.
type ClientsIterator struct {
	s    *Splitter
	ids  []ClientID
	done bool
}

// BeginClientsIteration acquires the Splitter's global lock and returns
// an iterator over the currently registered clients in ascending id
// order. The caller must call End() to release the lock.
func (s *Splitter) BeginClientsIteration() *ClientsIterator {
	s.mtx.Lock()
	ids := make([]ClientID, len(s.order))
	copy(ids, s.order)
	return &ClientsIterator{s: s, ids: ids}
}

// Count reports the number of clients visible to this iteration.
func (it *ClientsIterator) Count() int {
	return len(it.ids)
}

// ByIndex reports the i-th client (in ascending id order) as of when
// iteration began: its id, its current latency (FIFO depth), and its
// drop count. ok is false if i is out of range.
func (it *ClientsIterator) ByIndex(i int) (id ClientID, latency int, drops uint64, ok bool) {
	if i < 0 || i >= len(it.ids) {
		return 0, 0, 0, false
	}
	cid := it.ids[i]
	c, present := it.s.clients[cid]
	if !present {
		return cid, 0, 0, false
	}
	return cid, len(c.fifo), c.drops, true
}

// End releases the lock acquired by BeginClientsIteration. Calling it
// more than once is a no-op.
func (it *ClientsIterator) End() {
	if it.done {
		return
	}
	it.done = true
	it.s.mtx.Unlock()
}
