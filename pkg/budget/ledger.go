package budget

import "sync"

// Ledger is the single source of truth for consumed usage. Committed
// totals only ever grow; reservations hold estimated usage for requests
// that are in flight so that concurrent submissions cannot jointly
// overshoot a limit.
//
// The mutex is held only for O(1) arithmetic, never across I/O.
type Ledger struct {
	mu        sync.Mutex
	committed Record
	reserved  Record
}

// NewLedger creates an empty ledger. A ledger lives for the whole
// process (or scan run) and is never implicitly reset.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Snapshot returns a consistent view of the committed totals.
func (l *Ledger) Snapshot() Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.committed
}

// Record atomically adds actual usage to the committed totals and
// returns the updated totals.
func (l *Ledger) Record(actual Record) Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed = l.committed.Add(actual)
	return l.committed
}

// TryReserve runs the policy check against committed plus in-flight
// usage and, if allowed, registers estimate as a reservation. Check and
// reserve happen under one lock acquisition, which closes the
// check-then-act race between concurrent submissions. On denial the
// ledger is left untouched and the denying decision is returned.
func (l *Ledger) TryReserve(estimate Record, limits Limits) (*Reservation, *Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()

	decision := Check(l.committed.Add(l.reserved), estimate, limits)
	if !decision.Allowed {
		return nil, &decision
	}

	l.reserved = l.reserved.Add(estimate)
	return &Reservation{ledger: l, estimate: estimate}, nil
}

// Reservation is a provisional hold on the ledger. Exactly one of
// Commit or Rollback settles it; later calls are no-ops.
type Reservation struct {
	ledger   *Ledger
	estimate Record
	settled  bool
}

// Commit releases the hold and records actual usage in its place.
func (r *Reservation) Commit(actual Record) Record {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	if r.settled {
		return r.ledger.committed
	}
	r.settled = true
	r.ledger.reserved = r.ledger.reserved.sub(r.estimate)
	r.ledger.committed = r.ledger.committed.Add(actual)
	return r.ledger.committed
}

// Rollback releases the hold without recording anything, leaving the
// committed totals exactly as they were before the reservation.
func (r *Reservation) Rollback() {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	if r.settled {
		return
	}
	r.settled = true
	r.ledger.reserved = r.ledger.reserved.sub(r.estimate)
}
