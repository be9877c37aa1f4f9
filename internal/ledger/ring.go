package ledger

// ring is a fixed-capacity newest-first buffer. Pushing into a full ring
// overwrites the oldest entry.
type ring struct {
	buf  []Entry
	head int // slot of the newest entry
	n    int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Entry, max(capacity, 1))}
}

func (r *ring) slot(i int) int {
	return (r.head - i + len(r.buf)) % len(r.buf)
}

// pushFront stores e as the newest entry and reports whether the oldest
// one was evicted to make room.
func (r *ring) pushFront(e Entry) bool {
	r.head = (r.head + 1) % len(r.buf)
	r.buf[r.head] = e
	if r.n == len(r.buf) {
		return true
	}
	r.n++
	return false
}

// at returns the i-th newest entry (0 is the newest).
func (r *ring) at(i int) *Entry {
	return &r.buf[r.slot(i)]
}

func (r *ring) len() int { return r.n }

func (r *ring) cap() int { return len(r.buf) }

// resize changes the capacity, keeping the newest entries that still fit.
// It returns how many entries were dropped.
func (r *ring) resize(capacity int) int {
	capacity = max(capacity, 1)
	keep := min(r.n, capacity)

	buf := make([]Entry, capacity)
	for i := range keep {
		buf[keep-1-i] = *r.at(i)
	}

	dropped := r.n - keep
	r.buf, r.n = buf, keep
	r.head = (keep - 1 + capacity) % capacity
	return dropped
}

func (r *ring) clear() {
	clear(r.buf)
	r.head, r.n = 0, 0
}

// snapshot copies the entries newest first.
func (r *ring) snapshot() []Entry {
	out := make([]Entry, r.n)
	for i := range r.n {
		out[i] = *r.at(i)
	}
	return out
}
