// Package commandstream implements the lock-free-append, mutex-handoff
// single-producer/single-consumer command ring described by the engine's
// frame lifecycle: the application thread (producer) appends opaque GPU
// commands while building a frame, and the backend thread (consumer)
// drains them in strict FIFO order.
//
// The ring holds a small number of fixed-size command buffers (slots).
// Appending is lock-free within the producer's currently-owned slot;
// only Flush (handing a filled slot to the consumer) and Alloc (when the
// ring is full and the producer must wait for a free slot) touch the
// shared mutex, matching the "no locks on the command path" contract.
package commandstream

import (
	"fmt"
	"sync"
)

// Config holds the size budgets described in the command stream's
// configuration table. These are knobs, not constants: an Engine builds
// one Config from its own options.
type Config struct {
	// MinCommandBufferBytes is the size of one ring slot. Default 1 MiB.
	MinCommandBufferBytes int
	// CommandBufferBytes is the total ring size (all slots). Default is
	// 3x MinCommandBufferBytes, enough for 3 frames in flight.
	CommandBufferBytes int
	// PerFrameCommandBytes is the application-visible producer budget
	// for a single frame. Must be <= CommandBufferBytes - MinCommandBufferBytes.
	PerFrameCommandBytes int
}

// DefaultConfig returns the documented default size budgets.
func DefaultConfig() Config {
	const mib = 1 << 20
	return Config{
		MinCommandBufferBytes: mib,
		CommandBufferBytes:    3 * mib,
		PerFrameCommandBytes:  2 * mib,
	}
}

func (c Config) validate() error {
	if c.MinCommandBufferBytes <= 0 {
		return fmt.Errorf("commandstream: MinCommandBufferBytes must be positive, got %d", c.MinCommandBufferBytes)
	}
	if c.CommandBufferBytes < c.MinCommandBufferBytes {
		return fmt.Errorf("commandstream: CommandBufferBytes (%d) must be >= MinCommandBufferBytes (%d)",
			c.CommandBufferBytes, c.MinCommandBufferBytes)
	}
	if c.PerFrameCommandBytes > c.CommandBufferBytes-c.MinCommandBufferBytes {
		return fmt.Errorf("commandstream: PerFrameCommandBytes (%d) must be <= CommandBufferBytes-MinCommandBufferBytes (%d)",
			c.PerFrameCommandBytes, c.CommandBufferBytes-c.MinCommandBufferBytes)
	}
	return nil
}

// Command is a single opaque record appended to the stream. Execute runs
// on the consumer (backend) thread, strictly in append order relative to
// every other Command appended before the owning Flush.
type Command struct {
	Execute func()
}

// Range identifies a contiguous, already-flushed span of commands
// handed from producer to consumer by a single Flush call.
type Range struct {
	commands []Command
	backing  *slot
}

// slot is one ring buffer segment: a byte budget tracker plus the
// commands appended into it so far. A command buffer is conventionally
// modeled as POD records carved out of a byte arena; because Go
// closures already carry their own heap allocation, slot keeps the same
// budget-enforcement contract (Alloc panics past the byte budget)
// without literally laying out bytes, while still charging each
// command against the budget.
type slot struct {
	used     int
	commands []Command
}

func (s *slot) reset() {
	s.used = 0
	s.commands = s.commands[:0]
}

// Stream is a single-producer/single-consumer ring of command buffers.
// The producer calls Alloc/Flush/SetPaused/RequestExit; the consumer
// calls WaitForCommands/ReleaseBuffer.
type Stream struct {
	cfg Config

	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
	exit   bool

	// free holds slots available for the producer to fill; published
	// holds flushed slots awaiting the consumer.
	free      []*slot
	published []*slot

	current *slot
}

// New allocates a Stream sized by cfg. cfg is validated; an invalid
// configuration panics so a bad config is caught at construction rather
// than surfacing as a mystery panic mid-frame.
func New(cfg Config) *Stream {
	if err := cfg.validate(); err != nil {
		panic(err)
	}
	numSlots := cfg.CommandBufferBytes / cfg.MinCommandBufferBytes
	if numSlots < 2 {
		numSlots = 2
	}
	s := &Stream{
		cfg:  cfg,
		free: make([]*slot, 0, numSlots),
	}
	s.cond = sync.NewCond(&s.mu)
	for i := 0; i < numSlots; i++ {
		s.free = append(s.free, &slot{commands: make([]Command, 0, 64)})
	}
	s.current = s.popFreeLocked()
	return s
}

func (s *Stream) popFreeLocked() *slot {
	if len(s.free) == 0 {
		return nil
	}
	n := len(s.free) - 1
	sl := s.free[n]
	s.free = s.free[:n]
	return sl
}

// Alloc reserves room for one command in the currently-filling buffer.
// Since Go commands are closures rather than raw bytes, size is charged
// directly against PerFrameCommandBytes; align exists for call-site
// symmetry with a byte-arena allocator but is otherwise unused.
//
// Alloc panics if appending would exceed PerFrameCommandBytes (a
// resource-exhaustion condition: the budget must be increased, not
// silently handled), or if RequestExit has left the producer with no
// buffer to fill. With no current buffer and no exit requested it
// waits for the consumer to free one.
func (s *Stream) Alloc(size int, align int, exec func()) {
	_ = align
	// Only the producer replaces s.current (here and in Flush), so it is
	// read without the lock; the mutex is taken only when there is no
	// buffer to append into.
	if s.current == nil {
		s.mu.Lock()
		for s.current == nil && !s.exit {
			s.cond.Wait()
			s.current = s.popFreeLocked()
		}
		if s.current == nil {
			s.mu.Unlock()
			panic("commandstream: Alloc called after RequestExit with no free buffer")
		}
		s.mu.Unlock()
	}
	cur := s.current

	cur.used += size
	if cur.used > s.cfg.PerFrameCommandBytes {
		panic(fmt.Sprintf("commandstream: per-frame command budget exceeded (%d > %d); increase PerFrameCommandBytes",
			cur.used, s.cfg.PerFrameCommandBytes))
	}
	cur.commands = append(cur.commands, Command{Execute: exec})
}

// Flush publishes the currently-filling buffer to the consumer and
// begins filling the next free one, waiting for a slot to become free if
// the ring is momentarily full (all slots either published or in
// flight).
func (s *Stream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && len(s.current.commands) > 0 {
		s.published = append(s.published, s.current)
		s.current = nil
		s.cond.Broadcast()
	}

	for s.current == nil && !s.exit {
		s.current = s.popFreeLocked()
		if s.current != nil {
			break
		}
		s.cond.Wait()
	}
}

// WaitForCommands blocks until at least one published Range is
// available, or returns an empty slice once RequestExit has been called
// and there is nothing left to drain.
func (s *Stream) WaitForCommands() []*Range {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.published) == 0 && !s.exit {
		s.cond.Wait()
	}
	if len(s.published) == 0 {
		return nil
	}

	ranges := make([]*Range, len(s.published))
	for i, sl := range s.published {
		ranges[i] = &Range{commands: sl.commands}
		ranges[i].backing = sl
	}
	s.published = s.published[:0]
	return ranges
}

// DrainAvailable returns whatever Ranges are currently published
// without blocking, or nil if none are. It's for a caller with no
// dedicated consumer thread (the engine's unthreaded startup path)
// that only wants to execute what it just published via Flush.
func (s *Stream) DrainAvailable() []*Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.published) == 0 {
		return nil
	}
	ranges := make([]*Range, len(s.published))
	for i, sl := range s.published {
		ranges[i] = &Range{commands: sl.commands, backing: sl}
	}
	s.published = s.published[:0]
	return ranges
}

// ReleaseBuffer returns a drained Range's backing slot to the free list,
// signaling any producer waiting on Alloc/Flush for a free slot.
func (s *Stream) ReleaseBuffer(r *Range) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.backing.reset()
	s.free = append(s.free, r.backing)
	s.cond.Broadcast()
}

// SetPaused lets the producer coalesce frames: a paused stream still
// accepts Alloc/Flush calls, but WaitForCommands on a paused stream with
// nothing published simply blocks longer — pausing is advisory
// bookkeeping for callers (e.g. to skip issuing frames), not a hard gate
// enforced by the stream itself.
func (s *Stream) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// IsPaused reports the current pause state set by SetPaused.
func (s *Stream) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// RequestExit signals the consumer to finish draining whatever has
// already been published and then return from WaitForCommands with an
// empty result. It does not discard already-published work.
func (s *Stream) RequestExit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exit = true
	s.cond.Broadcast()
}

// Execute runs every command in r, strictly in the order they were
// appended by the producer.
func (r *Range) Execute() {
	for _, c := range r.commands {
		c.Execute()
	}
}

// Len reports how many commands are in this range.
func (r *Range) Len() int {
	return len(r.commands)
}
