package unmatched

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/errmatch/internal/matcher"
)

// DefaultCapacity is how many entries the in-memory ring keeps.
const DefaultCapacity = 100

// queueSize bounds the entries waiting for sink delivery. Entries past it are
// dropped from the sinks but still kept in the ring.
const queueSize = 256

// Entry is one query that produced no candidates.
type Entry struct {
	ID           string           `json:"id"`
	Timestamp    time.Time        `json:"timestamp"`
	ErrorMessage string           `json:"error_message"`
	SessionID    string           `json:"session_id"`
	UserContext  string           `json:"user_context,omitempty"`
	Category     matcher.Category `json:"category"`
}

// Sink durably records entries. Sinks see every entry, including those the
// ring has since evicted.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}

// Log keeps the most recent unmatched queries in a bounded ring and forwards
// each one to its sinks. Sinks are written from a single background
// goroutine, in order, so a slow sink never delays the caller. It is safe for
// concurrent use.
type Log struct {
	mu     sync.Mutex
	ring   []Entry
	next   int
	size   int
	closed bool

	sinks  []Sink
	queue  chan pending
	done   chan struct{}
	logger zerolog.Logger
	now    func() time.Time
}

type pending struct {
	ctx   context.Context
	entry Entry
}

// NewLog creates a Log holding up to capacity entries in memory
// (DefaultCapacity if capacity <= 0). Call Close to flush the sinks.
func NewLog(capacity int, logger zerolog.Logger, sinks ...Sink) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		ring:   make([]Entry, capacity),
		sinks:  sinks,
		done:   make(chan struct{}),
		logger: logger,
		now:    time.Now,
	}
	if len(sinks) == 0 {
		close(l.done)
		return l
	}
	l.queue = make(chan pending, queueSize)
	go l.deliver()
	return l
}

func (l *Log) deliver() {
	defer close(l.done)
	for p := range l.queue {
		for _, s := range l.sinks {
			if err := s.Write(p.ctx, p.entry); err != nil {
				l.logger.Warn().Err(err).Str("session_id", p.entry.SessionID).Msg("unmatched error sink write failed")
			}
		}
	}
}

// Close waits for queued entries to reach the sinks and stops delivery.
// Entries appended afterwards stay in memory only. Close does not close the
// sinks themselves.
func (l *Log) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		if l.queue != nil {
			close(l.queue)
		}
	}
	l.mu.Unlock()
	<-l.done
	return nil
}

type userContextKey struct{}

// WithUserContext attaches free-text context supplied alongside a query, such
// as the machine model or what the user was doing. Record stores it on the
// entry.
func WithUserContext(ctx context.Context, text string) context.Context {
	if text == "" {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, text)
}

func userContextFrom(ctx context.Context) string {
	s, _ := ctx.Value(userContextKey{}).(string)
	return s
}

// Record implements matcher.UnmatchedLog.
func (l *Log) Record(ctx context.Context, sessionID, query string) {
	l.Append(ctx, Entry{
		SessionID:    sessionID,
		ErrorMessage: query,
		UserContext:  userContextFrom(ctx),
	})
}

// Append stores e, filling in ID, Timestamp and Category when unset, and
// queues it for the sinks without waiting for them. Sink failures are logged
// and otherwise ignored.
func (l *Log) Append(ctx context.Context, e Entry) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.Category == "" {
		e.Category = matcher.CategoryOf(e.ErrorMessage)
	}

	l.mu.Lock()
	l.ring[l.next] = e
	l.next = (l.next + 1) % len(l.ring)
	if l.size < len(l.ring) {
		l.size++
	}
	queued := true
	if l.queue != nil && !l.closed {
		select {
		case l.queue <- pending{ctx: context.WithoutCancel(ctx), entry: e}:
		default:
			queued = false
		}
	}
	l.mu.Unlock()

	if !queued {
		l.logger.Warn().Str("session_id", e.SessionID).Msg("unmatched error sink queue full, entry not persisted")
	}
}

// Len returns the number of entries held in memory.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Recent returns up to n of the newest in-memory entries, oldest first.
// n <= 0 returns all of them.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > l.size {
		n = l.size
	}
	out := make([]Entry, 0, n)
	start := l.next - n
	if start < 0 {
		start += len(l.ring)
	}
	for i := 0; i < n; i++ {
		out = append(out, l.ring[(start+i)%len(l.ring)])
	}
	return out
}
