package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed lock.
const DefaultLockTTL = 30 * time.Second

// ErrTicketUsed is returned when a Ticket is run more than once.
var ErrTicketUsed = errors.New("ticket already used")

// gateEntry is the queue tail of one conversation and its reference count.
type gateEntry struct {
	tail chan struct{} // closed when the most recently queued operation finishes
	refs int
}

// Gate guarantees at most one in-flight operation per conversation, in FIFO order.
// Operations for different conversations never wait on each other.
// It uses reference counting to garbage collect idle conversations.
type Gate struct {
	mu      sync.Mutex
	entries map[string]*gateEntry

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Gate.
type Option func(*Gate)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(g *Gate) {
		g.locker = locker
	}
}

// WithLockTTL sets the TTL passed to the distributed locker.
func WithLockTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Gate.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGate creates an isolation gate.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		entries: make(map[string]*gateEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ticket is a reserved place in a conversation's queue.
// Every Ticket must be Run exactly once, otherwise later operations of the
// same conversation wait forever.
type Ticket struct {
	gate *Gate
	key  string
	wait <-chan struct{}
	done chan struct{}
	used atomic.Bool
}

// Reserve takes the next place in the queue of key without blocking.
// Callers that receive events from a single reader call Reserve in arrival order
// and may then Run the tickets from separate goroutines.
func (g *Gate) Reserve(key string) *Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.entries[key]
	if !exists {
		entry = &gateEntry{}
		g.entries[key] = entry
	}
	entry.refs++

	t := &Ticket{
		gate: g,
		key:  key,
		wait: entry.tail,
		done: make(chan struct{}),
	}
	entry.tail = t.done
	return t
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (g *Gate) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.entries[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(g.entries, key)
	}
}

// Run waits for every earlier ticket of the same conversation, then executes fn.
// Waiting cannot be cancelled and fn receives a context detached from ctx's
// cancellation: an abandoned caller still lets the operation complete.
func (t *Ticket) Run(ctx context.Context, fn func(context.Context) error) error {
	if !t.used.CompareAndSwap(false, true) {
		return ErrTicketUsed
	}
	if t.wait != nil {
		<-t.wait
	}
	defer func() {
		close(t.done)
		t.gate.release(t.key)
	}()

	ctx = context.WithoutCancel(ctx)

	if t.gate.locker != nil {
		unlock, err := t.gate.locker.Lock(ctx, t.key, t.gate.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				t.gate.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"conversation_id", t.key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// WithLock executes fn while holding the isolation lock for key.
func (g *Gate) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	return g.Reserve(key).Run(ctx, fn)
}
