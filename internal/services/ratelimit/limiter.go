package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/mcoot/tourneygate/internal/dependencies/clock"
	"github.com/mcoot/tourneygate/internal/model"
)

// Window is the fixed length of a per-user rate-limit window
const Window = 60 * time.Second

const shardCount = 32

// Limiter gates requests per user. A non-positive limit disables the gate.
type Limiter interface {
	Allow(ctx context.Context, userID model.UserID, limit int) (bool, error)
}

type window struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	windows map[model.UserID]*window
}

// MemoryLimiter is an in-process fixed-window limiter.
// Users are spread over shards so unrelated users rarely contend on a lock.
type MemoryLimiter struct {
	clock  clock.Clock
	shards [shardCount]*shard
}

// Ensure MemoryLimiter implements Limiter
var _ Limiter = (*MemoryLimiter)(nil)

// NewMemory creates a new in-process limiter
func NewMemory(clk clock.Clock) *MemoryLimiter {
	l := &MemoryLimiter{clock: clk}
	for i := range l.shards {
		l.shards[i] = &shard{windows: make(map[model.UserID]*window)}
	}
	return l
}

// Allow starts a fresh window when none exists or the current one has elapsed,
// otherwise counts the call and allows it while the count stays within limit
func (l *MemoryLimiter) Allow(_ context.Context, userID model.UserID, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	now := l.clock.Now()
	sh := l.shardFor(userID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[userID]
	if !ok || !now.Before(w.resetAt) {
		sh.windows[userID] = &window{count: 1, resetAt: now.Add(Window)}
		return true, nil
	}

	w.count++
	return w.count <= limit, nil
}

// Sweep drops elapsed windows and returns how many were removed
func (l *MemoryLimiter) Sweep() int {
	now := l.clock.Now()
	removed := 0
	for _, sh := range l.shards {
		sh.mu.Lock()
		for id, w := range sh.windows {
			if !now.Before(w.resetAt) {
				delete(sh.windows, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Tracked returns the number of users with a live window
func (l *MemoryLimiter) Tracked() int {
	n := 0
	for _, sh := range l.shards {
		sh.mu.Lock()
		n += len(sh.windows)
		sh.mu.Unlock()
	}
	return n
}

func (l *MemoryLimiter) shardFor(userID model.UserID) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return l.shards[h.Sum32()%shardCount]
}
