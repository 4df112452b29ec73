package syncqueue

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/habitloop/habitloop-backend/internal/habit"
)

// Entry is one buffered completion, keyed by (habit, day). QueuedAt orders
// replay; a re-edit of the same day replaces the payload in place.
type Entry struct {
	HabitID  uuid.UUID                     `json:"habit_id"`
	Date     string                        `json:"date"`
	Payload  habit.RecordCompletionRequest `json:"payload"`
	QueuedAt time.Time                     `json:"queued_at"`
}

type key struct {
	habitID uuid.UUID
	date    string
}

// Queue buffers completions recorded while disconnected. It is the single
// source of truth for "has this local edit been persisted": entries leave the
// buffer only after a successful replay. One queue serves one device, and
// replays never run concurrently.
type Queue struct {
	mu      sync.Mutex
	entries map[key]Entry
}

func NewQueue() *Queue {
	return &Queue{entries: make(map[key]Entry)}
}

// Add upserts a buffered completion for (habit, day).
func (q *Queue) Add(e Entry) {
	if e.QueuedAt.IsZero() {
		e.QueuedAt = time.Now().UTC()
	}
	e.Payload.Date = e.Date

	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[key{e.HabitID, e.Date}] = e
}

// Pending returns buffered entries in replay (timestamp) order.
func (q *Queue) Pending() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		pending = append(pending, e)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].QueuedAt.Before(pending[j].QueuedAt)
	})
	return pending
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Replay pushes each buffered entry through apply in timestamp order.
// Successes are removed; failures stay buffered for the next reconnect, so
// delivery is at-least-once and relies on the server's idempotent upsert.
func (q *Queue) Replay(apply func(Entry) error) (applied, failed int) {
	for _, e := range q.Pending() {
		if err := apply(e); err != nil {
			failed++
			continue
		}
		q.mu.Lock()
		delete(q.entries, key{e.HabitID, e.Date})
		q.mu.Unlock()
		applied++
	}
	return applied, failed
}

// Overlay merges pending edits for one day onto a last-known habit status
// snapshot, so offline reads reflect local completions.
func (q *Queue) Overlay(day string, snapshot []habit.HabitWithStatus) []habit.HabitWithStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	merged := make([]habit.HabitWithStatus, len(snapshot))
	copy(merged, snapshot)
	for i := range merged {
		if e, ok := q.entries[key{merged[i].ID, day}]; ok {
			merged[i].CompletedToday = true
			merged[i].TodayCount = e.Payload.Count
		}
	}
	return merged
}
