// Package queue holds user-initiated PR mutations that could not complete
// immediately and retries them with a bounded retry budget.
//
// The queue is a pure state container: it performs no network I/O and no
// backoff of its own. Each Process call attempts every pending action once,
// in insertion order, through a caller-supplied executor. When to call
// Process again (connectivity changes, exponential backoff) is the caller's
// decision.
package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Type identifies what a queued action does to a pull request.
type Type string

// Supported action types.
const (
	TypeApprove        Type = "approve"
	TypeRequestChanges Type = "request-changes"
	TypeComment        Type = "comment"
	TypeMerge          Type = "merge"
	TypeClose          Type = "close"
	TypeReopen         Type = "reopen"
	TypeLabel          Type = "label"
	TypeAssign         Type = "assign"
)

// Status is the lifecycle state of a queued action.
//
// Transitions: pending → processing → completed, or back to pending while
// retries remain, or failed once the budget is spent. Retry moves a failed
// action back to pending. completed and failed are otherwise terminal.
type Status string

// Action statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Data carries the target of an action plus the type-specific payload.
// Unused fields stay zero and are omitted when persisted.
type Data struct {
	Owner     string   `json:"owner"`
	Repo      string   `json:"repo"`
	PRNumber  int      `json:"pr_number"`
	Body      string   `json:"body,omitempty"`
	Path      string   `json:"path,omitempty"`
	Line      int      `json:"line,omitempty"`
	Side      string   `json:"side,omitempty"`
	InReplyTo int64    `json:"in_reply_to,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	ThreadID  string   `json:"thread_id,omitempty"`
}

// Action is one queued mutation.
type Action struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
	Error      string    `json:"error,omitempty"`
	Data       Data      `json:"data"`
}

// DefaultMaxRetries is the retry budget applied when Config leaves it zero.
const DefaultMaxRetries = 3

// Config controls queue behavior.
type Config struct {
	MaxRetries int
}

// Executor attempts one action against the provider. A nil return marks the
// action completed; an error consumes one retry.
type Executor func(ctx context.Context, action Action) error

// Queue is an ordered collection of pending actions. Safe for concurrent
// use; the executor is never invoked with the queue lock held.
type Queue struct {
	mu      sync.Mutex
	cfg     Config
	actions []*Action
	nextID  int

	now func() time.Time // swapped out in tests
}

// New creates an empty queue.
func New(cfg Config) *Queue {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Queue{cfg: cfg, nextID: 1, now: time.Now}
}

// Add appends a new pending action and returns its id.
func (q *Queue) Add(t Type, data Data) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := fmt.Sprintf("a%d", q.nextID)
	q.nextID++

	q.actions = append(q.actions, &Action{
		ID:         id,
		Type:       t,
		Status:     StatusPending,
		CreatedAt:  q.now(),
		MaxRetries: q.cfg.MaxRetries,
		Data:       data,
	})

	return id
}

// Process attempts every action that is pending right now, one at a time in
// queue order, and returns the number attempted. Completed and failed
// actions are never re-attempted. Process itself never fails; executor
// errors are recorded on the individual actions. A cancelled context stops
// the loop early, leaving the remaining actions pending.
func (q *Queue) Process(ctx context.Context, exec Executor) int {
	attempted := 0
	for _, id := range q.pendingIDs() {
		if ctx.Err() != nil {
			break
		}

		action, ok := q.begin(id)
		if !ok {
			continue
		}

		err := exec(ctx, action)
		q.settle(id, err)
		attempted++
	}
	return attempted
}

// pendingIDs snapshots the ids of currently pending actions in queue order.
func (q *Queue) pendingIDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ids []string
	for _, a := range q.actions {
		if a.Status == StatusPending {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// begin moves a pending action to processing and returns a copy for the
// executor. Returns false if the action is gone or no longer pending.
func (q *Queue) begin(id string) (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	a := q.findLocked(id)
	if a == nil || a.Status != StatusPending {
		return Action{}, false
	}
	a.Status = StatusProcessing
	return *a, true
}

// settle applies the outcome of one attempt.
func (q *Queue) settle(id string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	a := q.findLocked(id)
	if a == nil || a.Status != StatusProcessing {
		return
	}

	if err == nil {
		a.Status = StatusCompleted
		a.Error = ""
		return
	}

	a.RetryCount++
	a.Error = err.Error()
	if a.RetryCount >= a.MaxRetries {
		a.Status = StatusFailed
	} else {
		a.Status = StatusPending
	}
}

// Retry moves a failed action back to pending for a fresh round of
// attempts. The retry counter is kept. Reports whether the action was
// failed and is now requeued.
func (q *Queue) Retry(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	a := q.findLocked(id)
	if a == nil || a.Status != StatusFailed {
		return false
	}
	a.Status = StatusPending
	return true
}

func (q *Queue) findLocked(id string) *Action {
	for _, a := range q.actions {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Get returns a copy of the action with the given id.
func (q *Queue) Get(id string) (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if a := q.findLocked(id); a != nil {
		return *a, true
	}
	return Action{}, false
}

// Actions returns copies of all actions in insertion order.
func (q *Queue) Actions() []Action {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Action, len(q.actions))
	for i, a := range q.actions {
		out[i] = *a
	}
	return out
}

// Remove deletes the action with the given id, reporting whether it existed.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, a := range q.actions {
		if a.ID == id {
			q.actions = append(q.actions[:i], q.actions[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops all actions.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = nil
}

// ClearCompleted drops completed actions and returns how many were dropped.
func (q *Queue) ClearCompleted() int {
	return q.clearStatus(StatusCompleted)
}

// ClearFailed drops failed actions and returns how many were dropped.
func (q *Queue) ClearFailed() int {
	return q.clearStatus(StatusFailed)
}

func (q *Queue) clearStatus(s Status) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.actions[:0]
	removed := 0
	for _, a := range q.actions {
		if a.Status == s {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	q.actions = kept
	return removed
}

// PendingCount returns the number of pending actions.
func (q *Queue) PendingCount() int {
	return q.countStatus(StatusPending)
}

// FailedCount returns the number of failed actions.
func (q *Queue) FailedCount() int {
	return q.countStatus(StatusFailed)
}

// HasPending reports whether any action is waiting to be processed.
func (q *Queue) HasPending() bool {
	return q.PendingCount() > 0
}

func (q *Queue) countStatus(s Status) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, a := range q.actions {
		if a.Status == s {
			n++
		}
	}
	return n
}

// statusRank orders statuses for display: actionable work first, history
// last. Processing sorts with pending since it is still in flight.
func statusRank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusFailed:
		return 2
	case StatusCompleted:
		return 3
	}
	return 4
}

// SortedByPriority returns a new slice ordered for display: pending before
// failed before completed, oldest first within each group. The input is
// not modified; processing order is always plain queue order.
func SortedByPriority(actions []Action) []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := statusRank(out[i].Status), statusRank(out[j].Status)
		if ri != rj {
			return ri < rj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
