package queue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

var errOffline = errors.New("dial tcp: network is unreachable")

func alwaysFails(context.Context, Action) error {
	return errOffline
}

func alwaysSucceeds(context.Context, Action) error {
	return nil
}

func TestAdd(t *testing.T) {
	t.Parallel()

	q := New(Config{})
	id := q.Add(TypeApprove, Data{Owner: "raphi011", Repo: "prq", PRNumber: 7})

	a, ok := q.Get(id)
	if !ok {
		t.Fatalf("Get(%q) not found", id)
	}
	if a.Status != StatusPending {
		t.Errorf("Status = %q, want %q", a.Status, StatusPending)
	}
	if a.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", a.RetryCount)
	}
	if a.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", a.MaxRetries, DefaultMaxRetries)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
	if a.Data.PRNumber != 7 {
		t.Errorf("Data.PRNumber = %d, want 7", a.Data.PRNumber)
	}
}

func TestAdd_UniqueIDsInOrder(t *testing.T) {
	t.Parallel()

	q := New(Config{})
	id1 := q.Add(TypeComment, Data{})
	id2 := q.Add(TypeMerge, Data{})

	if id1 == id2 {
		t.Fatalf("duplicate ids: %q", id1)
	}

	actions := q.Actions()
	if len(actions) != 2 || actions[0].ID != id1 || actions[1].ID != id2 {
		t.Errorf("insertion order not preserved: %+v", actions)
	}
}

func TestProcess_Success(t *testing.T) {
	t.Parallel()

	q := New(Config{})
	id := q.Add(TypeApprove, Data{PRNumber: 1})

	attempted := q.Process(context.Background(), alwaysSucceeds)
	if attempted != 1 {
		t.Errorf("Process() = %d, want 1", attempted)
	}

	a, _ := q.Get(id)
	if a.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", a.Status, StatusCompleted)
	}
	if a.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", a.RetryCount)
	}
}

func TestProcess_RetryBudget(t *testing.T) {
	t.Parallel()

	// An action that always fails must end up failed after exactly
	// MaxRetries cycles, never exceeding its budget.
	q := New(Config{MaxRetries: 3})
	id := q.Add(TypeMerge, Data{PRNumber: 2})

	for cycle := 1; cycle <= 2; cycle++ {
		q.Process(context.Background(), alwaysFails)
		a, _ := q.Get(id)
		if a.Status != StatusPending {
			t.Fatalf("cycle %d: Status = %q, want %q", cycle, a.Status, StatusPending)
		}
		if a.RetryCount != cycle {
			t.Fatalf("cycle %d: RetryCount = %d", cycle, a.RetryCount)
		}
	}

	q.Process(context.Background(), alwaysFails)

	a, _ := q.Get(id)
	if a.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", a.Status, StatusFailed)
	}
	if a.RetryCount != 3 {
		t.Errorf("RetryCount = %d, want 3", a.RetryCount)
	}
	if a.Error != errOffline.Error() {
		t.Errorf("Error = %q, want %q", a.Error, errOffline.Error())
	}

	// Further cycles must not touch it.
	q.Process(context.Background(), alwaysFails)
	a, _ = q.Get(id)
	if a.RetryCount != 3 {
		t.Errorf("RetryCount grew past budget: %d", a.RetryCount)
	}
}

func TestProcess_SingleRetry(t *testing.T) {
	t.Parallel()

	q := New(Config{MaxRetries: 1})
	q.Add(TypeApprove, Data{Owner: "o", Repo: "r", PRNumber: 3})

	q.Process(context.Background(), alwaysFails)

	a := q.Actions()[0]
	if a.Status != StatusFailed || a.RetryCount != 1 {
		t.Errorf("action = %+v, want failed with RetryCount 1", a)
	}
	if got := q.FailedCount(); got != 1 {
		t.Errorf("FailedCount() = %d, want 1", got)
	}
}

func TestProcess_TransientFailureNotRetriedSameCall(t *testing.T) {
	t.Parallel()

	q := New(Config{MaxRetries: 3})
	q.Add(TypeComment, Data{})

	calls := 0
	q.Process(context.Background(), func(context.Context, Action) error {
		calls++
		return errOffline
	})

	if calls != 1 {
		t.Errorf("executor called %d times in one cycle, want 1", calls)
	}
}

func TestProcess_SkipsSettledActions(t *testing.T) {
	t.Parallel()

	q := New(Config{MaxRetries: 1})
	q.Add(TypeApprove, Data{})
	q.Add(TypeClose, Data{})

	q.Process(context.Background(), alwaysSucceeds) // both completed
	q.Add(TypeReopen, Data{})
	q.Process(context.Background(), alwaysFails) // third failed

	calls := 0
	q.Process(context.Background(), func(context.Context, Action) error {
		calls++
		return nil
	})

	if calls != 0 {
		t.Errorf("executor called %d times on a settled queue, want 0", calls)
	}
}

func TestProcess_QueueOrder(t *testing.T) {
	t.Parallel()

	q := New(Config{})
	first := q.Add(TypeComment, Data{})
	second := q.Add(TypeMerge, Data{})

	var seen []string
	q.Process(context.Background(), func(_ context.Context, a Action) error {
		seen = append(seen, a.ID)
		return nil
	})

	if len(seen) != 2 || seen[0] != first || seen[1] != second {
		t.Errorf("processed order %v, want [%s %s]", seen, first, second)
	}
}

func TestProcess_CancelledContextStopsEarly(t *testing.T) {
	t.Parallel()

	q := New(Config{})
	q.Add(TypeComment, Data{})
	q.Add(TypeMerge, Data{})

	ctx, cancel := context.WithCancel(context.Background())

	attempted := q.Process(ctx, func(context.Context, Action) error {
		cancel()
		return nil
	})

	if attempted != 1 {
		t.Errorf("Process() = %d after cancel, want 1", attempted)
	}
	if got := q.PendingCount(); got != 1 {
		t.Errorf("PendingCount() = %d, want 1 left pending", got)
	}
}

func TestRetry(t *testing.T) {
	t.Parallel()

	q := New(Config{MaxRetries: 1})
	id := q.Add(TypeApprove, Data{})
	q.Process(context.Background(), alwaysFails)

	if !q.Retry(id) {
		t.Fatal("Retry() = false for a failed action")
	}

	a, _ := q.Get(id)
	if a.Status != StatusPending {
		t.Errorf("Status = %q after Retry, want %q", a.Status, StatusPending)
	}
	if a.RetryCount != 1 {
		t.Errorf("RetryCount = %d after Retry, want unchanged 1", a.RetryCount)
	}

	// Retry only applies to failed actions.
	if q.Retry(id) {
		t.Error("Retry() = true for a pending action")
	}
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	q := New(Config{MaxRetries: 1})
	id1 := q.Add(TypeApprove, Data{})
	q.Add(TypeClose, Data{})

	if !q.Remove(id1) {
		t.Error("Remove() = false for existing action")
	}
	if q.Remove(id1) {
		t.Error("Remove() = true for removed action")
	}

	q.Process(context.Background(), alwaysFails)
	if got := q.ClearFailed(); got != 1 {
		t.Errorf("ClearFailed() = %d, want 1", got)
	}

	q.Add(TypeMerge, Data{})
	q.Process(context.Background(), alwaysSucceeds)
	if got := q.ClearCompleted(); got != 1 {
		t.Errorf("ClearCompleted() = %d, want 1", got)
	}

	q.Add(TypeLabel, Data{})
	q.Clear()
	if got := len(q.Actions()); got != 0 {
		t.Errorf("Actions() has %d entries after Clear, want 0", got)
	}
}

func TestCounts(t *testing.T) {
	t.Parallel()

	q := New(Config{MaxRetries: 1})
	q.Add(TypeApprove, Data{})
	q.Add(TypeMerge, Data{})

	if !q.HasPending() {
		t.Error("HasPending() = false with pending actions")
	}
	if got := q.PendingCount(); got != 2 {
		t.Errorf("PendingCount() = %d, want 2", got)
	}

	q.Process(context.Background(), alwaysFails)

	if q.HasPending() {
		t.Error("HasPending() = true after all actions failed")
	}
	if got := q.FailedCount(); got != 2 {
		t.Errorf("FailedCount() = %d, want 2", got)
	}
}

func TestSortedByPriority(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	actions := []Action{
		{ID: "a1", Status: StatusCompleted, CreatedAt: base},
		{ID: "a2", Status: StatusPending, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "a3", Status: StatusFailed, CreatedAt: base.Add(time.Minute)},
		{ID: "a4", Status: StatusPending, CreatedAt: base.Add(time.Minute)},
	}

	got := SortedByPriority(actions)

	wantOrder := []string{"a4", "a2", "a3", "a1"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d = %s, want %s (full order %v)", i, got[i].ID, want, ids(got))
		}
	}

	// Input order untouched.
	if actions[0].ID != "a1" || actions[3].ID != "a4" {
		t.Error("SortedByPriority mutated its input")
	}
}

func ids(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.ID
	}
	return out
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "queue.json")

	q := New(Config{MaxRetries: 2})
	id := q.Add(TypeComment, Data{Owner: "o", Repo: "r", PRNumber: 4, Body: "ship it"})
	q.Process(context.Background(), alwaysFails)

	if err := q.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path, Config{MaxRetries: 2})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	a, ok := loaded.Get(id)
	if !ok {
		t.Fatalf("action %q missing after reload", id)
	}
	if a.Status != StatusPending || a.RetryCount != 1 {
		t.Errorf("reloaded action = %+v, want pending with RetryCount 1", a)
	}
	if a.Data.Body != "ship it" {
		t.Errorf("Data.Body = %q, want %q", a.Data.Body, "ship it")
	}

	// New ids must not collide with persisted ones.
	newID := loaded.Add(TypeMerge, Data{})
	if newID == id {
		t.Errorf("reloaded queue reissued id %q", id)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	q, err := Load(filepath.Join(t.TempDir(), "nope.json"), Config{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(q.Actions()) != 0 {
		t.Error("missing file did not yield an empty queue")
	}
}

func TestLoad_ResetsInterruptedActions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "queue.json")

	q := New(Config{})
	id := q.Add(TypeApprove, Data{})
	// Simulate a crash mid-attempt.
	q.mu.Lock()
	q.findLocked(id).Status = StatusProcessing
	q.mu.Unlock()

	if err := q.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path, Config{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	a, _ := loaded.Get(id)
	if a.Status != StatusPending {
		t.Errorf("interrupted action Status = %q, want %q", a.Status, StatusPending)
	}
}
