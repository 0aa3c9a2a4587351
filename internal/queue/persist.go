package queue

import (
	"os"
	"path/filepath"

	"github.com/raphi011/prq/internal/storage"
)

// queueFile is the durable representation written to ~/.prq/queue.json.
type queueFile struct {
	Actions []*Action `json:"actions"`
	NextID  int       `json:"next_id"`
}

// Path returns the path to the queue file.
func Path() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".prq", "queue.json")
}

// Load reads a queue from disk. A missing or corrupted file yields an
// empty queue. Actions found in processing were interrupted mid-attempt by
// a crash or kill; they are reset to pending so the next Process retries
// them.
func Load(path string, cfg Config) (*Queue, error) {
	q := New(cfg)

	var file queueFile
	if err := storage.LoadJSON(path, &file); err != nil {
		if os.IsNotExist(err) {
			return q, nil
		}
		// Corrupted - start fresh
		return q, nil
	}

	for _, a := range file.Actions {
		if a == nil {
			continue
		}
		if a.Status == StatusProcessing {
			a.Status = StatusPending
		}
		if a.MaxRetries < 1 {
			a.MaxRetries = q.cfg.MaxRetries
		}
		q.actions = append(q.actions, a)
	}
	if file.NextID > q.nextID {
		q.nextID = file.NextID
	}

	return q, nil
}

// Save writes the queue to disk atomically.
func (q *Queue) Save(path string) error {
	q.mu.Lock()
	file := queueFile{Actions: make([]*Action, len(q.actions)), NextID: q.nextID}
	for i, a := range q.actions {
		copied := *a
		file.Actions[i] = &copied
	}
	q.mu.Unlock()

	return storage.SaveJSON(path, file)
}
