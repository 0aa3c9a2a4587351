package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/raphi011/prq/internal/queue"
)

// loadQueue reads the durable queue from ~/.prq/queue.json.
func loadQueue() (*queue.Queue, error) {
	q, err := queue.Load(queue.Path(), cfg.QueueSettings())
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	return q, nil
}

// saveQueue writes the queue back to disk.
func saveQueue(q *queue.Queue) error {
	if err := q.Save(queue.Path()); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}

// splitSlug parses an "owner/repo" argument.
func splitSlug(slug string) (owner, repo string, err error) {
	parts := strings.SplitN(slug, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/repo", slug)
	}
	return parts[0], parts[1], nil
}

// formatAge renders how long ago t was, coarsely.
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// actionRows builds display rows in priority order.
func actionRows(actions []queue.Action) [][]string {
	rows := make([][]string, 0, len(actions))
	for _, a := range queue.SortedByPriority(actions) {
		target := fmt.Sprintf("%s/%s#%d", a.Data.Owner, a.Data.Repo, a.Data.PRNumber)
		retries := fmt.Sprintf("%d/%d", a.RetryCount, a.MaxRetries)
		rows = append(rows, []string{
			a.ID,
			string(a.Type),
			target,
			string(a.Status),
			retries,
			formatAge(a.CreatedAt),
			a.Error,
		})
	}
	return rows
}

// stdoutIsTerminal reports whether stdout is an interactive terminal.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
