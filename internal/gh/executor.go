// Package gh executes queued pull request actions through the GitHub CLI.
// Shelling out to gh keeps authentication and rate limiting out of this
// binary; gh already handles both.
package gh

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/raphi011/prq/internal/log"
	"github.com/raphi011/prq/internal/queue"
)

// ErrGHNotFound indicates gh CLI is not installed or not in PATH.
var ErrGHNotFound = fmt.Errorf("gh not found: please install GitHub CLI (https://cli.github.com)")

// ErrGHNotAuthenticated indicates gh CLI is installed but not authenticated.
var ErrGHNotAuthenticated = fmt.Errorf("gh not authenticated: please run 'gh auth login'")

// CheckGH verifies that gh CLI is available and authenticated.
func CheckGH() error {
	if _, err := exec.LookPath("gh"); err != nil {
		return ErrGHNotFound
	}

	cmd := exec.Command("gh", "auth", "status")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// gh auth status exits non-zero when not authenticated
		errMsg := strings.TrimSpace(stderr.String())
		if strings.Contains(errMsg, "not logged") || strings.Contains(errMsg, "no accounts") {
			return ErrGHNotAuthenticated
		}
		if errMsg != "" {
			return fmt.Errorf("gh auth check failed: %s", errMsg)
		}
		return ErrGHNotAuthenticated
	}

	return nil
}

// BuildArgs translates one queued action into a gh invocation.
func BuildArgs(a queue.Action) ([]string, error) {
	d := a.Data
	if d.Owner == "" || d.Repo == "" {
		return nil, fmt.Errorf("action %s: owner and repo are required", a.ID)
	}
	if d.PRNumber < 1 {
		return nil, fmt.Errorf("action %s: invalid PR number %d", a.ID, d.PRNumber)
	}

	slug := d.Owner + "/" + d.Repo
	num := strconv.Itoa(d.PRNumber)

	switch a.Type {
	case queue.TypeApprove:
		args := []string{"pr", "review", num, "-R", slug, "--approve"}
		if d.Body != "" {
			args = append(args, "--body", d.Body)
		}
		return args, nil

	case queue.TypeRequestChanges:
		if d.Body == "" {
			return nil, fmt.Errorf("action %s: request-changes requires a body", a.ID)
		}
		return []string{"pr", "review", num, "-R", slug, "--request-changes", "--body", d.Body}, nil

	case queue.TypeComment:
		if d.Body == "" {
			return nil, fmt.Errorf("action %s: comment requires a body", a.ID)
		}
		return []string{"pr", "comment", num, "-R", slug, "--body", d.Body}, nil

	case queue.TypeMerge:
		return []string{"pr", "merge", num, "-R", slug, "--merge"}, nil

	case queue.TypeClose:
		return []string{"pr", "close", num, "-R", slug}, nil

	case queue.TypeReopen:
		return []string{"pr", "reopen", num, "-R", slug}, nil

	case queue.TypeLabel:
		if len(d.Labels) == 0 {
			return nil, fmt.Errorf("action %s: label requires at least one label", a.ID)
		}
		return []string{"pr", "edit", num, "-R", slug, "--add-label", strings.Join(d.Labels, ",")}, nil

	case queue.TypeAssign:
		if len(d.Assignees) == 0 {
			return nil, fmt.Errorf("action %s: assign requires at least one assignee", a.ID)
		}
		return []string{"pr", "edit", num, "-R", slug, "--add-assignee", strings.Join(d.Assignees, ",")}, nil
	}

	return nil, fmt.Errorf("action %s: unsupported type %q", a.ID, a.Type)
}

// Executor returns a queue executor that runs each action with gh.
func Executor() queue.Executor {
	return func(ctx context.Context, a queue.Action) error {
		args, err := BuildArgs(a)
		if err != nil {
			return err
		}

		log.FromContext(ctx).Command("gh", args...)

		cmd := exec.CommandContext(ctx, "gh", args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("gh %s %s: %s", args[0], args[1], msg)
			}
			return fmt.Errorf("gh %s %s: %w", args[0], args[1], err)
		}
		return nil
	}
}
