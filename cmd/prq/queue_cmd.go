package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/prq/internal/gh"
	"github.com/raphi011/prq/internal/log"
	"github.com/raphi011/prq/internal/output"
	"github.com/raphi011/prq/internal/queue"
	"github.com/raphi011/prq/internal/table"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "queue",
		Short:   "Inspect and drain the offline action queue",
		Aliases: []string{"q"},
		GroupID: GroupQueue,
		Long: `Inspect and drain the offline action queue.

Actions that could not reach the provider (offline, rate limited) are kept
in ~/.prq/queue.json and retried with a bounded retry budget. Failed
actions stay visible until retried or cleared.`,
	}

	cmd.AddCommand(newQueueListCmd())
	cmd.AddCommand(newQueueAddCmd())
	cmd.AddCommand(newQueueFlushCmd())
	cmd.AddCommand(newQueueRetryCmd())
	cmd.AddCommand(newQueueRemoveCmd())
	cmd.AddCommand(newQueueClearCmd())

	return cmd
}

func newQueueListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List queued actions",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			q, err := loadQueue()
			if err != nil {
				return err
			}
			actions := q.Actions()

			if jsonOutput {
				enc := json.NewEncoder(out.Writer())
				enc.SetIndent("", "  ")
				return enc.Encode(queue.SortedByPriority(actions))
			}

			if len(actions) == 0 {
				log.FromContext(ctx).Printf("Queue is empty\n")
				return nil
			}

			rows := actionRows(actions)
			if stdoutIsTerminal() {
				headers := []string{"ID", "TYPE", "PR", "STATUS", "RETRIES", "AGE", "ERROR"}
				out.Printf("%s", table.Render(headers, rows))
			} else {
				out.Printf("%s", table.RenderPlain(rows))
			}

			log.FromContext(ctx).Printf("%d pending, %d failed\n", q.PendingCount(), q.FailedCount())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newQueueAddCmd() *cobra.Command {
	var (
		repoSlug  string
		prNumber  int
		body      string
		labels    []string
		assignees []string
	)

	cmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Queue an action for later execution",
		Long: `Queue an action for later execution.

Types: approve, request-changes, comment, merge, close, reopen, label, assign.
The action runs on the next 'prq queue flush'.`,
		Example: `  prq queue add approve -R raphi011/prq --pr 7
  prq queue add comment -R raphi011/prq --pr 7 --body "ship it"
  prq queue add label -R raphi011/prq --pr 7 --label bug --label p1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitSlug(repoSlug)
			if err != nil {
				return err
			}

			q, err := loadQueue()
			if err != nil {
				return err
			}

			id := q.Add(queue.Type(args[0]), queue.Data{
				Owner:     owner,
				Repo:      repo,
				PRNumber:  prNumber,
				Body:      body,
				Labels:    labels,
				Assignees: assignees,
			})

			// Reject unsupported types before they sit in the queue forever.
			if _, err := gh.BuildArgs(mustGet(q, id)); err != nil {
				q.Remove(id)
				return err
			}

			if err := saveQueue(q); err != nil {
				return err
			}

			output.FromContext(cmd.Context()).Println(id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoSlug, "repo", "R", "", "Repository in owner/repo form (required)")
	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number (required)")
	cmd.Flags().StringVar(&body, "body", "", "Comment or review body")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "Label to add (repeatable)")
	cmd.Flags().StringArrayVar(&assignees, "assignee", nil, "Assignee to add (repeatable)")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("pr")

	return cmd
}

func mustGet(q *queue.Queue, id string) queue.Action {
	a, _ := q.Get(id)
	return a
}

func newQueueFlushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Attempt all pending actions now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			if err := gh.CheckGH(); err != nil {
				return err
			}

			q, err := loadQueue()
			if err != nil {
				return err
			}

			if !q.HasPending() {
				logger.Printf("Nothing to flush\n")
				return nil
			}

			attempted := q.Process(ctx, gh.Executor())
			if err := saveQueue(q); err != nil {
				return err
			}

			logger.Printf("Attempted %d actions: %d still pending, %d failed\n",
				attempted, q.PendingCount(), q.FailedCount())
			return nil
		},
	}

	return cmd
}

func newQueueRetryCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "retry [id]",
		Short: "Requeue failed actions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("specify either an action id or --all")
			}

			q, err := loadQueue()
			if err != nil {
				return err
			}

			requeued := 0
			if all {
				for _, a := range q.Actions() {
					if q.Retry(a.ID) {
						requeued++
					}
				}
			} else {
				if !q.Retry(args[0]) {
					return fmt.Errorf("action %q not found or not failed", args[0])
				}
				requeued = 1
			}

			if err := saveQueue(q); err != nil {
				return err
			}

			log.FromContext(cmd.Context()).Printf("Requeued %d actions\n", requeued)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Retry every failed action")

	return cmd
}

func newQueueRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <id>",
		Short:   "Remove an action from the queue",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := loadQueue()
			if err != nil {
				return err
			}

			if !q.Remove(args[0]) {
				return fmt.Errorf("action %q not found", args[0])
			}

			return saveQueue(q)
		},
	}

	return cmd
}

func newQueueClearCmd() *cobra.Command {
	var (
		completed bool
		failed    bool
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop settled or all actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !completed && !failed && !all {
				completed = true // default: clean up finished work only
			}

			q, err := loadQueue()
			if err != nil {
				return err
			}

			removed := 0
			switch {
			case all:
				removed = len(q.Actions())
				q.Clear()
			default:
				if completed {
					removed += q.ClearCompleted()
				}
				if failed {
					removed += q.ClearFailed()
				}
			}

			if err := saveQueue(q); err != nil {
				return err
			}

			log.FromContext(cmd.Context()).Printf("Removed %d actions\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Clear completed actions (default)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Clear failed actions")
	cmd.Flags().BoolVar(&all, "all", false, "Clear everything, including pending actions")

	return cmd
}
