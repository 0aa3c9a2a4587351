// Package optimistic synthesizes placeholder comments and reviews so the UI
// can reflect a user action before the provider confirms it.
//
// Placeholders carry a negative, process-unique id (real provider ids are
// always positive), a sentinel "pending" author and an empty canonical URL.
// The mutation flow that triggered the action is responsible for swapping
// the placeholder for the confirmed entity once the request settles, via
// the Replace helpers, or dropping it on permanent failure.
//
// Every function here is pure: input slices are never mutated, results are
// always fresh slices.
package optimistic

import (
	"sync/atomic"
	"time"

	"github.com/raphi011/prq/internal/pr"
)

// PendingLogin is the sentinel author login on unconfirmed placeholders.
const PendingLogin = "pending"

var pendingAuthor = pr.Author{Login: PendingLogin}

// localID is the source of placeholder ids. Negated on allocation so ids
// are strictly negative and never collide within a process.
var localID atomic.Int64

func nextID() int64 {
	return -localID.Add(1)
}

// CommentInput carries the user-provided fields of a new review comment.
type CommentInput struct {
	Body      string
	Path      string
	Line      int
	Side      string
	InReplyTo int64
}

// NewComment synthesizes a placeholder review comment.
func NewComment(in CommentInput) pr.Comment {
	now := time.Now()
	return pr.Comment{
		ID:        nextID(),
		Body:      in.Body,
		Path:      in.Path,
		Line:      in.Line,
		Side:      in.Side,
		InReplyTo: in.InReplyTo,
		Author:    pendingAuthor,
		CreatedAt: now,
		UpdatedAt: now,
		URL:       "",
	}
}

// NewIssueComment synthesizes a placeholder conversation comment.
func NewIssueComment(body string) pr.IssueComment {
	now := time.Now()
	return pr.IssueComment{
		ID:        nextID(),
		Body:      body,
		Author:    pendingAuthor,
		CreatedAt: now,
		UpdatedAt: now,
		URL:       "",
	}
}

// ReviewInput carries the user-provided fields of a new review.
type ReviewInput struct {
	Body  string
	Event string // pr.EventApprove, pr.EventRequestChanges or pr.EventComment
}

// NewReview synthesizes a placeholder review. The review state is derived
// from the submitted event.
func NewReview(in ReviewInput) pr.Review {
	return pr.Review{
		ID:          nextID(),
		Body:        in.Body,
		State:       stateForEvent(in.Event),
		Author:      pendingAuthor,
		SubmittedAt: time.Now(),
		URL:         "",
	}
}

func stateForEvent(event string) string {
	switch event {
	case pr.EventApprove:
		return pr.StateApproved
	case pr.EventRequestChanges:
		return pr.StateChangesRequested
	default:
		return pr.StateCommented
	}
}

// appendCopy returns a fresh slice of list with item appended. A nil list
// yields a singleton.
func appendCopy[T any](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, item)
}

// ApplyComment appends a placeholder to a cached comment list.
func ApplyComment(list []pr.Comment, c pr.Comment) []pr.Comment {
	return appendCopy(list, c)
}

// ApplyIssueComment appends a placeholder to a cached conversation list.
func ApplyIssueComment(list []pr.IssueComment, c pr.IssueComment) []pr.IssueComment {
	return appendCopy(list, c)
}

// ApplyReview appends a placeholder to a cached review list.
func ApplyReview(list []pr.Review, r pr.Review) []pr.Review {
	return appendCopy(list, r)
}

// replaceWhere returns a copy of list with the first element matching ok
// replaced by repl. An unmatched list comes back copied but unchanged.
func replaceWhere[T any](list []T, ok func(T) bool, repl T) []T {
	out := make([]T, len(list))
	copy(out, list)
	for i, item := range out {
		if ok(item) {
			out[i] = repl
			break
		}
	}
	return out
}

// dropWhere returns a copy of list without the elements matching ok.
func dropWhere[T any](list []T, ok func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, item := range list {
		if !ok(item) {
			out = append(out, item)
		}
	}
	return out
}

// ReplaceComment swaps the placeholder with the given local id for the
// server-confirmed comment. Unknown ids leave the list unchanged.
func ReplaceComment(list []pr.Comment, localID int64, confirmed pr.Comment) []pr.Comment {
	return replaceWhere(list, func(c pr.Comment) bool { return c.ID == localID }, confirmed)
}

// ReplaceIssueComment swaps a placeholder conversation comment for the
// confirmed one.
func ReplaceIssueComment(list []pr.IssueComment, localID int64, confirmed pr.IssueComment) []pr.IssueComment {
	return replaceWhere(list, func(c pr.IssueComment) bool { return c.ID == localID }, confirmed)
}

// ReplaceReview swaps a placeholder review for the confirmed one.
func ReplaceReview(list []pr.Review, localID int64, confirmed pr.Review) []pr.Review {
	return replaceWhere(list, func(r pr.Review) bool { return r.ID == localID }, confirmed)
}

// DropComment removes a placeholder whose request permanently failed.
func DropComment(list []pr.Comment, localID int64) []pr.Comment {
	return dropWhere(list, func(c pr.Comment) bool { return c.ID == localID })
}

// DropIssueComment removes a failed placeholder conversation comment.
func DropIssueComment(list []pr.IssueComment, localID int64) []pr.IssueComment {
	return dropWhere(list, func(c pr.IssueComment) bool { return c.ID == localID })
}

// DropReview removes a failed placeholder review.
func DropReview(list []pr.Review, localID int64) []pr.Review {
	return dropWhere(list, func(r pr.Review) bool { return r.ID == localID })
}

// ResolveThread returns a copy of threads with the matching thread's
// IsResolved flag set. Unknown thread ids are a no-op; the result is still
// a fresh slice.
func ResolveThread(threads []pr.ReviewThread, threadID string, resolved bool) []pr.ReviewThread {
	out := make([]pr.ReviewThread, len(threads))
	copy(out, threads)
	for i := range out {
		if out[i].ID == threadID {
			out[i].IsResolved = resolved
		}
	}
	return out
}
