// Package pr defines the provider-neutral pull request shapes the client
// caches and renders. Fields mirror what the GitHub-style APIs return but
// carry no provider-specific wire format.
package pr

import "time"

// Author identifies the user attached to a comment or review.
type Author struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Comment is a review comment anchored to a file position in the diff.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Path      string    `json:"path,omitempty"`
	Line      int       `json:"line,omitempty"`
	Side      string    `json:"side,omitempty"` // LEFT or RIGHT
	InReplyTo int64     `json:"in_reply_to_id,omitempty"`
	Author    Author    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"html_url"`
}

// Pending reports whether this comment is a local placeholder that has not
// been confirmed by the server yet. Server ids are always positive.
func (c Comment) Pending() bool {
	return c.ID < 0
}

// IssueComment is a top-level conversation comment, not tied to the diff.
type IssueComment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Author    Author    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"html_url"`
}

// Pending reports whether this comment is an unconfirmed local placeholder.
func (c IssueComment) Pending() bool {
	return c.ID < 0
}

// Review event values as submitted.
const (
	EventApprove        = "APPROVE"
	EventRequestChanges = "REQUEST_CHANGES"
	EventComment        = "COMMENT"
)

// Review state values as reported back by the server.
const (
	StateApproved         = "APPROVED"
	StateChangesRequested = "CHANGES_REQUESTED"
	StateCommented        = "COMMENTED"
)

// Review is a submitted pull request review.
type Review struct {
	ID          int64     `json:"id"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	Author      Author    `json:"user"`
	SubmittedAt time.Time `json:"submitted_at"`
	URL         string    `json:"html_url"`
}

// Pending reports whether this review is an unconfirmed local placeholder.
func (r Review) Pending() bool {
	return r.ID < 0
}

// ThreadComment is the minimal comment shape carried inside a review thread.
type ThreadComment struct {
	DatabaseID int64 `json:"databaseId"`
}

// ReviewThread is a resolvable discussion thread on a review.
type ReviewThread struct {
	ID         string          `json:"id"`
	IsResolved bool            `json:"isResolved"`
	Comments   []ThreadComment `json:"comments"`
}
