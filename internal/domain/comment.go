package domain

import "time"

// Comment is an append-only note on a ticket. CommentedBy is a display
// name rather than a user reference; entries are never edited or removed.
type Comment struct {
	ID          string
	TicketID    string
	Text        string
	CommentedBy string
	CommentedAt time.Time
}
