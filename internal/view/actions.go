package view

// Action types understood by the session dispatcher.
const (
	ActionUpvote     = "upvote"
	ActionLike       = "like"
	ActionJoin       = "join"
	ActionLeave      = "leave"
	ActionVote       = "vote"
	ActionAccept     = "accept"
	ActionDecline    = "decline"
	ActionBookmark   = "bookmark"
	ActionUnbookmark = "unbookmark"
	ActionDelete     = "delete"
)

// Action is one user intent addressed at a record.
type Action struct {
	Type       string `json:"action"`
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Option     int    `json:"option,omitempty"`
}
