package domain

import (
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PollOption struct {
	Text    string   `bson:"text"    json:"text" validate:"required,max=200"`
	Votes   int      `bson:"votes"   json:"votes"`
	VotedBy []string `bson:"votedBy" json:"votedBy"`
}

type Poll struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID  string             `bson:"authorId"      json:"authorId"`
	Town      string             `bson:"town"          json:"town"     validate:"required"`
	Question  string             `bson:"question"      json:"question" validate:"required,max=300"`
	Options   []PollOption       `bson:"options"       json:"options"  validate:"min=2,max=10,dive"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
}

// HasVoted reports whether actor appears in any option's votedBy.
func (p *Poll) HasVoted(actor string) bool {
	for _, o := range p.Options {
		if slices.Contains(o.VotedBy, actor) {
			return true
		}
	}
	return false
}

// Vote records actor on option i. Voting is terminal: a second vote on any
// option fails with ErrAlreadyVoted and leaves every count unchanged.
func (p *Poll) Vote(i int, actor string) error {
	if actor == "" {
		return ErrUnauthenticated
	}
	if i < 0 || i >= len(p.Options) {
		return fmt.Errorf("%w: option %d out of range", ErrValidation, i)
	}
	if p.HasVoted(actor) {
		return ErrAlreadyVoted
	}
	opts := slices.Clone(p.Options)
	o := opts[i]
	o.VotedBy = append(slices.Clone(o.VotedBy), actor)
	o.Votes = len(o.VotedBy)
	opts[i] = o
	p.Options = opts
	return nil
}

func (p *Poll) TotalVotes() int {
	n := 0
	for _, o := range p.Options {
		n += o.Votes
	}
	return n
}
