package actorset

import (
	"errors"

	"github.com/tazhibayda/townboat/internal/domain"
)

type Outcome int

const (
	Success Outcome = iota + 1
	Reverted
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "reverted"
}

// Result is the settled state of one optimistic mutation.
type Result struct {
	Outcome Outcome
	Change  Change
	// Reason is set when Outcome is Reverted.
	Reason error
	// Fields holds what was written on success.
	Fields map[string]any
}

func ok(ch Change, fields map[string]any) Result {
	return Result{Outcome: Success, Change: ch, Fields: fields}
}

func reverted(err error) Result { return Result{Outcome: Reverted, Reason: err} }

func (r Result) OK() bool { return r.Outcome == Success }

// NeedsSignIn tells the caller to prompt for authentication.
func (r Result) NeedsSignIn() bool { return errors.Is(r.Reason, domain.ErrUnauthenticated) }
