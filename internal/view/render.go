package view

import (
	"github.com/tazhibayda/townboat/internal/domain"
)

const (
	StateLoading = "loading"
	StateReady   = "ready"
	StateFailed  = "failed"
)

// Viewer is who the view is rendered for; ID is empty when signed out.
type Viewer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

// Item is one rendered record with the actions the viewer may dispatch on it.
type Item struct {
	ID      string         `json:"id"`
	Fields  map[string]any `json:"fields"`
	Actions []string       `json:"actions,omitempty"`
	// Active is true when the viewer is in the record's actor set.
	Active bool `json:"active,omitempty"`
	Mine   bool `json:"mine,omitempty"`
}

// View is the declarative description of one list.
type View struct {
	Target     string              `json:"target"`
	Collection string              `json:"collection"`
	State      string              `json:"state"`
	Error      string              `json:"error,omitempty"`
	Filters    Filters             `json:"filters"`
	Items      []Item              `json:"items"`
	Groups     map[string][]string `json:"groups,omitempty"`
	Total      int                 `json:"total"`
}

// Input is everything Render needs; it carries no hidden state.
type Input struct {
	Target     string
	Collection string
	State      string
	Error      string
	Records    []domain.Record
	Filters    Filters
	Viewer     Viewer
	// GroupField, when set, adds grouped-by-status id lists.
	GroupField string
}

// Render maps the snapshot and page state to a view description.
func Render(in Input) View {
	v := View{
		Target:     in.Target,
		Collection: in.Collection,
		State:      in.State,
		Error:      in.Error,
		Filters:    in.Filters,
		Items:      []Item{},
		Total:      len(in.Records),
	}
	if in.State == StateFailed {
		return v
	}
	shown := Apply(in.Records, in.Filters)
	for _, r := range shown {
		v.Items = append(v.Items, renderItem(r, in.Viewer))
	}
	if in.GroupField != "" {
		v.Groups = map[string][]string{}
		for k, rs := range GroupBy(shown, in.GroupField) {
			for _, r := range rs {
				v.Groups[k] = append(v.Groups[k], r.ID)
			}
		}
	}
	return v
}

func renderItem(r domain.Record, who Viewer) Item {
	it := Item{ID: r.ID, Fields: r.Fields}
	for _, owner := range []string{"ownerId", "authorId", "from"} {
		if who.ID != "" && r.String(owner) == who.ID {
			it.Mine = true
		}
	}
	it.Actions, it.Active = actionsFor(r, who)
	return it
}

func actionsFor(r domain.Record, who Viewer) ([]string, bool) {
	switch r.Collection {
	case domain.ColPolls:
		if who.ID != "" && votedOnPoll(r, who.ID) {
			return nil, true
		}
		return []string{ActionVote}, false
	case domain.ColConnections:
		if r.String("status") == domain.ConnPending && who.ID != "" && r.String("to") == who.ID {
			return []string{ActionAccept, ActionDecline}, false
		}
		return nil, false
	case domain.ColChatMessages:
		return nil, false
	}

	spec, ok := domain.ActorSetFor(r.Collection)
	if !ok {
		return nil, false
	}
	member := who.ID != "" && domain.ActorSet(r.Strings(spec.SetField)).Contains(who.ID)
	if r.Collection == domain.ColClubs {
		switch {
		case member:
			return []string{ActionLeave}, true
		case spec.Limit > 0 && len(r.Strings(spec.SetField)) >= spec.Limit:
			return nil, false
		default:
			return []string{ActionJoin}, false
		}
	}
	actions := []string{spec.Action}
	if who.Admin || (who.ID != "" && r.String("ownerId") == who.ID) {
		actions = append(actions, ActionDelete)
	}
	return actions, member
}

func votedOnPoll(r domain.Record, actor string) bool {
	opts, _ := r.Fields["options"].([]any)
	for _, o := range opts {
		m, _ := o.(map[string]any)
		if domain.ActorSet(domain.AsStrings(m["votedBy"])).Contains(actor) {
			return true
		}
	}
	return false
}
