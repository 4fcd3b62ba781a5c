package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Record is a document from any collection with BSON values normalized to
// plain Go values: strings, numbers, bool, time.Time, []any and map[string]any.
type Record struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Fields     map[string]any `json:"fields"`
}

func (r Record) String(field string) string {
	switch v := r.Fields[field].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int reads a numeric field; any integer or float width is accepted.
func (r Record) Int(field string) int {
	return AsInt(r.Fields[field])
}

func (r Record) Strings(field string) []string {
	return AsStrings(r.Fields[field])
}

// Clone copies the field map one level deep so patches never alias a snapshot.
func (r Record) Clone() Record {
	out := Record{ID: r.ID, Collection: r.Collection, Fields: make(map[string]any, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

func AsInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}

func AsStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return slices.Clone(s)
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// ActorSet is the list of user ids that performed an action on a record.
type ActorSet []string

func (s ActorSet) Contains(actor string) bool { return slices.Contains(s, actor) }

// Add appends actor unless already present.
func (s ActorSet) Add(actor string) ActorSet {
	if s.Contains(actor) {
		return s
	}
	return append(slices.Clone(s), actor)
}

// Remove drops every occurrence of actor.
func (s ActorSet) Remove(actor string) ActorSet {
	out := make(ActorSet, 0, len(s))
	for _, a := range s {
		if a != actor {
			out = append(out, a)
		}
	}
	return out
}

// Dedup keeps the first occurrence of each actor and drops blanks.
func (s ActorSet) Dedup() ActorSet {
	seen := make(map[string]struct{}, len(s))
	out := make(ActorSet, 0, len(s))
	for _, a := range s {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ChatID builds the direct thread id for two participants.
func ChatID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return strings.Join([]string{a, b}, "_")
}
