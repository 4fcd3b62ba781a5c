// Package view derives what a list shows from the current snapshot and the
// page state. Every function here is pure.
package view

import (
	"sort"
	"strings"

	"github.com/tazhibayda/townboat/internal/domain"
)

// Filters is the transient filter state of one list. Town, Category and
// Status are also sent to the store query; Search never is.
type Filters struct {
	Town     string `json:"town,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
	Search   string `json:"search,omitempty"`
}

// Remote returns the equality predicates the store query should carry.
func (f Filters) Remote() map[string]any {
	eq := map[string]any{}
	if f.Town != "" {
		eq["town"] = f.Town
	}
	if f.Category != "" {
		eq["category"] = f.Category
	}
	if f.Status != "" {
		eq["status"] = f.Status
	}
	return eq
}

// Apply returns the records matching filters, in snapshot order. It runs in
// one pass over records and never touches the store.
func Apply(records []domain.Record, f Filters) []domain.Record {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if !eqField(r, "town", f.Town) || !eqField(r, "category", f.Category) || !eqField(r, "status", f.Status) {
			continue
		}
		if needle != "" && !Matches(r, needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func eqField(r domain.Record, field, want string) bool {
	if want == "" {
		return true
	}
	return r.String(field) == want
}

// Matches reports whether any searchable field of r contains the lowercase needle.
func Matches(r domain.Record, needle string) bool {
	fields, ok := domain.SearchFields[r.Collection]
	if !ok {
		fields = stringKeys(r.Fields)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(r.String(f)), needle) {
			return true
		}
	}
	return false
}

func stringKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if _, ok := v.(string); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// GroupBy splits records by the string value of field, keeping order in each group.
func GroupBy(records []domain.Record, field string) map[string][]domain.Record {
	out := map[string][]domain.Record{}
	for _, r := range records {
		k := r.String(field)
		out[k] = append(out[k], r)
	}
	return out
}

// Rank orders records by a numeric field, highest first, ties by name, and
// keeps the first n (all when n <= 0).
func Rank(records []domain.Record, field string, n int) []domain.Record {
	out := make([]domain.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Int(field), out[j].Int(field)
		if a != b {
			return a > b
		}
		return out[i].String("name") < out[j].String("name")
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
