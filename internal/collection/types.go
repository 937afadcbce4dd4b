package collection

import (
	"context"
	"errors"

	"github.com/ent0n29/coincollector/internal/slots"
)

// ErrNotFound is returned by a Store when the user has no stored collection.
var ErrNotFound = errors.New("collection not found")

// Record is one collected coin. Identity is structural; Condition is empty
// when the coin was recorded without the premium feature.
type Record struct {
	Year      string `json:"year"`
	City      string `json:"city"`
	CoinType  string `json:"coin"`
	Condition string `json:"condition,omitempty"`
}

// Criteria filters records. A nil field matches any stored value.
// NoCondition restricts matches to records stored without a condition; it is
// only set by operator filters, never from slots.
type Criteria struct {
	Year        *string `json:"year,omitempty"`
	City        *string `json:"city,omitempty"`
	CoinType    *string `json:"coin,omitempty"`
	Condition   *string `json:"condition,omitempty"`
	NoCondition bool    `json:"no_condition,omitempty"`
}

// ConditionFilter builds the condition part of an operator filter: an empty
// value selects records without a condition, anything else must match exactly.
func ConditionFilter(value string) (condition *string, noCondition bool) {
	if value == "" {
		return nil, true
	}
	return &value, false
}

// Store persists a user's whole collection. Get returns ErrNotFound when the
// user has no entry; Put overwrites the entry with no version check.
type Store interface {
	Get(ctx context.Context, userID string) ([]Record, error)
	Put(ctx context.Context, userID string, records []Record) error
	Close() error
}

// BuildCriteria turns resolved slots into match criteria; absent slots become wildcards.
func BuildCriteria(resolved map[string]slots.ResolvedSlot) Criteria {
	field := func(name string) *string {
		rs, ok := resolved[name]
		if !ok {
			return nil
		}
		v := rs.Resolved
		return &v
	}
	return Criteria{
		Year:      field(slots.Year),
		City:      field(slots.City),
		CoinType:  field(slots.Coin),
		Condition: field(slots.Condition),
	}
}

func (c Criteria) Matches(r Record) bool {
	if c.Year != nil && r.Year != *c.Year {
		return false
	}
	if c.City != nil && r.City != *c.City {
		return false
	}
	if c.CoinType != nil && r.CoinType != *c.CoinType {
		return false
	}
	if c.NoCondition && r.Condition != "" {
		return false
	}
	if c.Condition != nil {
		// An absent condition only satisfies the wildcard.
		if r.Condition == "" || r.Condition != *c.Condition {
			return false
		}
	}
	return true
}

// Match returns the records satisfying every non-nil criteria field.
func Match(c Criteria, records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Delete returns records minus every record structurally equal to a match,
// so duplicate entries are all removed together.
func Delete(c Criteria, records []Record) []Record {
	matched := make(map[Record]struct{})
	for _, r := range Match(c, records) {
		matched[r] = struct{}{}
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := matched[r]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}
