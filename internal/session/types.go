package session

import (
	"fmt"
	"strings"
)

// State is the conversation position that decides how yes/no answers are read.
type State string

const (
	StateIdle                       State = "idle"
	StateAwaitingCondition          State = "awaiting_condition"
	StateAwaitingAddContinuation    State = "awaiting_add_continuation"
	StateAwaitingDeleteConfirmation State = "awaiting_delete_confirmation"
	StateAwaitingNextAction         State = "awaiting_next_action"
	StateEnded                      State = "ended"
)

// Phrases written by earlier releases into session attributes.
var legacyStates = map[string]State{
	"AddCoinIntent":                    StateAwaitingCondition,
	"Would you like to add a new coin": StateAwaitingAddContinuation,
	"Delete":                           StateAwaitingDeleteConfirmation,
	"Leave":                            StateAwaitingNextAction,
}

// ParseState accepts both enum values and legacy sentinel phrases.
func ParseState(v string) (State, error) {
	switch s := State(strings.TrimSpace(v)); s {
	case "":
		return StateIdle, nil
	case StateIdle, StateAwaitingCondition, StateAwaitingAddContinuation,
		StateAwaitingDeleteConfirmation, StateAwaitingNextAction, StateEnded:
		return s, nil
	}
	if s, ok := legacyStates[strings.TrimSpace(v)]; ok {
		return s, nil
	}
	return StateIdle, fmt.Errorf("unknown dialog state %q", v)
}

// Dialog is the cross-turn state of one conversation: where it is, the coin
// fields gathered so far, and the last observed premium entitlement.
type Dialog struct {
	State     State  `json:"state"`
	Year      string `json:"year,omitempty"`
	City      string `json:"city,omitempty"`
	CoinType  string `json:"coin,omitempty"`
	Condition string `json:"condition,omitempty"`
	Premium   bool   `json:"premium"`
}

// ClearCoin drops the accumulated coin fields.
func (d *Dialog) ClearCoin() {
	d.Year, d.City, d.CoinType, d.Condition = "", "", "", ""
}

const attributeKey = "dialog"

// Attributes encodes the dialog for the response sessionAttributes.
func (d Dialog) Attributes() map[string]any {
	return map[string]any{
		attributeKey: map[string]any{
			"state":     string(d.State),
			"year":      d.Year,
			"city":      d.City,
			"coin":      d.CoinType,
			"condition": d.Condition,
			"premium":   d.Premium,
		},
	}
}

// DialogFromAttributes rebuilds a dialog from request session attributes.
// ok is false when no dialog was carried.
func DialogFromAttributes(attrs map[string]any) (Dialog, bool, error) {
	raw, ok := attrs[attributeKey].(map[string]any)
	if !ok {
		// Older clients stored the sentinel phrase at the top level.
		legacy, ok := attrs["previous_intent"].(string)
		if !ok {
			return Dialog{State: StateIdle}, false, nil
		}
		st, err := ParseState(legacy)
		return Dialog{State: st}, true, err
	}

	str := func(k string) string {
		v, _ := raw[k].(string)
		return v
	}
	st, err := ParseState(str("state"))
	d := Dialog{
		State:     st,
		Year:      str("year"),
		City:      str("city"),
		CoinType:  str("coin"),
		Condition: str("condition"),
	}
	d.Premium, _ = raw["premium"].(bool)
	return d, true, err
}
