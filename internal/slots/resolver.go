// Package slots normalizes recognized intent slots into canonical values
// using the entity-resolution data supplied with each request.
package slots

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ent0n29/coincollector/internal/protocol"
)

// Slot names shared by the coin intents.
const (
	Year      = "year"
	City      = "city"
	Coin      = "coin"
	Condition = "condition"
	Product   = "product"
)

// ResolvedSlot is a slot after entity resolution. Validated is true only when
// the first resolution authority reported an exact catalog match.
type ResolvedSlot struct {
	Raw       string `json:"synonym"`
	Resolved  string `json:"resolved"`
	Validated bool   `json:"is_validated"`
}

type Resolver struct {
	logger *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve maps every filled slot to its resolved form. It never fails: any
// status other than an exact match, and any missing or malformed resolution
// data, falls back to the spoken value with Validated=false. Slots with no
// spoken value and no match are left out so callers treat them as absent.
func (r *Resolver) Resolve(filled map[string]protocol.Slot) map[string]ResolvedSlot {
	out := make(map[string]ResolvedSlot, len(filled))
	for key, slot := range filled {
		name := strings.TrimSpace(slot.Name)
		if name == "" {
			name = key
		}

		canonical, code, ok := firstResolution(slot)
		switch {
		case ok && code == protocol.ResolutionMatch:
			out[name] = ResolvedSlot{Raw: slot.Value, Resolved: canonical, Validated: true}
			continue
		case ok && code == protocol.ResolutionNoMatch:
		default:
			if slot.Value != "" {
				r.logger.Debug("slot resolution unavailable, using spoken value",
					zap.String("slot", name),
					zap.String("status", string(code)),
				)
			}
		}

		if slot.Value == "" {
			continue
		}
		out[name] = ResolvedSlot{Raw: slot.Value, Resolved: slot.Value, Validated: false}
	}
	return out
}

// firstResolution inspects only the first authority and its first candidate.
// ok is false when no status could be read at all.
func firstResolution(slot protocol.Slot) (canonical string, code protocol.StatusCode, ok bool) {
	if slot.Resolutions == nil || len(slot.Resolutions.ResolutionsPerAuthority) == 0 {
		return "", "", false
	}
	auth := slot.Resolutions.ResolutionsPerAuthority[0]
	if auth.Status == nil {
		return "", "", false
	}
	code = auth.Status.Code
	if code != protocol.ResolutionMatch {
		return "", code, true
	}
	if len(auth.Values) == 0 || auth.Values[0].Value == nil || auth.Values[0].Value.Name == "" {
		// A match without a candidate is malformed.
		return "", code, false
	}
	return auth.Values[0].Value.Name, code, true
}

// Value returns the resolved value of name, or empty when the slot is absent.
func Value(resolved map[string]ResolvedSlot, name string) string {
	return resolved[name].Resolved
}
