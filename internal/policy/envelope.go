// Package policy masks identifiers and personal data before envelopes reach
// the logs.
package policy

import (
	"regexp"

	"github.com/ent0n29/coincollector/internal/protocol"
)

const maskedToken = "[REDACTED_TOKEN]"

// spokenRules run in order; card numbers go before phone numbers so a long
// digit run is not reported as a phone.
var spokenRules = []struct {
	pattern *regexp.Regexp
	marker  string
}{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// RedactSpoken masks emails, card numbers and phone numbers in a transcribed
// slot value. Years and short numbers pass through.
func RedactSpoken(value string) (redacted string, changed bool) {
	out := value
	for _, rule := range spokenRules {
		out = rule.pattern.ReplaceAllString(out, rule.marker)
	}
	return out, out != value
}

// RedactEnvelope returns a copy of env that is safe to log. Access tokens are
// dropped, user identifiers are shortened and slot values pass through
// RedactSpoken. Resolution data is removed since it only echoes the values.
func RedactEnvelope(env protocol.RequestEnvelope) protocol.RequestEnvelope {
	out := env
	out.Session.User.UserID = MaskID(env.Session.User.UserID)
	out.Context.System.User.UserID = MaskID(env.Context.System.User.UserID)
	if out.Context.System.APIAccessToken != "" {
		out.Context.System.APIAccessToken = maskedToken
	}
	out.Session.Attributes = nil

	if env.Request.Intent != nil {
		intent := *env.Request.Intent
		intent.Slots = make(map[string]protocol.Slot, len(env.Request.Intent.Slots))
		for k, slot := range env.Request.Intent.Slots {
			slot.Value, _ = RedactSpoken(slot.Value)
			slot.Resolutions = nil
			intent.Slots[k] = slot
		}
		out.Request.Intent = &intent
	}
	return out
}

// MaskID keeps only the tail of a platform identifier.
func MaskID(id string) string {
	const keep = 6
	if len(id) <= keep {
		return id
	}
	return "..." + id[len(id)-keep:]
}
