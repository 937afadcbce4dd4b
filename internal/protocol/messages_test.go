package protocol

import (
	"errors"
	"testing"
)

func TestParseIntentRequest(t *testing.T) {
	raw := []byte(`{
		"version": "1.0",
		"session": {"new": false, "sessionId": "s1", "user": {"userId": "u1"}},
		"request": {
			"type": "IntentRequest",
			"requestId": "r1",
			"locale": "en-US",
			"dialogState": "COMPLETED",
			"intent": {
				"name": "ReadCoinIntent",
				"slots": {
					"coin": {
						"name": "coin",
						"value": "pennies",
						"resolutions": {"resolutionsPerAuthority": [{
							"authority": "amzn1.er-authority.coin",
							"status": {"code": "ER_SUCCESS_MATCH"},
							"values": [{"value": {"name": "Penny", "id": "1"}}]
						}]}
					}
				}
			}
		}
	}`)

	env, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest() error = %v", err)
	}
	if env.UserID() != "u1" {
		t.Fatalf("UserID() = %q, want %q", env.UserID(), "u1")
	}
	if env.IntentName() != "ReadCoinIntent" {
		t.Fatalf("IntentName() = %q, want ReadCoinIntent", env.IntentName())
	}
	if env.Request.DialogState != DialogCompleted {
		t.Fatalf("DialogState = %q, want %q", env.Request.DialogState, DialogCompleted)
	}
	slot := env.Request.Intent.Slots["coin"]
	if got := slot.Resolutions.ResolutionsPerAuthority[0].Status.Code; got != ResolutionMatch {
		t.Fatalf("status code = %q, want %q", got, ResolutionMatch)
	}
}

func TestParseConnectionsResponse(t *testing.T) {
	raw := []byte(`{
		"session": {"sessionId": "s1", "user": {"userId": "u1"}},
		"request": {
			"type": "Connections.Response",
			"name": "Upsell",
			"status": {"code": "200", "message": "OK"},
			"payload": {"purchaseResult": "DECLINED", "productId": "p1"}
		}
	}`)

	env, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest() error = %v", err)
	}
	if got := env.Request.PurchaseResult(); got != "DECLINED" {
		t.Fatalf("PurchaseResult() = %q, want DECLINED", got)
	}
}

func TestParseRequestRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{name: "unknown type", raw: `{"session":{"user":{"userId":"u"}},"request":{"type":"Display.ElementSelected"}}`, want: ErrUnsupportedType},
		{name: "missing intent", raw: `{"session":{"user":{"userId":"u"}},"request":{"type":"IntentRequest"}}`, want: ErrMissingIntent},
		{name: "missing user", raw: `{"request":{"type":"LaunchRequest"}}`, want: ErrMissingUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tc.raw))
			if !errors.Is(err, tc.want) {
				t.Fatalf("ParseRequest() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestUserIDFallsBackToSystemUser(t *testing.T) {
	env := RequestEnvelope{Context: Context{System: System{User: User{UserID: "sys-user"}}}}
	if env.UserID() != "sys-user" {
		t.Fatalf("UserID() = %q, want sys-user", env.UserID())
	}
}
