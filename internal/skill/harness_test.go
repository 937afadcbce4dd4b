package skill

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/coincollector/internal/collection"
	"github.com/ent0n29/coincollector/internal/entitlement"
	"github.com/ent0n29/coincollector/internal/protocol"
	"github.com/ent0n29/coincollector/internal/session"
)

const (
	testProductID = "amzn1.adg.product.test"
	testRef       = "all_access"
	testUser      = "amzn1.ask.account.U1"
)

type harness struct {
	o        *Orchestrator
	store    collection.Store
	products *entitlement.MockClient
	sessions *session.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, collection.NewInMemoryStore())
}

func newHarnessWithStore(t *testing.T, store collection.Store) *harness {
	t.Helper()
	products := entitlement.NewMockClient(entitlement.DefaultCatalog(testProductID, testRef))
	gate := entitlement.NewGate(products, entitlement.GateConfig{
		PremiumProductID:     testProductID,
		PremiumReferenceName: testRef,
	}, nil)
	sessions := session.NewManager(time.Minute)
	o := NewOrchestrator(sessions, nil, collection.NewAdapter(store), gate, nil, zap.NewNop())
	o.pick = func(int) int { return 0 }
	return &harness{o: o, store: store, products: products, sessions: sessions}
}

func (h *harness) grantPremium(userID string) {
	h.products.Grant(userID, testRef)
}

func (h *harness) send(t *testing.T, env protocol.RequestEnvelope) protocol.ResponseEnvelope {
	t.Helper()
	return h.o.HandleTurn(context.Background(), env)
}

func (h *harness) records(t *testing.T, userID string) []collection.Record {
	t.Helper()
	got, err := collection.NewAdapter(h.store).Load(context.Background(), userID)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", userID, err)
	}
	return got
}

func (h *harness) seed(t *testing.T, userID string, records ...collection.Record) {
	t.Helper()
	if err := h.store.Put(context.Background(), userID, records); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
}

func envelope(sessionID, userID string, req protocol.Request) protocol.RequestEnvelope {
	return protocol.RequestEnvelope{
		Version: "1.0",
		Session: protocol.Session{
			SessionID: sessionID,
			User:      protocol.User{UserID: userID},
		},
		Context: protocol.Context{System: protocol.System{
			APIEndpoint: "https://api.example.test",
			User:        protocol.User{UserID: userID},
		}},
		Request: req,
	}
}

func launch(sessionID string) protocol.RequestEnvelope {
	return envelope(sessionID, testUser, protocol.Request{Type: protocol.TypeLaunchRequest, Locale: "en-US"})
}

// intent builds an intent request whose slots all resolved to exact matches,
// given as name/value pairs.
func intent(sessionID, name string, state protocol.DialogState, kv ...string) protocol.RequestEnvelope {
	slotMap := make(map[string]protocol.Slot, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		slotMap[kv[i]] = matchedSlot(kv[i], kv[i+1], kv[i+1])
	}
	return envelope(sessionID, testUser, protocol.Request{
		Type:        protocol.TypeIntentRequest,
		Locale:      "en-US",
		DialogState: state,
		Intent:      &protocol.Intent{Name: name, Slots: slotMap},
	})
}

func matchedSlot(name, spoken, canonical string) protocol.Slot {
	return protocol.Slot{
		Name:  name,
		Value: spoken,
		Resolutions: &protocol.Resolutions{ResolutionsPerAuthority: []protocol.Authority{{
			Status: &protocol.AuthorityStatus{Code: protocol.ResolutionMatch},
			Values: []protocol.ResolutionEntry{{Value: &protocol.ResolutionValue{Name: canonical}}},
		}}},
	}
}

func connection(sessionID, name, code, result string) protocol.RequestEnvelope {
	req := protocol.Request{
		Type:   protocol.TypeConnectionsResponse,
		Locale: "en-US",
		Name:   name,
		Status: &protocol.ConnectionsStatus{Code: code},
	}
	if result != "" {
		req.Payload = map[string]any{"purchaseResult": result}
	}
	return envelope(sessionID, testUser, req)
}

func withAttributes(env protocol.RequestEnvelope, attrs map[string]any) protocol.RequestEnvelope {
	env.Session.Attributes = attrs
	return env
}

func dialogOf(t *testing.T, out protocol.ResponseEnvelope) session.Dialog {
	t.Helper()
	d, ok, err := session.DialogFromAttributes(out.SessionAttributes)
	if err != nil || !ok {
		t.Fatalf("response carries no dialog: ok=%v err=%v attrs=%v", ok, err, out.SessionAttributes)
	}
	return d
}

func wantSpeech(t *testing.T, out protocol.ResponseEnvelope, want string) {
	t.Helper()
	if got := out.Speech(); got != want {
		t.Fatalf("Speech() = %q, want %q", got, want)
	}
}
