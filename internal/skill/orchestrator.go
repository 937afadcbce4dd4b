// Package skill runs the coin collector conversation: it routes each turn to
// a handler, threads per-conversation dialog state through it, and renders
// the handler's reply into a response envelope.
package skill

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/coincollector/internal/collection"
	"github.com/ent0n29/coincollector/internal/entitlement"
	"github.com/ent0n29/coincollector/internal/observability"
	"github.com/ent0n29/coincollector/internal/policy"
	"github.com/ent0n29/coincollector/internal/protocol"
	"github.com/ent0n29/coincollector/internal/session"
	"github.com/ent0n29/coincollector/internal/slots"
)

var errNoHandler = errors.New("no handler for request")

type Orchestrator struct {
	sessions *session.Manager
	resolver *slots.Resolver
	records  *collection.Adapter
	gate     *entitlement.Gate
	metrics  *observability.Metrics
	logger   *zap.Logger
	routes   map[route]handlerFunc

	// pick chooses among n phrasings; tests replace it for determinism.
	pick func(n int) int
}

func NewOrchestrator(
	sessions *session.Manager,
	resolver *slots.Resolver,
	records *collection.Adapter,
	gate *entitlement.Gate,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = slots.NewResolver(logger)
	}
	o := &Orchestrator{
		sessions: sessions,
		resolver: resolver,
		records:  records,
		gate:     gate,
		metrics:  metrics,
		logger:   logger,
		pick:     rand.Intn,
	}
	o.routes = o.buildRoutes()
	return o
}

// turn carries everything a handler needs for one request. Handlers mutate
// dialog; the orchestrator commits it after the handler returns.
type turn struct {
	ctx       context.Context
	env       protocol.RequestEnvelope
	sessionID string
	userID    string
	dialog    session.Dialog
	slots     map[string]slots.ResolvedSlot

	products       []entitlement.Product
	productsErr    error
	productsLoaded bool
	o              *Orchestrator
}

// Products lists the user's in-skill products, at most once per turn.
func (t *turn) Products() ([]entitlement.Product, error) {
	if t.productsLoaded {
		return t.products, t.productsErr
	}
	start := time.Now()
	t.products, t.productsErr = t.o.gate.Products(t.ctx, entitlement.Request{
		UserID:         t.userID,
		Locale:         t.env.Request.Locale,
		APIEndpoint:    t.env.Context.System.APIEndpoint,
		APIAccessToken: t.env.Context.System.APIAccessToken,
	})
	t.o.metrics.ObserveStage(observability.StageEntitlement, time.Since(start))
	t.productsLoaded = true
	return t.products, t.productsErr
}

// Premium reports whether the user owns the premium product and mirrors the
// answer into the dialog.
func (t *turn) Premium() (bool, error) {
	products, err := t.Products()
	if err != nil {
		return false, err
	}
	t.dialog.Premium = t.o.gate.HasPremium(products)
	return t.dialog.Premium, nil
}

func (t *turn) slot(name string) string {
	return slots.Value(t.slots, name)
}

// HandleTurn answers one request. It never fails: every error, and any panic
// inside a handler, becomes a spoken apology that keeps the session open.
func (o *Orchestrator) HandleTurn(ctx context.Context, env protocol.RequestEnvelope) (out protocol.ResponseEnvelope) {
	start := time.Now()
	label := o.turnLabel(env.Request)
	outcome := "ok"

	seed, _, err := session.DialogFromAttributes(env.Session.Attributes)
	if err != nil {
		o.logger.Debug("ignoring unreadable dialog attributes", zap.Error(err))
	}
	s, created := o.sessions.Begin(env.Session.SessionID, env.UserID(), seed)
	if created {
		o.metrics.SessionStarted()
	}

	t := &turn{
		ctx:       ctx,
		env:       env,
		sessionID: s.ID,
		userID:    env.UserID(),
		dialog:    s.Dialog,
		o:         o,
	}
	if env.Request.Intent != nil {
		t.slots = o.resolver.Resolve(env.Request.Intent.Slots)
	}

	o.logger.Info("skill request",
		zap.String("session_id", s.ID),
		zap.Int("turn", s.TurnCount),
		zap.String("dialog_state", string(s.Dialog.State)),
		zap.Any("envelope", policy.RedactEnvelope(env)),
	)

	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			o.logger.Error("skill handler panicked",
				zap.String("session_id", s.ID),
				zap.String("request", label),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			t.dialog = s.Dialog
			out = o.finish(t, catchAll())
		}
		o.metrics.ObserveTurn(label, outcome, time.Since(start))
	}()

	var r reply
	h, ok := o.lookup(env.Request)
	if !ok {
		err = fmt.Errorf("%w: %s %q", errNoHandler, env.Request.Type, env.Request.Name)
	} else {
		r, err = h(t)
	}
	if err != nil {
		outcome = "error"
		o.logger.Error("skill turn failed",
			zap.String("session_id", s.ID),
			zap.String("request", label),
			zap.String("intent", env.IntentName()),
			zap.Error(err),
		)
		t.dialog = s.Dialog
		r = catchAll()
	}

	out = o.finish(t, r)
	o.logger.Info("skill response",
		zap.String("session_id", s.ID),
		zap.String("dialog_state", string(t.dialog.State)),
		zap.Any("response", out.Response),
	)
	return out
}

// finish commits the dialog, or ends the session, and renders the reply.
func (o *Orchestrator) finish(t *turn, r reply) protocol.ResponseEnvelope {
	out := protocol.ResponseEnvelope{
		Version:  protocol.ResponseVersion,
		Response: r.response(),
	}
	if r.endSession {
		if _, err := o.sessions.End(t.sessionID); err == nil {
			o.metrics.SessionEnded("ended")
		}
		t.dialog = session.Dialog{State: session.StateEnded, Premium: t.dialog.Premium}
		return out
	}
	if err := o.sessions.Commit(t.sessionID, t.dialog); err != nil {
		o.logger.Warn("dialog commit failed", zap.String("session_id", t.sessionID), zap.Error(err))
	}
	out.SessionAttributes = t.dialog.Attributes()
	return out
}
