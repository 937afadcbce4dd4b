package skill

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/coincollector/internal/collection"
	"github.com/ent0n29/coincollector/internal/observability"
	"github.com/ent0n29/coincollector/internal/protocol"
	"github.com/ent0n29/coincollector/internal/session"
	"github.com/ent0n29/coincollector/internal/slots"
)

// handleDelegate lets the platform keep eliciting the intent's required slots.
func (o *Orchestrator) handleDelegate(t *turn) (reply, error) {
	var updated *protocol.Intent
	if t.env.Request.Intent != nil {
		in := *t.env.Request.Intent
		updated = &in
	}
	return directive(protocol.Directive{
		Type:          protocol.DirectiveDelegate,
		UpdatedIntent: updated,
	}), nil
}

func (o *Orchestrator) handleAddCompleted(t *turn) (reply, error) {
	premium, err := t.Premium()
	if err != nil {
		return o.entitlementFailed(t, err), nil
	}

	t.dialog.Year = t.slot(slots.Year)
	t.dialog.City = t.slot(slots.City)
	t.dialog.CoinType = t.slot(slots.Coin)

	if premium && t.dialog.Condition == "" {
		t.dialog.State = session.StateAwaitingCondition
		return ask(speechAskCondition, speechAskCondition), nil
	}
	return o.writeAccumulated(t, premium)
}

func (o *Orchestrator) handleCondition(t *turn) (reply, error) {
	premium, err := t.Premium()
	if err != nil {
		return o.entitlementFailed(t, err), nil
	}
	if !premium {
		return o.upsell(t), nil
	}

	condition := t.slot(slots.Condition)
	if condition == "" {
		return ask(speechAskCondition, speechAskCondition), nil
	}
	t.dialog.Condition = condition
	if t.dialog.State == session.StateAwaitingCondition {
		return o.writeAccumulated(t, true)
	}
	return ask(speechAskDenomination, speechAskDenomination), nil
}

// writeAccumulated stores the coin gathered in the dialog and moves on to the
// add-another question. condition is written only with premium.
func (o *Orchestrator) writeAccumulated(t *turn, premium bool) (reply, error) {
	rec := collection.Record{
		Year:     t.dialog.Year,
		City:     t.dialog.City,
		CoinType: t.dialog.CoinType,
	}
	if premium {
		rec.Condition = t.dialog.Condition
	}

	start := time.Now()
	size, err := o.records.Add(t.ctx, t.userID, rec)
	o.metrics.ObserveStage(observability.StageStoreSave, time.Since(start))
	if err != nil {
		return reply{}, fmt.Errorf("add coin: %w", err)
	}
	o.logger.Debug("coin added",
		zap.String("session_id", t.sessionID),
		zap.Bool("premium", premium),
		zap.Int("collection_size", size),
	)

	t.dialog.ClearCoin()
	t.dialog.State = session.StateAwaitingAddContinuation
	if rec.Condition != "" {
		return ask(speechAddedWithCondition(rec.Year, rec.City, rec.CoinType, rec.Condition), speechAddNewReprompt), nil
	}
	return ask(speechAdded(rec.Year, rec.City, rec.CoinType), speechAddNewReprompt), nil
}

func (o *Orchestrator) handleReadCompleted(t *turn) (reply, error) {
	criteria := collection.BuildCriteria(t.slots)

	start := time.Now()
	n, err := o.records.Count(t.ctx, t.userID, criteria)
	o.metrics.ObserveStage(observability.StageStoreLoad, time.Since(start))
	if err != nil {
		return reply{}, fmt.Errorf("read coins: %w", err)
	}
	return speak(speechMatched(n)), nil
}

func (o *Orchestrator) handleDeleteCompleted(t *turn) (reply, error) {
	criteria := collection.BuildCriteria(t.slots)

	start := time.Now()
	removed, err := o.records.Remove(t.ctx, t.userID, criteria)
	o.metrics.ObserveStage(observability.StageStoreSave, time.Since(start))
	if err != nil {
		return reply{}, fmt.Errorf("delete coins: %w", err)
	}
	o.logger.Debug("coins deleted", zap.String("session_id", t.sessionID), zap.Int("removed", removed))

	t.dialog.State = session.StateAwaitingNextAction
	return ask(speechDeleted, speechWhatNext), nil
}

func (o *Orchestrator) handleYes(t *turn) (reply, error) {
	switch t.dialog.State {
	case session.StateAwaitingAddContinuation:
		t.dialog.State = session.StateIdle
		return ask(speechAskDenomination, speechAskDenomination), nil
	case session.StateAwaitingDeleteConfirmation:
		t.dialog.State = session.StateAwaitingNextAction
		return ask(speechDeleted, speechWhatNext), nil
	case session.StateIdle, session.StateAwaitingCondition,
		session.StateAwaitingNextAction, session.StateEnded:
		return ask(speechYesNoConfused, speechWhatNext), nil
	default:
		return reply{}, fmt.Errorf("yes in unhandled dialog state %q", t.dialog.State)
	}
}

func (o *Orchestrator) handleNo(t *turn) (reply, error) {
	switch t.dialog.State {
	case session.StateAwaitingAddContinuation, session.StateAwaitingDeleteConfirmation:
		t.dialog.State = session.StateAwaitingNextAction
		return ask(speechWhatNext, speechWhatNext), nil
	case session.StateAwaitingNextAction:
		return o.handleGoodbye(t)
	case session.StateIdle, session.StateAwaitingCondition, session.StateEnded:
		return ask(speechYesNoConfused, speechWhatNext), nil
	default:
		return reply{}, fmt.Errorf("no in unhandled dialog state %q", t.dialog.State)
	}
}

func (o *Orchestrator) entitlementFailed(t *turn, err error) reply {
	o.logger.Warn("premium check failed",
		zap.String("session_id", t.sessionID),
		zap.String("request", o.turnLabel(t.env.Request)),
		zap.Error(err),
	)
	return purchaseHistoryApology()
}
