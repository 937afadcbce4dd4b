package skill

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ent0n29/coincollector/internal/entitlement"
	"github.com/ent0n29/coincollector/internal/protocol"
	"github.com/ent0n29/coincollector/internal/session"
	"github.com/ent0n29/coincollector/internal/slots"
)

// Purchase results reported in Connections.Response payloads.
const (
	purchaseAccepted         = "ACCEPTED"
	purchaseDeclined         = "DECLINED"
	purchaseError            = "ERROR"
	purchaseNotEntitled      = "NOT_ENTITLED"
	purchaseAlreadyPurchased = "ALREADY_PURCHASED"
)

const statusOK = "200"

func (o *Orchestrator) handleLaunch(t *turn) (reply, error) {
	t.dialog = session.Dialog{State: session.StateIdle}
	products, err := t.Products()
	if err != nil {
		return o.entitlementFailed(t, err), nil
	}
	t.dialog.Premium = o.gate.HasPremium(products)

	if owned := entitlement.EntitledProducts(products); len(owned) > 0 {
		return ask(speechWelcomeOwner(entitlement.SpeakableList(owned)), speechDidNotCatch), nil
	}
	return ask(speechWelcome, speechWelcomeReprompt), nil
}

func (o *Orchestrator) handleHelp(t *turn) (reply, error) {
	if _, err := t.Products(); err != nil {
		return o.entitlementFailed(t, err), nil
	}
	return ask(speechHelp, speechDidNotCatch), nil
}

func (o *Orchestrator) handleFallback(t *turn) (reply, error) {
	return ask(speechFallback, speechDidNotCatch), nil
}

func (o *Orchestrator) handleGoodbye(t *turn) (reply, error) {
	return goodbye(goodbyes[o.pick(len(goodbyes))]), nil
}

func (o *Orchestrator) handleShopping(t *turn) (reply, error) {
	products, err := t.Products()
	if err != nil {
		return o.entitlementFailed(t, err), nil
	}
	if forSale := entitlement.PurchasableProducts(products); len(forSale) > 0 {
		return ask(speechForSale(entitlement.SpeakableList(forSale)), speechDidNotCatch), nil
	}
	return ask(speechNothingToBuy, speechDidNotCatch), nil
}

func (o *Orchestrator) handleProductDetail(t *turn) (reply, error) {
	products, err := t.Products()
	if err != nil {
		return o.entitlementFailed(t, err), nil
	}

	var (
		product entitlement.Product
		found   bool
	)
	if spoken := t.slot(slots.Product); spoken != "" {
		product, found = entitlement.MatchProduct(spoken, products)
	} else {
		product, found = entitlement.FindByReference(products, o.gate.PremiumReference())
	}
	if !found {
		return ask(speechUnknownProduct, speechUnknownProductReprompt), nil
	}
	speech, reprompt := speechProductDetail(product.Summary, product.Name)
	return ask(speech, reprompt), nil
}

func (o *Orchestrator) handleBuy(t *turn) (reply, error) {
	products, err := t.Products()
	if err != nil {
		return o.entitlementFailed(t, err), nil
	}
	return o.sendRequest(ConnectionBuy, o.gate.Premium(products).ProductID, nil), nil
}

func (o *Orchestrator) handleCancelSubscription(t *turn) (reply, error) {
	products, err := t.Products()
	if err != nil {
		return o.entitlementFailed(t, err), nil
	}
	return o.sendRequest(ConnectionCancel, o.gate.Premium(products).ProductID, nil), nil
}

// upsell offers the premium product in place of the gated condition feature.
func (o *Orchestrator) upsell(t *turn) reply {
	products, _ := t.Products()
	return o.sendRequest(ConnectionUpsell, o.gate.Premium(products).ProductID, map[string]any{
		"upsellMessage": speechUpsell,
	})
}

func (o *Orchestrator) sendRequest(name, productID string, extra map[string]any) reply {
	payload := map[string]any{
		"InSkillProduct": map[string]any{"productId": productID},
	}
	for k, v := range extra {
		payload[k] = v
	}
	return directive(protocol.Directive{
		Type:    protocol.DirectiveSendRequest,
		Name:    name,
		Payload: payload,
		Token:   uuid.NewString(),
	})
}

func (o *Orchestrator) handleBuyResponse(t *turn) (reply, error) {
	if !o.connectionSucceeded(t) {
		return speak(speechBuyFailed), nil
	}

	switch result := t.env.Request.PurchaseResult(); result {
	case purchaseAccepted:
		o.settle(t, true)
		t.dialog.Premium = true
		t.dialog.State = session.StateAwaitingAddContinuation
		return ask(speechBought, speechAddAnother), nil
	case purchaseDeclined, purchaseError, purchaseNotEntitled:
		t.dialog.State = session.StateAwaitingAddContinuation
		return ask(speechPurchaseDeclined, speechAddAnother), nil
	case purchaseAlreadyPurchased:
		t.dialog.Premium = true
		t.dialog.State = session.StateAwaitingAddContinuation
		return ask(speechAddAnother, speechDidNotCatch), nil
	default:
		o.logger.Info("unexpected purchase result", zap.String("result", result))
		return o.handleFallback(t)
	}
}

func (o *Orchestrator) handleCancelResponse(t *turn) (reply, error) {
	if !o.connectionSucceeded(t) {
		return speak(speechCancelFailed), nil
	}

	t.dialog.State = session.StateAwaitingNextAction
	switch t.env.Request.PurchaseResult() {
	case purchaseAccepted:
		o.settle(t, false)
		t.dialog.Premium = false
		return ask(speechCancelled, speechWhatNext), nil
	case purchaseDeclined:
		products, err := t.Products()
		if err != nil {
			return o.entitlementFailed(t, err), nil
		}
		if o.gate.Premium(products).Purchasable == entitlement.Purchasable {
			return ask(speechNoSubscription, speechWhatNext), nil
		}
		return ask(speechWhatNext, speechWhatNext), nil
	default:
		return ask(speechWhatNext, speechWhatNext), nil
	}
}

func (o *Orchestrator) handleUpsellResponse(t *turn) (reply, error) {
	if !o.connectionSucceeded(t) {
		return speak(speechUpsellFailed), nil
	}

	switch t.env.Request.PurchaseResult() {
	case purchaseDeclined:
		t.dialog.ClearCoin()
		t.dialog.State = session.StateIdle
		return ask(speechUpsellDeclined, speechUpsellReprompt), nil
	default:
		return o.handleBuyResponse(t)
	}
}

// settle records an accepted purchase or cancellation with the entitlement
// client. A failed product lookup only loses the product id mapping.
func (o *Orchestrator) settle(t *turn, owned bool) {
	products, _ := t.Products()
	o.gate.Settle(t.userID, products, t.env.Request.PurchasedProductID(), owned)
}

func (o *Orchestrator) connectionSucceeded(t *turn) bool {
	status := t.env.Request.Status
	if status != nil && status.Code == statusOK {
		return true
	}
	fields := []zap.Field{
		zap.String("session_id", t.sessionID),
		zap.String("connection", t.env.Request.Name),
	}
	if status != nil {
		fields = append(fields, zap.String("code", status.Code), zap.String("message", status.Message))
	}
	o.logger.Warn("connections response indicated failure", fields...)
	return false
}
