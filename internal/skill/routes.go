package skill

import "github.com/ent0n29/coincollector/internal/protocol"

// Intent names declared by the interaction model.
const (
	IntentAddCoin            = "AddCoinIntent"
	IntentReadCoin           = "ReadCoinIntent"
	IntentDeleteCoin         = "DeleteCoinIntent"
	IntentCondition          = "conditionIntent"
	IntentShopping           = "ShoppingIntent"
	IntentProductDetail      = "ProductDetailIntent"
	IntentBuy                = "BuyIntent"
	IntentCancelSubscription = "CancelSubscriptionIntent"
	IntentYes                = "AMAZON.YesIntent"
	IntentNo                 = "AMAZON.NoIntent"
	IntentHelp               = "AMAZON.HelpIntent"
	IntentFallback           = "AMAZON.FallbackIntent"
	IntentStop               = "AMAZON.StopIntent"
	IntentCancel             = "AMAZON.CancelIntent"
)

// Connections.Response names for the purchase flows.
const (
	ConnectionBuy    = "Buy"
	ConnectionCancel = "Cancel"
	ConnectionUpsell = "Upsell"
)

type phase int

const (
	phaseAny phase = iota
	phaseInProgress
	phaseCompleted
)

type route struct {
	kind  protocol.RequestType
	name  string
	phase phase
}

type handlerFunc func(*turn) (reply, error)

func (o *Orchestrator) buildRoutes() map[route]handlerFunc {
	intent := func(name string, p phase) route {
		return route{kind: protocol.TypeIntentRequest, name: name, phase: p}
	}
	connection := func(name string) route {
		return route{kind: protocol.TypeConnectionsResponse, name: name}
	}

	return map[route]handlerFunc{
		{kind: protocol.TypeLaunchRequest}:       o.handleLaunch,
		{kind: protocol.TypeSessionEndedRequest}: o.handleGoodbye,

		intent(IntentAddCoin, phaseInProgress):    o.handleDelegate,
		intent(IntentAddCoin, phaseCompleted):     o.handleAddCompleted,
		intent(IntentReadCoin, phaseInProgress):   o.handleDelegate,
		intent(IntentReadCoin, phaseCompleted):    o.handleReadCompleted,
		intent(IntentDeleteCoin, phaseInProgress): o.handleDelegate,
		intent(IntentDeleteCoin, phaseCompleted):  o.handleDeleteCompleted,

		intent(IntentCondition, phaseAny):          o.handleCondition,
		intent(IntentYes, phaseAny):                o.handleYes,
		intent(IntentNo, phaseAny):                 o.handleNo,
		intent(IntentShopping, phaseAny):           o.handleShopping,
		intent(IntentProductDetail, phaseAny):      o.handleProductDetail,
		intent(IntentBuy, phaseAny):                o.handleBuy,
		intent(IntentCancelSubscription, phaseAny): o.handleCancelSubscription,
		intent(IntentHelp, phaseAny):               o.handleHelp,
		intent(IntentFallback, phaseAny):           o.handleFallback,
		intent(IntentStop, phaseAny):               o.handleGoodbye,
		intent(IntentCancel, phaseAny):             o.handleGoodbye,

		connection(ConnectionBuy):    o.handleBuyResponse,
		connection(ConnectionCancel): o.handleCancelResponse,
		connection(ConnectionUpsell): o.handleUpsellResponse,
	}
}

// lookup picks the handler for a request. Unknown intents fall back to the
// fallback handler; an unknown request kind has no handler.
func (o *Orchestrator) lookup(req protocol.Request) (handlerFunc, bool) {
	switch req.Type {
	case protocol.TypeLaunchRequest, protocol.TypeSessionEndedRequest:
		h, ok := o.routes[route{kind: req.Type}]
		return h, ok
	case protocol.TypeIntentRequest:
		name := ""
		if req.Intent != nil {
			name = req.Intent.Name
		}
		p := phaseInProgress
		if req.DialogState == protocol.DialogCompleted {
			p = phaseCompleted
		}
		if h, ok := o.routes[route{kind: req.Type, name: name, phase: p}]; ok {
			return h, true
		}
		if h, ok := o.routes[route{kind: req.Type, name: name, phase: phaseAny}]; ok {
			return h, true
		}
		return o.handleFallback, true
	case protocol.TypeConnectionsResponse:
		h, ok := o.routes[route{kind: req.Type, name: req.Name}]
		return h, ok
	default:
		return nil, false
	}
}

// Metric labels for requests without a registered route of their own.
const (
	labelFallback          = "fallback"
	labelUnknownConnection = "Connections.unknown"
	labelUnknown           = "unknown"
)

// turnLabel names a request for logs and metrics. Only names that have a
// route keep their own label, so the label set stays bounded whatever
// intent or connection names callers send.
func (o *Orchestrator) turnLabel(req protocol.Request) string {
	switch req.Type {
	case protocol.TypeLaunchRequest, protocol.TypeSessionEndedRequest:
		return string(req.Type)
	case protocol.TypeIntentRequest:
		name := ""
		if req.Intent != nil {
			name = req.Intent.Name
		}
		for _, p := range []phase{phaseAny, phaseInProgress, phaseCompleted} {
			if _, ok := o.routes[route{kind: req.Type, name: name, phase: p}]; ok {
				return name
			}
		}
		return labelFallback
	case protocol.TypeConnectionsResponse:
		if _, ok := o.routes[route{kind: req.Type, name: req.Name}]; ok {
			return "Connections." + req.Name
		}
		return labelUnknownConnection
	default:
		return labelUnknown
	}
}
