package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RequestType identifies the inbound request variants the skill handles.
type RequestType string

const (
	TypeLaunchRequest       RequestType = "LaunchRequest"
	TypeIntentRequest       RequestType = "IntentRequest"
	TypeSessionEndedRequest RequestType = "SessionEndedRequest"
	TypeConnectionsResponse RequestType = "Connections.Response"
)

// DialogState is the transport-supplied completion status of a multi-slot intent.
type DialogState string

const (
	DialogStarted    DialogState = "STARTED"
	DialogInProgress DialogState = "IN_PROGRESS"
	DialogCompleted  DialogState = "COMPLETED"
)

// StatusCode is an entity-resolution authority status.
type StatusCode string

const (
	ResolutionMatch     StatusCode = "ER_SUCCESS_MATCH"
	ResolutionNoMatch   StatusCode = "ER_SUCCESS_NO_MATCH"
	ResolutionTimeout   StatusCode = "ER_ERROR_TIMEOUT"
	ResolutionException StatusCode = "ER_ERROR_EXCEPTION"
)

var (
	ErrUnsupportedType = errors.New("unsupported request type")
	ErrMissingUser     = errors.New("missing user id")
	ErrMissingIntent   = errors.New("intent request without intent")
)

type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Context Context `json:"context"`
	Request Request `json:"request"`
}

type Session struct {
	New        bool           `json:"new"`
	SessionID  string         `json:"sessionId"`
	Attributes map[string]any `json:"attributes,omitempty"`
	User       User           `json:"user"`
}

type User struct {
	UserID string `json:"userId"`
}

type Context struct {
	System System `json:"System"`
}

// System carries the credentials needed to call platform services such as
// the in-skill product listing.
type System struct {
	APIEndpoint    string `json:"apiEndpoint"`
	APIAccessToken string `json:"apiAccessToken"`
	User           User   `json:"user"`
}

type Request struct {
	Type        RequestType `json:"type"`
	RequestID   string      `json:"requestId"`
	Locale      string      `json:"locale"`
	DialogState DialogState `json:"dialogState,omitempty"`
	Intent      *Intent     `json:"intent,omitempty"`
	Reason      string      `json:"reason,omitempty"`

	// Connections.Response fields.
	Name    string             `json:"name,omitempty"`
	Status  *ConnectionsStatus `json:"status,omitempty"`
	Payload map[string]any     `json:"payload,omitempty"`
	Token   string             `json:"token,omitempty"`
}

type Intent struct {
	Name               string          `json:"name"`
	ConfirmationStatus string          `json:"confirmationStatus,omitempty"`
	Slots              map[string]Slot `json:"slots,omitempty"`
}

type Slot struct {
	Name        string       `json:"name"`
	Value       string       `json:"value,omitempty"`
	Resolutions *Resolutions `json:"resolutions,omitempty"`
}

type Resolutions struct {
	ResolutionsPerAuthority []Authority `json:"resolutionsPerAuthority"`
}

type Authority struct {
	Authority string            `json:"authority"`
	Status    *AuthorityStatus  `json:"status,omitempty"`
	Values    []ResolutionEntry `json:"values,omitempty"`
}

type AuthorityStatus struct {
	Code StatusCode `json:"code"`
}

type ResolutionEntry struct {
	Value *ResolutionValue `json:"value,omitempty"`
}

type ResolutionValue struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

type ConnectionsStatus struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// UserID prefers the session user and falls back to the system user.
func (e RequestEnvelope) UserID() string {
	if id := strings.TrimSpace(e.Session.User.UserID); id != "" {
		return id
	}
	return strings.TrimSpace(e.Context.System.User.UserID)
}

// IntentName returns the intent name or empty for non-intent requests.
func (e RequestEnvelope) IntentName() string {
	if e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// PurchaseResult reads payload.purchaseResult from a Connections.Response.
func (r Request) PurchaseResult() string {
	if r.Payload == nil {
		return ""
	}
	v, _ := r.Payload["purchaseResult"].(string)
	return v
}

// PurchasedProductID reads payload.productId from a Connections.Response.
func (r Request) PurchasedProductID() string {
	if r.Payload == nil {
		return ""
	}
	v, _ := r.Payload["productId"].(string)
	return v
}

func ParseRequest(raw []byte) (RequestEnvelope, error) {
	var env RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return RequestEnvelope{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if err := env.Validate(); err != nil {
		return RequestEnvelope{}, err
	}
	return env, nil
}

func (e RequestEnvelope) Validate() error {
	switch e.Request.Type {
	case TypeLaunchRequest, TypeSessionEndedRequest:
	case TypeIntentRequest:
		if e.Request.Intent == nil || strings.TrimSpace(e.Request.Intent.Name) == "" {
			return ErrMissingIntent
		}
	case TypeConnectionsResponse:
		if strings.TrimSpace(e.Request.Name) == "" {
			return errors.New("connections response without name")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedType, e.Request.Type)
	}
	if e.UserID() == "" {
		return ErrMissingUser
	}
	return nil
}
