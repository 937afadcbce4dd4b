package protocol

const (
	DirectiveDelegate    = "Dialog.Delegate"
	DirectiveSendRequest = "Connections.SendRequest"
	SpeechPlainText      = "PlainText"
	ResponseVersion      = "1.0"
)

type ResponseEnvelope struct {
	Version           string         `json:"version"`
	SessionAttributes map[string]any `json:"sessionAttributes,omitempty"`
	Response          Response       `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	Directives       []Directive   `json:"directives,omitempty"`
	ShouldEndSession *bool         `json:"shouldEndSession,omitempty"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech *OutputSpeech `json:"outputSpeech"`
}

// Directive covers both delegated slot elicitation and purchase-flow
// send-request directives; unused fields are omitted on the wire.
type Directive struct {
	Type          string         `json:"type"`
	UpdatedIntent *Intent        `json:"updatedIntent,omitempty"`
	Name          string         `json:"name,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	Token         string         `json:"token,omitempty"`
}

// Speech returns the spoken text, or empty when nothing is spoken.
func (r ResponseEnvelope) Speech() string {
	if r.Response.OutputSpeech == nil {
		return ""
	}
	return r.Response.OutputSpeech.Text
}

// RepromptText returns the reprompt text, or empty when none was set.
func (r ResponseEnvelope) RepromptText() string {
	if r.Response.Reprompt == nil || r.Response.Reprompt.OutputSpeech == nil {
		return ""
	}
	return r.Response.Reprompt.OutputSpeech.Text
}

func (r ResponseEnvelope) EndsSession() bool {
	return r.Response.ShouldEndSession != nil && *r.Response.ShouldEndSession
}
