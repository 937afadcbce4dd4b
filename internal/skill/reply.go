package skill

import "github.com/ent0n29/coincollector/internal/protocol"

// reply is what a handler decides to say. It is rendered into the wire
// response once the turn's dialog has been committed.
type reply struct {
	speech     string
	reprompt   string
	directive  *protocol.Directive
	endSession bool
}

func speak(speech string) reply {
	return reply{speech: speech}
}

func ask(speech, reprompt string) reply {
	return reply{speech: speech, reprompt: reprompt}
}

func directive(d protocol.Directive) reply {
	return reply{directive: &d}
}

func goodbye(speech string) reply {
	return reply{speech: speech, endSession: true}
}

func catchAll() reply {
	return ask(speechCatchAll, speechCatchAll)
}

func purchaseHistoryApology() reply {
	return ask(speechPurchaseHistory, speechPurchaseHistory)
}

func (r reply) response() protocol.Response {
	var out protocol.Response
	if r.speech != "" {
		out.OutputSpeech = plainText(r.speech)
	}
	if r.reprompt != "" {
		out.Reprompt = &protocol.Reprompt{OutputSpeech: plainText(r.reprompt)}
		out.ShouldEndSession = boolPtr(false)
	}
	if r.directive != nil {
		out.Directives = []protocol.Directive{*r.directive}
	}
	if r.endSession {
		out.ShouldEndSession = boolPtr(true)
	}
	return out
}

func plainText(text string) *protocol.OutputSpeech {
	return &protocol.OutputSpeech{Type: protocol.SpeechPlainText, Text: text}
}

func boolPtr(v bool) *bool { return &v }
