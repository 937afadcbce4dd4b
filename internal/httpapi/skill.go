package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ent0n29/coincollector/internal/protocol"
)

func (s *Server) handleSkill(w http.ResponseWriter, r *http.Request) {
	if s.skill == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "skill not configured")
		return
	}
	raw, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	env, err := protocol.ParseRequest(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_envelope", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.skill.HandleTurn(r.Context(), env))
}

// handleSkillWS serves request envelopes over one websocket. Each text
// message is answered in order before the next one is read.
func (s *Server) handleSkillWS(w http.ResponseWriter, r *http.Request) {
	if s.skill == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "skill not configured")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.logger.Debug("skill websocket connected", zap.String("remote", r.RemoteAddr))

	conn.SetReadLimit(maxEnvelopeBytes)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("skill websocket read failed", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		var reply any
		env, err := protocol.ParseRequest(data)
		if err != nil {
			reply = errorResponse{Error: err.Error(), Code: "invalid_envelope"}
		} else {
			reply = s.skill.HandleTurn(r.Context(), env)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Debug("skill websocket write failed", zap.Error(err))
			return
		}
	}
}
