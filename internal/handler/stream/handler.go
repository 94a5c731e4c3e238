package stream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
	"github.com/zhouzirui/voicedesk/backend/pkg/utils"
)

// Handler runs one user turn per request and reports it via Server-Sent Events.
type Handler struct {
	desk *desk.Desk
}

// New creates a new stream handler
func New(d *desk.Desk) *Handler {
	return &Handler{desk: d}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Name      string `json:"name,omitempty"`
	PersonaID string `json:"personaId,omitempty"`
	Voice     string `json:"voice,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest processes one utterance for a session. Events are
// start, tool, handoff, message and end; failures become an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	log := logger.Component("stream").WithField("session", sessionID)

	active, err := h.desk.Active(ctx, sessionID)
	if err != nil {
		utils.SetupSSEHeaders(w)
		h.sendError(w, flusher, sessionID, err)
		return err
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "start", StreamResponse{
		SessionID: sessionID,
		PersonaID: active.ID,
		Content:   active.Name,
	})

	reply, err := h.desk.Say(ctx, sessionID, userMessage)
	if err != nil {
		log.WithError(err).Warn("turn failed")
		h.sendError(w, flusher, sessionID, err)
		return nil
	}

	for _, ev := range reply.Events {
		event := "tool"
		if ev.Type == conversation.EventHandoff {
			event = "handoff"
		}
		utils.SendSSEEvent(w, flusher, event, StreamResponse{
			SessionID: sessionID,
			Name:      ev.Name,
			Content:   ev.Text,
		})
	}

	utils.SendSSEEvent(w, flusher, "message", StreamResponse{
		SessionID: sessionID,
		Content:   reply.Text,
		PersonaID: reply.PersonaID,
		Voice:     reply.Voice,
	})
	utils.SendSSEEvent(w, flusher, "end", StreamResponse{SessionID: sessionID, Finished: true})

	log.WithField("persona", reply.PersonaID).Debug("stream completed")
	return nil
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, sessionID string, err error) {
	utils.SendSSEEvent(w, flusher, "error", StreamResponse{SessionID: sessionID, Error: err.Error()})
}
