package chat

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	modelchat "github.com/zhouzirui/voicedesk/backend/internal/model/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	chatService "github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
	"github.com/zhouzirui/voicedesk/backend/pkg/utils"
)

// Handler 会话相关的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	desk    *desk.Desk
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, d *desk.Desk) *Handler {
	return &Handler{chatSvc: chatSvc, desk: d}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleCloseSession)
	r.Get("/session/{sessionID}/messages", h.handleTranscript)
	r.Post("/messages", h.handleSaveMessage)
}

type createSessionResponse struct {
	modelchat.Session
	Persona persona.Persona `json:"persona"`
}

// handleCreateSession 创建会话并启动首个persona
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
		Room      string `json:"room"`
		Metadata  string `json:"metadata"`
	}
	if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.PersonaID == "" {
		utils.RespondError(w, http.StatusBadRequest, "personaId is required")
		return
	}

	session, profile, err := h.desk.Open(r.Context(), payload.PersonaID, payload.Room, payload.Metadata)
	switch {
	case errors.Is(err, conversation.ErrUnknownPersona):
		utils.RespondError(w, http.StatusBadRequest, "persona not found")
		return
	case err != nil:
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, createSessionResponse{Session: session, Persona: profile})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.desk.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSaveMessage 追加一条转录，不触发回复
func (h *Handler) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Sender    string `json:"sender"`
		Content   string `json:"content"`
		PersonaID string `json:"personaId"`
	}
	if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := modelchat.Message{
		SessionID: payload.SessionID,
		Sender:    payload.Sender,
		Content:   payload.Content,
		PersonaID: payload.PersonaID,
	}
	if err := h.chatSvc.SaveMessage(r.Context(), message); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
