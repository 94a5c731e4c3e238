package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/voicedesk/backend/internal/config"
	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// WebSocketHandler 语音会话的 WebSocket 入口。
// 语音识别和合成在外部管线完成，这里只收识别后的文本、回传要朗读的文本和音色。
type WebSocketHandler struct {
	desk     *desk.Desk
	speech   config.SpeechConfig
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(d *desk.Desk, speech config.SpeechConfig) *WebSocketHandler {
	return &WebSocketHandler{
		desk:   d,
		speech: speech,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/voice/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage 识别出的用户语音
type TextMessage struct {
	Text       string  `json:"text"`
	IsFinal    *bool   `json:"isFinal,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ConfigMessage 运行时配置
type ConfigMessage struct {
	PersonaID string `json:"personaId"`
	Language  string `json:"language"`
	Voice     string `json:"voice"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	sessionID string
	persona   persona.Persona
	language  string
	// voiceOverride 非空时替代 persona 自带的音色
	voiceOverride string
}

func newConnectionState(sessionID string, p persona.Persona, language string) *connectionState {
	return &connectionState{sessionID: sessionID, persona: p, language: language}
}

func (s *connectionState) voice(personaVoice string) string {
	if s.voiceOverride != "" {
		return s.voiceOverride
	}
	return personaVoice
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	active, err := h.desk.Active(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	log := logger.Component("voice").WithField("session", sessionID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("upgrade failed")
		return
	}
	defer conn.Close()

	state := newConnectionState(sessionID, active, h.speech.Language)
	log.WithField("persona", active.ID).Info("voice connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	writes := newWriter(conn, sessionID)
	go h.pingLoop(ctx, writes)

	writes.result(map[string]any{
		"type":        "connected",
		"persona":     active.ID,
		"name":        active.Name,
		"openingLine": active.OpeningLine,
		"voice":       state.voice(active.VoiceID),
		"language":    state.language,
		"sttModel":    h.speech.STTModel,
		"ttsStyle":    h.speech.TTSStyle,
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Warn("read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		var msg inboundMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			writes.fail("invalid message")
			continue
		}

		if msg.SessionID != "" && msg.SessionID != sessionID {
			writes.fail("session mismatch")
			continue
		}
		pauseReadDeadline(conn, readTimeout, func() {
			h.handleMessage(ctx, writes, state, &msg)
		})
	}
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// pauseReadDeadline 在一轮对话期间取消读超时，结束后重新计时。
// 这段时间没有 ReadMessage，pong 不会被处理。
func pauseReadDeadline(conn readDeadliner, timeout time.Duration, turn func()) {
	_ = conn.SetReadDeadline(time.Time{})
	defer func() { _ = conn.SetReadDeadline(time.Now().Add(timeout)) }()
	turn()
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, out frameWriter, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		h.handleTextMessage(ctx, out, state, msg.Data)
	case "config":
		h.handleConfigMessage(ctx, out, state, msg.Data)
	default:
		out.fail("unsupported message type: " + msg.Type)
	}
}

func (h *WebSocketHandler) handleTextMessage(ctx context.Context, out frameWriter, state *connectionState, raw []byte) {
	var text TextMessage
	if err := sonic.Unmarshal(raw, &text); err != nil {
		out.fail("invalid text payload")
		return
	}
	// 只处理最终识别结果
	if text.Text == "" || (text.IsFinal != nil && !*text.IsFinal) {
		return
	}
	h.processUserText(ctx, out, state, text.Text)
}

func (h *WebSocketHandler) processUserText(ctx context.Context, out frameWriter, state *connectionState, userText string) {
	out.result(map[string]any{"type": "user", "text": userText})

	reply, err := h.desk.Say(ctx, state.sessionID, userText)
	if err != nil {
		logger.Component("voice").WithField("session", state.sessionID).WithError(err).Warn("turn failed")
		out.fail(err.Error())
		return
	}

	for _, ev := range reply.Events {
		if ev.Type == conversation.EventHandoff {
			if next, err := h.desk.Active(ctx, state.sessionID); err == nil {
				state.persona = next
			}
			out.result(map[string]any{"type": "handoff", "persona": ev.Name, "openingLine": ev.Text})
			continue
		}
		out.result(map[string]any{"type": "tool", "name": ev.Name, "text": ev.Text})
	}

	out.result(map[string]any{
		"type":     "ai",
		"text":     reply.Text,
		"persona":  reply.PersonaID,
		"voice":    state.voice(reply.Voice),
		"language": state.language,
		"isFinal":  true,
	})
}

func (h *WebSocketHandler) handleConfigMessage(ctx context.Context, out frameWriter, state *connectionState, raw []byte) {
	var cfg ConfigMessage
	if err := sonic.Unmarshal(raw, &cfg); err != nil {
		out.fail("invalid config payload")
		return
	}

	if err := h.applyConfig(ctx, state, cfg); err != nil {
		out.fail(err.Error())
		return
	}

	out.result(map[string]any{
		"type":     "config",
		"persona":  state.persona.ID,
		"language": state.language,
		"voice":    state.voice(state.persona.VoiceID),
	})
}

// applyConfig 更新语言和音色；personaId 变化时重新开始该会话的 persona。
func (h *WebSocketHandler) applyConfig(ctx context.Context, state *connectionState, cfg ConfigMessage) error {
	if cfg.Language != "" {
		state.language = cfg.Language
	}
	if cfg.Voice != "" {
		state.voiceOverride = cfg.Voice
	}
	if cfg.PersonaID != "" && cfg.PersonaID != state.persona.ID {
		next, err := h.desk.Switch(ctx, state.sessionID, cfg.PersonaID)
		if err != nil {
			return err
		}
		state.persona = next
	}
	return nil
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, out *writer) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := out.ping(); err != nil {
				return
			}
		}
	}
}
