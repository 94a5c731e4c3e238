package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/voicedesk/backend/internal/config"
	"github.com/zhouzirui/voicedesk/backend/internal/handler/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/handler/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/handler/stream"
	"github.com/zhouzirui/voicedesk/backend/internal/handler/voice"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
	"github.com/zhouzirui/voicedesk/backend/pkg/utils"
	chatService "github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	middlewarePkg "github.com/zhouzirui/voicedesk/backend/internal/middleware"
	personaModel "github.com/zhouzirui/voicedesk/backend/internal/model/persona"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, d *desk.Desk, speech config.SpeechConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	streamHandler := stream.New(d)

	r.Route("/api", func(api chi.Router) {
		persona.New(personas).RegisterRoutes(api)
		chat.New(chatSvc, d).RegisterRoutes(api)
		voice.NewWebSocketHandler(d, speech).RegisterRoutes(api)

		// 每个请求处理一句用户输入，结果以 SSE 返回
		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				logger.Component("stream").WithField("session", sessionID).WithError(err).Warn("stream request failed")
			}
		})
	})

	return r
}
