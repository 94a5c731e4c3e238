package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	chatservice "github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation/convtest"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
)

func setupRouter(t *testing.T) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService()
	engine := conversation.NewEngine(convtest.NewModel(), convtest.Registry(t))
	handler := New(chatSvc, desk.New(chatSvc, engine))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func post(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSessionValidPersona(t *testing.T) {
	r, chatSvc := setupRouter(t)

	resp := post(r, "/session", map[string]string{"personaId": "gamemaster", "room": "r1", "metadata": `{"universe":"space"}`})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var got struct {
		ID      string `json:"id"`
		Room    string `json:"room"`
		Persona struct {
			ID          string `json:"id"`
			OpeningLine string `json:"openingLine"`
		} `json:"persona"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Equal(t, "r1", got.Room)
	require.Equal(t, "gamemaster", got.Persona.ID)
	require.NotEmpty(t, got.Persona.OpeningLine)

	_, err := chatSvc.GetSession(t.Context(), got.ID)
	require.NoError(t, err)
}

func TestCreateSessionInvalidPersona(t *testing.T) {
	r, _ := setupRouter(t)

	resp := post(r, "/session", map[string]string{"personaId": "non-existent"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionMissingPersonaID(t *testing.T) {
	r, _ := setupRouter(t)

	resp := post(r, "/session", map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSaveMessageUnknownSession(t *testing.T) {
	r, _ := setupRouter(t)

	resp := post(r, "/messages", map[string]string{"sessionId": "missing", "sender": "user", "content": "hi"})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTranscriptAndClose(t *testing.T) {
	r, chatSvc := setupRouter(t)

	session, err := chatSvc.CreateSession(t.Context(), "barista", "", "")
	require.NoError(t, err)

	resp := post(r, "/messages", map[string]string{"sessionId": session.ID, "sender": "user", "content": "latte"})
	require.Equal(t, http.StatusAccepted, resp.Code)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/messages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "latte")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/session/"+session.ID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session/"+session.ID, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
