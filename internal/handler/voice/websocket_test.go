package voice

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voicedesk/backend/internal/config"
	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation/convtest"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
)

var speechCfg = config.SpeechConfig{STTModel: "nova-3", TTSVoice: "en-US-matthew", TTSStyle: "Conversation", Language: "en-US"}

func newDesk(t *testing.T, m *convtest.Model) *desk.Desk {
	return desk.New(chatservice.NewService(), conversation.NewEngine(m, convtest.Registry(t)))
}

type frame struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func dial(t *testing.T, d *desk.Desk, sessionID string) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	NewWebSocketHandler(d, speechCfg).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/voice/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestVoiceSessionRoundTrip(t *testing.T) {
	m := convtest.NewModel(
		schema.AssistantMessage("", []schema.ToolCall{convtest.Call("c1", "switch_to_teach_back", "{}")}),
		schema.AssistantMessage("Go ahead and explain loops to me.", nil),
	)
	d := newDesk(t, m)
	session, _, err := d.Open(context.Background(), persona.Tutor, "room", "")
	require.NoError(t, err)

	conn := dial(t, d, session.ID)

	connected := read(t, conn)
	require.Equal(t, "result", connected.Type)
	require.Equal(t, "connected", connected.Data["type"])
	require.Equal(t, persona.Tutor, connected.Data["persona"])
	require.Equal(t, "nova-3", connected.Data["sttModel"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "data": map[string]any{"text": "let me teach you"}}))

	var kinds []string
	var last frame
	for len(kinds) < 4 {
		last = read(t, conn)
		kinds = append(kinds, last.Data["type"].(string))
	}
	require.Equal(t, []string{"user", "tool", "handoff", "ai"}, kinds)
	require.Equal(t, "Go ahead and explain loops to me.", last.Data["text"])
	require.Equal(t, persona.TutorTeachBack, last.Data["persona"])
	require.Equal(t, "en-US-ken", last.Data["voice"])
}

func TestVoiceRejectsUnknownSession(t *testing.T) {
	r := chi.NewRouter()
	NewWebSocketHandler(newDesk(t, convtest.NewModel()), speechCfg).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/voice/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, 404, resp.StatusCode)
}

func TestVoiceUnsupportedMessage(t *testing.T) {
	d := newDesk(t, convtest.NewModel())
	session, _, err := d.Open(context.Background(), persona.Barista, "", "")
	require.NoError(t, err)

	conn := dial(t, d, session.ID)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "audio"}))
	f := read(t, conn)
	require.Equal(t, "error", f.Type)
	require.Contains(t, f.Data["message"], "unsupported message type")
}

func TestApplyConfigUpdatesState(t *testing.T) {
	d := newDesk(t, convtest.NewModel())
	ctx := context.Background()
	session, profile, err := d.Open(ctx, persona.Barista, "", "")
	require.NoError(t, err)

	state := newConnectionState(session.ID, profile, "en-US")
	handler := NewWebSocketHandler(d, speechCfg)

	require.NoError(t, handler.applyConfig(ctx, state, ConfigMessage{
		PersonaID: persona.Wellness,
		Language:  "en-GB",
		Voice:     "en-GB-amelia",
	}))

	if state.language != "en-GB" {
		t.Fatalf("expected language en-GB, got %s", state.language)
	}
	if state.persona.ID != persona.Wellness {
		t.Fatalf("expected persona wellness, got %s", state.persona.ID)
	}
	if got := state.voice(state.persona.VoiceID); got != "en-GB-amelia" {
		t.Fatalf("expected voice override, got %s", got)
	}

	active, err := d.Active(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, persona.Wellness, active.ID)

	require.Error(t, handler.applyConfig(ctx, state, ConfigMessage{PersonaID: "pirate"}))
}

type deadlineRecorder struct {
	deadlines []time.Time
}

func (d *deadlineRecorder) SetReadDeadline(t time.Time) error {
	d.deadlines = append(d.deadlines, t)
	return nil
}

func TestPauseReadDeadlineDuringTurn(t *testing.T) {
	rec := &deadlineRecorder{}
	var duringTurn []time.Time

	start := time.Now()
	pauseReadDeadline(rec, time.Minute, func() {
		duringTurn = append(duringTurn, rec.deadlines...)
	})

	require.Len(t, duringTurn, 1)
	require.True(t, duringTurn[0].IsZero())
	require.Len(t, rec.deadlines, 2)
	require.False(t, rec.deadlines[1].Before(start.Add(time.Minute)))
}
