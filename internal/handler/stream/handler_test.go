package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation/convtest"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
)

func newHandler(t *testing.T, m *convtest.Model) (*Handler, *desk.Desk) {
	chatSvc := chatservice.NewService()
	d := desk.New(chatSvc, conversation.NewEngine(m, convtest.Registry(t)))
	return New(d), d
}

func eventNames(body string) []string {
	var names []string
	for _, line := range strings.Split(body, "\n") {
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
		}
	}
	return names
}

func TestStreamReportsToolsAndHandoff(t *testing.T) {
	m := convtest.NewModel(
		schema.AssistantMessage("", []schema.ToolCall{convtest.Call("c1", "switch_to_quiz", "{}")}),
		schema.AssistantMessage("Quiz time.", nil),
	)
	handler, d := newHandler(t, m)
	ctx := context.Background()

	session, _, err := d.Open(ctx, persona.Tutor, "", "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, handler.HandleStreamRequest(ctx, rec, session.ID, "quiz me"))

	require.Equal(t, []string{"start", "tool", "handoff", "message", "end"}, eventNames(rec.Body.String()))
	require.Contains(t, rec.Body.String(), `"voice":"en-US-alicia"`)
	require.Contains(t, rec.Body.String(), "Quiz time.")
}

func TestStreamUnknownSession(t *testing.T) {
	handler, _ := newHandler(t, convtest.NewModel())

	rec := httptest.NewRecorder()
	err := handler.HandleStreamRequest(context.Background(), rec, "missing", "hi")
	require.ErrorIs(t, err, chatservice.ErrSessionNotFound)
	require.Equal(t, []string{"error"}, eventNames(rec.Body.String()))
}

func TestStreamModelFailureBecomesErrorEvent(t *testing.T) {
	m := convtest.NewModel()
	m.Err = errors.New("upstream down")
	handler, d := newHandler(t, m)
	ctx := context.Background()

	session, _, err := d.Open(ctx, persona.Barista, "", "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, handler.HandleStreamRequest(ctx, rec, session.ID, "latte"))
	require.Equal(t, []string{"start", "error"}, eventNames(rec.Body.String()))
	require.Contains(t, rec.Body.String(), "upstream down")
}
