package desk

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation/convtest"
)

func newDesk(t *testing.T, m *convtest.Model) (*Desk, *chat.Service) {
	t.Helper()
	chatSvc := chat.NewService()
	engine := conversation.NewEngine(m, convtest.Registry(t))
	return New(chatSvc, engine), chatSvc
}

func TestOpenAndSayRecordsTranscript(t *testing.T) {
	d, chatSvc := newDesk(t, convtest.NewModel(schema.AssistantMessage("What can I get you?", nil)))
	ctx := context.Background()

	session, profile, err := d.Open(ctx, persona.Barista, "room-1", "")
	require.NoError(t, err)
	require.Equal(t, persona.Barista, profile.ID)

	reply, err := d.Say(ctx, session.ID, "hello")
	require.NoError(t, err)
	require.Equal(t, "What can I get you?", reply.Text)

	transcript, err := chatSvc.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	require.Equal(t, "user", transcript[0].Sender)
	require.Equal(t, persona.Barista, transcript[1].PersonaID)
}

func TestOpenUnknownPersonaLeavesNoSession(t *testing.T) {
	d, _ := newDesk(t, convtest.NewModel())

	_, _, err := d.Open(context.Background(), "pirate", "", "")
	require.ErrorIs(t, err, conversation.ErrUnknownPersona)
}

func TestSayTracksHandoff(t *testing.T) {
	m := convtest.NewModel(
		schema.AssistantMessage("", []schema.ToolCall{convtest.Call("c1", "switch_to_learn", "{}")}),
		schema.AssistantMessage("Let's learn about variables.", nil),
	)
	d, chatSvc := newDesk(t, m)
	ctx := context.Background()

	session, _, err := d.Open(ctx, persona.Tutor, "", "")
	require.NoError(t, err)

	reply, err := d.Say(ctx, session.ID, "learn")
	require.NoError(t, err)
	require.Equal(t, persona.TutorLearn, reply.PersonaID)

	stored, err := chatSvc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, persona.TutorLearn, stored.PersonaID)

	active, err := d.Active(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, persona.TutorLearn, active.ID)
}

func TestSwitchAndClose(t *testing.T) {
	d, _ := newDesk(t, convtest.NewModel())
	ctx := context.Background()

	session, _, err := d.Open(ctx, persona.Grocery, "", `{"universe":"horror"}`)
	require.NoError(t, err)

	profile, err := d.Switch(ctx, session.ID, persona.GameMaster)
	require.NoError(t, err)
	require.Equal(t, persona.GameMaster, profile.ID)

	require.NoError(t, d.Close(ctx, session.ID))
	_, err = d.Say(ctx, session.ID, "hello?")
	require.ErrorIs(t, err, chat.ErrSessionNotFound)
}
