package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
	"github.com/zhouzirui/voicedesk/backend/internal/service/fraud"
	"github.com/zhouzirui/voicedesk/backend/internal/service/personas"
	"github.com/zhouzirui/voicedesk/backend/internal/service/records"
)

// scriptedModel replays canned assistant messages and records every call.
type scriptedModel struct {
	mu      sync.Mutex
	replies []*schema.Message
	err     error
	inputs  [][]*schema.Message
	bound   [][]string
	tools   []string
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
	m.bound = append(m.bound, m.tools)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return schema.AssistantMessage("(no script)", nil), nil
	}
	next := m.replies[0]
	m.replies = m.replies[1:]
	return next, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	m.mu.Lock()
	m.tools = names
	m.mu.Unlock()
	return m, nil
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func newEngine(t *testing.T, chatModel model.ToolCallingChatModel, opts ...Option) *Engine {
	t.Helper()
	dir := t.TempDir()
	registry := personas.NewRegistry(persona.NewMemoryStore(persona.Seed()), personas.Deps{
		Reference: reference.Defaults(),
		Records: records.NewStore(records.Config{
			OrdersDir:       filepath.Join(dir, "orders"),
			WellnessLogPath: filepath.Join(dir, "wellness_log.json"),
		}),
		Fraud: fraud.NewMemoryStore(fraud.DemoCases()...),
	})
	return NewEngine(chatModel, registry, opts...)
}

func TestTurnRunsToolLoop(t *testing.T) {
	chat := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{toolCall("c1", "add_to_cart", `{"item_name":"Whole Milk","quantity":2}`)}),
		schema.AssistantMessage("Two whole milks are in your cart.", nil),
	}}
	engine := newEngine(t, chat)

	_, err := engine.Open("s1", persona.Grocery, personas.Init{})
	require.NoError(t, err)

	reply, err := engine.Turn(context.Background(), "s1", "two milks please")
	require.NoError(t, err)
	require.Equal(t, "Two whole milks are in your cart.", reply.Text)
	require.Equal(t, persona.Grocery, reply.PersonaID)
	require.Equal(t, "en-US-matthew", reply.Voice)
	require.Equal(t, []Event{{Type: EventTool, Name: "add_to_cart", Text: "Added 2 Whole Milk to your cart for $8.58."}}, reply.Events)

	require.Len(t, chat.inputs, 2)
	second := chat.inputs[1]
	require.Equal(t, schema.System, second[0].Role)
	last := second[len(second)-1]
	require.Equal(t, schema.Tool, last.Role)
	require.Equal(t, "c1", last.ToolCallID)
	require.Contains(t, chat.bound[0], "place_order")
}

func TestTurnHandoffSwapsPersona(t *testing.T) {
	chat := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{toolCall("c1", "switch_to_quiz", "{}")}),
		schema.AssistantMessage("Quiz time! Variables or loops?", nil),
	}}
	engine := newEngine(t, chat)

	_, err := engine.Open("s1", persona.Tutor, personas.Init{})
	require.NoError(t, err)

	reply, err := engine.Turn(context.Background(), "s1", "quiz me")
	require.NoError(t, err)
	require.Equal(t, persona.TutorQuiz, reply.PersonaID)
	require.Equal(t, "en-US-alicia", reply.Voice)
	require.Len(t, reply.Events, 2)
	require.Equal(t, EventHandoff, reply.Events[1].Type)
	require.Equal(t, persona.TutorQuiz, reply.Events[1].Name)

	// the follow-up call runs with the quiz persona's tools and the full transcript
	require.Equal(t, []string{"switch_to_learn", "switch_to_teach_back"}, chat.bound[1])
	require.Contains(t, chat.inputs[1][0].Content, "You are Alicia")
	require.Equal(t, "quiz me", chat.inputs[1][1].Content)

	active, ok := engine.Active("s1")
	require.True(t, ok)
	require.Equal(t, persona.TutorQuiz, active.ID)
}

func TestTurnStopsAtRoundLimit(t *testing.T) {
	loop := schema.AssistantMessage("", []schema.ToolCall{toolCall("c", "view_cart", "{}")})
	chat := &scriptedModel{replies: []*schema.Message{loop, loop, loop}}
	engine := newEngine(t, chat, WithMaxToolRounds(2))

	_, err := engine.Open("s1", persona.Grocery, personas.Init{})
	require.NoError(t, err)

	reply, err := engine.Turn(context.Background(), "s1", "what's in my cart")
	require.NoError(t, err)
	require.Equal(t, "Your cart is empty!", reply.Text)
	require.Len(t, chat.inputs, 2)
	require.Len(t, reply.Events, 2)
}

func TestTurnErrors(t *testing.T) {
	engine := newEngine(t, &scriptedModel{err: errors.New("quota exceeded")})

	_, err := engine.Turn(context.Background(), "missing", "hi")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = engine.Open("s1", "pirate", personas.Init{})
	require.ErrorIs(t, err, ErrUnknownPersona)

	_, err = engine.Open("s1", persona.Barista, personas.Init{})
	require.NoError(t, err)
	_, err = engine.Turn(context.Background(), "s1", "latte")
	require.ErrorContains(t, err, "quota exceeded")

	noModel := newEngine(t, nil)
	_, err = noModel.Open("s2", persona.Barista, personas.Init{})
	require.NoError(t, err)
	_, err = noModel.Turn(context.Background(), "s2", "hi")
	require.ErrorIs(t, err, ErrModelUnavailable)

	engine.Close("s1")
	_, ok := engine.Active("s1")
	require.False(t, ok)
}

func TestGameMasterCountsTurns(t *testing.T) {
	chat := &scriptedModel{}
	engine := newEngine(t, chat)

	_, err := engine.Open("s1", persona.GameMaster, personas.ParseMetadata(`{"universe":"horror"}`))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := engine.Turn(context.Background(), "s1", "I open the door")
		require.NoError(t, err)
	}

	s, ok := engine.lookup("s1")
	require.True(t, ok)
	game := s.active.State.(*personas.GameSession)
	require.Equal(t, "horror", game.Universe)
	require.Equal(t, 2, game.Turns)
}

func TestTrimHistoryStartsOnUserMessage(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("a"),
		schema.AssistantMessage("", []schema.ToolCall{toolCall("1", "x", "{}")}),
		schema.ToolMessage("r", "1"),
		schema.AssistantMessage("b", nil),
		schema.UserMessage("c"),
		schema.AssistantMessage("d", nil),
	}

	trimmed := trimHistory(history, 4)
	require.Len(t, trimmed, 2)
	require.Equal(t, "c", trimmed[0].Content)
	require.Len(t, trimHistory(history, 10), 6)
}
