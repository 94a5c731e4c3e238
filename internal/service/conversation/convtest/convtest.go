// Package convtest provides a scripted chat model and a ready registry for
// tests of packages that sit on top of the conversation engine.
package convtest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
	"github.com/zhouzirui/voicedesk/backend/internal/service/fraud"
	"github.com/zhouzirui/voicedesk/backend/internal/service/personas"
	"github.com/zhouzirui/voicedesk/backend/internal/service/records"
)

// Model replays queued assistant messages. When the queue is empty it echoes
// the last user message back.
type Model struct {
	mu      sync.Mutex
	replies []*schema.Message
	// Err, when set, fails every Generate call.
	Err error
}

// NewModel queues replies in order.
func NewModel(replies ...*schema.Message) *Model {
	return &Model{replies: replies}
}

// Push queues more replies.
func (m *Model) Push(replies ...*schema.Message) {
	m.mu.Lock()
	m.replies = append(m.replies, replies...)
	m.mu.Unlock()
}

func (m *Model) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.replies) > 0 {
		next := m.replies[0]
		m.replies = m.replies[1:]
		return next, nil
	}
	for i := len(input) - 1; i >= 0; i-- {
		if input[i].Role == schema.User {
			return schema.AssistantMessage("echo: "+input[i].Content, nil), nil
		}
	}
	return schema.AssistantMessage("", nil), nil
}

func (m *Model) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *Model) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// Call builds a tool call for scripted replies.
func Call(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}

// Registry builds a registry over seeded personas with records in a temp dir.
func Registry(t *testing.T) *personas.Registry {
	t.Helper()
	dir := t.TempDir()
	return personas.NewRegistry(persona.NewMemoryStore(persona.Seed()), personas.Deps{
		Reference: reference.Defaults(),
		Records: records.NewStore(records.Config{
			OrdersDir:       filepath.Join(dir, "orders"),
			LeadsDir:        filepath.Join(dir, "leads"),
			GameSessionsDir: filepath.Join(dir, "game_sessions"),
			WellnessLogPath: filepath.Join(dir, "wellness_log.json"),
		}),
		Fraud: fraud.NewMemoryStore(fraud.DemoCases()...),
	})
}
