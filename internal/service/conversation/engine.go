// Package conversation runs persona sessions: it feeds recognized user text to
// the chat model, dispatches the tool calls it requests and swaps the active
// persona when a tool hands the session off.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/ai"
	"github.com/zhouzirui/voicedesk/backend/internal/service/personas"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

var (
	// ErrSessionNotFound is returned for turns against an unknown session.
	ErrSessionNotFound = errors.New("conversation session not found")
	// ErrUnknownPersona is returned when opening a session for an unknown persona.
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrModelUnavailable is returned when no chat model is configured.
	ErrModelUnavailable = errors.New("chat model unavailable")
)

const (
	defaultMaxToolRounds = 4
	defaultHistoryLimit  = 40
)

// Event types reported alongside a reply.
const (
	EventTool    = "tool"
	EventHandoff = "handoff"
)

// Event describes something that happened while producing a reply.
type Event struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// Reply is the outcome of one user turn.
type Reply struct {
	Text      string  `json:"text"`
	PersonaID string  `json:"personaId"`
	Voice     string  `json:"voice"`
	Events    []Event `json:"events,omitempty"`
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMaxToolRounds bounds model calls per user turn.
func WithMaxToolRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRounds = n
		}
	}
}

// WithHistoryLimit bounds the number of transcript messages sent to the model.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}

// Engine owns every live conversation.
type Engine struct {
	chatModel    model.ToolCallingChatModel
	registry     *personas.Registry
	template     prompt.ChatTemplate
	maxRounds    int
	historyLimit int

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu      sync.Mutex
	id      string
	init    personas.Init
	active  *personas.Definition
	history []*schema.Message
}

// NewEngine creates an Engine. chatModel may be nil, in which case sessions
// can be opened but turns fail with ErrModelUnavailable.
func NewEngine(chatModel model.ToolCallingChatModel, registry *personas.Registry, opts ...Option) *Engine {
	e := &Engine{
		chatModel:    chatModel,
		registry:     registry,
		template:     ai.NewConversationTemplate(),
		maxRounds:    defaultMaxToolRounds,
		historyLimit: defaultHistoryLimit,
		sessions:     make(map[string]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open starts (or restarts) a session with a fresh persona state.
func (e *Engine) Open(sessionID, personaID string, init personas.Init) (persona.Persona, error) {
	def, ok := e.registry.Build(personaID, init)
	if !ok {
		return persona.Persona{}, fmt.Errorf("%w: %s", ErrUnknownPersona, personaID)
	}

	e.mu.Lock()
	e.sessions[sessionID] = &session{id: sessionID, init: init, active: def}
	e.mu.Unlock()

	logger.Component("conversation").WithFields(logrus.Fields{
		"session": sessionID,
		"persona": personaID,
		"room":    init.Room,
	}).Info("session opened")
	return def.Profile, nil
}

// Close discards a session and its state.
func (e *Engine) Close(sessionID string) {
	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.mu.Unlock()
}

// Active returns the persona currently driving the session.
func (e *Engine) Active(sessionID string) (persona.Persona, bool) {
	s, ok := e.lookup(sessionID)
	if !ok {
		return persona.Persona{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Profile, true
}

func (e *Engine) lookup(sessionID string) (*session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[sessionID]
	return s, ok
}

// Turn processes one user utterance. Turns on the same session are
// serialized; tool calls run one at a time in the order the model issued them.
func (e *Engine) Turn(ctx context.Context, sessionID, text string) (*Reply, error) {
	s, ok := e.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.chatModel == nil {
		return nil, ErrModelUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.Component("conversation").WithField("session", sessionID)

	if s.active.OnUserTurn != nil {
		s.active.OnUserTurn(text)
	}
	s.history = append(s.history, schema.UserMessage(text))

	reply := &Reply{}
	var lastToolText string

	for round := 0; round < e.maxRounds; round++ {
		msg, err := e.generate(ctx, s)
		if err != nil {
			return nil, err
		}
		s.history = append(s.history, msg)

		if len(msg.ToolCalls) == 0 {
			reply.Text = msg.Content
			e.finish(s, reply)
			return reply, nil
		}

		// calls in one message run against the persona that issued them
		issuer := s.active
		for _, call := range msg.ToolCalls {
			result := issuer.Tools.Dispatch(ctx, call)
			s.history = append(s.history, schema.ToolMessage(result.Text, call.ID))
			reply.Events = append(reply.Events, Event{Type: EventTool, Name: call.Function.Name, Text: result.Text})
			lastToolText = result.Text

			if result.SwitchTo == "" {
				continue
			}
			next, ok := e.registry.Build(result.SwitchTo, s.init)
			if !ok {
				log.WithField("target", result.SwitchTo).Warn("handoff to unknown persona ignored")
				continue
			}
			log.WithFields(logrus.Fields{"from": s.active.ID(), "to": next.ID()}).Info("persona handoff")
			s.active = next
			reply.Events = append(reply.Events, Event{Type: EventHandoff, Name: next.ID(), Text: next.Profile.OpeningLine})
		}
	}

	// round limit reached; speak the last tool output
	log.WithField("rounds", e.maxRounds).Warn("tool round limit reached")
	reply.Text = lastToolText
	s.history = append(s.history, schema.AssistantMessage(lastToolText, nil))
	e.finish(s, reply)
	return reply, nil
}

func (e *Engine) finish(s *session, reply *Reply) {
	reply.PersonaID = s.active.ID()
	reply.Voice = s.active.Voice()
}

func (e *Engine) generate(ctx context.Context, s *session) (*schema.Message, error) {
	chatModel := e.chatModel
	if infos := s.active.Tools.Infos(); len(infos) > 0 {
		bound, err := e.chatModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("bind tools for %s: %w", s.active.ID(), err)
		}
		chatModel = bound
	}

	system := ai.BuildSystemPrompt(s.active.Profile, s.active.Instructions)
	input, err := ai.RenderConversation(ctx, e.template, system, trimHistory(s.history, e.historyLimit))
	if err != nil {
		return nil, err
	}

	msg, err := chatModel.Generate(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}
	if msg == nil {
		return nil, errors.New("failed to generate reply: empty message")
	}
	return msg, nil
}

// trimHistory keeps at most limit messages and always starts on a user
// message so tool results are never separated from their calls.
func trimHistory(history []*schema.Message, limit int) []*schema.Message {
	if len(history) <= limit {
		return history
	}
	start := len(history) - limit
	for start < len(history) && history[start].Role != schema.User {
		start++
	}
	if start == len(history) {
		return history[len(history)-limit:]
	}
	return history[start:]
}
