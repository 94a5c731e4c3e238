// Package desk 把会话登记（chat）和对话引擎（conversation）串起来，
// 供 HTTP、SSE 和 WebSocket 入口共用。
package desk

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/personas"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
	modelchat "github.com/zhouzirui/voicedesk/backend/internal/model/chat"
)

// Desk owns the lifecycle of a voice session.
type Desk struct {
	chat   *chat.Service
	engine *conversation.Engine
}

// New creates a Desk.
func New(chatSvc *chat.Service, engine *conversation.Engine) *Desk {
	return &Desk{chat: chatSvc, engine: engine}
}

// Open registers a session and starts its first persona.
func (d *Desk) Open(ctx context.Context, personaID, room, metadata string) (modelchat.Session, persona.Persona, error) {
	session, err := d.chat.CreateSession(ctx, personaID, room, metadata)
	if err != nil {
		return modelchat.Session{}, persona.Persona{}, err
	}

	profile, err := d.engine.Open(session.ID, personaID, initFor(session))
	if err != nil {
		_ = d.chat.CloseSession(ctx, session.ID)
		return modelchat.Session{}, persona.Persona{}, err
	}
	return session, profile, nil
}

// Active returns the persona currently speaking in the session.
func (d *Desk) Active(ctx context.Context, sessionID string) (persona.Persona, error) {
	if _, err := d.chat.GetSession(ctx, sessionID); err != nil {
		return persona.Persona{}, err
	}
	profile, ok := d.engine.Active(sessionID)
	if !ok {
		return persona.Persona{}, chat.ErrSessionNotFound
	}
	return profile, nil
}

// Switch restarts the session on another persona with fresh state.
func (d *Desk) Switch(ctx context.Context, sessionID, personaID string) (persona.Persona, error) {
	session, err := d.chat.GetSession(ctx, sessionID)
	if err != nil {
		return persona.Persona{}, err
	}
	profile, err := d.engine.Open(sessionID, personaID, initFor(session))
	if err != nil {
		return persona.Persona{}, err
	}
	if err := d.chat.SetPersona(ctx, sessionID, personaID); err != nil {
		return persona.Persona{}, err
	}
	return profile, nil
}

// Say runs one user utterance through the active persona and records both
// sides of the exchange.
func (d *Desk) Say(ctx context.Context, sessionID, text string) (*conversation.Reply, error) {
	session, err := d.chat.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := d.chat.SaveMessage(ctx, modelchat.Message{SessionID: sessionID, Sender: "user", Content: text}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	reply, err := d.engine.Turn(ctx, sessionID, text)
	if errors.Is(err, conversation.ErrSessionNotFound) {
		return nil, chat.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	log := logger.Component("desk").WithFields(logrus.Fields{"session": sessionID, "persona": reply.PersonaID})
	assistant := modelchat.Message{SessionID: sessionID, Sender: "assistant", Content: reply.Text, PersonaID: reply.PersonaID}
	if err := d.chat.SaveMessage(ctx, assistant); err != nil {
		log.WithError(err).Warn("save assistant message failed")
	}
	if reply.PersonaID != session.PersonaID {
		if err := d.chat.SetPersona(ctx, sessionID, reply.PersonaID); err != nil {
			log.WithError(err).Warn("record handoff failed")
		}
	}
	return reply, nil
}

// Close ends the session everywhere.
func (d *Desk) Close(ctx context.Context, sessionID string) error {
	d.engine.Close(sessionID)
	return d.chat.CloseSession(ctx, sessionID)
}

func initFor(session modelchat.Session) personas.Init {
	init := personas.ParseMetadata(session.Metadata)
	init.Room = session.Room
	return init
}
