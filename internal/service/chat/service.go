package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/voicedesk/backend/internal/model/chat"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrSessionNotFound = errors.New("session not found")
)

const (
	sessionKeyPrefix  = "session:"
	activeSessionsKey = "active_sessions"
)

// Option customises the Service.
type Option func(*Service)

// WithRedis 将会话元信息镜像到 redis，便于多实例查看在线会话。
// client 为 nil 时退化为纯内存。
func WithRedis(client *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.redis = client
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service encapsulates conversation state management.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message

	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
	log   *logrus.Entry
}

// NewService bootstraps the in-memory chat service.
func NewService(opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		ttl:      30 * time.Minute,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Component("chat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions an anonymous session bound to a persona and room.
func (s *Service) CreateSession(ctx context.Context, personaID, room, metadata string) (chat.Session, error) {
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		Room:      room,
		Metadata:  metadata,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	s.mirror(ctx, session)
	return session, nil
}

// SetPersona 记录 handoff 之后的当前 persona。
func (s *Service) SetPersona(ctx context.Context, sessionID, personaID string) error {
	if personaID == "" {
		return ErrPersonaRequired
	}

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	session.PersonaID = personaID
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.mirror(ctx, session)
	return nil
}

// SaveMessage appends a message to the session history.
func (s *Service) SaveMessage(ctx context.Context, message chat.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	if _, ok := s.sessions[message.SessionID]; !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now()
	}
	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	s.mu.Unlock()

	s.touch(ctx, message.SessionID)
	return nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// CloseSession drops the session and its transcript.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	delete(s.messages, sessionID)
	s.mu.Unlock()

	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("redis del failed")
	}
	if err := s.redis.SRem(ctx, activeSessionsKey, sessionID).Err(); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("redis srem failed")
	}
	return nil
}

// redis 只是镜像，写失败不影响主流程
func (s *Service) mirror(ctx context.Context, session chat.Session) {
	if s.redis == nil {
		return
	}

	key := sessionKeyPrefix + session.ID
	fields := map[string]interface{}{
		"persona_id": session.PersonaID,
		"room":       session.Room,
		"metadata":   session.Metadata,
		"created_at": session.CreatedAt.Format(time.RFC3339),
	}
	if err := s.redis.HSet(ctx, key, fields).Err(); err != nil {
		s.log.WithError(err).WithField("session", session.ID).Warn("redis hset failed")
		return
	}
	if err := s.redis.SAdd(ctx, activeSessionsKey, session.ID).Err(); err != nil {
		s.log.WithError(err).WithField("session", session.ID).Warn("redis sadd failed")
	}
	s.redis.Expire(ctx, key, s.ttl)
}

func (s *Service) touch(ctx context.Context, sessionID string) {
	if s.redis == nil {
		return
	}
	key := sessionKeyPrefix + sessionID
	if err := s.redis.HSet(ctx, key, "last_activity", s.now().Format(time.RFC3339)).Err(); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Debug("redis touch failed")
		return
	}
	s.redis.Expire(ctx, key, s.ttl)
}
