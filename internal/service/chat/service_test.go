package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	modelchat "github.com/zhouzirui/voicedesk/backend/internal/model/chat"
	chat "github.com/zhouzirui/voicedesk/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "barista", "room-1", `{"universe":"cyberpunk"}`)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.PersonaID != "barista" || got.Room != "room-1" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestServiceCreateSessionRequiresPersona(t *testing.T) {
	svc := chat.NewService()
	_, err := svc.CreateSession(context.Background(), "", "", "")
	require.ErrorIs(t, err, chat.ErrPersonaRequired)
}

func TestServiceTranscript(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "tutor", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.SaveMessage(ctx, modelchat.Message{SessionID: session.ID, Sender: "user", Content: "hi"}))
	require.NoError(t, svc.SaveMessage(ctx, modelchat.Message{SessionID: session.ID, Sender: "assistant", Content: "hello", PersonaID: "tutor"}))
	require.ErrorIs(t, svc.SaveMessage(ctx, modelchat.Message{SessionID: "nope"}), chat.ErrSessionNotFound)

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	require.NotEmpty(t, transcript[0].ID)
	require.Equal(t, "hello", transcript[1].Content)

	transcript[0].Content = "mutated"
	again, err := svc.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, "hi", again[0].Content)
}

func TestServiceRedisMirror(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	fixed := time.Date(2025, 11, 24, 9, 30, 0, 0, time.UTC)
	svc := chat.NewService(chat.WithRedis(client, 10*time.Minute), chat.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "tutor", "room-7", "")
	require.NoError(t, err)

	key := "session:" + session.ID
	require.Equal(t, "tutor", mr.HGet(key, "persona_id"))
	require.Equal(t, "room-7", mr.HGet(key, "room"))
	require.Equal(t, 10*time.Minute, mr.TTL(key))

	members, err := mr.Members("active_sessions")
	require.NoError(t, err)
	require.Equal(t, []string{session.ID}, members)

	require.NoError(t, svc.SetPersona(ctx, session.ID, "tutor-quiz"))
	require.Equal(t, "tutor-quiz", mr.HGet(key, "persona_id"))

	require.NoError(t, svc.CloseSession(ctx, session.ID))
	require.False(t, mr.Exists(key))
	require.ErrorIs(t, svc.CloseSession(ctx, session.ID), chat.ErrSessionNotFound)

	_, err = svc.GetSession(ctx, session.ID)
	require.ErrorIs(t, err, chat.ErrSessionNotFound)
}
