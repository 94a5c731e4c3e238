package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation/convtest"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
)

func TestRunConsoleSession(t *testing.T) {
	m := convtest.NewModel(
		schema.AssistantMessage("", []schema.ToolCall{convtest.Call("c1", "add_to_cart", `{"item_name":"bread","quantity":1}`)}),
		schema.AssistantMessage("Bread is in your cart.", nil),
	)
	d := desk.New(chat.NewService(), conversation.NewEngine(m, convtest.Registry(t)))

	var out bytes.Buffer
	in := strings.NewReader("add bread\n\n/quit\n")
	require.NoError(t, run(context.Background(), d, in, &out, "grocery", "console", "", time.Second))

	got := out.String()
	require.Contains(t, got, "(add_to_cart) Added 1 Whole Wheat Bread")
	require.Contains(t, got, "[grocery / en-US-matthew] Bread is in your cart.")
}

func TestRunUnknownPersona(t *testing.T) {
	d := desk.New(chat.NewService(), conversation.NewEngine(convtest.NewModel(), convtest.Registry(t)))
	err := run(context.Background(), d, strings.NewReader(""), &bytes.Buffer{}, "pirate", "", "", time.Second)
	require.ErrorIs(t, err, conversation.ErrUnknownPersona)
}
