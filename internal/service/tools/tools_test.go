package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Word  string `json:"word"`
	Times int    `json:"times"`
}

func newEchoSet() *Set {
	echo := New("echo", "Repeat a word.", Params{
		"word":  {Type: schema.String, Desc: "word to repeat", Required: true},
		"times": {Type: schema.Integer, Desc: "how many times"},
	}, func(_ context.Context, args echoArgs) (Result, error) {
		if args.Times == 0 {
			args.Times = 1
		}
		out := ""
		for i := 0; i < args.Times; i++ {
			out += args.Word
		}
		return Say(out), nil
	})

	broken := New("broken", "Always fails.", nil, func(context.Context, struct{}) (Result, error) {
		return Result{}, errors.New("disk on fire")
	})

	switcher := New("switch_to_quiz", "Switch to quiz.", nil, func(context.Context, struct{}) (Result, error) {
		return Handoff("tutor-quiz", "Switching to quiz mode."), nil
	})

	return NewSet(echo, broken, switcher)
}

func call(name, args string) schema.ToolCall {
	return schema.ToolCall{ID: "call-1", Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func TestDispatchBindsArguments(t *testing.T) {
	set := newEchoSet()

	result := set.Dispatch(context.Background(), call("echo", `{"word":"ha","times":3}`))
	require.Equal(t, "hahaha", result.Text)
	require.Empty(t, result.SwitchTo)

	result = set.Dispatch(context.Background(), call("echo", ""))
	require.Equal(t, "", result.Text)
}

func TestDispatchNeverFails(t *testing.T) {
	set := newEchoSet()
	ctx := context.Background()

	require.Equal(t, unknownToolReply, set.Dispatch(ctx, call("teleport", "{}")).Text)
	require.Equal(t, badArgsReply, set.Dispatch(ctx, call("echo", `{"word":`)).Text)
	require.Equal(t, failedToolReply, set.Dispatch(ctx, call("broken", "{}")).Text)

	var empty *Set
	require.Equal(t, unknownToolReply, empty.Dispatch(ctx, call("echo", "{}")).Text)
}

func TestDispatchHandoff(t *testing.T) {
	result := newEchoSet().Dispatch(context.Background(), call("switch_to_quiz", ""))
	require.Equal(t, "tutor-quiz", result.SwitchTo)
}

func TestInfosKeepRegistrationOrder(t *testing.T) {
	set := newEchoSet()
	require.Equal(t, []string{"echo", "broken", "switch_to_quiz"}, set.Names())

	infos := set.Infos()
	require.Len(t, infos, 3)
	require.NotNil(t, infos[0].ParamsOneOf)
	require.Nil(t, infos[1].ParamsOneOf)
	require.True(t, set.Has("broken"))
	require.False(t, set.Has("missing"))
}
