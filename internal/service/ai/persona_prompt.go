package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
)

// voiceRules are appended to every persona prompt; replies are spoken aloud.
var voiceRules = []string{
	"Your reply is converted to speech, so never use markdown, lists, emojis or special symbols",
	"Keep each turn short and ask at most one question at a time",
	"Use the provided tools instead of inventing results, and never read raw tool output verbatim if it is long",
}

// BuildSystemPrompt combines persona instructions with the profile and the
// shared voice rules.
func BuildSystemPrompt(profile persona.Persona, instructions string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\nPersona:\n")
	fmt.Fprintf(&b, "- Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "- Role: %s\n", profile.Title)
	if profile.Tone != "" {
		fmt.Fprintf(&b, "- Tone: %s\n", profile.Tone)
	}
	if profile.OpeningLine != "" {
		fmt.Fprintf(&b, "- Opening line: %s\n", profile.OpeningLine)
	}
	b.WriteString("\nVoice rules:\n- ")
	b.WriteString(strings.Join(voiceRules, "\n- "))
	return b.String()
}

// NewConversationTemplate 构建 system + 历史消息的对话模板。
func NewConversationTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)
}

// RenderConversation formats the template for one model call.
func RenderConversation(ctx context.Context, tpl prompt.ChatTemplate, system string, history []*schema.Message) ([]*schema.Message, error) {
	messages, err := tpl.Format(ctx, map[string]any{
		"system":  system,
		"history": history,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render conversation: %w", err)
	}
	return messages, nil
}
