package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const syntheticCallPrefix = "gemini-call-"

// contentGenerator is the subset of *genai.Models the adapter needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature *float32
}

// GeminiChatModel adapts the Gemini API to eino's ToolCallingChatModel.
type GeminiChatModel struct {
	models      contentGenerator
	model       string
	temperature *float32
	tools       []*genai.Tool
}

var _ model.ToolCallingChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel connects to the Gemini API.
func NewGeminiChatModel(ctx context.Context, cfg GeminiConfig) (*GeminiChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiChatModel{models: client.Models, model: cfg.Model, temperature: cfg.Temperature}, nil
}

// WithTools returns a copy of the model that advertises the given tools.
func (g *GeminiChatModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(infos))
	for _, info := range infos {
		decl := &genai.FunctionDeclaration{Name: info.Name, Description: info.Desc}
		if info.ParamsOneOf != nil {
			js, err := info.ParamsOneOf.ToJSONSchema()
			if err != nil {
				return nil, fmt.Errorf("tool %s schema: %w", info.Name, err)
			}
			decl.ParametersJsonSchema = js
		}
		decls = append(decls, decl)
	}

	clone := *g
	clone.tools = nil
	if len(decls) > 0 {
		clone.tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return &clone, nil
}

// Generate implements model.BaseChatModel.
func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Temperature: g.temperature, Model: &g.model}, opts...)

	system, contents := toGeminiContents(input)
	cfg := &genai.GenerateContentConfig{
		Temperature: options.Temperature,
		Tools:       g.tools,
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	modelName := g.model
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	resp, err := g.models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return fromGeminiResponse(resp)
}

// Stream implements model.BaseChatModel with a single-chunk stream.
func (g *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toGeminiContents(input []*schema.Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	callNames := make(map[string]string)

	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
		case schema.User:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: msg.Content}}})
		case schema.Assistant:
			content := &genai.Content{Role: "model"}
			if msg.Content != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				callNames[call.ID] = call.Function.Name
				args := map[string]any{}
				if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
					_ = sonic.UnmarshalString(raw, &args)
				}
				content.Parts = append(content.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   upstreamID(call.ID),
					Name: call.Function.Name,
					Args: args,
				}})
			}
			if len(content.Parts) > 0 {
				contents = append(contents, content)
			}
		case schema.Tool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       upstreamID(msg.ToolCallID),
				Name:     callNames[msg.ToolCallID],
				Response: map[string]any{"output": msg.Content},
			}}
			// consecutive tool results belong to the same turn
			if n := len(contents); n > 0 && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{part}})
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func isFunctionResponseTurn(content *genai.Content) bool {
	if content.Role != "user" || len(content.Parts) == 0 {
		return false
	}
	for _, part := range content.Parts {
		if part.FunctionResponse == nil {
			return false
		}
	}
	return true
}

func upstreamID(id string) string {
	if strings.HasPrefix(id, syntheticCallPrefix) {
		return ""
	}
	return id
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) (*schema.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no candidates")
	}

	var text strings.Builder
	var calls []schema.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			args, err := sonic.MarshalString(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("encode function args: %w", err)
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("%s%d", syntheticCallPrefix, len(calls))
			}
			calls = append(calls, schema.ToolCall{
				ID:       id,
				Type:     "function",
				Function: schema.FunctionCall{Name: part.FunctionCall.Name, Arguments: args},
			})
			continue
		}
		if part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}

	return schema.AssistantMessage(strings.TrimSpace(text.String()), calls), nil
}
