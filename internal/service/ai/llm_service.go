package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/voicedesk/backend/internal/config"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

// NewChatModel creates the tool-calling chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.ToolCallingChatModel, error) {
	log := logger.Component("ai").WithField("provider", cfg.Provider)

	switch cfg.Provider {
	case config.ProviderGemini:
		chatModel, err := NewGeminiChatModel(ctx, GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: toFloat32(cfg.Temperature),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini chat model: %w", err)
		}
		log.WithField("model", cfg.GeminiModel).Info("chat model ready")
		return chatModel, nil
	case config.ProviderArk, "":
		arkCfg, err := cfg.ArkChatModelConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create ark chat model: %w", err)
		}
		chatModel, err := NewArkChatModel(ctx, arkCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create ark chat model: %w", err)
		}
		log.WithField("model", cfg.Model).Info("chat model ready")
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	out := float32(*v)
	return &out
}
