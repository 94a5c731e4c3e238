// Package app assembles the services shared by the API server and the
// console driver.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/voicedesk/backend/internal/config"
	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/ai"
	"github.com/zhouzirui/voicedesk/backend/internal/service/chat"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
	"github.com/zhouzirui/voicedesk/backend/internal/service/fraud"
	"github.com/zhouzirui/voicedesk/backend/internal/service/personas"
	"github.com/zhouzirui/voicedesk/backend/internal/service/records"
	"github.com/zhouzirui/voicedesk/backend/internal/service/reference"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

// App holds the wired services.
type App struct {
	Profiles persona.Store
	Registry *personas.Registry
	Chat     *chat.Service
	Engine   *conversation.Engine
	Desk     *desk.Desk

	closers []func() error
}

// Build wires every service from configuration. Optional backends (redis,
// the fraud database, the chat model) degrade with a warning.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.Component("app")
	a := &App{}

	data := reference.Load(reference.Paths{
		Catalog:      cfg.Data.CatalogPath,
		TutorContent: cfg.Data.TutorContentPath,
		FAQ:          cfg.Data.FAQPath,
	})

	store := records.NewStore(records.Config{
		OrdersDir:       cfg.Data.OrdersDir,
		LeadsDir:        cfg.Data.LeadsDir,
		GameSessionsDir: cfg.Data.GameSessionsDir,
		WellnessLogPath: cfg.Data.WellnessLogPath,
	})

	cases, err := a.openFraudStore(cfg.Fraud)
	if err != nil {
		return nil, err
	}

	a.Profiles = persona.NewMemoryStore(persona.Seed())
	a.Registry = personas.NewRegistry(a.Profiles, personas.Deps{
		Reference: data,
		Records:   store,
		Fraud:     cases,
	})

	a.Chat = chat.NewService(a.chatOptions(ctx, cfg.Redis)...)

	var chatModel model.ToolCallingChatModel
	if cfg.AI.Enabled() {
		chatModel, err = ai.NewChatModel(ctx, cfg.AI)
		if err != nil {
			log.WithError(err).Warn("chat model unavailable, turns will fail until credentials are fixed")
			chatModel = nil
		} else {
			log.WithField("provider", cfg.AI.Provider).Info("chat model ready")
		}
	} else {
		log.Warn("no LLM credentials configured, skipping chat model")
	}

	a.Engine = conversation.NewEngine(chatModel, a.Registry, conversation.WithMaxToolRounds(cfg.AI.MaxToolRounds))
	a.Desk = desk.New(a.Chat, a.Engine)
	return a, nil
}

func (a *App) openFraudStore(cfg config.FraudDBConfig) (fraud.Store, error) {
	if !cfg.Enabled() {
		logger.Component("app").Info("fraud database not configured, using demo cases in memory")
		return fraud.NewMemoryStore(fraud.DemoCases()...), nil
	}
	store, err := fraud.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open fraud database: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

func (a *App) chatOptions(ctx context.Context, cfg config.RedisConfig) []chat.Option {
	if !cfg.Enabled() {
		return nil
	}
	log := logger.Component("app").WithField("redis", cfg.Addr)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// redis 不可用时继续使用纯内存
		log.WithError(err).Warn("redis unavailable, session mirror disabled")
		_ = client.Close()
		return nil
	}

	log.Info("redis session mirror enabled")
	a.closers = append(a.closers, client.Close)
	return []chat.Option{chat.WithRedis(client, cfg.SessionTTL)}
}

// Close releases external connections.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.Component("app").WithError(err).Warn("close failed")
		}
	}
}
