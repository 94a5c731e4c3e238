package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// arkModel is the subset of *ark.ChatModel the adapter relies on.
type arkModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
	Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error)
	BindTools(tools []*schema.ToolInfo) error
}

type arkBuilder func(ctx context.Context, cfg *ark.ChatModelConfig) (arkModel, error)

func buildArk(ctx context.Context, cfg *ark.ChatModelConfig) (arkModel, error) {
	cm, err := ark.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return cm, nil
}

// ArkChatModel 让 ark 模型满足 ToolCallingChatModel。
// ark 的 BindTools 会原地修改实例，所以每组工具各自持有一个实例，不同 persona 互不覆盖。
type ArkChatModel struct {
	base   arkModel
	shared *arkShared
}

// arkShared 在所有副本之间共享：未绑定工具的实例和按工具组合缓存的实例
type arkShared struct {
	cfg   *ark.ChatModelConfig
	build arkBuilder
	root  arkModel

	mu     sync.Mutex
	models map[string]arkModel
}

var _ model.ToolCallingChatModel = (*ArkChatModel)(nil)

// NewArkChatModel creates the Ark backend.
func NewArkChatModel(ctx context.Context, cfg *ark.ChatModelConfig) (*ArkChatModel, error) {
	return newArkChatModel(ctx, cfg, buildArk)
}

func newArkChatModel(ctx context.Context, cfg *ark.ChatModelConfig, build arkBuilder) (*ArkChatModel, error) {
	root, err := build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create ark chat model: %w", err)
	}
	shared := &arkShared{cfg: cfg, build: build, root: root, models: make(map[string]arkModel)}
	return &ArkChatModel{base: root, shared: shared}, nil
}

// WithTools returns a model bound to infos. The receiver is left untouched.
func (a *ArkChatModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if len(infos) == 0 {
		return &ArkChatModel{base: a.shared.root, shared: a.shared}, nil
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	key := strings.Join(names, ",")

	s := a.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.models[key]; ok {
		return &ArkChatModel{base: cached, shared: s}, nil
	}

	fresh, err := s.build(context.Background(), s.cfg)
	if err != nil {
		return nil, fmt.Errorf("create ark chat model: %w", err)
	}
	if err := fresh.BindTools(infos); err != nil {
		return nil, fmt.Errorf("bind ark tools: %w", err)
	}
	s.models[key] = fresh
	return &ArkChatModel{base: fresh, shared: s}, nil
}

func (a *ArkChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return a.base.Generate(ctx, input, opts...)
}

func (a *ArkChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return a.base.Stream(ctx, input, opts...)
}
