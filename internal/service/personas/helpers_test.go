package personas

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
	"github.com/zhouzirui/voicedesk/backend/internal/service/fraud"
	"github.com/zhouzirui/voicedesk/backend/internal/service/records"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
)

var testNow = time.Date(2025, 11, 24, 9, 30, 0, 0, time.UTC)

type fixture struct {
	dir      string
	registry *Registry
	records  *records.Store
	fraud    *fraud.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store := records.NewStore(records.Config{
		OrdersDir:       filepath.Join(dir, "orders"),
		LeadsDir:        filepath.Join(dir, "leads"),
		GameSessionsDir: filepath.Join(dir, "game_sessions"),
		WellnessLogPath: filepath.Join(dir, "wellness_log.json"),
	})
	store.SetClock(func() time.Time { return testNow })
	cases := fraud.NewMemoryStore(fraud.DemoCases()...)

	registry := NewRegistry(persona.NewMemoryStore(persona.Seed()), Deps{
		Reference: reference.Defaults(),
		Records:   store,
		Fraud:     cases,
	})
	return &fixture{dir: dir, registry: registry, records: store, fraud: cases}
}

func (f *fixture) build(t *testing.T, id string, init Init) *Definition {
	t.Helper()
	def, ok := f.registry.Build(id, init)
	require.True(t, ok, "persona %s should build", id)
	return def
}

func invoke(def *Definition, name, args string) tools.Result {
	return def.Tools.Dispatch(context.Background(), schema.ToolCall{
		ID:       "call-" + name,
		Function: schema.FunctionCall{Name: name, Arguments: args},
	})
}

func filesIn(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	return matches
}
