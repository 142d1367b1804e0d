package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolscope/toolscope/internal/types"
)

type fakeProvider struct {
	def types.Service
}

func (p *fakeProvider) Definition() types.Service { return p.def }

func (p *fakeProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"tool": toolID},
	}, nil
}

func newFake(id string, category types.Category, tools int) *fakeProvider {
	def := types.Service{
		ID:       id,
		Name:     id,
		Category: category,
	}
	for i := 0; i < tools; i++ {
		def.Tools = append(def.Tools, types.Tool{ID: id + ".tool"})
	}
	return &fakeProvider{def: def}
}

func TestRegistryRegister(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(newFake("logs", types.CategoryLogging, 2)))

		provider, ok := reg.Get("logs")
		require.True(t, ok)
		assert.Equal(t, "logs", provider.Definition().ID)
	})

	t.Run("empty ID rejected", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.Register(&fakeProvider{})
		assert.Error(t, err)
	})

	t.Run("unregister", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(newFake("logs", types.CategoryLogging, 1)))
		reg.Unregister("logs")

		_, ok := reg.Get("logs")
		assert.False(t, ok)
	})
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newFake("logs", types.CategoryLogging, 2)))
	require.NoError(t, reg.Register(newFake("metrics", types.CategoryMetrics, 3)))

	t.Run("all services", func(t *testing.T) {
		assert.Len(t, reg.List(nil), 2)
	})

	t.Run("filtered by category", func(t *testing.T) {
		cat := types.CategoryMetrics
		services := reg.List(&cat)
		require.Len(t, services, 1)
		assert.Equal(t, "metrics", services[0].ID)
	})
}

func TestRegistryExecute(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newFake("logs", types.CategoryLogging, 1)))

	t.Run("routes to provider", func(t *testing.T) {
		result, err := reg.Execute(context.Background(), "logs.search", nil, nil)
		require.NoError(t, err)
		require.True(t, result.Success)
		assert.Equal(t, "logs.search", result.Data["tool"])
	})

	t.Run("invalid tool ID", func(t *testing.T) {
		result, err := reg.Execute(context.Background(), "nodot", nil, nil)
		assert.Error(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Success)
	})

	t.Run("unknown service", func(t *testing.T) {
		result, err := reg.Execute(context.Background(), "nope.tool", nil, nil)
		assert.Error(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Success)
		require.NotNil(t, result.Error)
		assert.Contains(t, *result.Error, "service not found")
	})
}

func TestRegistryStats(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newFake("logs", types.CategoryLogging, 2)))
	require.NoError(t, reg.Register(newFake("traces", types.CategoryTracing, 3)))

	stats := reg.Stats()
	assert.Equal(t, 2, stats["total_services"])
	assert.Equal(t, 5, stats["total_tools"])

	categories := stats["categories"].(map[string]int)
	assert.Equal(t, 1, categories["logging"])
	assert.Equal(t, 1, categories["tracing"])
}
