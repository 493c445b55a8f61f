package tool

import (
	"context"
	"testing"
	"time"

	"github.com/disputeflow/disputeflow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubRegistry() *Registry {
	r := &Registry{tools: make(map[Capability]Tool)}
	r.add(NewFunctionTool("echo", "Echo back the input", map[string]any{
		"type":       "object",
		"properties": map[string]any{"value": map[string]any{"type": "string"}},
		"required":   []string{"value"},
	}, func(tctx *Context, args map[string]any) (any, error) {
		return map[string]any{"value": args["value"]}, nil
	}))
	r.add(NewFunctionTool("slow", "Sleep briefly then return", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(tctx *Context, args map[string]any) (any, error) {
		time.Sleep(20 * time.Millisecond)
		return map[string]any{"done": true}, nil
	}))
	r.add(NewFunctionTool("explode", "Always panics", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(tctx *Context, args map[string]any) (any, error) {
		panic("boom")
	}))
	return r
}

func TestExecuteBatchPreservesOrder(t *testing.T) {
	executor := NewExecutor(stubRegistry())

	calls := []model.ToolCall{
		{ID: "call_1", Name: "slow", Arguments: `{}`},
		{ID: "call_2", Name: "echo", Arguments: `{"value": "a"}`},
		{ID: "call_3", Name: "echo", Arguments: `{"value": "b"}`},
	}

	records := executor.ExecuteBatch(context.Background(), calls, Session{})

	require.Len(t, records, len(calls), "exactly one record per call")
	for i, call := range calls {
		assert.Equal(t, call.ID, records[i].ID)
		assert.Equal(t, call.Name, records[i].Name)
	}
	assert.True(t, records[1].Succeeded())
	assert.Equal(t, "a", records[1].ResultData()["value"])
	assert.Equal(t, "b", records[2].ResultData()["value"])
}

func TestExecuteBatchRecoversPanics(t *testing.T) {
	executor := NewExecutor(stubRegistry())

	records := executor.ExecuteBatch(context.Background(), []model.ToolCall{
		{ID: "call_1", Name: "explode", Arguments: `{}`},
		{ID: "call_2", Name: "echo", Arguments: `{"value": "still works"}`},
	}, Session{})

	require.Len(t, records, 2)
	assert.False(t, records[0].Succeeded())
	assert.Contains(t, records[0].Error, "panic")
	assert.True(t, records[1].Succeeded())
}

func TestExecuteBatchUnknownFunction(t *testing.T) {
	executor := NewExecutor(stubRegistry())

	records := executor.ExecuteBatch(context.Background(), []model.ToolCall{
		{ID: "call_1", Name: "missing", Arguments: `{}`},
	}, Session{})

	require.Len(t, records, 1)
	assert.Contains(t, records[0].Error, "unknown function")
	assert.Nil(t, records[0].Result)
}

func TestExecuteBatchMalformedArguments(t *testing.T) {
	executor := NewExecutor(stubRegistry())

	records := executor.ExecuteBatch(context.Background(), []model.ToolCall{
		{ID: "call_1", Name: "echo", Arguments: `{not json`},
	}, Session{})

	require.Len(t, records, 1)
	assert.Contains(t, records[0].Error, "unmarshal")
}

func TestExecuteBatchRespectsMaxParallel(t *testing.T) {
	executor := NewExecutor(stubRegistry(), func(o *ExecutorOptions) {
		o.MaxParallel = 1
	})

	start := time.Now()
	records := executor.ExecuteBatch(context.Background(), []model.ToolCall{
		{ID: "call_1", Name: "slow", Arguments: `{}`},
		{ID: "call_2", Name: "slow", Arguments: `{}`},
	}, Session{})

	require.Len(t, records, 2)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "serialized execution")
	for _, rec := range records {
		assert.True(t, rec.Succeeded())
	}
}
