package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedClient(t *testing.T) {
	ctx := context.Background()

	t.Run("returns queued responses in order", func(t *testing.T) {
		client := NewScriptedClient()
		client.Enqueue(
			Response{Text: "first", FinishReason: "stop"},
			Response{ToolCalls: []ToolCall{{ID: "call_1", Name: "lookup_transaction", Arguments: `{}`}}, FinishReason: "tool_calls"},
		)

		req := Request{Messages: []Message{{Role: RoleUser, Text: "hello"}}}

		resp, err := client.Complete(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "first", resp.Text)

		resp, err = client.Complete(ctx, req)
		require.NoError(t, err)
		require.Len(t, resp.ToolCalls, 1)
		assert.Equal(t, "lookup_transaction", resp.ToolCalls[0].Name)
	})

	t.Run("falls back once queue is empty", func(t *testing.T) {
		client := NewScriptedClient()
		client.SetFallback("done")

		resp, err := client.Complete(ctx, Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
		require.NoError(t, err)
		assert.Equal(t, "done", resp.Text)
	})

	t.Run("rejects empty requests", func(t *testing.T) {
		client := NewScriptedClient()
		_, err := client.Complete(ctx, Request{})
		assert.Error(t, err)
	})

	t.Run("records requests", func(t *testing.T) {
		client := NewScriptedClient()
		_, err := client.Complete(ctx, Request{Instructions: "be brief", Messages: []Message{{Role: RoleUser, Text: "hi"}}})
		require.NoError(t, err)

		reqs := client.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "be brief", reqs[0].Instructions)
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		client := NewScriptedClient()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := client.Complete(cancelled, Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
