package pages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/api/memory"
	"spendly/internal/core"
)

func TestChatWelcomeWhenHistoryEmptyOrFailing(t *testing.T) {
	b := memory.NewSeeded()
	c := NewChat(newDeps(b))
	ctx := context.Background()

	assert.Equal(t, core.WelcomeMessage, c.View().Messages[0].Text, "welcome before loading")

	require.NoError(t, c.Load(ctx))
	msgs := c.View().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, core.WelcomeMessage, msgs[0].Text)
	assert.False(t, msgs[0].FromUser)

	b.FailNext(memory.OpChatHistory, errors.New("boom"))
	require.NoError(t, c.Load(ctx))
	assert.Equal(t, core.WelcomeMessage, c.View().Messages[0].Text)
}

func TestChatSendAppendsInOrder(t *testing.T) {
	b := memory.NewSeeded()
	c := NewChat(newDeps(b))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	require.NoError(t, c.Send(ctx, "  How is my transportation budget?  "))
	msgs := c.View().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "How is my transportation budget?", msgs[1].Text)
	assert.True(t, msgs[1].FromUser)
	assert.False(t, msgs[2].FromUser)
	assert.Contains(t, msgs[2].Text, "Transportation")

	require.NoError(t, c.Load(ctx))
	assert.Len(t, c.View().Messages, 2, "history replaces the welcome message")
}

func TestChatSendBeforeLoadKeepsWelcome(t *testing.T) {
	b := memory.NewSeeded()
	c := NewChat(newDeps(b))

	require.NoError(t, c.Send(context.Background(), "hello"))
	msgs := c.View().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, core.WelcomeMessage, msgs[0].Text)
	assert.Equal(t, "hello", msgs[1].Text)
	assert.True(t, msgs[1].FromUser)
	assert.False(t, msgs[2].FromUser)
}

func TestChatSendFailureShowsErrorBubble(t *testing.T) {
	b := memory.NewSeeded()
	c := NewChat(newDeps(b))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	b.FailNext(memory.OpSendMessage, errors.New("connection refused"))
	require.NoError(t, c.Send(ctx, "hello"))

	msgs := c.View().Messages
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].FromUser)
	assert.Equal(t, core.ConnectionErrorReply, msgs[2].Text)
	assert.True(t, msgs[2].IsError)
	assert.False(t, c.View().Busy)
}

func TestChatBlankInputIgnored(t *testing.T) {
	b := memory.NewSeeded()
	c := NewChat(newDeps(b))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	require.NoError(t, c.Send(ctx, "   "))
	assert.Len(t, c.View().Messages, 1)
	assert.Zero(t, b.Calls(memory.OpSendMessage))
}

func TestChatRequiresLogin(t *testing.T) {
	deps := newDeps(memory.NewSeeded())
	deps.Identity = identity{}
	c := NewChat(deps)
	assert.ErrorIs(t, c.Send(context.Background(), "hi"), ErrNotLoggedIn)
	assert.ErrorIs(t, c.Load(context.Background()), ErrNotLoggedIn)
}
