package pages

import (
	"context"
	"errors"
	"strings"

	"spendly/internal/api"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/resource"
)

type ChatView struct {
	Messages []core.ChatMessage
	Loading  bool
	Busy     bool
}

// Chat keeps the advisor conversation, oldest message first.
type Chat struct {
	deps     Deps
	logger   *log.Logger
	messages resource.Resource[[]core.ChatMessage]
}

func NewChat(deps Deps) *Chat {
	deps = deps.withDefaults()
	return &Chat{deps: deps, logger: deps.Logger.WithComponent(log.ComponentPages).With("page", "chat")}
}

func (c *Chat) welcome() []core.ChatMessage {
	return []core.ChatMessage{{Text: core.WelcomeMessage, Timestamp: c.deps.Now()}}
}

// Load fetches the history. Any failure, or an empty or unsuccessful
// history, shows the welcome message instead; Load itself never fails once
// a user is signed in.
func (c *Chat) Load(ctx context.Context) error {
	uid, err := c.deps.userID()
	if err != nil {
		return err
	}
	err = c.messages.Load(ctx, "history/"+uid.String(), func(ctx context.Context) ([]core.ChatMessage, error) {
		hist, err := c.deps.Gateway.ChatHistory(ctx, uid, api.DefaultHistoryLimit)
		if err != nil {
			c.logger.WarnContext(ctx, "Chat history unavailable", log.FieldError, err.Error())
			return c.welcome(), nil
		}
		msgs := hist.Messages()
		if !hist.Success || len(msgs) == 0 {
			return c.welcome(), nil
		}
		return msgs, nil
	})
	return settled(err)
}

// Send posts text to the advisor. The user's message is shown at once; the
// reply, a fallback, or an error bubble follows. Blank input is ignored.
func (c *Chat) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	uid, err := c.deps.userID()
	if err != nil {
		return err
	}

	var reply core.ChatMessage
	err = c.messages.Mutate(ctx, func(ctx context.Context) error {
		seed := !c.messages.Snapshot().Loaded
		c.messages.Update(func(m []core.ChatMessage) []core.ChatMessage {
			if seed && len(m) == 0 {
				m = c.welcome()
			}
			return append(m, core.ChatMessage{Text: text, FromUser: true, Timestamp: c.deps.Now()})
		})
		resp, err := c.deps.Gateway.SendMessage(ctx, uid, text)
		if err != nil {
			reply = core.ChatMessage{Text: core.ConnectionErrorReply, IsError: true, Timestamp: c.deps.Now()}
			return err
		}
		answer := strings.TrimSpace(resp.Response)
		if answer == "" {
			answer = core.FallbackReply
		}
		reply = core.ChatMessage{Text: answer, Timestamp: c.deps.Now()}
		return nil
	}, func(m []core.ChatMessage) []core.ChatMessage {
		return append(m, reply)
	})

	switch {
	case err == nil, errors.Is(err, resource.ErrStale):
		return nil
	case errors.Is(err, resource.ErrBusy):
		return err
	default:
		c.logger.WarnContext(ctx, "Advisor request failed", log.FieldUserID, uid.String(), log.FieldError, err.Error())
		c.messages.Update(func(m []core.ChatMessage) []core.ChatMessage { return append(m, reply) })
		return nil
	}
}

func (c *Chat) View() ChatView {
	s := c.messages.Snapshot()
	v := ChatView{Messages: s.Data, Loading: s.Loading, Busy: s.Busy}
	if !s.Loaded {
		v.Messages = c.welcome()
	}
	return v
}

func (c *Chat) Reset() { c.messages.Reset() }
