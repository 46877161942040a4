package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"spendly/internal/cli"
	"spendly/internal/core"
	"spendly/internal/pages"
)

func newChatCmd(get func() *app) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "chat [MESSAGE...]",
		Short: "Ask the AI financial advisor",
		Long:  "Sends MESSAGE to the advisor and prints the reply. Without a message, or with --history, the conversation so far is shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.pages.Chat.Load(ctx); err != nil {
				return failure(pages.Notice{}, err)
			}
			before := len(a.pages.Chat.View().Messages)

			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" || history {
				printMessages(cmd, a.pages.Chat.View().Messages)
				if text == "" {
					return nil
				}
			}
			if err := a.pages.Chat.Send(ctx, text); err != nil {
				return failure(pages.Notice{}, err)
			}
			msgs := a.pages.Chat.View().Messages
			if before < len(msgs) {
				msgs = msgs[before:]
			}
			printMessages(cmd, msgs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "Print the earlier conversation too")
	return cmd
}

func printMessages(cmd *cobra.Command, msgs []core.ChatMessage) {
	out := cmd.OutOrStdout()
	for _, m := range msgs {
		who := "Advisor"
		if m.FromUser {
			who = "You"
		}
		stamp := ""
		if !m.Timestamp.IsZero() {
			stamp = " " + m.Timestamp.Format("15:04")
		}
		text := m.Text
		if m.IsError {
			text = cli.RenderNotice(pages.Notice{Level: pages.LevelError, Message: m.Text})
		}
		fmt.Fprintf(out, "%s%s\n  %s\n", who, cli.Muted(stamp), text)
	}
}
