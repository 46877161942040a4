package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"spendly/internal/auth"
	"spendly/internal/cli"
	"spendly/internal/core"
	"spendly/internal/pages"
)

// prompt asks for every empty field interactively. Fields already given on
// the command line are not asked again.
func prompt(fields ...*huh.Input) error {
	if len(fields) == 0 {
		return nil
	}
	group := make([]huh.Field, len(fields))
	for i, f := range fields {
		group[i] = f
	}
	return huh.NewForm(huh.NewGroup(group...)).Run()
}

func inputFor(title string, value *string, secret bool) *huh.Input {
	in := huh.NewInput().Title(title).Value(value).Validate(huh.ValidateNotEmpty())
	if secret {
		in = in.EchoMode(huh.EchoModePassword)
	}
	return in
}

func newLoginCmd(get func() *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			var missing []*huh.Input
			if strings.TrimSpace(username) == "" {
				missing = append(missing, inputFor("Username", &username, false))
			}
			if password == "" {
				missing = append(missing, inputFor("Password", &password, true))
			}
			if err := prompt(missing...); err != nil {
				return err
			}

			_, err := a.auth.Login(cmd.Context(), username, password)
			var verr *core.ValidationError
			var aerr *auth.AuthError
			switch {
			case err == nil:
			case errors.As(err, &verr):
				return errors.New("Please enter your username and password")
			case errors.As(err, &aerr):
				return errors.New(aerr.Message)
			default:
				return errors.New("Unable to reach the server. Please try again later.")
			}
			sess, _ := a.auth.Current()
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderNotice(pages.Notice{Level: pages.LevelSuccess, Message: "Signed in as " + sess.Username}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(get func() *app) *cobra.Command {
	var form core.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			var missing []*huh.Input
			if strings.TrimSpace(form.Username) == "" {
				missing = append(missing, inputFor("Username", &form.Username, false))
			}
			if strings.TrimSpace(form.Email) == "" {
				missing = append(missing, inputFor("Email", &form.Email, false))
			}
			if form.Password == "" {
				missing = append(missing, inputFor("Password", &form.Password, true))
			}
			if err := prompt(missing...); err != nil {
				return err
			}

			_, err := a.auth.Register(cmd.Context(), form)
			var verr *core.ValidationError
			var aerr *auth.AuthError
			switch {
			case err == nil:
			case errors.As(err, &verr):
				return verr
			case errors.As(err, &aerr):
				return errors.New(aerr.Message)
			default:
				return errors.New("Unable to reach the server. Please try again later.")
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderNotice(pages.Notice{Level: pages.LevelSuccess, Message: "Account created successfully! Please sign in."}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			a.auth.Logout(cmd.Context())
			a.pages.Reset()
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderNotice(pages.Notice{Level: pages.LevelInfo, Message: "Signed out"}))
			return nil
		},
	}
}

func newWhoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, ok := get().auth.Current()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), cli.Muted("Not signed in"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
				Headers: []string{"Field", "Value"},
				Rows: [][]string{
					{"Username", sess.Username},
					{"Email", sess.Email},
					{"User ID", sess.ID.String()},
				},
			}))
			return nil
		},
	}
}
