package http

import (
	"errors"
	"net/http"

	"spendly/internal/auth"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/pages"
)

const (
	msgRegistered     = "Account created successfully! Please sign in."
	msgServerDown     = "Unable to reach the server. Please try again later."
	msgLoginRequired  = "Please enter your username and password"
	msgRegisterFields = "Please fill in all fields"
)

// authCard is the sign-in / sign-up panel.
type authCard struct {
	Mode     string // "login" or "register"
	Username string
	Email    string
	Notice   pages.Notice
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", s.layout(r, "Spendly", "/", nil))
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.auth.IsLoggedIn() {
		redirect(w, r, "/dashboard")
		return
	}
	card := authCard{Mode: "login"}
	if r.URL.Query().Get("mode") == "register" {
		card.Mode = "register"
	}
	s.render(w, r, http.StatusOK, "login", s.layout(r, "Sign in", "/login", card))
}

// writeAuthCard answers a login or register post with the card re-rendered.
// Plain form posts get the whole page with status.
func (s *Server) writeAuthCard(w http.ResponseWriter, r *http.Request, status int, card authCard) {
	if isHTMX(r) {
		s.writePartial(w, r, http.StatusOK, "auth-card", card, pages.Notice{})
		return
	}
	s.render(w, r, status, "login", s.layout(r, "Sign in", "/login", card))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	form := p.LoginForm()
	card := authCard{Mode: "login", Username: form.Username}

	_, err := s.auth.Login(r.Context(), form.Username, form.Password)
	if err == nil {
		// A sign-in may replace another user's session.
		s.pages.Reset()
		redirect(w, r, "/dashboard")
		return
	}

	var verr *core.ValidationError
	var aerr *auth.AuthError
	status := http.StatusUnauthorized
	switch {
	case errors.As(err, &verr):
		card.Notice = pages.Notice{Level: pages.LevelWarning, Message: msgLoginRequired}
		status = http.StatusUnprocessableEntity
	case errors.As(err, &aerr):
		card.Notice = pages.Notice{Level: pages.LevelError, Message: aerr.Message}
	default:
		s.logger.WarnContext(r.Context(), "Login failed", log.FieldUsername, form.Username, log.FieldError, err.Error())
		card.Notice = pages.Notice{Level: pages.LevelError, Message: msgServerDown}
		status = http.StatusBadGateway
	}
	s.writeAuthCard(w, r, status, card)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	form := p.RegisterForm()
	card := authCard{Mode: "register", Username: form.Username, Email: form.Email}

	_, err := s.auth.Register(r.Context(), form)
	if err == nil {
		s.writeAuthCard(w, r, http.StatusOK, authCard{
			Mode:     "login",
			Username: form.Username,
			Notice:   pages.Notice{Level: pages.LevelSuccess, Message: msgRegistered},
		})
		return
	}

	var verr *core.ValidationError
	var aerr *auth.AuthError
	status := http.StatusUnprocessableEntity
	switch {
	case errors.As(err, &verr):
		msg := verr.Error()
		if verr.Missing("username", "email", "password") {
			msg = msgRegisterFields
		}
		card.Notice = pages.Notice{Level: pages.LevelWarning, Message: msg}
	case errors.As(err, &aerr):
		card.Notice = pages.Notice{Level: pages.LevelError, Message: aerr.Message}
		status = http.StatusConflict
	default:
		s.logger.WarnContext(r.Context(), "Registration failed", log.FieldUsername, form.Username, log.FieldError, err.Error())
		card.Notice = pages.Notice{Level: pages.LevelError, Message: msgServerDown}
		status = http.StatusBadGateway
	}
	s.writeAuthCard(w, r, status, card)
}

// handleLogout signs out and drops every page's data.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(r.Context())
	s.pages.Reset()
	redirect(w, r, "/login")
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	dark, err := s.prefs.ToggleDarkMode(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to save theme preference", log.FieldError, err.Error())
		InternalServerError("Could not save your preference").Write(w)
		return
	}
	if isHTMX(r) {
		NewHTMXResponse().Header("HX-Refresh", "true").Trigger("theme:changed", map[string]bool{"dark": dark}).Write(w)
		return
	}
	http.Redirect(w, r, localReferer(r), http.StatusSeeOther)
}
