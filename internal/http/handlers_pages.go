package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"spendly/internal/core"
	"spendly/internal/pages"
	"spendly/internal/resource"
)

// statusFor maps a failed page operation to a response status.
func statusFor(err error) int {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resource.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, pages.ErrGoalNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// writeMutation answers a create or update. On success htmx receives the
// refreshed block, a notification and a form reset; on failure only the
// notification with an error status. Plain form posts are redirected back
// to path.
func (s *Server) writeMutation(w http.ResponseWriter, r *http.Request, err error, n pages.Notice, block string, data func() any, path string) {
	if errors.Is(err, pages.ErrNotLoggedIn) {
		redirect(w, r, "/login")
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, path, http.StatusSeeOther)
		return
	}
	if err != nil {
		ErrorResponse(statusFor(err), n.Message).TriggerNotice(n).Write(w)
		return
	}
	html, rerr := s.partial(r, block, data())
	if rerr != nil {
		InternalServerError("Error rendering page").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(html).TriggerNotice(n).TriggerFormReset().Write(w)
}

// Dashboard

func (s *Server) loadDashboard(r *http.Request) (pages.DashboardView, bool) {
	period := strings.TrimSpace(r.URL.Query().Get("period"))
	err := s.pages.Dashboard.Load(r.Context(), period)
	return s.pages.Dashboard.View(), !errors.Is(err, pages.ErrNotLoggedIn)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadDashboard(r)
	if !ok {
		redirect(w, r, "/login")
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", s.layout(r, "Dashboard", "/dashboard", view))
}

func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadDashboard(r)
	if !ok {
		redirect(w, r, "/login")
		return
	}
	s.writePartial(w, r, http.StatusOK, "dashboard-body", view, pages.Notice{})
}

// Budget

func (s *Server) handleBudgetPage(w http.ResponseWriter, r *http.Request) {
	if errors.Is(s.pages.Budget.Load(r.Context()), pages.ErrNotLoggedIn) {
		redirect(w, r, "/login")
		return
	}
	s.render(w, r, http.StatusOK, "budget", s.layout(r, "Budget", "/budget", s.pages.Budget.View()))
}

func (s *Server) handleBudgetsPartial(w http.ResponseWriter, r *http.Request) {
	if errors.Is(s.pages.Budget.Load(r.Context()), pages.ErrNotLoggedIn) {
		redirect(w, r, "/login")
		return
	}
	s.writePartial(w, r, http.StatusOK, "budget-list", s.pages.Budget.View(), pages.Notice{})
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	_, err := s.pages.Budget.Create(r.Context(), p.BudgetForm())
	s.writeMutation(w, r, err, s.pages.Budget.CreateNotice(err), "budget-list",
		func() any { return s.pages.Budget.View() }, "/budget")
}

// Goals

func (s *Server) handleGoalsPage(w http.ResponseWriter, r *http.Request) {
	if errors.Is(s.pages.Goals.Load(r.Context()), pages.ErrNotLoggedIn) {
		redirect(w, r, "/login")
		return
	}
	s.render(w, r, http.StatusOK, "goals", s.layout(r, "Goals", "/goals", s.pages.Goals.View()))
}

func (s *Server) handleGoalsPartial(w http.ResponseWriter, r *http.Request) {
	if errors.Is(s.pages.Goals.Load(r.Context()), pages.ErrNotLoggedIn) {
		redirect(w, r, "/login")
		return
	}
	s.writePartial(w, r, http.StatusOK, "goal-list", s.pages.Goals.View(), pages.Notice{})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	_, err := s.pages.Goals.Create(r.Context(), p.GoalForm())
	s.writeMutation(w, r, err, s.pages.Goals.CreateNotice(err), "goal-list",
		func() any { return s.pages.Goals.View() }, "/goals")
}

func (s *Server) handleUpdateGoalProgress(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		NotFoundError("Goal not found").Write(w)
		return
	}
	p := parseBody(w, r)
	if p == nil {
		return
	}
	_, err = s.pages.Goals.UpdateProgress(r.Context(), id, p.Get("current_amount"))
	s.writeMutation(w, r, err, s.pages.Goals.UpdateNotice(err), "goal-list",
		func() any { return s.pages.Goals.View() }, "/goals")
}

// Transactions

func (s *Server) loadTransactions(r *http.Request) (pages.TransactionsView, bool) {
	pp := ParsePageParams(r.URL.Query())
	err := s.pages.Transactions.Load(r.Context(), pp.Page, pp.Limit)
	if errors.Is(err, pages.ErrNotLoggedIn) {
		return pages.TransactionsView{}, false
	}
	return s.pages.Transactions.View(r.Context()), true
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadTransactions(r)
	if !ok {
		redirect(w, r, "/login")
		return
	}
	s.render(w, r, http.StatusOK, "transactions", s.layout(r, "Transactions", "/transactions", view))
}

func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadTransactions(r)
	if !ok {
		redirect(w, r, "/login")
		return
	}
	s.writePartial(w, r, http.StatusOK, "tx-table", view, pages.Notice{})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	_, err := s.pages.Transactions.Create(r.Context(), p.TransactionForm())
	s.writeMutation(w, r, err, s.pages.Transactions.CreateNotice(err), "tx-table",
		func() any { return s.pages.Transactions.View(r.Context()) }, "/transactions")
}

// Chat

func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	if errors.Is(s.pages.Chat.Load(r.Context()), pages.ErrNotLoggedIn) {
		redirect(w, r, "/login")
		return
	}
	s.render(w, r, http.StatusOK, "chat", s.layout(r, "AI Advisor", "/chat", s.pages.Chat.View()))
}

func (s *Server) handleChatPartial(w http.ResponseWriter, r *http.Request) {
	if errors.Is(s.pages.Chat.Load(r.Context()), pages.ErrNotLoggedIn) {
		redirect(w, r, "/login")
		return
	}
	s.writePartial(w, r, http.StatusOK, "chat-messages", s.pages.Chat.View(), pages.Notice{})
}

// handleSendChat always answers with the conversation; advisor failures
// show up as an error bubble inside it.
func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	err := s.pages.Chat.Send(r.Context(), p.Get("message"))
	switch {
	case errors.Is(err, pages.ErrNotLoggedIn):
		redirect(w, r, "/login")
		return
	case errors.Is(err, resource.ErrBusy):
		n := pages.Notice{Level: pages.LevelInfo, Message: pages.ErrorMessage(err, "")}
		ErrorResponse(http.StatusConflict, n.Message).TriggerNotice(n).Write(w)
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}
	html, rerr := s.partial(r, "chat-messages", s.pages.Chat.View())
	if rerr != nil {
		InternalServerError("Error rendering page").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(html).TriggerFormReset().Write(w)
}

// handleDismiss clears a page's error banner; the empty body replaces it.
func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("page") {
	case "dashboard":
		s.pages.Dashboard.Dismiss()
	case "budget":
		s.pages.Budget.Dismiss()
	case "goals":
		s.pages.Goals.Dismiss()
	case "transactions":
		s.pages.Transactions.Dismiss()
	default:
		NotFoundError("Unknown page").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
}
