// Package api describes the backend operations the front-end depends on. The
// rest package talks to the real backend; the memory package fakes it.
package api

import (
	"context"
	"encoding/json"

	"spendly/internal/core"
)

type (
	UserService interface {
		Login(ctx context.Context, username, password string) (*LoginResponse, error)
		CreateUser(ctx context.Context, form core.RegisterForm) (*StatusResponse, error)
	}

	BudgetService interface {
		CreateBudget(ctx context.Context, b NewBudget) (json.RawMessage, error)
		ListBudgets(ctx context.Context, userID core.UserID) ([]core.Budget, error)
		// BudgetProgress returns per-category consumption; category may be empty.
		BudgetProgress(ctx context.Context, userID core.UserID, category string) (*BudgetProgressReport, error)
	}

	GoalService interface {
		CreateGoal(ctx context.Context, g NewGoal) (json.RawMessage, error)
		ListGoals(ctx context.Context, userID core.UserID) ([]core.Goal, error)
		UpdateGoal(ctx context.Context, userID core.UserID, goalID int64, current core.Money) (json.RawMessage, error)
	}

	TransactionService interface {
		CreateTransaction(ctx context.Context, t NewTransaction) (*StatusResponse, error)
		ListTransactions(ctx context.Context, userID core.UserID, q TransactionQuery) (*TransactionPage, error)
		TransactionStats(ctx context.Context, userID core.UserID, period string) (*StatsReport, error)
	}

	ChatService interface {
		SendMessage(ctx context.Context, userID core.UserID, message string) (*ChatResponse, error)
		ChatHistory(ctx context.Context, userID core.UserID, limit int) (*ChatHistoryResponse, error)
	}

	// Gateway is the whole backend surface.
	Gateway interface {
		UserService
		BudgetService
		GoalService
		TransactionService
		ChatService
	}
)
