package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"spendly/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports whether the session has been resolved and the local
// store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name, msg string) {
		checks[name] = msg
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if len(s.templates) == 0 {
		fail("templates", "failed: templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	if s.auth.Status().Resolving {
		fail("session", "resolving")
	} else {
		checks["session"] = "ok"
	}

	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Store ping failed", log.FieldError, err.Error())
			fail("store", "failed: "+err.Error())
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not_checked"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	checks["security"] = s.securityDetector.GetMetrics()

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
