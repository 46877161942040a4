package http

import (
	"net/http"

	"spendly/internal/auth"
)

// requireAuth lets signed-in users through, answers 503 with a loading page
// while the session is still being resolved and sends everyone else to the
// login page.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := s.auth.Status()
		switch auth.Guard(st.LoggedIn, st.Resolving) {
		case auth.DecisionAllow:
			next.ServeHTTP(w, r)
		case auth.DecisionLoading:
			w.Header().Set("Retry-After", "1")
			data := s.layout(r, "Loading", "", nil)
			data.Refresh = 1
			s.render(w, r, http.StatusServiceUnavailable, "loading", data)
		default:
			redirect(w, r, "/login")
		}
	})
}
