// Command spendly-sheets-auth authorizes the export worker to write to a
// spreadsheet as a Google user. It runs the OAuth consent flow once and
// stores the refresh token at GOOGLE_OAUTH_TOKEN_FILE.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"spendly/internal/cli"
	"spendly/internal/config"
	"spendly/internal/log"
	gsheet "spendly/internal/sheets/google"
)

const authTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("info", log.ComponentCLI)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration could not be loaded", log.FieldError, err.Error())
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("Authorization failed", log.FieldError, err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	if !cfg.HasOAuthClient() {
		return errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	raw := []byte(cfg.GoogleOAuthClientJSON)
	if len(raw) == 0 {
		data, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return fmt.Errorf("read client file: %w", err)
		}
		raw = data
	}
	tokenFile := cfg.GoogleOAuthTokenFile
	if tokenFile == "" {
		tokenFile = "token.json"
	}

	// The redirect URI must be registered on the OAuth client.
	oc, err := gsheet.OAuthConfig(raw, "http://localhost:"+cfg.OAuthRedirectPort+"/callback")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	state := uuid.NewString()
	codes := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", callback(state, codes))
	srv := &http.Server{Addr: ":" + cfg.OAuthRedirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Callback listener failed", log.FieldError, err.Error())
			cancel()
		}
	}()
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", oc.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codes:
		tok, err := oc.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("token exchange: %w", err)
		}
		if err := gsheet.SaveToken(tokenFile, tok); err != nil {
			return err
		}
		logger.Info("Token saved", "path", tokenFile)
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.New("authorization timed out")
		}
		return errors.New("interrupted")
	}
}

// callback accepts the first redirect carrying the expected state.
func callback(state string, codes chan<- string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state || q.Get("code") == "" {
			http.Error(w, "Invalid authorization response", http.StatusBadRequest)
			return
		}
		select {
		case codes <- q.Get("code"):
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
		default:
			http.Error(w, "Authorization already received", http.StatusConflict)
		}
	}
}
