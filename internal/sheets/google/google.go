// Package google writes the transaction ledger to Google Sheets.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendly/internal/log"
	ports "spendly/internal/sheets"
)

const valueInputOption = "USER_ENTERED"

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	// With TokenFile set the client acts as the user who authorized the
	// OAuth client instead of a service account.
	OAuthClientJSON string
	OAuthClientFile string
	TokenFile       string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ ports.LedgerWriter = (*Client)(nil)

// New creates a client authenticated with a stored OAuth token, a service
// account, or the application default credentials, in that order.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Transactions"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func clientOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	if strings.TrimSpace(cfg.TokenFile) != "" {
		raw, err := readJSON(cfg.OAuthClientJSON, cfg.OAuthClientFile, "OAuth client")
		if err != nil {
			return nil, err
		}
		oc, err := OAuthConfig(raw, "")
		if err != nil {
			return nil, err
		}
		tok, err := LoadToken(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithTokenSource(oc.TokenSource(ctx, tok))}, nil
	}

	creds, err := readJSON(cfg.CredentialsJSON, cfg.CredentialsFile, "service account")
	switch {
	case err == nil:
		return []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	case errors.Is(err, errNoCredentials) && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		return []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}, nil
	case errors.Is(err, errNoCredentials):
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	default:
		return nil, err
	}
}

var errNoCredentials = errors.New("no credentials configured")

// readJSON returns inline when set, otherwise the contents of file.
func readJSON(inline, file, what string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s file: %w", what, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%s: %w", what, errNoCredentials)
	}
}

// OAuthConfig parses an OAuth client JSON for spreadsheet access.
func OAuthConfig(clientJSON []byte, redirectURL string) (*oauth2.Config, error) {
	oc, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	if redirectURL != "" {
		oc.RedirectURL = redirectURL
	}
	return oc, nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, errors.New("token file holds no token")
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		_ = f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// Append writes row below the last used row, adding the header to an empty sheet.
func (c *Client) Append(ctx context.Context, row ports.LedgerRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheetName, err)
	}

	values := [][]any{row.Values()}
	nextRow := len(resp.Values) + 1
	if nextRow == 1 {
		values = [][]any{ports.Header, row.Values()}
	}
	lastRow := nextRow + len(values) - 1

	dataRange := fmt.Sprintf("%s!A%d:F%d", c.sheetName, nextRow, lastRow)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	ref := fmt.Sprintf("%s!A%d:F%d", c.sheetName, lastRow, lastRow)
	c.logger.InfoContext(ctx, "Ledger row written", "range", ref, log.FieldUserID, row.UserID.String())
	return ref, nil
}
