package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment names recognised by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Default backend base URLs chosen by APP_ENV.
const (
	DefaultProductionAPIURL  = "https://your-backend-url.com"
	DefaultDevelopmentAPIURL = "http://localhost:5000"
)

type Config struct {
	// HTTP Server
	Port               string
	AppEnv             string
	RateLimitPerMinute int

	// Backend API
	APIBaseURL    string
	APIBackend    string
	APITimeout    time.Duration
	DefaultUserID string

	// Local session store
	StoreBackend string
	SQLiteDBPath string
	StateFile    string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	// OAuth user credentials, an alternative to a service account.
	GoogleOAuthClientFile string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenFile  string
	OAuthRedirectPort     string

	LogLevel string

	// ConfigFile is the TOML file the values were overlaid from, if any.
	ConfigFile string
}

// fileConfig mirrors the optional TOML overlay. Empty values keep the defaults.
type fileConfig struct {
	Server struct {
		Port               string `toml:"port"`
		Env                string `toml:"env"`
		RateLimitPerMinute int    `toml:"rate_limit_per_minute"`
	} `toml:"server"`
	API struct {
		BaseURL       string `toml:"base_url"`
		Backend       string `toml:"backend"`
		Timeout       string `toml:"timeout"`
		DefaultUserID string `toml:"default_user_id"`
	} `toml:"api"`
	Store struct {
		Backend    string `toml:"backend"`
		SQLitePath string `toml:"sqlite_path"`
		StateFile  string `toml:"state_file"`
	} `toml:"store"`
	AMQP struct {
		URL      string `toml:"url"`
		Exchange string `toml:"exchange"`
		Queue    string `toml:"queue"`
	} `toml:"amqp"`
	Google struct {
		SpreadsheetID      string `toml:"spreadsheet_id"`
		SheetName          string `toml:"sheet_name"`
		ServiceAccountFile string `toml:"service_account_file"`
		OAuthClientFile    string `toml:"oauth_client_file"`
		OAuthTokenFile     string `toml:"oauth_token_file"`
	} `toml:"google"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spendly")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "spendly")
}

// FilePath returns the overlay file location: SPENDLY_CONFIG_FILE when set,
// otherwise config.toml inside Dir.
func FilePath() string {
	if p := strings.TrimSpace(os.Getenv("SPENDLY_CONFIG_FILE")); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.toml")
}

// Load builds the configuration from defaults, the optional TOML overlay and
// the environment, in increasing order of precedence.
func Load() (*Config, error) {
	fc, path, err := readFile(FilePath())
	if err != nil {
		return nil, err
	}

	appEnv := getEnv("APP_ENV", or(fc.Server.Env, EnvDevelopment))
	defaultAPI := DefaultDevelopmentAPIURL
	if appEnv == EnvProduction {
		defaultAPI = DefaultProductionAPIURL
	}
	fileTimeout := 30 * time.Second
	if fc.API.Timeout != "" {
		d, err := time.ParseDuration(fc.API.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: api.timeout: %w", path, err)
		}
		fileTimeout = d
	}
	rateLimit := 60
	if fc.Server.RateLimitPerMinute > 0 {
		rateLimit = fc.Server.RateLimitPerMinute
	}

	cfg := &Config{
		Port:               getEnv("PORT", or(fc.Server.Port, "8082")),
		AppEnv:             appEnv,
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", rateLimit),

		APIBaseURL:    strings.TrimRight(getEnv("API_BASE_URL", or(fc.API.BaseURL, defaultAPI)), "/"),
		APIBackend:    getEnv("API_BACKEND", or(fc.API.Backend, "rest")),
		APITimeout:    getEnvDuration("API_TIMEOUT", fileTimeout),
		DefaultUserID: getEnv("DEFAULT_USER_ID", or(fc.API.DefaultUserID, "1")),

		StoreBackend: getEnv("STORE_BACKEND", or(fc.Store.Backend, "sqlite")),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", or(fc.Store.SQLitePath, "./data/spendly.db")),
		StateFile:    getEnv("STATE_FILE", or(fc.Store.StateFile, filepath.Join(Dir(), "state.json"))),

		AMQPURL:      getEnv("AMQP_URL", fc.AMQP.URL),
		AMQPExchange: getEnv("AMQP_EXCHANGE", or(fc.AMQP.Exchange, "spendly")),
		AMQPQueue:    getEnv("AMQP_QUEUE", or(fc.AMQP.Queue, "export_transactions")),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", fc.Google.SpreadsheetID),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", or(fc.Google.SheetName, "Transactions")),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", fc.Google.ServiceAccountFile),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", fc.Google.OAuthClientFile),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", fc.Google.OAuthTokenFile),
		OAuthRedirectPort:        getEnv("OAUTH_REDIRECT_PORT", "8085"),

		LogLevel:   getEnv("LOG_LEVEL", or(fc.Log.Level, "info")),
		ConfigFile: path,
	}

	return cfg, nil
}

// readFile decodes the overlay at path. A missing file is not an error and
// yields an empty overlay with an empty path.
func readFile(path string) (fileConfig, string, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, "", nil
		}
		return fc, "", fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fc, "", fmt.Errorf("parsing config %s: %w", path, err)
	}
	return fc, path, nil
}

// AMQPEnabled reports whether transaction events should be published.
func (c *Config) AMQPEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// IsProduction reports whether APP_ENV selects production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AppEnv != EnvDevelopment && c.AppEnv != EnvProduction {
		errors = append(errors, fmt.Sprintf("invalid app env '%s': must be one of [%s %s]", c.AppEnv, EnvDevelopment, EnvProduction))
	}

	// Validate backend API
	validAPIBackends := []string{"rest", "memory"}
	if !slices.Contains(validAPIBackends, c.APIBackend) {
		errors = append(errors, fmt.Sprintf("invalid api backend '%s': must be one of %v", c.APIBackend, validAPIBackends))
	}
	if c.APIBackend == "rest" {
		if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http(s) URL", c.APIBaseURL))
		}
	}
	if c.APITimeout < time.Second || c.APITimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid api timeout %v: must be between 1 second and 5 minutes", c.APITimeout))
	}
	if strings.TrimSpace(c.DefaultUserID) == "" {
		errors = append(errors, "default user id cannot be empty")
	}

	// Validate store backend
	validStores := []string{"sqlite", "file", "memory"}
	if !slices.Contains(validStores, c.StoreBackend) {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validStores))
	}
	switch c.StoreBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite store")
		} else if msg := ensureDir(c.SQLiteDBPath, "SQLite database"); msg != "" {
			errors = append(errors, msg)
		}
	case "file":
		if c.StateFile == "" {
			errors = append(errors, "state file path cannot be empty when using file store")
		} else if msg := ensureDir(c.StateFile, "state file"); msg != "" {
			errors = append(errors, msg)
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateExport checks the settings the export worker needs on top of Validate.
func (c *Config) ValidateExport() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required by the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required by the export worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required by the export worker")
	}
	switch {
	case c.GoogleOAuthTokenFile != "":
		if !c.HasOAuthClient() {
			errors = append(errors, "GOOGLE_OAUTH_TOKEN_FILE needs GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON")
		}
	case c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "":
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_APPLICATION_CREDENTIALS or an OAuth token must be provided")
	}
	if len(errors) > 0 {
		return fmt.Errorf("export configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// HasOAuthClient reports whether OAuth client credentials are configured.
func (c *Config) HasOAuthClient() bool {
	return c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
}

// ensureDir creates the parent directory of path when missing and returns a
// problem description on failure.
func ensureDir(path, what string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("cannot create %s directory '%s': %v", what, dir, err)
		}
	}
	return ""
}

func or(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
