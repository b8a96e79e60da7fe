package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pantry/internal/debounce"
	"github.com/starford/pantry/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Site    SiteConfig        `yaml:"site"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Filter  FilterConfig      `yaml:"filter"`
	Capture CaptureConfig     `yaml:"capture"`
	SSE     SSEConfig         `yaml:"sse"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.App, &c.Site, &c.SQLite, &c.Auth, &c.Filter, &c.Capture, &c.SSE,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig holds the path to the directory of listing pages.
type SiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// FilterConfig tunes filter sessions.
type FilterConfig struct {
	// Debounce is the quiet window after typing before a pass runs.
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the filter configuration.
func (c *FilterConfig) Validate() error {
	if c.Debounce == 0 {
		c.Debounce = debounce.DefaultDelay
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Millisecond), validation.Max(10*time.Second)),
	)
}

// CaptureConfig holds the CSS selectors used to capture recipe cards.
type CaptureConfig struct {
	parser.Selectors `yaml:",inline"`
}

// Validate validates the capture configuration. Only the card selector is
// required; an empty field selector captures nothing for that field.
func (c *CaptureConfig) Validate() error {
	return validation.ValidateStruct(&c.Selectors,
		validation.Field(&c.Selectors.Card, validation.Required),
	)
}

// SSEConfig holds Server-Sent Events configuration.
type SSEConfig struct {
	// CatalogThrottle is the minimum gap between catalog.updated events.
	CatalogThrottle time.Duration `yaml:"catalog_throttle"`
}

// Validate validates the SSE configuration.
func (c *SSEConfig) Validate() error {
	if c.CatalogThrottle == 0 {
		c.CatalogThrottle = 2 * time.Second
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.CatalogThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Path: "./site",
		},
		SQLite: SQLiteConfig{
			Path: "./pantry.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Filter: FilterConfig{
			Debounce: debounce.DefaultDelay,
		},
		Capture: CaptureConfig{
			Selectors: parser.DefaultSelectors(),
		},
		SSE: SSEConfig{
			CatalogThrottle: 2 * time.Second,
		},
	}
}
