package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/swashbuckle/internal/chat"
	"github.com/starford/swashbuckle/internal/search"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var httpURL = regexp.MustCompile(`^https?://[^\s/]+`)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	Site    SiteConfig        `yaml:"site"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Search  SearchConfig      `yaml:"search"`
	Chat    ChatConfig        `yaml:"chat"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Chat.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// ContentConfig points at the Markdown sources.
type ContentConfig struct {
	Path          string        `yaml:"path"`
	IncludeDrafts bool          `yaml:"include_drafts"`
	Debounce      time.Duration `yaml:"debounce"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// SiteConfig holds the generated site's presentation and output settings.
type SiteConfig struct {
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	OutputDir      string `yaml:"output_dir"`
	HighlightStyle string `yaml:"highlight_style"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
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

// SearchConfig selects the search engine.
type SearchConfig struct {
	Engine string `yaml:"engine"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if c.Engine == "" {
		c.Engine = search.EngineSQLite
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Engine, validation.In(search.EngineSQLite, search.EngineBleve)),
	)
}

// ChatConfig describes the remote answering service.
//
// Timeout of zero leaves requests unbounded. Variants are tried in order;
// the first is the default selection.
type ChatConfig struct {
	BaseURL  string         `yaml:"base_url"`
	Timeout  time.Duration  `yaml:"timeout"`
	Variants []chat.Variant `yaml:"variants"`
}

// Validate validates the chat configuration.
func (c *ChatConfig) Validate() error {
	if len(c.Variants) == 0 {
		c.Variants = chat.DefaultVariants()
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.Match(httpURL)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Variants))
	for i, v := range c.Variants {
		if v.Name == "" || v.Route == "" {
			return fmt.Errorf("chat: variant %d needs a name and a route", i)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("chat: duplicate variant %q", v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}

// AuthConfig holds authentication configuration for the reindex endpoint.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Path:     "./content",
			Debounce: 200 * time.Millisecond,
		},
		Site: SiteConfig{
			Title:          "Swashbuckling with Code",
			Description:    "A coding blog",
			OutputDir:      "./public",
			HighlightStyle: "github",
		},
		SQLite: SQLiteConfig{
			Path: "./swashbuckle.db",
		},
		Search: SearchConfig{
			Engine: search.EngineSQLite,
		},
		Chat: ChatConfig{
			BaseURL:  "http://localhost:5000",
			Variants: chat.DefaultVariants(),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
