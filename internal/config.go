package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notecal/internal/index"
	"github.com/starford/notecal/internal/noteservice"
	"github.com/starford/notecal/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace" toml:"workspace"`
	Watcher   WatcherConfig     `yaml:"watcher" toml:"watcher"`
	SQLite    SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Watcher.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
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

// WorkspaceConfig describes the notes workspace and how notes are found and created.
type WorkspaceConfig struct {
	Root            string   `yaml:"root" toml:"root"`
	Extensions      []string `yaml:"extensions" toml:"extensions"`
	Exclude         []string `yaml:"exclude" toml:"exclude"`
	DateFields      []string `yaml:"date_fields" toml:"date_fields"`
	NotesDirectory  string   `yaml:"notes_directory" toml:"notes_directory"`
	FilenamePattern string   `yaml:"new_note_filename_pattern" toml:"new_note_filename_pattern"`
	ScanWorkers     int      `yaml:"scan_workers" toml:"scan_workers"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Extensions, validation.Required, validation.Each(validation.By(isExtension))),
		validation.Field(&c.Exclude, validation.Each(validation.By(isGlob))),
		validation.Field(&c.DateFields, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.FilenamePattern, validation.Required, validation.By(hasDateTokens)),
		validation.Field(&c.ScanWorkers, validation.Required, validation.Min(1), validation.Max(256)),
	)
}

// Matcher builds the storage matcher for the configured extensions and exclusions.
func (c *WorkspaceConfig) Matcher() (*storage.Matcher, error) {
	return storage.NewMatcher(c.Extensions, c.Exclude)
}

func isExtension(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, ".") || len(s) < 2 {
		return errors.New("must start with a dot, e.g. \".md\"")
	}
	return nil
}

func isGlob(value any) error {
	s, _ := value.(string)
	if !doublestar.ValidatePattern(s) {
		return fmt.Errorf("invalid glob %q", s)
	}
	return nil
}

func hasDateTokens(value any) error {
	s, _ := value.(string)
	for _, tok := range []string{"YYYY", "MM", "DD"} {
		if !strings.Contains(s, tok) {
			return fmt.Errorf("must contain %s", tok)
		}
	}
	return nil
}

// WatcherConfig tunes the file-system watcher.
type WatcherConfig struct {
	Debounce   time.Duration `yaml:"debounce" toml:"debounce"`
	RetryDelay time.Duration `yaml:"retry_delay" toml:"retry_delay"`
	MaxRetries int           `yaml:"max_retries" toml:"max_retries"`
}

// Validate validates the watcher configuration.
func (c *WatcherConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.By(positiveDuration)),
		validation.Field(&c.RetryDelay, validation.By(positiveDuration)),
		validation.Field(&c.MaxRetries, validation.Min(0), validation.Max(100)),
	)
}

func positiveDuration(value any) error {
	d, _ := value.(time.Duration)
	if d <= 0 {
		return errors.New("must be a positive duration")
	}
	return nil
}

// SQLiteConfig holds SQLite mirror configuration. An empty Path disables the mirror.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Enabled reports whether the mirror is configured.
func (c *SQLiteConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
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
		Workspace: WorkspaceConfig{
			Root:            ".",
			Extensions:      append([]string(nil), storage.DefaultExtensions...),
			Exclude:         append([]string(nil), storage.DefaultExclude...),
			DateFields:      append([]string(nil), index.DefaultDateFields...),
			FilenamePattern: noteservice.DefaultFilenamePattern,
			ScanWorkers:     8,
		},
		Watcher: WatcherConfig{
			Debounce:   index.DefaultDebounce,
			RetryDelay: index.DefaultRetryDelay,
			MaxRetries: index.DefaultMaxRetries,
		},
		SQLite: SQLiteConfig{
			Path: "./notecal.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
