package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Storage     StorageConfig     `toml:"storage"`
	Transfer    TransferConfig    `toml:"transfer"`
	Logging     LoggingConfig     `toml:"logging"`
	Daily       DailyConfig       `toml:"daily"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Tidal   TidalConfig   `toml:"tidal"`
}

// SpotifyConfig contains Spotify API credentials. Tokens are pre-established;
// the tool never runs an interactive auth flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// TidalConfig contains TIDAL session credentials.
type TidalConfig struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	ClientID     string `toml:"client_id"`
	UserID       string `toml:"user_id"`
	CountryCode  string `toml:"country_code"`
}

// StorageConfig contains file locations for the durable state.
type StorageConfig struct {
	LibraryPath    string `toml:"library_path"`
	CheckpointPath string `toml:"checkpoint_path"`
	DatabasePath   string `toml:"database_path"`
}

// TransferConfig contains transfer tuning knobs. The delays are cooperative
// rate limiting against remote throttling, not best-effort.
type TransferConfig struct {
	BatchSize       int `toml:"batch_size"`
	SearchThrottle  int `toml:"search_throttle_ms"`
	BatchDelay      int `toml:"batch_delay_ms"`
	PlaylistDelay   int `toml:"playlist_delay_ms"`
	MaxBatchRetries int `toml:"max_batch_retries"`
}

// LoggingConfig contains rotating log-file settings.
type LoggingConfig struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// DailyConfig contains settings for the scheduled daily sync.
type DailyConfig struct {
	Schedule string `toml:"schedule"`
	NotesDir string `toml:"notes_dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
