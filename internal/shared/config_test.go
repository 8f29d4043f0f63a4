package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Transfer.BatchSize != 50 {
			t.Errorf("expected batch size 50, got %d", config.Transfer.BatchSize)
		}

		if config.Transfer.SearchThrottle != 1500 {
			t.Errorf("expected search throttle 1500ms, got %d", config.Transfer.SearchThrottle)
		}

		if config.Storage.CheckpointPath != "transfer_checkpoint.json" {
			t.Errorf("expected checkpoint path transfer_checkpoint.json, got %s", config.Storage.CheckpointPath)
		}

		if config.Daily.Schedule != "0 9 * * *" {
			t.Errorf("expected daily schedule 0 9 * * *, got %s", config.Daily.Schedule)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Storage.LibraryPath != defaultConfig.Storage.LibraryPath {
			t.Error("created config library path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
access_token = "test_token"

[credentials.tidal]
access_token = "tidal_token"
user_id = "12345"
country_code = "DE"

[storage]
library_path = "/custom/library.csv"

[transfer]
batch_size = 25
search_throttle_ms = 500
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Tidal.UserID != "12345" {
			t.Errorf("expected tidal user 12345, got %s", config.Credentials.Tidal.UserID)
		}

		if config.Storage.LibraryPath != "/custom/library.csv" {
			t.Errorf("expected custom library path, got %s", config.Storage.LibraryPath)
		}

		if config.Transfer.BatchSize != 25 {
			t.Errorf("expected batch size 25, got %d", config.Transfer.BatchSize)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
