package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/hayasedb/hayase-player/internal/models"
)

const appName = "hayase-player"

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	v   *viper.Viper
	dir string
}

func NewConfig() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	return NewConfigIn(configDir)
}

// NewConfigIn loads (or creates) config.yaml in dir.
func NewConfigIn(configDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("HAYASE_PLAYER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	config := &Config{v: v, dir: configDir}

	if err := config.Load(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			if err := config.Save(); err != nil {
				log.Debug("Failed to write default config", "error", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("platform", "")
	v.SetDefault("controls", true)
	v.SetDefault("shownElements", "")

	v.SetDefault("bridge.url", "ws://127.0.0.1:8765/embed")
	v.SetDefault("oembed.url", "https://noembed.com/embed")

	v.SetDefault("preferences.backend", BackendFile)

	v.SetDefault("mpris", false)
	v.SetDefault("pictureInPicture", true)

	v.SetDefault("logLevel", "info")
}

func getConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

func (c *Config) Dir() string {
	return c.dir
}

func (c *Config) Load() error {
	return c.v.ReadInConfig()
}

func (c *Config) Save() error {
	if err := c.v.WriteConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return c.v.SafeWriteConfig()
		}
		return err
	}
	return nil
}

func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

func (c *Config) AllSettings() map[string]interface{} {
	return c.v.AllSettings()
}

// GetPlatform returns the configured default platform, empty for
// auto-detection.
func (c *Config) GetPlatform() string {
	return c.GetString("platform")
}

func (c *Config) GetControls() bool {
	return c.GetBool("controls")
}

func (c *Config) GetShownElements() []models.ControlElement {
	list := c.GetString("shownElements")
	if strings.TrimSpace(list) == "" {
		return models.DefaultShownElements()
	}
	return models.ParseShownElements(list)
}

func (c *Config) GetBridgeURL() string {
	return c.GetString("bridge.url")
}

func (c *Config) GetOEmbedURL() string {
	return c.GetString("oembed.url")
}

func (c *Config) GetPreferencesBackend() string {
	switch backend := strings.ToLower(c.GetString("preferences.backend")); backend {
	case BackendFile, BackendSQLite, BackendMemory:
		return backend
	default:
		log.Warn("Unknown preferences backend, using file", "backend", backend)
		return BackendFile
	}
}

func (c *Config) GetMPRIS() bool {
	return c.GetBool("mpris")
}

func (c *Config) GetPictureInPicture() bool {
	return c.GetBool("pictureInPicture")
}

func (c *Config) GetLogLevel() log.Level {
	level, err := log.ParseLevel(c.GetString("logLevel"))
	if err != nil {
		return log.InfoLevel
	}
	return level
}
