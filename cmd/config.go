package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/hayasedb/hayase-player/internal/models"
	"github.com/hayasedb/hayase-player/internal/players/html5"
	"github.com/hayasedb/hayase-player/internal/players/youtube"
	"github.com/hayasedb/hayase-player/internal/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or manage configuration",
	Long: `View current configuration or set configuration values.

Examples:
  hayase-player config                                # Show current config
  hayase-player config set platform html5-video       # Set the default platform
  hayase-player config set shownElements playPause,volume
  hayase-player config set preferences.backend sqlite # Keep preferences in sqlite`,

	RunE: runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available settings:
  platform             Default platform (html5-audio, html5-video, youtube, or "" to detect)
  controls             Show the playback controls (true, false)
  shownElements        Comma separated controls (playPause, volume, mute, timer, seek, settings, fullscreen, pip)
  bridge.url           Websocket URL of the embed bridge
  oembed.url           oEmbed endpoint used for video titles
  preferences.backend  Where volume and mute are remembered (file, sqlite, memory)
  mpris                Expose the player over MPRIS (true, false)
  pictureInPicture     Allow picture-in-picture (true, false)
  logLevel             Log level (debug, info, warn, error)`,

	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfig(*cobra.Command, []string) error {
	config, err := storage.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	platform := config.GetPlatform()
	if platform == "" {
		platform = "auto"
	}
	shown := lo.Map(config.GetShownElements(), func(el models.ControlElement, _ int) string {
		return string(el)
	})

	fmt.Println("current config:")
	fmt.Println()

	fmt.Printf("  Platform:     %s\n", platform)
	fmt.Printf("  Controls:     %t\n", config.GetControls())
	fmt.Printf("  Shown:        %s\n", strings.Join(shown, ", "))
	fmt.Printf("  Bridge:       %s\n", config.GetBridgeURL())
	fmt.Printf("  oEmbed:       %s\n", config.GetOEmbedURL())
	fmt.Printf("  Preferences:  %s\n", config.GetPreferencesBackend())
	fmt.Printf("  MPRIS:        %t\n", config.GetMPRIS())
	fmt.Printf("  PiP:          %t\n", config.GetPictureInPicture())
	fmt.Printf("  Log level:    %s\n", config.GetLogLevel())
	fmt.Printf("  Directory:    %s\n", config.Dir())

	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	value := strings.TrimSpace(args[1])

	config, err := storage.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch key {
	case "platform":
		value = strings.ToLower(value)
		validPlatforms := []string{"", html5.AudioPlatform, html5.VideoPlatform, youtube.Platform}
		if !lo.Contains(validPlatforms, value) {
			return fmt.Errorf("invalid platform '%s'. Valid options: %s", value, strings.Join(validPlatforms[1:], ", "))
		}
		config.Set("platform", value)

	case "controls", "mpris", "pictureinpicture":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value '%s' for %s, expected true or false", value, key)
		}
		config.Set(key, b)

	case "shownelements":
		for _, item := range strings.Split(value, ",") {
			if el := models.ControlElement(strings.TrimSpace(item)); el != "" && !el.Known() {
				return fmt.Errorf("unknown control '%s'", el)
			}
		}
		config.Set("shownElements", value)

	case "bridge.url", "oembed.url":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid URL '%s'", value)
		}
		config.Set(key, value)

	case "preferences.backend":
		value = strings.ToLower(value)
		validBackends := []string{storage.BackendFile, storage.BackendSQLite, storage.BackendMemory}
		if !lo.Contains(validBackends, value) {
			return fmt.Errorf("invalid backend '%s'. Valid options: %s", value, strings.Join(validBackends, ", "))
		}
		config.Set("preferences.backend", value)

	case "loglevel":
		if _, err := log.ParseLevel(strings.ToLower(value)); err != nil {
			return fmt.Errorf("invalid log level '%s'", value)
		}
		config.Set("logLevel", strings.ToLower(value))

	default:
		return fmt.Errorf("unknown configuration key '%s'", key)
	}

	if err := config.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("Configuration updated: %s = %s\n", key, value)

	return nil
}
