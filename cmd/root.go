package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hayasedb/hayase-player/internal/storage"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:     "hayase-player [source]",
	Short:   "Play media from your terminal",
	Version: Version,
	Long: `hayase-player A media player facade for the terminal.

Plays local files and streams through mpv, and YouTube videos through a
remote embed bridge, behind one set of controls.

Examples:
  hayase-player song.mp3                                  # Play with the TUI controls
  hayase-player https://youtu.be/dQw4w9WgXcQ              # Detects the youtube platform
  hayase-player clip.mp4 --volume 0.5 --autoplay          # Start at half volume
  hayase-player --slot '<video src="clip.webm"></video>'  # Describe the slot as markup`,

	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	addPlayFlags(rootCmd)
}

// setupLogging applies the configured level. With toFile set the log goes
// to a file under the config dir so it does not tear the TUI.
func setupLogging(config *storage.Config, toFile bool) (*os.File, error) {
	level := config.GetLogLevel()
	if debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if !toFile {
		return nil, nil
	}

	logFile, err := setupFileLogging(config.Dir())
	if err != nil {
		return nil, err
	}
	log.Info("Starting hayase-player", "version", Version, "timestamp", time.Now())
	log.Debug("Debug logging enabled")
	return logFile, nil
}

func canAccessTTY() bool {
	if file, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		func() {
			if err := file.Close(); err != nil {
				log.Debug("Failed to close TTY file", "error", err)
			}
		}()
		return true
	}

	if fi, err := os.Stdin.Stat(); err == nil {
		if (fi.Mode() & os.ModeCharDevice) != 0 {
			return true
		}
	}

	return false
}

func setupFileLogging(configDir string) (*os.File, error) {
	logDir := filepath.Join(configDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("hayase-player-%s.log", timestamp))

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	log.SetOutput(logFile)

	fmt.Printf("Logging to: %s\n", logPath)

	return logFile, nil
}
