package cmd

import (
	"fmt"
	"runtime"
	rtdebug "runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/storage"
)

// Set by the release build through -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the build, the libraries the player runs on and the platforms it can play.",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// backends are the modules that decide what the player can do at runtime.
var backends = []string{
	"github.com/gen2brain/go-mpv",
	"nhooyr.io/websocket",
	"modernc.org/sqlite",
}

func runVersion(*cobra.Command, []string) error {
	fmt.Printf("hayase-player %s (%s, built %s)\n", Version, Commit, Date)
	fmt.Printf("  Go:        %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	if info, ok := rtdebug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			for _, path := range backends {
				if dep.Path == path {
					fmt.Printf("  %-10s %s\n", shortModule(path)+":", dep.Version)
				}
			}
		}
	}

	env := facade.NewEnv()
	if config, err := storage.NewConfig(); err == nil {
		if err := registerPlatforms(env, config, &bridgeClients{}); err == nil {
			fmt.Printf("  Platforms: %s\n", strings.Join(env.Registry().Platforms(), ", "))
		}
		fmt.Printf("  Store:     %s\n", config.GetPreferencesBackend())
	}

	return nil
}

func shortModule(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

func SetVersionInfo(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
	rootCmd.Version = version
}
