package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/storage"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the available platforms",
	Long:  "List every registered platform together with the features it supports.",
	Args:  cobra.NoArgs,
	RunE:  runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(*cobra.Command, []string) error {
	config, err := storage.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	env := facade.NewEnv()
	if err := registerPlatforms(env, config, &bridgeClients{}); err != nil {
		return err
	}

	fmt.Println("platforms:")
	fmt.Println()

	for _, d := range env.Registry().Descriptors() {
		marker := " "
		if d.Platform == config.GetPlatform() {
			marker = "*"
		}
		features := d.Features.String()
		if features == "" {
			features = "none"
		}
		fmt.Printf(" %s %-12s %s\n", marker, d.Platform, features)
	}

	return nil
}
