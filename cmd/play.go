package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/hayasedb/hayase-player/internal/controls"
	"github.com/hayasedb/hayase-player/internal/facade"
	"github.com/hayasedb/hayase-player/internal/host"
	"github.com/hayasedb/hayase-player/internal/markup"
	"github.com/hayasedb/hayase-player/internal/mpris"
	"github.com/hayasedb/hayase-player/internal/players/html5"
	"github.com/hayasedb/hayase-player/internal/players/mpv"
	"github.com/hayasedb/hayase-player/internal/players/youtube"
	"github.com/hayasedb/hayase-player/internal/players/youtube/bridge"
	"github.com/hayasedb/hayase-player/internal/storage"
	"github.com/hayasedb/hayase-player/internal/tui/app"
)

type playFlags struct {
	platform      string
	volume        float64
	muted         bool
	autoplay      bool
	noControls    bool
	shownElements string
	slot          string
	mpris         bool
	exitOnEnd     bool
}

var play playFlags

var playCmd = &cobra.Command{
	Use:   "play [source]",
	Short: "Play a source",
	Long: `Play a file, stream or YouTube video.

The platform is picked from --type, the configured default, the slot markup
or the source itself, in that order.`,

	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	addPlayFlags(playCmd)
}

func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&play.platform, "type", "t", "", "Platform to play with (html5-audio, html5-video, youtube)")
	cmd.Flags().Float64Var(&play.volume, "volume", 1, "Initial volume between 0 and 1")
	cmd.Flags().BoolVar(&play.muted, "muted", false, "Start muted")
	cmd.Flags().BoolVar(&play.autoplay, "autoplay", false, "Start playing as soon as the media is ready")
	cmd.Flags().BoolVar(&play.noControls, "no-controls", false, "Hide the playback controls")
	cmd.Flags().StringVar(&play.shownElements, "shown-elements", "", "Comma separated list of controls to show")
	cmd.Flags().StringVar(&play.slot, "slot", "", "Slot markup, e.g. '<video src=\"clip.mp4\"></video>'")
	cmd.Flags().BoolVar(&play.mpris, "mpris", false, "Expose the player over MPRIS")
	cmd.Flags().BoolVar(&play.exitOnEnd, "exit-on-end", false, "Quit when playback ends")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := storage.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	interactive := canAccessTTY()
	logFile, err := setupLogging(config, interactive)
	if err != nil {
		fmt.Printf("Warning: Could not setup file logging: %v\n", err)
	} else if logFile != nil {
		defer func() {
			if err := logFile.Close(); err != nil {
				log.Debug("Failed to close log file", "error", err)
			}
		}()
	}

	store, closer, err := storage.OpenPreferences(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Debug("Failed to close preference store", "error", err)
		}
	}()

	env := facade.NewEnv(
		facade.WithStore(store),
		facade.WithHost(host.New(host.WithPictureInPicture(config.GetPictureInPicture()))),
		facade.WithLogger(log.Default()),
	)

	bridges := &bridgeClients{}
	defer func() {
		if err := bridges.Close(); err != nil {
			log.Debug("Failed to close bridge", "error", err)
		}
	}()

	if err := registerPlatforms(env, config, bridges); err != nil {
		return err
	}

	opts, err := playOptions(cmd, config, args)
	if err != nil {
		return err
	}

	var surface *controls.State
	if interactive {
		surface = controls.NewState()
		opts = append(opts, facade.WithControls(surface))
	} else {
		log.Info("No terminal available, playing headless")
		opts = append(opts, facade.WithoutControls())
		if !play.autoplay {
			opts = append(opts, facade.WithAttribute(facade.AttrAutoplay, ""))
		}
	}

	player, err := facade.New(env, opts...)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	defer func() {
		if err := player.Close(); err != nil {
			log.Warn("Failed to close player", "error", err)
		}
	}()

	if play.mpris || config.GetMPRIS() {
		adapter, err := mpris.New("hayase_player", player)
		if err != nil {
			log.Warn("Failed to start MPRIS", "error", err)
		} else {
			defer func() {
				if err := adapter.Close(); err != nil {
					log.Debug("Failed to stop MPRIS", "error", err)
				}
			}()
		}
	}

	if !interactive {
		return runHeadless(ctx, player)
	}

	var appOpts []app.Option
	if play.exitOnEnd {
		appOpts = append(appOpts, app.WithExitOnEnd())
	}
	return app.Run(ctx, player, surface, appOpts...)
}

// playOptions turns flags, config and the source argument into facade
// attributes. The type goes first so the source lands on the right adapter.
func playOptions(cmd *cobra.Command, config *storage.Config, args []string) ([]facade.Option, error) {
	var opts []facade.Option

	if play.slot != "" {
		el, err := markup.Parse(play.slot)
		if err != nil {
			return nil, fmt.Errorf("invalid slot markup: %w", err)
		}
		opts = append(opts, facade.WithSlot(el))
	}

	platform := play.platform
	if platform == "" {
		platform = config.GetPlatform()
	}
	if platform != "" {
		opts = append(opts, facade.WithType(strings.ToLower(platform)))
	}

	if len(args) > 0 {
		opts = append(opts, facade.WithSource(args[0]))
	}

	if cmd.Flags().Changed("volume") {
		if play.volume < 0 || play.volume > 1 {
			return nil, fmt.Errorf("invalid volume %v, expected a value between 0 and 1", play.volume)
		}
		opts = append(opts, facade.WithAttribute(facade.AttrVolume, strconv.FormatFloat(play.volume, 'f', -1, 64)))
	}
	if play.muted {
		opts = append(opts, facade.WithAttribute(facade.AttrMuted, ""))
	}
	if play.autoplay {
		opts = append(opts, facade.WithAttribute(facade.AttrAutoplay, ""))
	}
	if play.noControls || !config.GetControls() {
		opts = append(opts, facade.WithAttribute(facade.AttrNoControls, ""))
	}

	shown := play.shownElements
	if shown == "" {
		shown = config.GetString("shownElements")
	}
	if strings.TrimSpace(shown) != "" {
		opts = append(opts, facade.WithAttribute(facade.AttrShownElements, shown))
	}

	return opts, nil
}

func registerPlatforms(env *facade.Env, config *storage.Config, bridges *bridgeClients) error {
	loader := youtube.NewLoader(bridges.dialer(config.GetBridgeURL(), env.Logger().WithPrefix("bridge")))

	for _, d := range []struct {
		name string
		err  error
	}{
		{html5.AudioPlatform, env.Use(html5.AudioDescriptor(mpv.NewElement))},
		{html5.VideoPlatform, env.Use(html5.VideoDescriptor(mpv.NewElement))},
		{youtube.Platform, env.Use(youtube.Descriptor(loader, youtube.WithOEmbed(youtube.NewOEmbedClient(config.GetOEmbedURL()))))},
	} {
		if d.err != nil {
			return fmt.Errorf("failed to register %s: %w", d.name, d.err)
		}
	}
	return nil
}

func runHeadless(ctx context.Context, player *facade.Player) error {
	done := make(chan struct{})
	var once sync.Once

	ended := player.On(facade.EventEnded, func(facade.Event) {
		once.Do(func() { close(done) })
	})
	defer ended.Close()

	failed := player.On(facade.EventError, func(facade.Event) {
		log.Error("Playback error", "platform", player.Platform(), "source", player.Source())
	})
	defer failed.Close()

	select {
	case <-ctx.Done():
		log.Debug("Interrupted, stopping playback")
	case <-done:
		log.Info("Playback completed")
	}
	return nil
}

// bridgeClients keeps the bridge connections dialed by the youtube loader
// so they can be closed on exit.
type bridgeClients struct {
	mu      sync.Mutex
	clients []*bridge.Client
}

func (b *bridgeClients) dialer(url string, logger *log.Logger) func(ctx context.Context) (youtube.API, error) {
	return func(ctx context.Context) (youtube.API, error) {
		client, err := bridge.Dial(ctx, url, logger)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.clients = append(b.clients, client)
		b.mu.Unlock()
		return client, nil
	}
}

func (b *bridgeClients) Close() error {
	b.mu.Lock()
	clients := b.clients
	b.clients = nil
	b.mu.Unlock()

	var result error
	for _, c := range clients {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
