package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"live-voting/internal/config"
	"live-voting/internal/infrastructure/api"
	"live-voting/internal/infrastructure/bolt"
	"live-voting/internal/services"
	"live-voting/pkg/logger"
	"live-voting/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

type globalOptions struct {
	configPath string
	serverURL  string
	logLevel   string
}

var globals globalOptions

var rootCmd = &cobra.Command{
	Use:   "livevote",
	Short: "Follow and take part in a live vote",
	Long: `livevote connects to a live voting server, keeps a persistent push
channel open and shows rankings, the current winner and vote shares as they
change. It can also cast this client's vote and run admin actions.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globals.configPath, "config", "c", "", "Path to a config file (default: ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&globals.serverURL, "server", "s", "", "Voting server base URL, overrides server.base_url")
	rootCmd.PersistentFlags().StringVar(&globals.logLevel, "log-level", "", "Log level, overrides log.level")

	rootCmd.AddCommand(
		newWatchCommand(),
		newVoteCommand(),
		newResultsCommand(),
		newCandidatesCommand(),
		newClientIDCommand(),
		newAdminCommand(),
		newTailCommand(),
	)
}

// app holds what every command needs.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	client *api.Client
}

func newApp() (*app, error) {
	var cfg *config.Config
	var err error
	if globals.configPath != "" {
		cfg, err = config.LoadFromFile(globals.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if globals.serverURL != "" {
		cfg.Server.BaseURL = globals.serverURL
	}
	if globals.logLevel != "" {
		cfg.Log.Level = globals.logLevel
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	return &app{
		cfg:    cfg,
		log:    log,
		client: api.NewClient(cfg.Server.BaseURL, cfg.Server.RequestTimeout, log),
	}, nil
}

// clientID loads the persisted client id, creating it on first use.
func (a *app) clientID(ctx context.Context) (string, error) {
	identityStore, err := bolt.Open(a.cfg.Identity.Path)
	if err != nil {
		return "", err
	}
	defer identityStore.Close()

	device := utils.Device{
		UserAgent: a.cfg.Identity.UserAgent,
		Screen:    a.cfg.Identity.Screen,
		Timezone:  time.Local.String(),
	}
	identity := services.NewIdentityService(identityStore, a.cfg.Identity.Namespace, device,
		clockwork.NewRealClock(), a.log)
	return identity.ClientID(ctx)
}

func (a *app) close() {
	if l, ok := a.log.(*logger.ZapLogger); ok {
		l.Sync()
	}
}
