package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/clubbot/club/bot"
	"github.com/m3rciful/clubbot/club/config"
	"github.com/m3rciful/clubbot/core/buildinfo"
	corecmd "github.com/m3rciful/clubbot/core/cmd"
	coredatabase "github.com/m3rciful/clubbot/core/database"
	"github.com/m3rciful/clubbot/core/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "clubbot",
	Short:         "English Club registration bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (webhook or long polling)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply submission archive migrations and exit",
	RunE:  runMigrate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(*cobra.Command, []string) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.New(ctx, cfg.(*config.Config))
		},
	})
}

func runMigrate(*cobra.Command, []string) error {
	cfg, err := config.Load(corecmd.ResolveConfigPath(corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: "config.yaml",
	}))
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("migrate: database is not configured (DB_HOST)")
	}
	if err := logger.InitLogger(&cfg.Config); err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return coredatabase.RunMigrations(ctx, cfg.Database)
}
