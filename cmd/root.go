package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mkv-git/openttd/app"
	"github.com/mkv-git/openttd/config"
	"github.com/mkv-git/openttd/core/monitoring"
	"github.com/mkv-git/openttd/infra/logger"
	inframon "github.com/mkv-git/openttd/infra/monitoring"
)

var (
	cfgPath string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:          "linkrefresh",
	Short:        "Predict vehicle links and refresh the cargo flow graph",
	SilenceUsage: true,
	RunE:         serve,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); empty uses defaults and K_ variables")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadEnv loads path into the environment. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newService starts error reporting and builds the service. The returned
// function closes both.
func newService(cfg *config.Config) (*app.Service, func(), error) {
	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, nil, err
	}
	monitoring.Init(mon)
	svc, err := app.New(cfg)
	if err != nil {
		monitoring.CaptureException(err, nil)
		monitoring.Flush(2 * time.Second)
		return nil, nil, err
	}
	closeFn := func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
			monitoring.CaptureException(err, nil)
		}
		monitoring.Flush(2 * time.Second)
	}
	return svc, closeFn, nil
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, closeFn, err := newService(cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	defer monitoring.Recover()
	return svc.Run(ctx)
}
