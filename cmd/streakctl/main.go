// Command streakctl inspects and drives the streak engine directly on the configured store,
// without going through the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/gymstreak/internal"
	"github.com/2beens/gymstreak/internal/config"
	"github.com/2beens/gymstreak/internal/logging"
	"github.com/2beens/gymstreak/internal/streaks"
	"github.com/2beens/gymstreak/internal/telemetry/metrics"
)

type app struct {
	service *streaks.Service
	userID  string
	now     func() time.Time
}

type appOpener func(ctx context.Context, env, configPath string) (*app, func(), error)

func main() {
	rootCmd, cleanup := newRootCmd(openApp)
	err := rootCmd.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

func openApp(ctx context.Context, env, configPath string) (*app, func(), error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, nil, err
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, nil, err
	}

	// keep stdout for command output, logs go to the configured file when there is one
	logging.Setup(logging.LoggerSetupParams{
		LogFileName: cfg.LogsPath,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	backends, err := internal.OpenBackends(ctx, cfg, secrets)
	if err != nil {
		return nil, nil, fmt.Errorf("open backends: %w", err)
	}

	return &app{
		service: internal.NewStreaksService(cfg, backends, metrics.NewManager("gymstreak", "cli", nil)),
		userID:  cfg.UserID,
		now:     time.Now,
	}, backends.Close, nil
}

// newRootCmd returns the command tree and a cleanup releasing whatever the executed command opened.
func newRootCmd(open appOpener) (*cobra.Command, func()) {
	var (
		env        string
		configPath string
		user       string
		a          *app
		closeApp   func()
	)

	rootCmd := &cobra.Command{
		Use:          "streakctl",
		Short:        "Inspect and drive the weekly workout streaks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, closeApp, err = open(cmd.Context(), env, configPath)
			if err != nil {
				return err
			}
			if user != "" {
				a.userID = user
			}
			log.Debugf("streakctl: user [%s]", a.userID)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment [prod | production | dev | development | ddev | dockerdev ]")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "user id, defaults to the configured one")

	appFn := func() *app { return a }
	rootCmd.AddCommand(
		newStatusCmd(appFn),
		newFinalizeCmd(appFn),
		newCarryoverCmd(appFn),
		newRescueCmd(appFn),
	)
	return rootCmd, func() {
		if closeApp != nil {
			closeApp()
		}
	}
}
