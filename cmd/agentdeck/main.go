package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/pkg/api"
	"github.com/agentdeck/agentdeck/pkg/app"
	"github.com/agentdeck/agentdeck/pkg/config"
	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configPath  string
	metricsAddr string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agentdeck",
	Short: "Agentdeck - terminal client for the agentic email-workflow backend",
	Long: `Agentdeck is a terminal client for an agentic email-workflow backend.
It keeps a local cache of tasks, agents and workflows, follows live
workflow progress over the backend's event stream, and maintains a
persisted notification log.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Agentdeck version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(emailCmd)
	rootCmd.AddCommand(incidentCmd)
	rootCmd.AddCommand(notificationCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// withApp bootstraps the client stack for one command invocation
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.Init(log.Config{Level: cfg.LogLevel})

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(metricsAddr, metrics.Handler()); err != nil {
				logger := log.WithComponent("main")
				logger.Warn().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Auth.Initialize(ctx, a.API); err != nil {
		// Backend unreachable; commands that need it will fail with a
		// clearer error of their own.
		logger := log.WithComponent("main")
		logger.Warn().Err(err).Msg("could not verify stored session")
	}

	return fn(ctx, a)
}

// requireAuth fails early for commands that cannot work logged out
func requireAuth(a *app.App) error {
	if !a.Auth.Session().IsAuthenticated {
		return fmt.Errorf("not signed in, run 'agentdeck login' first")
	}
	return nil
}

// friendlyErr rewrites backend errors for terminal output
func friendlyErr(err error) error {
	if api.IsAuthError(err) {
		return fmt.Errorf("session expired, run 'agentdeck login' again")
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s", apiErr.Detail)
	}
	return err
}
