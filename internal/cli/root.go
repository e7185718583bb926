package cli

import (
	"context"
	"os"

	"truthquest-service/internal/config"
	"truthquest-service/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "truthquest-service",
		Short:        "Truth Quest game backend: scores, progress, power-ups and invites",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewSeedPowerUpsCmd(&configPath))
	cmd.AddCommand(NewCheckLevelsCmd(&configPath))
	cmd.AddCommand(NewSeedBadgesCmd(&configPath))
	cmd.AddCommand(NewInvalidateContentCmd(&configPath))
	return cmd
}

// bootstrap loads config and builds the process logger.
func bootstrap(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
