// Command tripmate is the entry point for the tripmate travel assistant.
//
// Subcommands:
//
//	serve    run the HTTP API
//	chat     talk to the agent in the terminal using the configured store
//	migrate  create the SQL schema of the configured store
//	ask      send one message to a running server
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrWong99/tripmate/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tripmate: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A fresh viper instance per tree keeps
// tests independent of each other.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("tripmate")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "tripmate",
		Short:         "Conversational travel-deals assistant",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "path to the YAML configuration file")
	root.PersistentFlags().String("server", "http://localhost:8080", "tripmate server URL used by ask")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))

	root.AddCommand(
		newServeCmd(v),
		newChatCmd(v),
		newMigrateCmd(v),
		newAskCmd(v),
	)
	return root
}

// loadConfig reads the file named by --config and installs the logger for
// its log level.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q not found; copy configs/example.yaml to get started", path)
		}
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	return cfg, nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
