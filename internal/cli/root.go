// Package cli implements the cannonbot command line.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/cannonbot/internal/config"
	"github.com/me/cannonbot/internal/logging"
)

var (
	flagConfig    string
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg    config.Config
	logger *slog.Logger
	client *Client
)

// defaultServer returns the default API URL, checking CANNONBOT_SERVER first.
func defaultServer() string {
	if s := os.Getenv("CANNONBOT_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the cannonbot CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cannonbot",
		Short: "cannonbot: action scheduler for a pneumatic cannon robot",
		Long: "cannonbot runs the cannon robot's cooperative action scheduler on simulated\n" +
			"hardware, replays scripted scenarios and inspects the event journal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(flagConfig)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = flagLogLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format = flagLogFormat
			}
			if flagDebug {
				cfg.Log.Level = "debug"
			}
			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			logger, err = logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
			if err != nil {
				return err
			}
			client = NewClient(flagServer, logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Robot API URL for status, press and cancel (or CANNONBOT_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newSimulateCmd(),
		newEventsCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newPressCmd(),
		newCancelCmd(),
	)

	return root
}
