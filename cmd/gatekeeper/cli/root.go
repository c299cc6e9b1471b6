package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/config"
)

var (
	cfgFile       string
	appVersion    string // set in Execute, reported by serve, openapi and mcp
	configReadErr error
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatekeeper",
		Short: "Admin account and session service",
		Long: `Gatekeeper: registration, email activation, login and logout for admin accounts.

Sessions live in Redis and are referenced by RS256-signed bearer tokens. Protected
routes check the token signature and, where required, that the session is still live.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./gatekeeper.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite store, PID and log files (default: ~/.gatekeeper)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newKeysCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

func initConfig() {
	config.ConfigureViper(viper.GetViper(), cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env still apply. An explicit
		// --config that cannot be read surfaces in loadConfig.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}
		configReadErr = err
	}
}

// loadConfig returns the validated configuration, honoring --data-dir.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil && cfgFile != "" {
		return nil, configReadErr
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}
