package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/internal/config"
	"github.com/techpathai/learnyst-automator/internal/observability"
)

var (
	cfgFile string
	// appConfig is populated by PersistentPreRunE and read by subcommands.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "learnyst-automator",
	Short:   "Drives the Learnyst admin console to automate account management.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Runs before every subcommand: load config, then bring up logging.
		if err := initializeConfig(); err != nil {
			return err
		}

		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "learnyst-automator"})
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
		appConfig = &cfg

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting learnyst-automator.", zap.String("version", Version))
		return nil
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed.", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml, then ~/.learnyst-automator/config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig loads defaults, the config file and LEARNYST_* environment
// variables into the global viper, in that precedence order.
func initializeConfig() error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(home + "/.learnyst-automator")
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LEARNYST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults plus environment carry the day.
	}
	return nil
}
