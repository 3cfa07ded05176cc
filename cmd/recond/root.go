/*
root.go - Command tree and configuration

PURPOSE:
  Defines the recond CLI: serve runs the HTTP API, reconcile runs
  one batch pass from files, rules manages configurations.

CONFIGURATION:
  viper merges, highest priority first:
    1. Command-line flags
    2. RECOND_* environment variables
    3. recond.yaml (working dir or --config path)
    4. Defaults

KEYS:
  listen            HTTP listen address       (:8080)
  db                SQLite path               (recond.db)
  cors_origins      Allowed dashboard origins
  preset            Default rule preset       (advance-exchange)
  portal.url        Fulfillment portal base URL (scraping off when empty)
  portal.rpm        Scrape page loads per minute (12)
  portal.cache_ttl  Detail cache TTL          (5m)
  smtp.host/port/username/password/from      Digest delivery
*/
package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	var cfgFile string
	var verbose bool

	root := &cobra.Command{
		Use:           "recond",
		Short:         "Claims/fulfillment status reconciliation engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./recond.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newServeCmd(&verbose))
	root.AddCommand(newReconcileCmd(&verbose))
	root.AddCommand(newRulesCmd())

	return root
}

func initConfig(cfgFile string) error {
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("db", "recond.db")
	viper.SetDefault("cors_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	viper.SetDefault("preset", "advance-exchange")
	viper.SetDefault("portal.rpm", 12)
	viper.SetDefault("portal.cache_ttl", "5m")
	viper.SetDefault("smtp.port", 587)

	viper.SetEnvPrefix("RECOND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("recond")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; a broken one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
