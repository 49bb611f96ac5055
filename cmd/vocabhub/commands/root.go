package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vocabhub/internal/config"
	"vocabhub/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "vocabhub",
	Short: "vocabhub publishes SKOS vocabularies and their concept hierarchies",
	Long: `vocabhub serves SKOS vocabularies from local RDF files, SPARQL endpoints
and linked-data registries, and renders the broader/narrower hierarchy below
any concept as a collapsible tree.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file (default: $VOCABHUB_CONFIG or ./vocabhub.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

// loadConfig reads the config selected by --config, or searches the default
// locations, and installs the configured logger
func loadConfig() (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger := logging.Init(cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}
