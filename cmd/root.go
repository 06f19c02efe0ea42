package cmd

import (
	"fmt"
	"os"

	"lmxcli/internal/config"
	"lmxcli/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	verbose   bool
	configMgr *config.Manager
	logger    zerolog.Logger
	rootCmd   = &cobra.Command{
		Use:   "lmxcli",
		Short: "A client for configuring and submitting LMeterX benchmark jobs",
		Long: `lmxcli is a CLI/TUI client for the LMeterX load-testing platform.
It walks you through configuring an API benchmark job (target, payload,
load profile, dataset, response field mapping), dry-runs the target
endpoint, and submits the job to the backend for execution.`,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/lmxcli/lmxcli.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	logger = logging.New(verbose)
	configMgr = config.NewManager()

	// Skip config loading for config init command to avoid chicken-and-egg problem
	if len(os.Args) >= 3 && os.Args[1] == "config" && os.Args[2] == "init" {
		return
	}

	if err := configMgr.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}
