package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func initConfiguration(cmd *cobra.Command, args []string) error {
	configPath := "lmxcli.yaml"
	if len(args) > 0 {
		configPath = args[0]
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create directory if needed
	dir := filepath.Dir(configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Create sample configuration
	if err := configMgr.CreateSampleConfig(configPath); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Printf("✅ Configuration file created at %s\n", configPath)
	fmt.Println("\n📝 Please edit the configuration file to point at your LMeterX backend.")

	return nil
}

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage lmxcli configuration files and settings.`,
	}

	initConfigCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new configuration file with sample settings.
If no path is provided, creates lmxcli.yaml in the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: initConfiguration,
	}

	showConfigCmd = &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the current configuration settings.`,
		RunE:  showConfig,
	}

	validateConfigCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long:  `Validate the current configuration file for errors.`,
		RunE:  validateConfig,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initConfigCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(validateConfigCmd)
}

func showConfig(cmd *cobra.Command, args []string) error {
	config := configMgr.GetConfig()
	if config == nil {
		return fmt.Errorf("no configuration loaded")
	}

	fmt.Println("Current Configuration:")
	fmt.Println("=====================")

	fmt.Printf("Backend: %s\n", config.Server.BaseURL)
	fmt.Printf("API Token: %s\n", maskToken(config.Server.APIToken))
	fmt.Printf("Timeout: %s\n", config.Server.Timeout)

	fmt.Println("\nDraft defaults:")
	fmt.Printf("  Duration: %ds\n", config.Defaults.Duration)
	fmt.Printf("  Concurrent users: %d\n", config.Defaults.ConcurrentUsers)
	fmt.Printf("  Spawn rate: %d\n", config.Defaults.SpawnRate)

	return nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	config := configMgr.GetConfig()
	if config == nil {
		return fmt.Errorf("no configuration loaded")
	}

	fmt.Println("✅ Configuration is valid")
	fmt.Printf("Backend: %s\n", config.Server.BaseURL)

	return nil
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
