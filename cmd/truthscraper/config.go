package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage truthscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TRUTHSCRAPER_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'truthscraper.yaml' in the current directory unless
a different path is given with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources.

Credential values are masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "truthscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		exitOnError(fmt.Errorf("configuration file already exists: %s", configPath))
	}

	exampleConfig := `# Truthscraper configuration file
#
# All options can also be set through environment variables prefixed with
# TRUTHSCRAPER_, for example TRUTHSCRAPER_TOKEN or TRUTHSCRAPER_USERNAME.

truthsocial:
  # Account credentials. Provide either a token, or a username and
  # password pair. Prefer 'truthscraper auth login' over writing
  # credentials into this file.
  username: ""
  password: ""
  token: ""

  # API base URL and per-request timeout.
  base_url: "https://truthsocial.com/api"
  timeout: 30s

rate_limit:
  # Sleep until the server-reported reset when the remaining quota falls
  # to this level or below.
  remaining_threshold: 50

  # Sleep this long when the reset timestamp is missing or in the past.
  fallback_sleep: 10s

media:
  # Media attachment downloads (statuses --download-media).
  concurrent_downloads: 3
  download_timeout: 30s
  directory: "./media"

export:
  # Artifact files written with --export.
  directory: "./outputs"
  format: "jsonl"   # jsonl, json or csv

logging:
  level: "info"     # debug, info, warn, error
  file: ""          # empty logs to stderr only
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		exitOnError(fmt.Errorf("failed to write configuration file: %w", err))
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'truthscraper auth login' to store credentials")
	fmt.Println("  2. Run 'truthscraper statuses <handle>' to start pulling")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitOnError(err)
	}

	masked := *cfg
	if masked.TruthSocial.Password != "" {
		masked.TruthSocial.Password = "********"
	}
	if masked.TruthSocial.Token != "" {
		masked.TruthSocial.Token = "********"
	}

	data, err := yaml.Marshal(&masked)
	if err != nil {
		exitOnError(fmt.Errorf("failed to render configuration: %w", err))
	}
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg = config.DefaultConfig()
		err = cfg.LoadFromFile(configFile)
	} else {
		cfg, err = loadConfig()
	}
	if err != nil {
		exitOnError(err)
	}

	if err := cfg.Validate(); err != nil {
		exitOnError(fmt.Errorf("configuration is invalid: %w", err))
	}
	fmt.Println("Configuration is valid.")
}
