package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbiosca-fulcrum/truthsocialscraping/internal/export"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/auth"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/config"
	aerrors "github.com/pbiosca-fulcrum/truthsocialscraping/pkg/errors"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/logger"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/truthsocial"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	accountName  string
	exportFlag   bool
	exportFormat string
	exportDir    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "truthscraper",
	Short: "A Truth Social scraping client with server-driven rate limiting",
	Long: `Truthscraper pulls statuses, followers, search results and trends from
Truth Social's private web API.

Features:
  - Secure credential storage using system keychain
  - Rate limiting driven by the server's x-ratelimit headers
  - Resumable streams with on-disk checkpoints
  - JSON, JSONL and CSV export artifacts
  - Concurrent media attachment downloads

Results are written to stdout as JSON lines; logs go to stderr.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.truthscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	rootCmd.PersistentFlags().BoolVar(&exportFlag, "export", false, "also write results to an artifact file")
	rootCmd.PersistentFlags().StringVar(&exportFormat, "export-format", "", "artifact format (jsonl, json, csv)")
	rootCmd.PersistentFlags().StringVar(&exportDir, "export-dir", "", "artifact output directory")

	rootCmd.SetVersionTemplate(`truthscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the effective configuration from file, environment and
// the global flags.
func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if exportFormat != "" {
		cfg.Export.Format = exportFormat
	}
	if exportDir != "" {
		cfg.Export.Directory = exportDir
	}
	return cfg, nil
}

// newClient builds a logged-in API client from config and stored
// credentials. Config file credentials win; the credential manager fills
// the gap when the config carries none.
func newClient() (*truthsocial.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.TruthSocial.Token == "" && (cfg.TruthSocial.Username == "" || cfg.TruthSocial.Password == "") {
		account, err := resolveAccount()
		if err != nil {
			return nil, nil, err
		}
		cfg.TruthSocial.Username = account.Username
		cfg.TruthSocial.Password = account.Password
		cfg.TruthSocial.Token = account.Token
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return truthsocial.New(cfg, logger.GetLogger()), cfg, nil
}

// resolveAccount finds usable credentials in the credential stores
func resolveAccount() (*auth.Account, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if accountName != "" {
		account, err := manager.Retrieve(accountName)
		if err != nil {
			return nil, fmt.Errorf("no stored credentials for %q; run 'truthscraper auth login %s'", accountName, accountName)
		}
		return account, nil
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return nil, fmt.Errorf("no credentials configured; run 'truthscraper auth login' or set TRUTHSCRAPER_TOKEN")
	}
	return account, nil
}

// sink fans results out to stdout as JSON lines and, when --export is set,
// into an artifact writer.
type sink struct {
	enc      *json.Encoder
	artifact export.Writer
	path     string
	count    int
}

func newSink(cfg *config.Config, handle, stream string) (*sink, error) {
	s := &sink{enc: json.NewEncoder(os.Stdout)}

	if exportFlag {
		path := export.DefaultPath(cfg.Export.Directory, sanitizeArtifactName(handle), stream, cfg.Export.Format)
		w, err := export.NewWriter(cfg.Export.Format, path)
		if err != nil {
			return nil, err
		}
		s.artifact = w
		s.path = path
	}

	return s, nil
}

func (s *sink) write(item truthsocial.Item) error {
	if err := s.enc.Encode(item); err != nil {
		return err
	}
	s.count++
	if s.artifact != nil {
		return s.artifact.Write(item)
	}
	return nil
}

func (s *sink) close() error {
	if s.artifact == nil {
		return nil
	}
	if err := s.artifact.Close(); err != nil {
		return err
	}
	logger.GetLogger().InfoWithFields("Artifact written", map[string]interface{}{
		"path":  s.path,
		"items": s.count,
	})
	return nil
}

// sanitizeArtifactName keeps artifact file names filesystem-safe
func sanitizeArtifactName(name string) string {
	name = strings.TrimPrefix(name, "@")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, name)
}

// exitOnError reports err and terminates, using a dedicated exit code for
// authentication failures so wrapping scripts can tell them apart.
func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	if aerrors.IsFatal(err) {
		os.Exit(2)
	}
	os.Exit(1)
}
