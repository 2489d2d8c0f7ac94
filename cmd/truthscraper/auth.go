package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/auth"
)

var loginWithToken bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Truth Social credentials",
	Long: `Manage stored Truth Social credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TRUTHSCRAPER_USERNAME, TRUTHSCRAPER_PASSWORD,
    TRUTHSCRAPER_TOKEN)

Either an access token, or a username and password pair, must be provided.
Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [handle]",
	Short: "Store Truth Social credentials securely",
	Long: `Store Truth Social credentials in the system keychain or encrypted file.

By default you are prompted for a username and password; the client then
logs in with the platform's password grant on first use. With --token you
provide a ready-made bearer token instead and no password is stored.`,
	Example: `  # Interactive login with password
  truthscraper auth login

  # Store a bearer token for a handle
  truthscraper auth login myhandle --token`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <handle>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	Run:   runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Truth Social accounts with credential kinds, never values.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&loginWithToken, "token", false, "store a bearer token instead of a password")
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		exitOnError(fmt.Errorf("failed to initialize credential manager: %w", err))
	}

	reader := bufio.NewReader(os.Stdin)

	var handle string
	if len(args) > 0 {
		handle = args[0]
	}
	if handle == "" {
		fmt.Print("Truth Social handle: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			exitOnError(fmt.Errorf("failed to read handle: %w", err))
		}
		handle = strings.TrimSpace(input)
	}
	handle = strings.TrimPrefix(handle, "@")
	if handle == "" {
		exitOnError(fmt.Errorf("a handle is required"))
	}

	if existing, _ := manager.Retrieve(handle); existing != nil {
		fmt.Printf("Account %q already exists. Update credentials? (y/N): ", handle)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	account := &auth.Account{Handle: handle}

	if loginWithToken {
		fmt.Print("Bearer token (hidden): ")
		token, err := readSecret()
		if err != nil {
			exitOnError(fmt.Errorf("failed to read token: %w", err))
		}
		if token == "" {
			exitOnError(fmt.Errorf("a token is required"))
		}
		account.Token = token
	} else {
		fmt.Print("Username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			exitOnError(fmt.Errorf("failed to read username: %w", err))
		}
		account.Username = strings.TrimSpace(input)
		if account.Username == "" {
			account.Username = handle
		}

		fmt.Print("Password (hidden): ")
		password, err := readSecret()
		if err != nil {
			exitOnError(fmt.Errorf("failed to read password: %w", err))
		}
		if password == "" {
			exitOnError(fmt.Errorf("a password is required"))
		}
		account.Password = password
	}

	if err := manager.Store(account); err != nil {
		exitOnError(fmt.Errorf("failed to store credentials: %w", err))
	}

	fmt.Printf("\nCredentials stored for %q.\n", handle)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		exitOnError(fmt.Errorf("failed to initialize credential manager: %w", err))
	}

	handle := strings.TrimPrefix(args[0], "@")
	if err := manager.Delete(handle); err != nil {
		exitOnError(err)
	}
	fmt.Printf("Removed credentials for %q.\n", handle)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		exitOnError(fmt.Errorf("failed to initialize credential manager: %w", err))
	}

	accounts, err := manager.List()
	if err != nil {
		exitOnError(err)
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts.")
		return
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Handle < accounts[j].Handle })

	fmt.Println("Stored accounts:")
	for _, account := range accounts {
		kind := "password"
		if account.Token != "" {
			kind = "token"
		}
		modified := ""
		if !account.LastModified.IsZero() {
			modified = account.LastModified.Format(time.RFC3339)
		}
		fmt.Printf("  %-24s %-10s %s\n", account.Handle, kind, modified)
	}
}

// readSecret reads a line without echoing it to the terminal
func readSecret() (string, error) {
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
