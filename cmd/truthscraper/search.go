package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/truthsocial"
)

var (
	// Search command flags
	searchKind    string
	searchLimit   int
	searchMax     int
	searchResolve bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search accounts, statuses, hashtags or groups",
	Long: `Search the platform, paging through results until the server runs dry.

The search endpoint paginates by a fixed offset step rather than links or
max_id cursors; the stream handles that transparently.`,
	Example: `  # Accounts matching a name
  truthscraper search --type accounts "donald"

  # First 100 matching statuses
  truthscraper search --type statuses --max 100 "election"

  # Hashtags
  truthscraper search --type hashtags maga`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runSearch(cmd.Context(), strings.TrimSpace(args[0])))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchKind, "type", "t", "accounts", "result type (accounts, statuses, hashtags, groups)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "page size requested from the server")
	searchCmd.Flags().IntVar(&searchMax, "max", 0, "stop after this many results (0 = unlimited)")
	searchCmd.Flags().BoolVar(&searchResolve, "resolve", false, "ask the server to resolve remote accounts")
}

func runSearch(ctx context.Context, query string) error {
	var typ truthsocial.SearchType
	switch searchKind {
	case "accounts":
		typ = truthsocial.SearchAccounts
	case "statuses":
		typ = truthsocial.SearchStatuses
	case "hashtags":
		typ = truthsocial.SearchHashtags
	case "groups":
		typ = truthsocial.SearchGroups
	default:
		return fmt.Errorf("unknown search type %q", searchKind)
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	sink, err := newSink(cfg, query, "search-"+searchKind)
	if err != nil {
		return err
	}

	stream := client.Search(ctx, query, typ, truthsocial.SearchOptions{
		Limit:   searchLimit,
		Maximum: searchMax,
		Resolve: searchResolve,
	})
	for stream.Next() {
		if err := sink.write(stream.Result()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	return sink.close()
}
