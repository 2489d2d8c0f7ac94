package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/config"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/truthsocial"
)

var (
	trendingLimit int
	suggestedMax  int
)

// trendingCmd represents the trending command
var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Pull trending statuses",
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runListing(cmd.Context(), "trending", func(ctx context.Context, c *truthsocial.Client) ([]truthsocial.Item, error) {
			return c.Trending(ctx, trendingLimit)
		}))
	},
}

// tagsCmd represents the tags command
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Pull trending hashtags",
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runListing(cmd.Context(), "tags", func(ctx context.Context, c *truthsocial.Client) ([]truthsocial.Item, error) {
			return c.TrendingTags(ctx)
		}))
	},
}

// suggestedCmd represents the suggested command
var suggestedCmd = &cobra.Command{
	Use:   "suggested",
	Short: "Pull suggested accounts to follow",
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runListing(cmd.Context(), "suggested", func(ctx context.Context, c *truthsocial.Client) ([]truthsocial.Item, error) {
			return c.Suggested(ctx, suggestedMax)
		}))
	},
}

// adsCmd represents the ads command
var adsCmd = &cobra.Command{
	Use:   "ads",
	Short: "Pull the current ad inventory",
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runListing(cmd.Context(), "ads", func(ctx context.Context, c *truthsocial.Client) ([]truthsocial.Item, error) {
			return c.Ads(ctx)
		}))
	},
}

// groupsCmd represents the groups command
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Pull trending groups",
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runListing(cmd.Context(), "groups", func(ctx context.Context, c *truthsocial.Client) ([]truthsocial.Item, error) {
			return c.TrendingGroups(ctx)
		}))
	},
}

// groupTagsCmd represents the grouptags command
var groupTagsCmd = &cobra.Command{
	Use:   "grouptags",
	Short: "Pull trending group tags",
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runListing(cmd.Context(), "grouptags", func(ctx context.Context, c *truthsocial.Client) ([]truthsocial.Item, error) {
			return c.GroupTags(ctx)
		}))
	},
}

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <handle>",
	Short: "Look up a user's account record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runListing(cmd.Context(), "lookup", func(ctx context.Context, c *truthsocial.Client) ([]truthsocial.Item, error) {
			item, err := c.Lookup(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return []truthsocial.Item{item}, nil
		}))
	},
}

func init() {
	trendingCmd.Flags().IntVar(&trendingLimit, "limit", 10, "number of trending statuses (1-20)")
	suggestedCmd.Flags().IntVar(&suggestedMax, "max", 50, "number of suggested accounts")

	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(suggestedCmd)
	rootCmd.AddCommand(adsCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(groupTagsCmd)
	rootCmd.AddCommand(lookupCmd)
}

// runListing handles the single-page listing endpoints
func runListing(ctx context.Context, name string, fetch func(context.Context, *truthsocial.Client) ([]truthsocial.Item, error)) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	items, err := fetch(ctx, client)
	if err != nil {
		return err
	}

	return writeListing(cfg, name, items)
}

func writeListing(cfg *config.Config, name string, items []truthsocial.Item) error {
	sink, err := newSink(cfg, name, name)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := sink.write(item); err != nil {
			return err
		}
	}
	return sink.close()
}
