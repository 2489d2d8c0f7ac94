package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/config"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/truthsocial"
)

var (
	// Collection command flags
	collectionMax int
	collectionAll bool
	allComments   bool
)

// followersCmd represents the followers command
var followersCmd = &cobra.Command{
	Use:   "followers <handle>",
	Short: "Pull a user's followers",
	Long: `Pull the accounts following a user.

By default the pull stops after 40 accounts; raise the cap with --max or
fetch everything with --all.`,
	Example: `  # First 40 followers
  truthscraper followers realdonaldtrump

  # Everything
  truthscraper followers realdonaldtrump --all`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runCollection(cmd.Context(), strings.TrimSpace(args[0]), "followers",
			func(ctx context.Context, c *truthsocial.Client, arg string, opts truthsocial.CollectionOptions) (*truthsocial.CollectionStream, error) {
				return c.UserFollowers(ctx, arg, opts)
			}))
	},
}

// followingCmd represents the following command
var followingCmd = &cobra.Command{
	Use:   "following <handle>",
	Short: "Pull the accounts a user follows",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runCollection(cmd.Context(), strings.TrimSpace(args[0]), "following",
			func(ctx context.Context, c *truthsocial.Client, arg string, opts truthsocial.CollectionOptions) (*truthsocial.CollectionStream, error) {
				return c.UserFollowing(ctx, arg, opts)
			}))
	},
}

// likesCmd represents the likes command
var likesCmd = &cobra.Command{
	Use:   "likes <status-id>",
	Short: "Pull the accounts that liked a status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runCollection(cmd.Context(), strings.TrimSpace(args[0]), "likes",
			func(ctx context.Context, c *truthsocial.Client, arg string, opts truthsocial.CollectionOptions) (*truthsocial.CollectionStream, error) {
				return c.StatusFavouriters(ctx, arg, opts), nil
			}))
	},
}

// commentsCmd represents the comments command
var commentsCmd = &cobra.Command{
	Use:   "comments <status-id>",
	Short: "Pull the comments on a status",
	Long: `Pull the comment statuses replying to a status.

By default only first-level comments are returned, matching what the web UI
shows under a post. Use --all-levels to include nested replies.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runCollection(cmd.Context(), strings.TrimSpace(args[0]), "comments",
			func(ctx context.Context, c *truthsocial.Client, arg string, opts truthsocial.CollectionOptions) (*truthsocial.CollectionStream, error) {
				return c.StatusComments(ctx, arg, !allComments, opts), nil
			}))
	},
}

// groupCmd represents the group command
var groupCmd = &cobra.Command{
	Use:   "group <group-id>",
	Short: "Pull a group's timeline",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runCollection(cmd.Context(), strings.TrimSpace(args[0]), "group",
			func(ctx context.Context, c *truthsocial.Client, arg string, opts truthsocial.CollectionOptions) (*truthsocial.CollectionStream, error) {
				return c.GroupTimeline(ctx, arg, opts), nil
			}))
	},
}

func init() {
	for _, cmd := range []*cobra.Command{followersCmd, followingCmd, likesCmd, commentsCmd, groupCmd} {
		cmd.Flags().IntVar(&collectionMax, "max", 0, "stop after this many items (0 = default cap of 40)")
		cmd.Flags().BoolVar(&collectionAll, "all", false, "fetch the entire collection")
		rootCmd.AddCommand(cmd)
	}
	commentsCmd.Flags().BoolVar(&allComments, "all-levels", false, "include nested replies, not just first-level comments")
}

// runCollection drives any paginated collection stream into the output sink
func runCollection(
	ctx context.Context,
	arg, name string,
	open func(context.Context, *truthsocial.Client, string, truthsocial.CollectionOptions) (*truthsocial.CollectionStream, error),
) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	stream, err := open(ctx, client, arg, truthsocial.CollectionOptions{
		Maximum: collectionMax,
		All:     collectionAll,
	})
	if err != nil {
		return err
	}

	return drainCollection(cfg, stream, arg, name)
}

func drainCollection(cfg *config.Config, stream *truthsocial.CollectionStream, arg, name string) error {
	sink, err := newSink(cfg, arg, name)
	if err != nil {
		return err
	}

	for stream.Next() {
		if err := sink.write(stream.Item()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	return sink.close()
}
