package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbiosca-fulcrum/truthsocialscraping/internal/media"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/checkpoint"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/logger"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/truthsocial"
)

var (
	// Statuses command flags
	createdAfter  string
	sinceID       string
	withReplies   bool
	pinnedOnly    bool
	resumeStream  bool
	forceRestart  bool
	maxStatuses   int
	downloadMedia bool
)

// statusesCmd represents the statuses command
var statusesCmd = &cobra.Command{
	Use:   "statuses <handle>",
	Short: "Pull a user's statuses in reverse-chronological order",
	Long: `Pull all statuses posted by a user, newest first.

The stream follows the API's pagination one page at a time and stops early
when a --created-after or --since-id bound is reached, so bounded pulls only
fetch the pages they need. Interrupted pulls can be resumed from an on-disk
checkpoint with --resume.`,
	Example: `  # Pull an entire timeline
  truthscraper statuses realdonaldtrump

  # Only statuses newer than a given moment
  truthscraper statuses realdonaldtrump --created-after 2026-01-01T00:00:00Z

  # Incremental pull since the last seen status id
  truthscraper statuses realdonaldtrump --since-id 109742999

  # Pinned statuses only
  truthscraper statuses realdonaldtrump --pinned

  # Resume an interrupted pull, downloading media as we go
  truthscraper statuses realdonaldtrump --resume --download-media`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runStatuses(cmd.Context(), strings.TrimSpace(args[0])))
	},
}

func init() {
	rootCmd.AddCommand(statusesCmd)

	statusesCmd.Flags().StringVar(&createdAfter, "created-after", "", "stop at statuses created at or before this time (RFC3339 or YYYY-MM-DD)")
	statusesCmd.Flags().StringVar(&sinceID, "since-id", "", "stop at statuses with this id or older")
	statusesCmd.Flags().BoolVar(&withReplies, "replies", false, "include reply statuses")
	statusesCmd.Flags().BoolVar(&pinnedOnly, "pinned", false, "pull pinned statuses instead of the timeline")
	statusesCmd.Flags().BoolVar(&resumeStream, "resume", false, "resume from the last checkpoint")
	statusesCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "ignore any existing checkpoint and start over")
	statusesCmd.Flags().IntVar(&maxStatuses, "max", 0, "stop after this many statuses (0 = unlimited)")
	statusesCmd.Flags().BoolVar(&downloadMedia, "download-media", false, "download media attachments alongside the pull")
}

func runStatuses(ctx context.Context, handle string) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	opts := truthsocial.StatusOptions{
		SinceID: sinceID,
		Replies: withReplies,
		Pinned:  pinnedOnly,
	}

	if createdAfter != "" {
		bound, err := parseTimeBound(createdAfter)
		if err != nil {
			return err
		}
		opts.CreatedAfter = bound
	}

	// Pinned pulls are one page by definition, nothing to checkpoint.
	var cpManager *checkpoint.Manager
	var cp *checkpoint.Checkpoint
	if !pinnedOnly {
		cpManager, err = checkpoint.NewManager(truthsocial.SanitizeHandle(handle), "statuses")
		if err != nil {
			return err
		}
		if forceRestart {
			if err := cpManager.Delete(); err != nil {
				return err
			}
		}
		if resumeStream && !forceRestart {
			cp, err = cpManager.Load()
			if err != nil {
				return err
			}
			if cp != nil {
				opts.Resume = cp.Cursor
				log.InfoWithFields("Resuming status pull", map[string]interface{}{
					"handle": handle,
					"cursor": cp.Cursor,
				})
			}
		}
	}

	sink, err := newSink(cfg, handle, "statuses")
	if err != nil {
		return err
	}

	var downloader *media.Downloader
	if downloadMedia {
		downloader, err = media.New(cfg.Media, log)
		if err != nil {
			return err
		}
	}

	stream := client.PullStatuses(ctx, handle, opts)
	count := 0
	lastID := ""
	for stream.Next() {
		status := stream.Status()
		if err := sink.write(status); err != nil {
			return err
		}
		count++
		if lastID == "" {
			lastID = status.ID()
		}

		if downloader != nil {
			for _, res := range downloader.Fetch(ctx, media.JobsFromStatus(status)) {
				if res.Err != nil {
					log.WithError(res.Err).Warn("Media download failed")
				}
			}
		}

		if cpManager != nil && count%truthsocial.DefaultCollectionMaximum == 0 {
			if cp == nil {
				cp, err = cpManager.Create(truthsocial.SanitizeHandle(handle), "", "statuses")
				if err != nil {
					return err
				}
			}
			if err := cpManager.UpdateProgress(cp, stream.Cursor(), lastID, count); err != nil {
				return err
			}
		}

		if maxStatuses > 0 && count >= maxStatuses {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	if err := sink.close(); err != nil {
		return err
	}

	// A completed pull has nothing left to resume; a --max cutoff does.
	if cpManager != nil && (maxStatuses == 0 || count < maxStatuses) {
		if err := cpManager.Delete(); err != nil {
			return err
		}
	} else if cpManager != nil {
		if cp == nil {
			cp, err = cpManager.Create(truthsocial.SanitizeHandle(handle), "", "statuses")
			if err != nil {
				return err
			}
		}
		if err := cpManager.UpdateProgress(cp, stream.Cursor(), lastID, count); err != nil {
			return err
		}
	}

	log.InfoWithFields("Status pull finished", map[string]interface{}{
		"handle":   handle,
		"statuses": count,
	})
	return nil
}

// parseTimeBound accepts RFC3339 timestamps or bare dates
func parseTimeBound(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or YYYY-MM-DD", s)
}
