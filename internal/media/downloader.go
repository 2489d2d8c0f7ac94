package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/config"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/logger"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/truthsocial"
)

// Job is one media attachment to fetch
type Job struct {
	URL      string
	StatusID string
	Filename string
}

// Result reports the outcome of one job
type Result struct {
	Job      Job
	Size     int64
	Duration time.Duration
	Skipped  bool
	Err      error
}

// Downloader fetches status media attachments to a local directory with a
// bounded number of concurrent requests. Media is served from CDN hosts that
// do not count against the API rate limit, so downloads bypass the governor.
type Downloader struct {
	httpClient  *http.Client
	dir         string
	concurrency int
	logger      logger.Logger
}

// New creates a downloader writing into cfg.Directory
func New(cfg config.MediaConfig, log logger.Logger) (*Downloader, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	concurrency := cfg.ConcurrentDownloads
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Downloader{
		httpClient:  &http.Client{Timeout: cfg.DownloadTimeout},
		dir:         cfg.Directory,
		concurrency: concurrency,
		logger:      log,
	}, nil
}

// JobsFromStatus extracts download jobs for every media attachment on the
// status. Attachments without a usable URL are skipped.
func JobsFromStatus(status truthsocial.Item) []Job {
	statusID := status.ID()

	var jobs []Job
	for _, attachment := range status.MediaAttachments() {
		rawURL, _ := attachment["url"].(string)
		if rawURL == "" {
			rawURL, _ = attachment["preview_url"].(string)
		}
		if rawURL == "" {
			continue
		}

		jobs = append(jobs, Job{
			URL:      rawURL,
			StatusID: statusID,
			Filename: attachmentFilename(statusID, rawURL),
		})
	}
	return jobs
}

// attachmentFilename derives a stable local name from the status id and the
// URL's path base, so reruns can detect already-downloaded files.
func attachmentFilename(statusID, rawURL string) string {
	base := "media"
	if u, err := url.Parse(rawURL); err == nil {
		if b := path.Base(u.Path); b != "" && b != "/" && b != "." {
			base = b
		}
	}
	if statusID == "" {
		return base
	}
	return statusID + "_" + base
}

// Fetch downloads all jobs and returns one result per job. Individual
// failures are reported in the results, not returned as an error; only
// context cancellation aborts the batch early.
func (d *Downloader) Fetch(ctx context.Context, jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}

	d.logger.InfoWithFields("Fetching media attachments", map[string]interface{}{
		"jobs":        len(jobs),
		"concurrency": d.concurrency,
		"directory":   d.dir,
	})

	results := make([]Result, len(jobs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res := d.fetchOne(ctx, job)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			// Stop the whole batch only on cancellation.
			if res.Err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// fetchOne downloads a single attachment to disk via a temp file
func (d *Downloader) fetchOne(ctx context.Context, job Job) Result {
	start := time.Now()
	result := Result{Job: job}

	target := filepath.Join(d.dir, job.Filename)
	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		d.logger.DebugWithFields("Attachment already downloaded", map[string]interface{}{
			"status_id": job.StatusID,
			"file":      job.Filename,
		})
		result.Skipped = true
		result.Size = info.Size()
		result.Duration = time.Since(start)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		result.Err = fmt.Errorf("invalid media url: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		d.logger.ErrorWithFields("Failed to download attachment", map[string]interface{}{
			"status_id": job.StatusID,
			"url":       job.URL,
			"error":     err.Error(),
		})
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Err = fmt.Errorf("download failed: status %d", resp.StatusCode)
		result.Duration = time.Since(start)
		d.logger.ErrorWithFields("Failed to download attachment", map[string]interface{}{
			"status_id":   job.StatusID,
			"url":         job.URL,
			"status_code": resp.StatusCode,
		})
		return result
	}

	tmpPath := target + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		result.Err = fmt.Errorf("failed to create file: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	size, err := io.Copy(file, resp.Body)
	if err != nil {
		file.Close()
		os.Remove(tmpPath)
		result.Err = fmt.Errorf("failed to write file: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		result.Err = fmt.Errorf("failed to close file: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		result.Err = fmt.Errorf("failed to finalize file: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Size = size
	result.Duration = time.Since(start)

	d.logger.DebugWithFields("Attachment downloaded", map[string]interface{}{
		"status_id": job.StatusID,
		"file":      job.Filename,
		"size":      size,
		"duration":  result.Duration,
	})

	return result
}
