package truthsocial

import (
	"context"
	"net/url"
	"time"

	aerrors "github.com/pbiosca-fulcrum/truthsocialscraping/pkg/errors"
)

// StatusOptions controls a per-user timeline stream.
type StatusOptions struct {
	// CreatedAfter stops the stream at the first status created at or
	// before this bound. Zero value disables the bound.
	CreatedAfter time.Time

	// SinceID stops the stream at the first status whose id is less than
	// or equal to this one. Empty disables the bound.
	SinceID string

	// Replies includes reply statuses; by default only top-level statuses
	// are fetched.
	Replies bool

	// Pinned fetches the pinned statuses instead of the timeline. A pinned
	// stream is complete after one page regardless of content.
	Pinned bool

	// Resume restarts pagination below this status id (exclusive), for
	// callers that persisted their position from an earlier run.
	Resume string
}

// StatusStream yields one user's statuses in strict reverse-chronological
// order. Advance with Next, read with Status, and check Err once Next
// returns false. Each advance performs at most one blocking network call
// plus any sleep imposed by the rate governor.
type StatusStream struct {
	ctx    context.Context
	c      *Client
	handle string
	opts   StatusOptions

	accountID string
	maxID     string
	fetched   bool // at least one page requested, relevant for pinned mode

	page Page
	idx  int
	cur  Item
	err  error
	done bool
}

// PullStatuses opens a timeline stream for a user handle. The handle is
// resolved to an account id on the first advance; no network traffic
// happens before then.
func (c *Client) PullStatuses(ctx context.Context, handle string, opts StatusOptions) *StatusStream {
	return &StatusStream{
		ctx:    ctx,
		c:      c,
		handle: SanitizeHandle(handle),
		opts:   opts,
		maxID:  opts.Resume,
	}
}

// Next advances to the next status. It returns false when the stream is
// exhausted, an early-termination bound was crossed, or an error ended the
// stream; consult Err for fatal failures.
func (s *StatusStream) Next() bool {
	for {
		if s.done {
			return false
		}
		if s.ctx.Err() != nil {
			s.finish(s.ctx.Err())
			return false
		}

		for s.idx < len(s.page) {
			item := s.page[s.idx]
			s.idx++

			// Reverse-chronological order guarantees everything after a
			// crossed bound is older, so stop without scanning further.
			if !s.opts.CreatedAfter.IsZero() {
				created, ok := item.CreatedAt()
				if ok && !created.After(s.opts.CreatedAfter) {
					s.finish(nil)
					return false
				}
			}
			if s.opts.SinceID != "" && CompareIDs(item.ID(), s.opts.SinceID) <= 0 {
				s.finish(nil)
				return false
			}

			item.tagFetchedAt(s.c.now())
			s.cur = item
			return true
		}

		if s.opts.Pinned && s.fetched {
			// Pinned mode is complete after a single page, full or not.
			s.finish(nil)
			return false
		}

		if !s.fetchPage() {
			return false
		}
	}
}

// Status returns the status most recently yielded by Next.
func (s *StatusStream) Status() Item {
	return s.cur
}

// Err returns the error that ended the stream, if any. Per-page transport
// and decode failures are absorbed after logging; credential and
// authentication failures always surface here.
func (s *StatusStream) Err() error {
	return s.err
}

// Cursor returns the max_id that would resume the stream below the last
// fully processed page.
func (s *StatusStream) Cursor() string {
	return s.maxID
}

// fetchPage requests the next timeline page, sorts it and installs it as
// the current page. Returns false when the stream is finished.
func (s *StatusStream) fetchPage() bool {
	if s.accountID == "" {
		account, err := s.c.Lookup(s.ctx, s.handle)
		if err != nil {
			s.finish(err)
			return false
		}
		s.accountID = account.ID()
	}

	params := url.Values{}
	if !s.opts.Replies {
		params.Set("exclude_replies", "true")
	}
	if s.opts.Pinned {
		params.Set("pinned", "true")
	}
	if s.maxID != "" {
		params.Set("max_id", s.maxID)
	}

	v, err := s.c.get(s.ctx, statusesPath(s.accountID), params)
	if err != nil {
		s.finish(err)
		return false
	}
	s.fetched = true
	if v == nil {
		// No data this call; treated as an empty page.
		s.finish(nil)
		return false
	}

	page, err := asPage(v)
	if err != nil {
		s.finish(err)
		return false
	}
	if len(page) == 0 {
		s.finish(nil)
		return false
	}

	sortPageByIDDesc(page)

	// The statuses endpoint supplies no reliable next-link; the oldest id on
	// the sorted page becomes the next max_id, which guarantees progress
	// even on a stable page.
	s.maxID = page[len(page)-1].ID()
	s.page = page
	s.idx = 0

	s.c.logger.DebugWithFields("timeline page fetched", map[string]interface{}{
		"handle":      s.handle,
		"page_size":   len(page),
		"next_max_id": s.maxID,
	})
	return true
}

// finish transitions the stream to DONE. Absorbed errors are logged;
// fatal ones are kept for Err.
func (s *StatusStream) finish(err error) {
	s.done = true
	s.page = nil
	if err == nil {
		return
	}
	if aerrors.IsFatal(err) || err == s.ctx.Err() {
		s.err = err
		return
	}
	s.c.logStreamEnd("statuses:"+s.handle, err)
}
