package truthsocial

import (
	"context"
	"net/url"
	"strconv"

	aerrors "github.com/pbiosca-fulcrum/truthsocialscraping/pkg/errors"
)

// CollectionOptions controls followers/following/likes/comments streams.
type CollectionOptions struct {
	// Maximum caps the number of items yielded. Zero or negative means the
	// default cap of 40, matching the platform's page size.
	Maximum int

	// All disables the cap entirely and drains the collection.
	All bool

	// Resume restarts pagination from a cursor previously returned by
	// Cursor.
	Resume string
}

// DefaultCollectionMaximum is the default yield cap for collection streams.
const DefaultCollectionMaximum = 40

// CollectionStream yields items from a paginated collection until either the
// underlying pagination exhausts or the requested count is reached,
// whichever comes first.
type CollectionStream struct {
	ctx    context.Context
	pager  *pager
	name   string
	limit  int
	all    bool
	filter func(Item) bool

	yielded int
	page    Page
	idx     int
	cur     Item
	err     error
	done    bool
}

func (c *Client) newCollectionStream(ctx context.Context, name, path string, params url.Values, opts CollectionOptions, filter func(Item) bool) *CollectionStream {
	limit := opts.Maximum
	if limit <= 0 {
		limit = DefaultCollectionMaximum
	}
	return &CollectionStream{
		ctx:    ctx,
		pager:  c.newPager(path, params, opts.Resume),
		name:   name,
		limit:  limit,
		all:    opts.All,
		filter: filter,
	}
}

// Next advances to the next item, returning false once the stream ends.
func (s *CollectionStream) Next() bool {
	for {
		if s.done {
			return false
		}
		if !s.all && s.yielded >= s.limit {
			s.done = true
			return false
		}
		if s.ctx.Err() != nil {
			s.err = s.ctx.Err()
			s.done = true
			return false
		}

		for s.idx < len(s.page) {
			item := s.page[s.idx]
			s.idx++
			if s.filter != nil && !s.filter(item) {
				continue
			}
			s.cur = item
			s.yielded++
			return true
		}

		page, err := s.pager.next(s.ctx)
		if err != nil {
			s.done = true
			if aerrors.IsFatal(err) {
				s.err = err
			} else {
				s.pager.c.logStreamEnd(s.name, err)
			}
			return false
		}
		if len(page) == 0 {
			s.done = true
			return false
		}
		s.page = page
		s.idx = 0
	}
}

// Item returns the item most recently yielded by Next.
func (s *CollectionStream) Item() Item {
	return s.cur
}

// Err returns the fatal error that ended the stream, if any.
func (s *CollectionStream) Err() error {
	return s.err
}

// Cursor returns the resume cursor for the next unfetched page, or "" when
// the collection is exhausted.
func (s *CollectionStream) Cursor() string {
	return s.pager.cursor()
}

// Collect drains the stream into a slice.
func (s *CollectionStream) Collect() ([]Item, error) {
	var items []Item
	for s.Next() {
		items = append(items, s.Item())
	}
	return items, s.Err()
}

// UserFollowers streams the accounts following a user. The handle is
// resolved with one lookup call before the first page.
func (c *Client) UserFollowers(ctx context.Context, handle string, opts CollectionOptions) (*CollectionStream, error) {
	account, err := c.Lookup(ctx, handle)
	if err != nil {
		return nil, err
	}
	return c.newCollectionStream(ctx, "followers:"+handle,
		followersPath(account.ID()), pageSizeParams(opts), opts, nil), nil
}

// UserFollowing streams the accounts a user follows.
func (c *Client) UserFollowing(ctx context.Context, handle string, opts CollectionOptions) (*CollectionStream, error) {
	account, err := c.Lookup(ctx, handle)
	if err != nil {
		return nil, err
	}
	return c.newCollectionStream(ctx, "following:"+handle,
		followingPath(account.ID()), pageSizeParams(opts), opts, nil), nil
}

// StatusFavouriters streams the accounts that liked a status.
func (c *Client) StatusFavouriters(ctx context.Context, statusID string, opts CollectionOptions) *CollectionStream {
	return c.newCollectionStream(ctx, "favouriters:"+statusID,
		favouritedByPath(statusID), pageSizeParams(opts), opts, nil)
}

// StatusComments streams the descendant replies of a status. With
// firstLevelOnly set, only direct replies to the root status are yielded;
// deeper replies still count toward pagination but not toward the cap.
func (c *Client) StatusComments(ctx context.Context, statusID string, firstLevelOnly bool, opts CollectionOptions) *CollectionStream {
	var filter func(Item) bool
	if firstLevelOnly {
		filter = func(item Item) bool {
			return item.InReplyToID() == statusID
		}
	}
	return c.newCollectionStream(ctx, "comments:"+statusID,
		descendantsPath(statusID), pageSizeParams(opts), opts, filter)
}

// GroupTimeline streams a group's timeline with the same max_id-free Link
// pagination the collection endpoints use.
func (c *Client) GroupTimeline(ctx context.Context, groupID string, opts CollectionOptions) *CollectionStream {
	return c.newCollectionStream(ctx, "group:"+groupID,
		groupTimelinePath(groupID), pageSizeParams(opts), opts, nil)
}

// pageSizeParams asks the server for full pages; the yield cap is applied
// client side so a late filter cannot starve the count.
func pageSizeParams(opts CollectionOptions) url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(DefaultCollectionMaximum))
	return params
}
