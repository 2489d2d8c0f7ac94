package truthsocial

import (
	"context"
	"net/url"
	"strconv"

	aerrors "github.com/pbiosca-fulcrum/truthsocialscraping/pkg/errors"
)

// SearchType selects which section of the search response is streamed.
type SearchType string

const (
	SearchAccounts SearchType = "accounts"
	SearchStatuses SearchType = "statuses"
	SearchHashtags SearchType = "hashtags"
	SearchGroups   SearchType = "groups"
)

// SearchOptions controls a search stream.
type SearchOptions struct {
	// Limit is the per-page limit sent to the server. Zero means the
	// platform default.
	Limit int

	// Maximum caps the number of items yielded; zero means unbounded.
	Maximum int

	// Resolve asks the server to resolve remote accounts.
	Resolve bool
}

// SearchStream pages through /v2/search results. The offset advances by a
// fixed 40 per page regardless of the requested limit, and a response whose
// sections are all empty ends the stream; both are observed platform
// behavior kept as-is, not a documented contract.
type SearchStream struct {
	ctx   context.Context
	c     *Client
	query string
	typ   SearchType
	opts  SearchOptions

	offset  int
	yielded int
	page    Page
	idx     int
	cur     Item
	err     error
	done    bool
}

// Search opens a lazy stream over one section of the search results.
func (c *Client) Search(ctx context.Context, query string, typ SearchType, opts SearchOptions) *SearchStream {
	return &SearchStream{
		ctx:   ctx,
		c:     c,
		query: query,
		typ:   typ,
		opts:  opts,
	}
}

// Next advances to the next result, returning false once the stream ends.
func (s *SearchStream) Next() bool {
	for {
		if s.done {
			return false
		}
		if s.opts.Maximum > 0 && s.yielded >= s.opts.Maximum {
			s.done = true
			return false
		}
		if s.ctx.Err() != nil {
			s.err = s.ctx.Err()
			s.done = true
			return false
		}

		if s.idx < len(s.page) {
			s.cur = s.page[s.idx]
			s.idx++
			s.yielded++
			return true
		}

		if !s.fetchPage() {
			return false
		}
	}
}

// Result returns the item most recently yielded by Next.
func (s *SearchStream) Result() Item {
	return s.cur
}

// Err returns the fatal error that ended the stream, if any.
func (s *SearchStream) Err() error {
	return s.err
}

func (s *SearchStream) fetchPage() bool {
	params := url.Values{}
	params.Set("q", s.query)
	params.Set("type", string(s.typ))
	if s.opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(s.opts.Limit))
	}
	if s.opts.Resolve {
		params.Set("resolve", "true")
	}
	if s.offset > 0 {
		params.Set("offset", strconv.Itoa(s.offset))
	}

	v, err := s.c.get(s.ctx, searchEndpoint, params)
	if err != nil {
		s.done = true
		if aerrors.IsFatal(err) {
			s.err = err
		} else {
			s.c.logStreamEnd("search:"+s.query, err)
		}
		return false
	}
	if v == nil {
		s.done = true
		return false
	}

	sections, ok := v.(map[string]interface{})
	if !ok {
		s.done = true
		s.c.logStreamEnd("search:"+s.query, errMalformedCollection(v))
		return false
	}
	if msg, ok := Item(sections).ErrorField(); ok {
		s.done = true
		s.c.logStreamEnd("search:"+s.query, errUpstream(msg))
		return false
	}

	// All sections empty is the end-of-results signal.
	if allSectionsEmpty(sections) {
		s.done = true
		return false
	}

	var page Page
	if raw, ok := sections[string(s.typ)]; ok && raw != nil {
		page, err = asPage(raw)
		if err != nil {
			s.done = true
			s.c.logStreamEnd("search:"+s.query, err)
			return false
		}
	}

	s.offset += searchOffsetStep
	s.page = page
	s.idx = 0

	s.c.logger.DebugWithFields("search page fetched", map[string]interface{}{
		"query":       s.query,
		"type":        string(s.typ),
		"page_size":   len(page),
		"next_offset": s.offset,
	})
	return true
}

func allSectionsEmpty(sections map[string]interface{}) bool {
	for _, v := range sections {
		if list, ok := v.([]interface{}); ok && len(list) > 0 {
			return false
		}
	}
	return true
}
