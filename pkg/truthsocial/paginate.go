package truthsocial

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	aerrors "github.com/pbiosca-fulcrum/truthsocialscraping/pkg/errors"
)

// pager drives a sequence of requests following the server's Link-header
// cursor. It is strictly pull based: each call to next performs exactly one
// HTTP call, and nothing is fetched until the consumer asks. Abandoning the
// pager simply stops further requests.
type pager struct {
	c       *Client
	nextURL string
	done    bool
}

// newPager starts a pagination sequence at path. A non-empty resume cursor
// replaces the initial URL wholesale, restarting mid-collection.
func (c *Client) newPager(path string, params url.Values, resume string) *pager {
	start := buildURL(c.apiBase, path, params)
	if resume != "" {
		start = resume
	}
	return &pager{c: c, nextURL: start}
}

// next fetches one page. It returns (nil, nil) once the sequence is
// exhausted. An empty page, a transport or decode failure, or the absence of
// a next cursor all end the sequence; later calls return (nil, nil) without
// issuing requests.
func (p *pager) next(ctx context.Context) (Page, error) {
	if p.done {
		return nil, nil
	}

	v, header, err := p.c.doGet(ctx, p.nextURL)
	if err != nil {
		p.done = true
		return nil, err
	}
	if v == nil {
		// Unparseable body: no data this call, nothing left to follow.
		p.done = true
		return nil, nil
	}

	page, err := asPage(v)
	if err != nil {
		p.done = true
		return nil, err
	}

	next := nextLink(header)
	if next == "" || len(page) == 0 {
		p.done = true
	} else {
		p.nextURL = next
	}

	return page, nil
}

// cursor returns the URL the next call would fetch, usable as a resume
// cursor by callers that persist their position.
func (p *pager) cursor() string {
	if p.done {
		return ""
	}
	return p.nextURL
}

// nextLink extracts the rel="next" entry from a Link response header.
func nextLink(h http.Header) string {
	if h == nil {
		return ""
	}
	return parseLinkHeader(h.Get("Link"))["next"]
}

// parseLinkHeader parses a Link header of comma-separated
// `<url>; rel="value"` entries into a rel -> url map.
func parseLinkHeader(link string) map[string]string {
	rels := make(map[string]string)
	for _, entry := range strings.Split(link, ",") {
		parts := strings.Split(entry, ";")
		if len(parts) < 2 {
			continue
		}
		target := strings.TrimSpace(parts[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		target = strings.Trim(target, "<>")

		for _, attr := range parts[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(attr), "=")
			if !ok || strings.TrimSpace(k) != "rel" {
				continue
			}
			rel := strings.Trim(strings.TrimSpace(v), `"`)
			if rel != "" {
				rels[rel] = target
			}
		}
	}
	return rels
}

// logStreamEnd records why a stream stopped; absorbed errors end streams
// cleanly so already-yielded items remain usable.
func (c *Client) logStreamEnd(what string, err error) {
	if err == nil {
		return
	}
	fields := map[string]interface{}{"stream": what, "error": err.Error()}
	if aerrors.IsType(err, aerrors.ErrorTypeUpstream) {
		c.logger.WarnWithFields("stream ended by platform error", fields)
		return
	}
	c.logger.ErrorWithFields("stream ended early", fields)
}
