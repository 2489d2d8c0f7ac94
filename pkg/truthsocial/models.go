package truthsocial

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Item is one raw record returned by the platform: a status, account,
// hashtag or group. The upstream schema is not contractually stable, so
// items stay loosely typed; callers that need strong typing apply their own
// tolerant mapping at the boundary.
type Item map[string]interface{}

// Page is the ordered sequence of items returned by one HTTP call. An empty
// page signals the end of pagination.
type Page []Item

// FetchedAtKey is the field the status stream adds to every yielded item,
// recording local wall-clock capture time. Distinct from the item's own
// created_at.
const FetchedAtKey = "fetched_at"

// ID returns the item's id as a string, tolerating both string and numeric
// encodings. Returns "" when absent.
func (i Item) ID() string {
	switch v := i["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// CreatedAt parses the item's created_at timestamp. The second return is
// false when the field is absent or unparseable.
func (i Item) CreatedAt() (time.Time, bool) {
	s, ok := i["created_at"].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// InReplyToID returns the id of the status this item replies to, or "".
func (i Item) InReplyToID() string {
	switch v := i["in_reply_to_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

// ErrorField returns the platform's error message when the body itself
// carries one.
func (i Item) ErrorField() (string, bool) {
	v, ok := i["error"]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

// MediaAttachments returns the item's media attachments, if any.
func (i Item) MediaAttachments() []Item {
	raw, ok := i["media_attachments"].([]interface{})
	if !ok {
		return nil
	}
	var out []Item
	for _, m := range raw {
		if obj, ok := m.(map[string]interface{}); ok {
			out = append(out, Item(obj))
		}
	}
	return out
}

// tagFetchedAt stamps the item with the local capture time in UTC.
func (i Item) tagFetchedAt(now time.Time) {
	i[FetchedAtKey] = now.UTC().Format(time.RFC3339)
}

// CompareIDs orders two status ids. Ids are decimal strings that grow
// monotonically with creation time, so a longer id is always larger and
// equal-length ids compare lexicographically.
func CompareIDs(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// sortPageByIDDesc re-sorts a page newest-first by id, guaranteeing the
// reverse-chronological contract regardless of server-side ordering quirks.
func sortPageByIDDesc(p Page) {
	sort.SliceStable(p, func(a, b int) bool {
		return CompareIDs(p[a].ID(), p[b].ID()) > 0
	})
}

// asPage converts a decoded JSON value into a Page. It returns an upstream
// error when the body carries an explicit error field, and a decode error
// when the value is not a well-formed collection.
func asPage(v interface{}) (Page, error) {
	switch t := v.(type) {
	case []interface{}:
		page := make(Page, 0, len(t))
		for _, el := range t {
			obj, ok := el.(map[string]interface{})
			if !ok {
				return nil, errMalformedCollection(el)
			}
			page = append(page, Item(obj))
		}
		return page, nil
	case map[string]interface{}:
		if msg, ok := Item(t).ErrorField(); ok {
			return nil, errUpstream(msg)
		}
		return nil, errMalformedCollection(t)
	default:
		return nil, errMalformedCollection(v)
	}
}
