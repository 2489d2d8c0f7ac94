package truthsocial

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCollectionServer serves lookup plus a Link-paginated collection split
// into fixed-size pages.
func newCollectionServer(t *testing.T, accountID, collectionPath string, total, pageSize int) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/accounts/lookup" {
			writeJSON(w, map[string]interface{}{"id": accountID})
			return
		}
		require.Equal(t, collectionPath, r.URL.Path)

		offset := 0
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)

		var page []map[string]interface{}
		for i := offset; i < offset+pageSize && i < total; i++ {
			page = append(page, map[string]interface{}{"id": fmt.Sprintf("%d", total-i)})
		}
		if offset+pageSize < total {
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?offset=%d>; rel="next"`,
				server.URL, collectionPath, offset+pageSize))
		}
		writeJSON(w, page)
	}))
	return server
}

func TestFollowersRespectsMaximum(t *testing.T) {
	server := newCollectionServer(t, "12345", "/api/v1/accounts/12345/followers", 100, 20)
	defer server.Close()

	c := newTestClient(t, server)
	stream, err := c.UserFollowers(context.Background(), "someuser", CollectionOptions{Maximum: 30})
	require.NoError(t, err)

	items, err := stream.Collect()
	require.NoError(t, err)
	assert.Len(t, items, 30, "exactly min(maximum, available)")
}

func TestFollowersMaximumExceedsAvailable(t *testing.T) {
	server := newCollectionServer(t, "12345", "/api/v1/accounts/12345/followers", 7, 20)
	defer server.Close()

	c := newTestClient(t, server)
	stream, err := c.UserFollowers(context.Background(), "someuser", CollectionOptions{Maximum: 30})
	require.NoError(t, err)

	items, err := stream.Collect()
	require.NoError(t, err)
	assert.Len(t, items, 7)
}

func TestFollowingIncludeAllOverridesCap(t *testing.T) {
	server := newCollectionServer(t, "12345", "/api/v1/accounts/12345/following", 130, 40)
	defer server.Close()

	c := newTestClient(t, server)
	stream, err := c.UserFollowing(context.Background(), "someuser", CollectionOptions{Maximum: 10, All: true})
	require.NoError(t, err)

	items, err := stream.Collect()
	require.NoError(t, err)
	assert.Len(t, items, 130)
}

func TestFavouritersDefaultMaximum(t *testing.T) {
	server := newCollectionServer(t, "unused", "/api/v1/statuses/555/favourited_by", 100, 40)
	defer server.Close()

	c := newTestClient(t, server)
	items, err := c.StatusFavouriters(context.Background(), "555", CollectionOptions{}).Collect()
	require.NoError(t, err)
	assert.Len(t, items, DefaultCollectionMaximum)
}

func TestCommentsFirstLevelFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/statuses/777/context/descendants", r.URL.Path)
		writeJSON(w, []map[string]interface{}{
			{"id": "1", "in_reply_to_id": "777"},
			{"id": "2", "in_reply_to_id": "1"}, // nested reply, filtered out
			{"id": "3", "in_reply_to_id": "777"},
			{"id": "4", "in_reply_to_id": "3"},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	items, err := c.StatusComments(context.Background(), "777", true, CollectionOptions{}).Collect()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID())
	assert.Equal(t, "3", items[1].ID())
}

func TestCommentsWithoutFilterYieldsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"id": "1", "in_reply_to_id": "777"},
			{"id": "2", "in_reply_to_id": "1"},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	items, err := c.StatusComments(context.Background(), "777", false, CollectionOptions{}).Collect()
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCollectionStreamAbsorbsTransportError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	items, err := c.StatusFavouriters(context.Background(), "555", CollectionOptions{}).Collect()

	// Transport failures end the stream without surfacing; partial results
	// already yielded stay usable (none here).
	assert.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, calls, "no retry of a failed page fetch")
}

func TestCollectionStreamLazyFetching(t *testing.T) {
	calls := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Link", fmt.Sprintf(`<%s%s?offset=%d>; rel="next"`, server.URL, r.URL.Path, calls*2))
		writeJSON(w, []map[string]interface{}{
			{"id": fmt.Sprintf("%d", calls*2)},
			{"id": fmt.Sprintf("%d", calls*2-1)},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	stream := c.StatusFavouriters(context.Background(), "555", CollectionOptions{All: true})

	// Two items arrive from one call; the second page is not fetched until
	// the consumer actually needs it.
	require.True(t, stream.Next())
	require.True(t, stream.Next())
	assert.Equal(t, 1, calls)
	require.True(t, stream.Next())
	assert.Equal(t, 2, calls)
}
