package truthsocial

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchOffsetAdvancesByFixedStep(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/search", r.URL.Path)
		offsets = append(offsets, r.URL.Query().Get("offset"))

		// Two pages of results, then everything empty.
		if len(offsets) <= 2 {
			writeJSON(w, map[string]interface{}{
				"accounts": []map[string]interface{}{{"id": strconv.Itoa(len(offsets))}},
				"statuses": []map[string]interface{}{},
				"hashtags": []map[string]interface{}{},
			})
			return
		}
		writeJSON(w, map[string]interface{}{
			"accounts": []map[string]interface{}{},
			"statuses": []map[string]interface{}{},
			"hashtags": []map[string]interface{}{},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	s := c.Search(context.Background(), "tariffs", SearchAccounts, SearchOptions{Limit: 10})

	var ids []string
	for s.Next() {
		ids = append(ids, s.Result().ID())
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"1", "2"}, ids)
	// The offset advances by 40 per page regardless of the limit of 10.
	assert.Equal(t, []string{"", "40", "80"}, offsets)
}

func TestSearchAllSectionsEmptyEndsStream(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, map[string]interface{}{
			"accounts": []map[string]interface{}{},
			"statuses": []map[string]interface{}{},
			"hashtags": []map[string]interface{}{},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	s := c.Search(context.Background(), "nothing", SearchStatuses, SearchOptions{})

	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
	assert.Equal(t, 1, calls)
}

func TestSearchKeepsPagingWhileOtherSectionsNonEmpty(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// The requested section is empty but another is not, so this is
			// not yet the end-of-results signal.
			writeJSON(w, map[string]interface{}{
				"accounts": []map[string]interface{}{},
				"statuses": []map[string]interface{}{{"id": "9"}},
			})
			return
		}
		writeJSON(w, map[string]interface{}{
			"accounts": []map[string]interface{}{{"id": "1"}},
			"statuses": []map[string]interface{}{},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	s := c.Search(context.Background(), "q", SearchAccounts, SearchOptions{Maximum: 1})

	require.True(t, s.Next())
	assert.Equal(t, "1", s.Result().ID())
	assert.Equal(t, 2, calls)
}

func TestSearchMaximumCapsYield(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := make([]map[string]interface{}, 5)
		for i := range page {
			page[i] = map[string]interface{}{"id": fmt.Sprintf("%d", i)}
		}
		writeJSON(w, map[string]interface{}{"hashtags": page})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	s := c.Search(context.Background(), "q", SearchHashtags, SearchOptions{Maximum: 3})

	count := 0
	for s.Next() {
		count++
	}
	require.NoError(t, s.Err())
	assert.Equal(t, 3, count)
}

func TestSearchSendsResolveAndType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "groups", r.URL.Query().Get("type"))
		assert.Equal(t, "true", r.URL.Query().Get("resolve"))
		writeJSON(w, map[string]interface{}{"groups": []map[string]interface{}{}})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	s := c.Search(context.Background(), "q", SearchGroups, SearchOptions{Resolve: true})
	assert.False(t, s.Next())
}
