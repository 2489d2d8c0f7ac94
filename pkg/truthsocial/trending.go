package truthsocial

import (
	"context"
	"net/url"
	"strconv"
)

// Trending returns the currently trending truths. limit is server-side
// capped; zero means the platform default.
func (c *Client) Trending(ctx context.Context, limit int) ([]Item, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.getPage(ctx, trendingEndpoint, params)
}

// TrendingTags returns the trending hashtags.
func (c *Client) TrendingTags(ctx context.Context) ([]Item, error) {
	return c.getPage(ctx, trendingTagsEndpoint, nil)
}

// Suggested returns accounts the platform recommends following.
func (c *Client) Suggested(ctx context.Context, maximum int) ([]Item, error) {
	params := url.Values{}
	if maximum > 0 {
		params.Set("limit", strconv.Itoa(maximum))
	}
	return c.getPage(ctx, suggestedEndpoint, params)
}

// Ads returns the promoted posts currently served to the desktop client.
func (c *Client) Ads(ctx context.Context) ([]Item, error) {
	params := url.Values{}
	params.Set("device", "desktop")
	return c.getPage(ctx, adsEndpoint, params)
}

// TrendingGroups returns the currently trending groups.
func (c *Client) TrendingGroups(ctx context.Context) ([]Item, error) {
	return c.getPage(ctx, trendingGroupsEndpoint, nil)
}

// GroupTags returns the hashtags trending inside groups.
func (c *Client) GroupTags(ctx context.Context) ([]Item, error) {
	return c.getPage(ctx, groupTagsEndpoint, nil)
}

// getPage performs a single-call fetch of a list endpoint. A body that
// fails to parse yields an empty result, not an error.
func (c *Client) getPage(ctx context.Context, path string, params url.Values) ([]Item, error) {
	v, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return asPage(v)
}
