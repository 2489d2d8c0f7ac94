package truthsocial

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the base URL for the Truth Social private web API.
	DefaultBaseURL = "https://truthsocial.com/api"

	// oauthTokenPath is the password-grant token endpoint, relative to the
	// site root rather than the API base.
	oauthTokenPath = "/oauth/token"

	// clientID and clientSecret are the fixed pair the Truth Social web
	// frontend itself uses for the password grant.
	clientID     = "9X1Fdd-pxNsAgEDNi_SfhJWi8T-vLuV2WVzKIbkTCw4"
	clientSecret = "ozF8jzI4968oTKFkEnsBC-UbLPCdrSv0MkXGQu2o_-M"

	lookupEndpoint         = "/v1/accounts/lookup"
	statusesEndpoint       = "/v1/accounts/%s/statuses"
	followersEndpoint      = "/v1/accounts/%s/followers"
	followingEndpoint      = "/v1/accounts/%s/following"
	favouritedByEndpoint   = "/v1/statuses/%s/favourited_by"
	descendantsEndpoint    = "/v1/statuses/%s/context/descendants"
	searchEndpoint         = "/v2/search"
	trendingEndpoint       = "/v1/truth/trending/truths"
	trendingTagsEndpoint   = "/v1/trends"
	suggestedEndpoint      = "/v2/suggestions"
	adsEndpoint            = "/v1/truth/ads"
	trendingGroupsEndpoint = "/v1/truth/trends/groups"
	groupTagsEndpoint      = "/v1/groups/tags"
	groupTimelineEndpoint  = "/v1/timelines/group/%s"

	// searchOffsetStep is how far the search offset advances per page,
	// regardless of the caller's limit. Observed platform behavior, not a
	// documented contract.
	searchOffsetStep = 40
)

// tokenURL derives the oauth token endpoint from the configured API base.
func tokenURL(apiBase string) string {
	return strings.TrimSuffix(apiBase, "/api") + oauthTokenPath
}

// buildURL joins the API base with a path and optional query parameters.
func buildURL(apiBase, path string, params url.Values) string {
	u := strings.TrimSuffix(apiBase, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func statusesPath(accountID string) string {
	return fmt.Sprintf(statusesEndpoint, url.PathEscape(accountID))
}

func followersPath(accountID string) string {
	return fmt.Sprintf(followersEndpoint, url.PathEscape(accountID))
}

func followingPath(accountID string) string {
	return fmt.Sprintf(followingEndpoint, url.PathEscape(accountID))
}

func favouritedByPath(statusID string) string {
	return fmt.Sprintf(favouritedByEndpoint, url.PathEscape(statusID))
}

func descendantsPath(statusID string) string {
	return fmt.Sprintf(descendantsEndpoint, url.PathEscape(statusID))
}

func groupTimelinePath(groupID string) string {
	return fmt.Sprintf(groupTimelineEndpoint, url.PathEscape(groupID))
}

// SanitizeHandle strips a leading @ and trailing junk from a user handle.
func SanitizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.TrimRight(handle, "/ ")
}
