// Package ratelimit throttles API calls based on the platform's own
// rate-limit signal.
//
// Truth Social reports quota through x-ratelimit-limit,
// x-ratelimit-remaining and x-ratelimit-reset response headers. The
// Governor inspects those headers after every request and, once the
// remaining quota drops to a safety threshold, blocks the calling
// goroutine until the server-reported reset time. This synchronous
// backpressure is the only protection the client has against
// server-side throttling or banning, so it runs after every single
// request, not just paginated ones.
//
// Usage:
//
//	gov := ratelimit.NewGovernor(50, 10*time.Second, log)
//
//	resp, err := httpClient.Do(req)
//	...
//	gov.Observe(resp.Header) // may sleep
package ratelimit
