// Package truthsocial implements a client for Truth Social's private web
// API: authentication, paginated requests, rate-limit backpressure and lazy
// result streams.
//
// Every multi-page fetch is a pull-based stream in the bufio.Scanner style:
// advancing it performs exactly one blocking network call (plus, when quota
// runs low, one blocking sleep imposed by the rate governor), and
// abandoning it simply stops further requests.
//
//	client := truthsocial.New(cfg, log)
//	stream := client.PullStatuses(ctx, "somehandle", truthsocial.StatusOptions{
//		CreatedAfter: time.Now().AddDate(0, 0, -90),
//	})
//	for stream.Next() {
//		status := stream.Status()
//		...
//	}
//	if err := stream.Err(); err != nil {
//		...
//	}
//
// A client owns its bearer token and rate-limit state; run independent
// clients for concurrent fetches rather than sharing one.
package truthsocial
