// Package ratelimit paces requests to the wiki.
//
// The crawler is sequential, so pacing only spaces requests out in time; it
// never retries. A limit of zero disables pacing:
//
//	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
