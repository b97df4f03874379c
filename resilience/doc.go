// Package resilience provides retry and rate limiting for remote calls.
//
//   - Retry: repeats an operation with exponential or fixed backoff. The async
//     result poller is a fixed-interval Retry whose RetryIf only accepts the
//     "still running" sentinel.
//   - RateLimiter: token bucket that paces requests to the remote API.
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Name: "bigmodel", Rate: 5, Burst: 5})
//	if err := rl.Wait(ctx); err != nil {
//	    return err
//	}
package resilience
