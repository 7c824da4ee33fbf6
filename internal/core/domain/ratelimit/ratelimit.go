package ratelimit

// LimitResult reports the outcome of a sliding-window rate limit check.
// RetryAfter is the number of seconds until the oldest in-window entry ages out;
// it is only set on denial.
type LimitResult struct {
	Allowed    bool `json:"allowed"`
	Remaining  int  `json:"remaining"`
	Limit      int  `json:"limit"`
	RetryAfter int  `json:"retry_after,omitempty"`
}
