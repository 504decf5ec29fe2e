package usecase

import "time"

const (
	// DefaultCacheTTL is how long fetched expense and settlement lists stay cached.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultDuplicateWindow is how long an identical submission is rejected.
	DefaultDuplicateWindow = 10 * time.Second

	// DefaultRecentLimit is how many recent items a user report keeps per group.
	DefaultRecentLimit = 5
)

const (
	expensesCachePrefix    = "expenses:group:"
	settlementsCachePrefix = "settlements:group:"
)

// Timing configures cache lifetime and the duplicate-submission window.
// Zero values fall back to the defaults.
type Timing struct {
	CacheTTL        time.Duration
	DuplicateWindow time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.CacheTTL <= 0 {
		t.CacheTTL = DefaultCacheTTL
	}
	if t.DuplicateWindow <= 0 {
		t.DuplicateWindow = DefaultDuplicateWindow
	}
	return t
}
