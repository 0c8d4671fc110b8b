package forge

import "github.com/shopspring/decimal"

// Usage tracks request and token consumption across model calls.
// Counters are monotonically non-decreasing within a session.
type Usage struct {
	Requests     int64
	InputTokens  int64
	OutputTokens int64
	Cost         decimal.Decimal
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Add accumulates another usage record into this one.
func (u *Usage) Add(other Usage) {
	u.Requests += other.Requests
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.Cost = u.Cost.Add(other.Cost)
}

// UsageLimits bounds a session's cumulative consumption. Zero values
// mean unlimited. Limits are checked before each model call; a turn
// that would exceed them fails with ErrRequestLimit or ErrTokenLimit
// and leaves the session unchanged.
type UsageLimits struct {
	RequestLimit     int64
	TotalTokensLimit int64
}

// Check returns the sentinel error matching the first exceeded limit,
// or nil when the usage is within bounds.
func (l UsageLimits) Check(u Usage) error {
	if l.RequestLimit > 0 && u.Requests >= l.RequestLimit {
		return ErrRequestLimit
	}
	if l.TotalTokensLimit > 0 && u.TotalTokens() >= l.TotalTokensLimit {
		return ErrTokenLimit
	}
	return nil
}
