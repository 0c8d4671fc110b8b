// Package budget tracks cumulative request, token, and cost usage
// across model calls, optionally shared by several agents.
package budget

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Usage holds the counters for one or more model calls.
type Usage struct {
	Requests     int64
	InputTokens  int64
	OutputTokens int64
}

// Limit identifies which bound a tracker has crossed.
type Limit int

const (
	LimitNone Limit = iota
	LimitRequests
	LimitTokens
)

// Tracker accumulates usage and cost across calls, enforcing optional
// request and total-token limits. Safe for concurrent use so multiple
// cooperating agents can share one tracker.
type Tracker struct {
	requestLimit int64 // 0 = unlimited
	tokenLimit   int64 // 0 = unlimited
	pricing      map[string]ModelPricing

	mu        sync.Mutex
	total     Usage
	totalCost decimal.Decimal
}

// NewTracker creates a tracker with the given limits (0 = unlimited)
// and pricing table.
func NewTracker(requestLimit, tokenLimit int64, pricing map[string]ModelPricing) *Tracker {
	return &Tracker{
		requestLimit: requestLimit,
		tokenLimit:   tokenLimit,
		pricing:      pricing,
		totalCost:    decimal.Zero,
	}
}

// Record accumulates one call's usage and updates the cumulative cost.
func (t *Tracker) Record(model string, usage Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.Requests += usage.Requests
	t.total.InputTokens += usage.InputTokens
	t.total.OutputTokens += usage.OutputTokens

	pricing, ok := t.pricing[model]
	if !ok {
		return // unknown model: tokens counted but no cost added
	}
	t.totalCost = t.totalCost.Add(pricing.Cost(usage.InputTokens, usage.OutputTokens))
}

// Exceeded returns the first limit the cumulative usage has reached,
// or LimitNone.
func (t *Tracker) Exceeded() Limit {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.requestLimit > 0 && t.total.Requests >= t.requestLimit {
		return LimitRequests
	}
	if t.tokenLimit > 0 && t.total.InputTokens+t.total.OutputTokens >= t.tokenLimit {
		return LimitTokens
	}
	return LimitNone
}

// Total returns the cumulative usage across all recorded calls.
func (t *Tracker) Total() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// TotalCost returns the cumulative USD cost across all recorded calls.
func (t *Tracker) TotalCost() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost
}
