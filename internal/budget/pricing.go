package budget

import "github.com/shopspring/decimal"

// ModelPricing holds per-model token prices in USD per million tokens.
type ModelPricing struct {
	InputPerMTok  decimal.Decimal
	OutputPerMTok decimal.Decimal
}

var million = decimal.NewFromInt(1_000_000)

// Cost calculates the USD cost of a single call's token counts.
func (p ModelPricing) Cost(inputTokens, outputTokens int64) decimal.Decimal {
	inputCost := decimal.NewFromInt(inputTokens).Mul(p.InputPerMTok).Div(million)
	outputCost := decimal.NewFromInt(outputTokens).Mul(p.OutputPerMTok).Div(million)
	return inputCost.Add(outputCost)
}

// DefaultPricing contains built-in pricing for the supported models
// (USD per million tokens). Unknown models accrue tokens but no cost.
var DefaultPricing = map[string]ModelPricing{
	"claude-3-5-sonnet-latest": {
		InputPerMTok:  decimal.NewFromFloat(3),
		OutputPerMTok: decimal.NewFromFloat(15),
	},
	"claude-3-5-haiku-latest": {
		InputPerMTok:  decimal.NewFromFloat(0.8),
		OutputPerMTok: decimal.NewFromFloat(4),
	},
}
