package domain

import (
	"github.com/shopspring/decimal"
)

// CostPrecision is the number of decimal places every cost is rounded to.
// Rounding is half-to-even so repeated sums do not drift upwards.
const CostPrecision int32 = 6

//nolint:gochecknoglobals // constant divisor
var tokensPerMillion = decimal.NewFromInt(1_000_000)

// ComputeCost converts usage counters into a monetary cost using the model's rates.
// Cached input tokens are billed at the cached rate and never exceed the input count.
func ComputeCost(model ModelDescriptor, usage Usage) CostRecord {
	input := clampTokens(usage.InputTokens)
	cached := clampTokens(usage.CachedInputTokens)
	if cached > input {
		cached = input
	}
	output := clampTokens(usage.OutputTokens)

	inputCost := perMillion(input-cached, model.InputPerMTok)
	cachedCost := perMillion(cached, model.CachedInputPerMTok)
	outputCost := perMillion(output, model.OutputPerMTok)

	total := inputCost.Add(cachedCost).Add(outputCost).RoundBank(CostPrecision)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return CostRecord{Amount: total}
}

// RoundCost applies the cost rounding policy to a float amount.
func RoundCost(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).RoundBank(CostPrecision)
}

func perMillion(tokens int, ratePerMTok float64) decimal.Decimal {
	if tokens == 0 || ratePerMTok <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(tokens)).
		Mul(decimal.NewFromFloat(ratePerMTok)).
		Div(tokensPerMillion)
}

func clampTokens(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
