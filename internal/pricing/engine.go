package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/PCcoding666/LLM-QUOTATION/internal/observability"
)

const tokensPerK = 1000

// Step records one stage's contribution to a price. Breakdowns are persisted
// with version snapshots and rendered in exports, so every stage appears even
// when it changed nothing.
type Step struct {
	Stage  string          `json:"stage"`
	Detail string          `json:"detail"`
	Delta  decimal.Decimal `json:"delta"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceResult is the outcome of pricing one line item.
type PriceResult struct {
	OriginalPrice decimal.Decimal `json:"original_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Breakdown     []Step          `json:"breakdown"`
}

// Engine computes line-item prices: a product-type base formula followed by a
// fixed, ordered chain of attenuating rules, then the quote-level discount.
// The engine performs no I/O and holds no mutable state.
type Engine struct {
	rules []Rule
}

// NewEngine creates a pricing engine. The rule order is fixed here by
// construction: tiered volume discount first, batch-call discount second.
// The thinking-mode multiplier is folded into the base cost and must never
// appear as a separate rule, or it would be applied twice.
func NewEngine(tiers []Tier) *Engine {
	return &Engine{
		rules: []Rule{
			NewTieredDiscountRule(tiers),
			NewBatchCallRule(),
		},
	}
}

// Calculate prices one line item. basePrice is the catalog unit price; it is
// only consulted for flat-rate products. Zero usage prices to zero without
// error; a malformed context fails with a validation error.
func (e *Engine) Calculate(ctx context.Context, basePrice decimal.Decimal, usage UsageContext) (PriceResult, error) {
	if err := usage.Validate(); err != nil {
		return PriceResult{}, err
	}

	breakdown := make([]Step, 0, len(e.rules)+3)

	baseCost, baseDetail := e.baseCost(basePrice, usage)
	breakdown = append(breakdown, Step{
		Stage:  "base_cost",
		Detail: baseDetail,
		Delta:  baseCost,
		Amount: baseCost,
	})

	quantity := clampNonNegative(usage.Quantity)
	duration := clampNonNegative(usage.DurationMonths)
	price := baseCost.Mul(quantity).Mul(duration)
	breakdown = append(breakdown, Step{
		Stage:  "quantity_duration",
		Detail: fmt.Sprintf("quantity %s over %s months", quantity.String(), duration.String()),
		Delta:  price.Sub(baseCost),
		Amount: price,
	})

	for _, rule := range e.rules {
		adjusted, detail := rule.Apply(price, usage)
		breakdown = append(breakdown, Step{
			Stage:  rule.Name(),
			Detail: detail,
			Delta:  adjusted.Sub(price),
			Amount: adjusted,
		})
		price = adjusted
	}

	original := RoundStorage(price)
	final := RoundStorage(original.Mul(usage.GlobalDiscountRate))
	breakdown = append(breakdown, Step{
		Stage:  "global_discount",
		Detail: fmt.Sprintf("global discount rate %s", usage.GlobalDiscountRate.String()),
		Delta:  final.Sub(original),
		Amount: final,
	})

	logger := observability.FromContext(ctx)
	logger.Debug("price calculated",
		observability.String("product_type", string(usage.ProductType)),
		observability.String("original_price", original.String()),
		observability.String("final_price", final.String()))

	return PriceResult{
		OriginalPrice: original,
		FinalPrice:    final,
		Breakdown:     breakdown,
	}, nil
}

// baseCost evaluates the product-type base formula. For LLM products the
// thinking multiplier is folded in here.
func (e *Engine) baseCost(basePrice decimal.Decimal, usage UsageContext) (decimal.Decimal, string) {
	if usage.ProductType != ProductTypeLLM {
		return basePrice, fmt.Sprintf("unit price %s", basePrice.String())
	}

	inputTokens := clampNonNegative(usage.InputTokens)
	outputTokens := clampNonNegative(usage.OutputTokens)

	cost := usage.InputPrice.Mul(inputTokens).
		Add(usage.OutputPrice.Mul(outputTokens)).
		Div(decimal.NewFromInt(tokensPerK))

	detail := fmt.Sprintf(
		"(%s x %s input + %s x %s output) / %d",
		usage.InputPrice.String(), inputTokens.String(),
		usage.OutputPrice.String(), outputTokens.String(),
		tokensPerK,
	)

	if usage.InferenceMode == InferenceModeThinking {
		cost = cost.Mul(usage.ThinkingMultiplier)
		detail += fmt.Sprintf(", thinking multiplier %s", usage.ThinkingMultiplier.String())
	}

	return cost, detail
}

func clampNonNegative(v int64) decimal.Decimal {
	if v < 0 {
		v = 0
	}
	return decimal.NewFromInt(v)
}
