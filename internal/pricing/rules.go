package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Rule adjusts a running price. Every rule in the chain attenuates the price;
// none may inflate it. The chain order is fixed by the engine constructor.
type Rule interface {
	// Name identifies the rule in price breakdowns.
	Name() string

	// Apply returns the adjusted price and a human-readable explanation of
	// what the rule did (including when it did nothing).
	Apply(price decimal.Decimal, ctx UsageContext) (decimal.Decimal, string)
}

// Tier is one volume tier: the discount factor applies once the volume metric
// reaches Threshold.
type Tier struct {
	Threshold decimal.Decimal
	Factor    decimal.Decimal
}

// TieredDiscountRule applies a volume discount selected by the highest tier
// threshold not exceeding the volume metric. An exact threshold match selects
// that tier, never the one below it.
type TieredDiscountRule struct {
	tiers []Tier
}

// NewTieredDiscountRule creates a tiered discount rule. Tiers may be supplied
// in any order; they are kept sorted by ascending threshold.
func NewTieredDiscountRule(tiers []Tier) *TieredDiscountRule {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Threshold.LessThan(sorted[j].Threshold)
	})

	return &TieredDiscountRule{tiers: sorted}
}

// Name implements Rule.
func (r *TieredDiscountRule) Name() string {
	return "tiered_discount"
}

// Apply implements Rule.
func (r *TieredDiscountRule) Apply(price decimal.Decimal, ctx UsageContext) (decimal.Decimal, string) {
	metric := r.volumeMetric(price, ctx)

	selected := Tier{}
	found := false
	for _, tier := range r.tiers {
		if tier.Threshold.LessThanOrEqual(metric) {
			selected = tier
			found = true
		}
	}

	if !found {
		return price, fmt.Sprintf("volume %s below the lowest tier, no discount", metric.String())
	}

	adjusted := price.Mul(selected.Factor)
	return adjusted, fmt.Sprintf(
		"volume %s reached tier %s, factor %s applied",
		metric.String(), selected.Threshold.String(), selected.Factor.String(),
	)
}

// volumeMetric is cumulative tokens for LLM products and the running spend
// for flat-rate products.
func (r *TieredDiscountRule) volumeMetric(price decimal.Decimal, ctx UsageContext) decimal.Decimal {
	if ctx.ProductType == ProductTypeLLM {
		return ctx.TokenVolume()
	}
	return price
}

// BatchCallRule discounts only the fraction of the price attributable to
// batch calls: savings = price * batchRatio * batchRate.
type BatchCallRule struct{}

// NewBatchCallRule creates the batch-call discount rule.
func NewBatchCallRule() *BatchCallRule {
	return &BatchCallRule{}
}

// Name implements Rule.
func (r *BatchCallRule) Name() string {
	return "batch_call_discount"
}

// Apply implements Rule.
func (r *BatchCallRule) Apply(price decimal.Decimal, ctx UsageContext) (decimal.Decimal, string) {
	if !ctx.BatchCallRatio.IsPositive() {
		return price, "no batch calls, no discount"
	}

	savings := price.Mul(ctx.BatchCallRatio).Mul(ctx.BatchDiscountRate)
	adjusted := price.Sub(savings)
	return adjusted, fmt.Sprintf(
		"batch ratio %s at rate %s saved %s",
		ctx.BatchCallRatio.String(), ctx.BatchDiscountRate.String(), savings.String(),
	)
}
