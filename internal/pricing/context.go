package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/PCcoding666/LLM-QUOTATION/internal/errors"
)

// ProductType discriminates which base cost formula applies.
type ProductType string

const (
	// ProductTypeStandard bills a flat unit price by quantity and duration.
	ProductTypeStandard ProductType = "standard"

	// ProductTypeLLM bills by input/output token volume.
	ProductTypeLLM ProductType = "llm"
)

// InferenceMode selects the billing mode for LLM products.
type InferenceMode string

const (
	InferenceModeNone        InferenceMode = "none"
	InferenceModeThinking    InferenceMode = "thinking"
	InferenceModeNonThinking InferenceMode = "non_thinking"
)

// UsageContext carries every input the engine needs to price one line item.
// Construct it through NewStandardContext or NewLLMContext so that the
// product-type-specific required fields are checked up front.
type UsageContext struct {
	ProductType    ProductType
	Quantity       int64
	DurationMonths int64

	// LLM-only fields.
	InputTokens        int64
	OutputTokens       int64
	InferenceMode      InferenceMode
	InputPrice         decimal.Decimal // per 1K input tokens
	OutputPrice        decimal.Decimal // per 1K output tokens
	ThinkingMultiplier decimal.Decimal

	// Batch-call discount inputs. Ratio is the fraction of calls that qualify
	// as batch; Rate is the discount applied to that fraction.
	BatchCallRatio    decimal.Decimal
	BatchDiscountRate decimal.Decimal

	// Quote-level discount applied as the final stage.
	GlobalDiscountRate decimal.Decimal
}

// DefaultThinkingMultiplier applies when the catalog does not override it.
var DefaultThinkingMultiplier = decimal.RequireFromString("1.5")

// DefaultBatchDiscountRate is the half-rate discount for batch calls.
var DefaultBatchDiscountRate = decimal.RequireFromString("0.5")

// NewStandardContext builds a context for flat-rate products.
func NewStandardContext(quantity, durationMonths int64) (UsageContext, error) {
	ctx := UsageContext{
		ProductType:        ProductTypeStandard,
		Quantity:           quantity,
		DurationMonths:     durationMonths,
		InferenceMode:      InferenceModeNone,
		ThinkingMultiplier: DefaultThinkingMultiplier,
		BatchDiscountRate:  DefaultBatchDiscountRate,
		GlobalDiscountRate: decimal.NewFromInt(1),
	}
	if err := ctx.Validate(); err != nil {
		return UsageContext{}, err
	}
	return ctx, nil
}

// NewLLMContext builds a context for token-billed products.
func NewLLMContext(
	inputTokens, outputTokens int64,
	mode InferenceMode,
	inputPrice, outputPrice decimal.Decimal,
	quantity, durationMonths int64,
) (UsageContext, error) {
	if mode == "" {
		mode = InferenceModeNone
	}

	ctx := UsageContext{
		ProductType:        ProductTypeLLM,
		Quantity:           quantity,
		DurationMonths:     durationMonths,
		InputTokens:        inputTokens,
		OutputTokens:       outputTokens,
		InferenceMode:      mode,
		InputPrice:         inputPrice,
		OutputPrice:        outputPrice,
		ThinkingMultiplier: DefaultThinkingMultiplier,
		BatchDiscountRate:  DefaultBatchDiscountRate,
		GlobalDiscountRate: decimal.NewFromInt(1),
	}
	if err := ctx.Validate(); err != nil {
		return UsageContext{}, err
	}
	return ctx, nil
}

// Validate checks that the fields required for the selected product type are
// present and well-formed. Zero usage is valid input; it prices to zero.
func (c UsageContext) Validate() error {
	switch c.ProductType {
	case ProductTypeStandard:
		// No extra numeric fields beyond quantity and duration.
	case ProductTypeLLM:
		if c.InputPrice.IsNegative() {
			return errors.New(errors.TypeValidation, "invalid pricing context: input price must not be negative").
				WithField("input_price")
		}
		if c.OutputPrice.IsNegative() {
			return errors.New(errors.TypeValidation, "invalid pricing context: output price must not be negative").
				WithField("output_price")
		}
		switch c.InferenceMode {
		case InferenceModeNone, InferenceModeThinking, InferenceModeNonThinking:
		default:
			return errors.Newf(errors.TypeValidation, "invalid pricing context: unknown inference mode %q", c.InferenceMode).
				WithField("inference_mode")
		}
		if c.InferenceMode == InferenceModeThinking && !c.ThinkingMultiplier.IsPositive() {
			return errors.New(errors.TypeValidation, "invalid pricing context: thinking multiplier must be positive").
				WithField("thinking_multiplier")
		}
	default:
		return errors.Newf(errors.TypeValidation, "invalid pricing context: unknown product type %q", c.ProductType).
			WithField("product_type")
	}

	if c.BatchCallRatio.IsNegative() || c.BatchCallRatio.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New(errors.TypeValidation, "invalid pricing context: batch call ratio must be within [0, 1]").
			WithField("batch_call_ratio")
	}
	if c.BatchDiscountRate.IsNegative() || c.BatchDiscountRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New(errors.TypeValidation, "invalid pricing context: batch discount rate must be within [0, 1]").
			WithField("batch_discount_rate")
	}
	if err := ValidateDiscountRate(c.GlobalDiscountRate); err != nil {
		return err
	}

	return nil
}

// TokenVolume is the volume metric for tiered discounts on LLM products.
func (c UsageContext) TokenVolume() decimal.Decimal {
	in := c.InputTokens
	if in < 0 {
		in = 0
	}
	out := c.OutputTokens
	if out < 0 {
		out = 0
	}
	return decimal.NewFromInt(in + out)
}

// minDiscountRate and maxDiscountRate bound the quote-level discount.
var (
	minDiscountRate = decimal.RequireFromString("0.01")
	maxDiscountRate = decimal.NewFromInt(1)
)

// ValidateDiscountRate checks a quote-level discount rate against [0.01, 1.0].
func ValidateDiscountRate(rate decimal.Decimal) error {
	if rate.LessThan(minDiscountRate) || rate.GreaterThan(maxDiscountRate) {
		return errors.Newf(errors.TypeValidation, "discount rate %s outside [0.01, 1.0]", rate.String()).
			WithField("discount_rate")
	}
	return nil
}
