package pricing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/PCcoding666/LLM-QUOTATION/internal/errors"
	"github.com/PCcoding666/LLM-QUOTATION/internal/pricing"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func requirePriceEqual(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, dec(t, expected).Equal(actual),
		"expected %s, got %s", expected, actual.String())
}

func TestEngine_Calculate_Standard(t *testing.T) {
	ctx := context.Background()
	engine := pricing.NewEngine(nil)

	tests := []struct {
		name           string
		basePrice      string
		quantity       int64
		durationMonths int64
		expected       string
	}{
		{
			name:           "base price times quantity times duration",
			basePrice:      "0.04",
			quantity:       5,
			durationMonths: 12,
			expected:       "2.4",
		},
		{
			name:           "zero quantity prices to zero",
			basePrice:      "0.04",
			quantity:       0,
			durationMonths: 12,
			expected:       "0",
		},
		{
			name:           "zero duration prices to zero",
			basePrice:      "0.04",
			quantity:       5,
			durationMonths: 0,
			expected:       "0",
		},
		{
			name:           "negative quantity prices to zero",
			basePrice:      "0.04",
			quantity:       -3,
			durationMonths: 12,
			expected:       "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage, err := pricing.NewStandardContext(tt.quantity, tt.durationMonths)
			require.NoError(t, err)

			result, err := engine.Calculate(ctx, dec(t, tt.basePrice), usage)
			require.NoError(t, err)
			requirePriceEqual(t, tt.expected, result.OriginalPrice)
			requirePriceEqual(t, tt.expected, result.FinalPrice)
		})
	}
}

func TestEngine_Calculate_LLM(t *testing.T) {
	ctx := context.Background()
	engine := pricing.NewEngine(nil)

	tests := []struct {
		name             string
		inputTokens      int64
		outputTokens     int64
		mode             pricing.InferenceMode
		expectedOriginal string
	}{
		{
			name:             "token cost per thousand",
			inputTokens:      10000,
			outputTokens:     5000,
			mode:             pricing.InferenceModeNone,
			expectedOriginal: "1",
		},
		{
			name:             "thinking mode folds the multiplier into base cost",
			inputTokens:      10000,
			outputTokens:     5000,
			mode:             pricing.InferenceModeThinking,
			expectedOriginal: "1.5",
		},
		{
			name:             "non-thinking mode is billed like none",
			inputTokens:      10000,
			outputTokens:     5000,
			mode:             pricing.InferenceModeNonThinking,
			expectedOriginal: "1",
		},
		{
			name:             "zero tokens price to zero",
			inputTokens:      0,
			outputTokens:     0,
			mode:             pricing.InferenceModeNone,
			expectedOriginal: "0",
		},
		{
			name:             "negative tokens are clamped to zero",
			inputTokens:      -10000,
			outputTokens:     -5000,
			mode:             pricing.InferenceModeNone,
			expectedOriginal: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage, err := pricing.NewLLMContext(
				tt.inputTokens, tt.outputTokens, tt.mode,
				dec(t, "0.04"), dec(t, "0.12"),
				1, 1,
			)
			require.NoError(t, err)

			result, err := engine.Calculate(ctx, decimal.Zero, usage)
			require.NoError(t, err)
			requirePriceEqual(t, tt.expectedOriginal, result.OriginalPrice)
		})
	}
}

func TestEngine_Calculate_GlobalDiscount(t *testing.T) {
	ctx := context.Background()
	engine := pricing.NewEngine(nil)

	usage, err := pricing.NewLLMContext(
		10000, 5000, pricing.InferenceModeNone,
		dec(t, "0.04"), dec(t, "0.12"),
		1, 1,
	)
	require.NoError(t, err)
	usage.GlobalDiscountRate = dec(t, "0.9")

	result, err := engine.Calculate(ctx, decimal.Zero, usage)
	require.NoError(t, err)
	requirePriceEqual(t, "1", result.OriginalPrice)
	requirePriceEqual(t, "0.9", result.FinalPrice)
}

func TestEngine_Calculate_TieredDiscount(t *testing.T) {
	ctx := context.Background()
	tiers := []pricing.Tier{
		{Threshold: dec(t, "10000"), Factor: dec(t, "0.9")},
		{Threshold: dec(t, "100000"), Factor: dec(t, "0.8")},
		{Threshold: dec(t, "1000000"), Factor: dec(t, "0.7")},
	}
	engine := pricing.NewEngine(tiers)

	tests := []struct {
		name         string
		inputTokens  int64
		outputTokens int64
		expected     string
	}{
		{
			name:         "below the lowest tier gets no discount",
			inputTokens:  5000,
			outputTokens: 4000,
			expected:     "0.09", // (0.01*5000 + 0.01*4000)/1000
		},
		{
			name:         "exact threshold match selects that tier",
			inputTokens:  60000,
			outputTokens: 40000,
			expected:     "0.8", // 1.0 * 0.8
		},
		{
			name:         "highest tier not exceeding the metric wins",
			inputTokens:  100000,
			outputTokens: 50000,
			expected:     "1.2", // 1.5 * 0.8
		},
		{
			name:         "top tier",
			inputTokens:  900000,
			outputTokens: 100000,
			expected:     "7", // 10 * 0.7
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage, err := pricing.NewLLMContext(
				tt.inputTokens, tt.outputTokens, pricing.InferenceModeNone,
				dec(t, "0.01"), dec(t, "0.01"),
				1, 1,
			)
			require.NoError(t, err)

			result, err := engine.Calculate(ctx, decimal.Zero, usage)
			require.NoError(t, err)
			requirePriceEqual(t, tt.expected, result.OriginalPrice)
		})
	}
}

func TestEngine_Calculate_BatchCallDiscount(t *testing.T) {
	ctx := context.Background()
	engine := pricing.NewEngine(nil)

	usage, err := pricing.NewLLMContext(
		10000, 5000, pricing.InferenceModeNone,
		dec(t, "0.04"), dec(t, "0.12"),
		1, 1,
	)
	require.NoError(t, err)
	usage.BatchCallRatio = dec(t, "0.5")

	// savings = 1.0 * 0.5 * 0.5 = 0.25
	result, err := engine.Calculate(ctx, decimal.Zero, usage)
	require.NoError(t, err)
	requirePriceEqual(t, "0.75", result.OriginalPrice)
}

func TestEngine_Calculate_Breakdown(t *testing.T) {
	ctx := context.Background()
	engine := pricing.NewEngine([]pricing.Tier{
		{Threshold: dec(t, "10000"), Factor: dec(t, "0.9")},
	})

	usage, err := pricing.NewLLMContext(
		10000, 5000, pricing.InferenceModeThinking,
		dec(t, "0.04"), dec(t, "0.12"),
		2, 3,
	)
	require.NoError(t, err)
	usage.BatchCallRatio = dec(t, "0.4")
	usage.GlobalDiscountRate = dec(t, "0.9")

	result, err := engine.Calculate(ctx, decimal.Zero, usage)
	require.NoError(t, err)

	stages := make([]string, 0, len(result.Breakdown))
	for _, step := range result.Breakdown {
		stages = append(stages, step.Stage)
	}
	require.Equal(t, []string{
		"base_cost",
		"quantity_duration",
		"tiered_discount",
		"batch_call_discount",
		"global_discount",
	}, stages)

	// Every step carries a running amount; the last one is the final price.
	last := result.Breakdown[len(result.Breakdown)-1]
	require.True(t, last.Amount.Equal(result.FinalPrice))

	// Rules only ever attenuate the running price.
	for _, step := range result.Breakdown[2:] {
		require.False(t, step.Delta.IsPositive(), "stage %s inflated the price", step.Stage)
	}
}

func TestEngine_Calculate_Rounding(t *testing.T) {
	ctx := context.Background()
	engine := pricing.NewEngine(nil)

	// (0.0005 * 3) / 1000 = 0.0000015 has seven fractional digits and must
	// round to the six-digit storage precision.
	usage, err := pricing.NewLLMContext(
		3, 0, pricing.InferenceModeNone,
		dec(t, "0.0005"), decimal.Zero,
		1, 1,
	)
	require.NoError(t, err)

	result, err := engine.Calculate(ctx, decimal.Zero, usage)
	require.NoError(t, err)
	requirePriceEqual(t, "0.000002", result.OriginalPrice)
}

func TestEngine_Calculate_InvalidContext(t *testing.T) {
	ctx := context.Background()
	engine := pricing.NewEngine(nil)

	tests := []struct {
		name  string
		usage pricing.UsageContext
	}{
		{
			name: "unknown product type",
			usage: pricing.UsageContext{
				ProductType:        "subscription",
				GlobalDiscountRate: decimal.NewFromInt(1),
			},
		},
		{
			name: "negative input price",
			usage: pricing.UsageContext{
				ProductType:        pricing.ProductTypeLLM,
				InputPrice:         decimal.NewFromInt(-1),
				InferenceMode:      pricing.InferenceModeNone,
				GlobalDiscountRate: decimal.NewFromInt(1),
			},
		},
		{
			name: "unknown inference mode",
			usage: pricing.UsageContext{
				ProductType:        pricing.ProductTypeLLM,
				InferenceMode:      "turbo",
				GlobalDiscountRate: decimal.NewFromInt(1),
			},
		},
		{
			name: "global discount rate below range",
			usage: pricing.UsageContext{
				ProductType:        pricing.ProductTypeStandard,
				InferenceMode:      pricing.InferenceModeNone,
				GlobalDiscountRate: decimal.RequireFromString("0.005"),
			},
		},
		{
			name: "batch call ratio above one",
			usage: pricing.UsageContext{
				ProductType:        pricing.ProductTypeStandard,
				InferenceMode:      pricing.InferenceModeNone,
				BatchCallRatio:     decimal.NewFromInt(2),
				GlobalDiscountRate: decimal.NewFromInt(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Calculate(ctx, decimal.Zero, tt.usage)
			require.Error(t, err)
			require.True(t, errors.IsType(err, errors.TypeValidation))
		})
	}
}
