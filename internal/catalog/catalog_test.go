package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/PCcoding666/LLM-QUOTATION/internal/catalog"
	"github.com/PCcoding666/LLM-QUOTATION/internal/domain"
	"github.com/PCcoding666/LLM-QUOTATION/internal/errors"
	"github.com/PCcoding666/LLM-QUOTATION/internal/pricing"
)

func TestInMemoryCatalog_RegisterAndGetPrice(t *testing.T) {
	cat := catalog.NewInMemoryCatalog()
	ctx := context.Background()

	record := domain.CatalogPriceRecord{
		ProductCode: "llm-chat-pro",
		ProductName: "Chat Pro",
		Region:      "us-east",
		ProductType: pricing.ProductTypeLLM,
		Unit:        "1K tokens",
		Variables: domain.PricingVariables{
			InputPrice:  decimal.RequireFromString("0.04"),
			OutputPrice: decimal.RequireFromString("0.12"),
		},
	}
	require.NoError(t, cat.Register(ctx, record))

	got, err := cat.GetPrice(ctx, "llm-chat-pro", "us-east")
	require.NoError(t, err)
	require.Equal(t, "Chat Pro", got.ProductName)
	require.True(t, got.Variables.InputPrice.Equal(record.Variables.InputPrice))

	// Same product in another region is a different record.
	_, err = cat.GetPrice(ctx, "llm-chat-pro", "eu-west")
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.TypeNotFound))

	// Re-registering replaces the record.
	record.ProductName = "Chat Pro v2"
	require.NoError(t, cat.Register(ctx, record))
	got, err = cat.GetPrice(ctx, "llm-chat-pro", "us-east")
	require.NoError(t, err)
	require.Equal(t, "Chat Pro v2", got.ProductName)
}

func TestInMemoryCatalog_Register_Validation(t *testing.T) {
	cat := catalog.NewInMemoryCatalog()
	ctx := context.Background()

	err := cat.Register(ctx, domain.CatalogPriceRecord{Region: "us-east"})
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.TypeValidation))

	err = cat.Register(ctx, domain.CatalogPriceRecord{ProductCode: "llm-chat-pro"})
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.TypeValidation))
}
