// Package catalog provides the in-memory catalog collaborator. The quote
// engine only reads from it; catalog content is seeded at startup or by an
// external import process.
package catalog

import (
	"context"
	"sync"

	"github.com/PCcoding666/LLM-QUOTATION/internal/domain"
	"github.com/PCcoding666/LLM-QUOTATION/internal/errors"
)

// InMemoryCatalog stores price records in memory, keyed by product and region.
type InMemoryCatalog struct {
	mu      sync.RWMutex
	records map[string]domain.CatalogPriceRecord
}

// NewInMemoryCatalog creates a new in-memory catalog.
func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{
		mu:      sync.RWMutex{},
		records: make(map[string]domain.CatalogPriceRecord),
	}
}

// Register adds or replaces a price record.
func (c *InMemoryCatalog) Register(_ context.Context, record domain.CatalogPriceRecord) error {
	if record.ProductCode == "" {
		return errors.New(errors.TypeValidation, "product code cannot be empty").WithField("product_code")
	}
	if record.Region == "" {
		return errors.New(errors.TypeValidation, "region cannot be empty").WithField("region")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[priceKey(record.ProductCode, record.Region)] = record
	return nil
}

// GetPrice retrieves the price record for a product in a region.
func (c *InMemoryCatalog) GetPrice(_ context.Context, productCode, region string) (domain.CatalogPriceRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, exists := c.records[priceKey(productCode, region)]
	if !exists {
		return domain.CatalogPriceRecord{}, errors.NotFound("catalog price", productCode+"/"+region)
	}

	return record, nil
}

func priceKey(productCode, region string) string {
	return productCode + "|" + region
}
