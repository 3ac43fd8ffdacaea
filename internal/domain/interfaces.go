package domain

import "context"

// Catalog looks up priced products. It is owned by the catalog collaborator;
// the quote engine only ever reads from it.
type Catalog interface {
	// GetPrice returns the price record for a product in a region.
	GetPrice(ctx context.Context, productCode, region string) (CatalogPriceRecord, error)
}

// QuoteFilter narrows a quote listing. Zero values mean "no filter".
type QuoteFilter struct {
	CustomerName string
	Status       QuoteStatus
	CreatedBy    string
	Page         int
	PageSize     int
}

// QuotePage is one page of a quote listing.
type QuotePage struct {
	Total    int
	Page     int
	PageSize int
	Quotes   []*QuoteSheet
}

// QuoteRepository persists quote aggregates and their version ledger within a
// single unit of work per call. Create and Save are atomic: the header, the
// items and the version snapshot commit together or not at all, and the
// repository assigns the snapshot's version number inside that commit.
type QuoteRepository interface {
	// Create persists a new quote together with its initial version snapshot.
	Create(ctx context.Context, quote *QuoteSheet, version *QuoteVersion) error

	// Get loads a quote with its items, sorted by sort order.
	Get(ctx context.Context, quoteID string) (*QuoteSheet, error)

	// Save persists a mutated quote. version may be nil for mutations that do
	// not snapshot (soft delete). Save fails with a conflict error when the
	// quote's revision no longer matches the stored one.
	Save(ctx context.Context, quote *QuoteSheet, version *QuoteVersion) error

	// List returns a page of non-deleted quotes, newest first.
	List(ctx context.Context, filter QuoteFilter) (QuotePage, error)

	// ExistsQuoteNo reports whether a quote number is already taken.
	ExistsQuoteNo(ctx context.Context, quoteNo string) (bool, error)

	// MaxVersionNumber returns the latest version number for a quote, 0 if none.
	MaxVersionNumber(ctx context.Context, quoteID string) (int, error)

	// ListVersions returns all snapshots for a quote, newest first.
	ListVersions(ctx context.Context, quoteID string) ([]*QuoteVersion, error)
}

// SequenceCounter allocates strictly increasing per-day sequence numbers for
// quote-number generation.
type SequenceCounter interface {
	// Next returns the next sequence number for the given day (YYYYMMDD).
	Next(ctx context.Context, day string) (int64, error)
}

// EventPublisher publishes mutation events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
