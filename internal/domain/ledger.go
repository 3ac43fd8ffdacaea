package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PCcoding666/LLM-QUOTATION/internal/errors"
)

// SnapshotSchemaVersion is bumped whenever the snapshot shape changes, so
// decoding old ledger entries stays well-defined as the quote model evolves.
const SnapshotSchemaVersion = 1

// SnapshotDoc is the serialized form of a quote at the moment of a mutation.
type SnapshotDoc struct {
	SchemaVersion int            `json:"schema_version"`
	Quote         SnapshotQuote  `json:"quote"`
	Items         []SnapshotItem `json:"items"`
}

// SnapshotQuote captures the quote header fields included in a snapshot.
type SnapshotQuote struct {
	QuoteNo             string `json:"quote_no"`
	CustomerName        string `json:"customer_name"`
	ProjectName         string `json:"project_name"`
	Status              string `json:"status"`
	GlobalDiscountRate  string `json:"global_discount_rate"`
	TotalOriginalAmount string `json:"total_original_amount"`
	TotalAmount         string `json:"total_amount"`
}

// SnapshotItem captures one line item inside a snapshot.
type SnapshotItem struct {
	ProductCode   string `json:"product_code"`
	ProductName   string `json:"product_name"`
	Region        string `json:"region"`
	Quantity      int64  `json:"quantity"`
	OriginalPrice string `json:"original_price"`
	FinalPrice    string `json:"final_price"`
	SortOrder     int64  `json:"sort_order"`
}

// VersionLedger builds the append-only version records of a quote. The ledger
// never assigns version numbers itself; the repository does so inside the
// same commit as the mutation, so a mutation without its version record is
// never observable.
type VersionLedger struct{}

// NewVersionLedger creates the version ledger.
func NewVersionLedger() *VersionLedger {
	return &VersionLedger{}
}

// Snapshot produces an immutable version record for the quote's current
// state. Monetary values are serialized as strings to keep the payload exact.
func (l *VersionLedger) Snapshot(quote *QuoteSheet, changeType ChangeType) (*QuoteVersion, error) {
	doc := SnapshotDoc{
		SchemaVersion: SnapshotSchemaVersion,
		Quote: SnapshotQuote{
			QuoteNo:             quote.QuoteNo,
			CustomerName:        quote.CustomerName,
			ProjectName:         quote.ProjectName,
			Status:              string(quote.Status),
			GlobalDiscountRate:  quote.GlobalDiscountRate.String(),
			TotalOriginalAmount: quote.TotalOriginalAmount.String(),
			TotalAmount:         quote.TotalAmount.String(),
		},
		Items: make([]SnapshotItem, 0, len(quote.Items)),
	}

	for _, item := range quote.Items {
		doc.Items = append(doc.Items, SnapshotItem{
			ProductCode:   item.ProductCode,
			ProductName:   item.ProductName,
			Region:        item.Region,
			Quantity:      item.Quantity,
			OriginalPrice: item.OriginalPrice.String(),
			FinalPrice:    item.FinalPrice.String(),
			SortOrder:     item.SortOrder,
		})
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	return &QuoteVersion{
		VersionID:      uuid.New().String(),
		QuoteID:        quote.QuoteID,
		ChangeType:     changeType,
		ChangesSummary: changesSummary(changeType, len(quote.Items)),
		Snapshot:       payload,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// DecodeSnapshot parses a version's snapshot payload.
func DecodeSnapshot(version *QuoteVersion) (SnapshotDoc, error) {
	var doc SnapshotDoc
	if err := json.Unmarshal(version.Snapshot, &doc); err != nil {
		return SnapshotDoc{}, errors.Wrap(errors.TypeInternal, "failed to decode snapshot", err)
	}
	if doc.SchemaVersion != SnapshotSchemaVersion {
		return SnapshotDoc{}, errors.Newf(errors.TypeInternal, "unsupported snapshot schema version %d", doc.SchemaVersion)
	}
	return doc, nil
}

// changesSummary derives the human-readable summary purely from the change
// type and the current item count.
func changesSummary(changeType ChangeType, itemCount int) string {
	switch changeType {
	case ChangeCreate:
		return "quote created"
	case ChangeUpdate:
		return "quote details updated"
	case ChangeAddItem:
		return fmt.Sprintf("item added, %d items total", itemCount)
	case ChangeUpdateItem:
		return "item updated"
	case ChangeDeleteItem:
		return fmt.Sprintf("item deleted, %d items remaining", itemCount)
	case ChangeApplyDiscount:
		return "global discount applied"
	case ChangeClone:
		return "quote cloned"
	default:
		return "unknown change"
	}
}
