package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PCcoding666/LLM-QUOTATION/internal/pricing"
)

// QuoteStatus is the lifecycle state of a quote sheet.
type QuoteStatus string

const (
	StatusDraft     QuoteStatus = "draft"
	StatusConfirmed QuoteStatus = "confirmed"
	StatusCancelled QuoteStatus = "cancelled"
	StatusExpired   QuoteStatus = "expired"
	StatusDeleted   QuoteStatus = "deleted"
)

// ChangeType classifies the mutation a version snapshot records.
type ChangeType string

const (
	ChangeCreate        ChangeType = "create"
	ChangeUpdate        ChangeType = "update"
	ChangeAddItem       ChangeType = "add_item"
	ChangeUpdateItem    ChangeType = "update_item"
	ChangeDeleteItem    ChangeType = "delete_item"
	ChangeApplyDiscount ChangeType = "apply_discount"
	ChangeClone         ChangeType = "clone"
)

// QuoteSheet is the aggregate root: the priced proposal for one customer,
// owning its line items and totals. Totals are always a full resum of the
// current items; they are never patched incrementally.
type QuoteSheet struct {
	QuoteID         string      `json:"quote_id"`
	QuoteNo         string      `json:"quote_no"`
	CustomerName    string      `json:"customer_name"`
	ProjectName     string      `json:"project_name"`
	CreatedBy       string      `json:"created_by"`
	SalesName       string      `json:"sales_name,omitempty"`
	CustomerContact string      `json:"customer_contact,omitempty"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
	Remarks         string      `json:"remarks,omitempty"`
	Status          QuoteStatus `json:"status"`

	GlobalDiscountRate   decimal.Decimal `json:"global_discount_rate"`
	GlobalDiscountRemark string          `json:"global_discount_remark,omitempty"`
	TotalOriginalAmount  decimal.Decimal `json:"total_original_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Currency             string          `json:"currency"`

	ValidUntil time.Time `json:"valid_until"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// ItemSeq is the monotone sort-order counter. It only ever increases, so
	// sort orders are never reused after deletions.
	ItemSeq int64 `json:"item_seq"`

	// Revision guards against lost updates: the repository rejects a save
	// whose loaded revision no longer matches the stored one.
	Revision int64 `json:"revision"`

	Items []*QuoteItem `json:"items"`
}

// QuoteItem is one priced product line within a quote. Its final price is
// always derivable from the original price and the applicable discount; it is
// recomputed on every priced-input change, never hand-edited.
type QuoteItem struct {
	ItemID      string `json:"item_id"`
	QuoteID     string `json:"quote_id"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Region      string `json:"region"`

	InputTokens    int64                 `json:"input_tokens"`
	OutputTokens   int64                 `json:"output_tokens"`
	InferenceMode  pricing.InferenceMode `json:"inference_mode"`
	Quantity       int64                 `json:"quantity"`
	DurationMonths int64                 `json:"duration_months"`
	BatchCallRatio decimal.Decimal       `json:"batch_call_ratio"`

	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountRate  decimal.Decimal `json:"discount_rate"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	BillingUnit   string          `json:"billing_unit"`
	SortOrder     int64           `json:"sort_order"`
	Remarks       string          `json:"remarks,omitempty"`

	Breakdown []pricing.Step `json:"breakdown,omitempty"`
}

// QuoteVersion is one immutable entry in a quote's append-only version
// ledger. VersionNumber is assigned by the repository inside the same commit
// as the mutation that caused the snapshot.
type QuoteVersion struct {
	VersionID      string     `json:"version_id"`
	QuoteID        string     `json:"quote_id"`
	VersionNumber  int        `json:"version_number"`
	ChangeType     ChangeType `json:"change_type"`
	ChangesSummary string     `json:"changes_summary"`
	Snapshot       []byte     `json:"snapshot"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PricingVariables are the per-product pricing knobs carried by a catalog
// price record.
type PricingVariables struct {
	InputPrice         decimal.Decimal `json:"input_price"`
	OutputPrice        decimal.Decimal `json:"output_price"`
	ThinkingMultiplier decimal.Decimal `json:"thinking_multiplier"`
	BatchDiscountRate  decimal.Decimal `json:"batch_discount"`
	UnitQuantity       int64           `json:"unit_quantity"`
}

// CatalogPriceRecord is the read-only price entry supplied by the catalog
// collaborator for one product in one region.
type CatalogPriceRecord struct {
	ProductCode string              `json:"product_code"`
	ProductName string              `json:"product_name"`
	Region      string              `json:"region"`
	ProductType pricing.ProductType `json:"product_type"`
	UnitPrice   decimal.Decimal     `json:"unit_price"`
	Unit        string              `json:"unit"`
	Variables   PricingVariables    `json:"pricing_variables"`
}
