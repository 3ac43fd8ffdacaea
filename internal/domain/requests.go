package domain

import (
	"github.com/shopspring/decimal"

	"github.com/PCcoding666/LLM-QUOTATION/internal/pricing"
)

// CreateQuoteRequest carries the metadata for a new draft quote.
type CreateQuoteRequest struct {
	CustomerName    string
	ProjectName     string
	CreatedBy       string
	SalesName       string
	CustomerContact string
	CustomerEmail   string
	Remarks         string
	Currency        string

	// ValidDays defaults to the service-configured validity window.
	ValidDays int
}

// UpdateQuoteRequest patches quote metadata and/or requests a status change.
// Nil fields are left untouched.
type UpdateQuoteRequest struct {
	CustomerName    *string
	ProjectName     *string
	SalesName       *string
	CustomerContact *string
	CustomerEmail   *string
	Remarks         *string
	Status          *QuoteStatus
}

// metadataTouched reports whether anything beyond the status is patched.
func (r UpdateQuoteRequest) metadataTouched() bool {
	return r.CustomerName != nil || r.ProjectName != nil || r.SalesName != nil ||
		r.CustomerContact != nil || r.CustomerEmail != nil || r.Remarks != nil
}

// AddItemRequest adds one product line to a draft quote.
type AddItemRequest struct {
	ProductCode    string
	Region         string
	InputTokens    int64
	OutputTokens   int64
	InferenceMode  pricing.InferenceMode
	Quantity       int64
	DurationMonths int64
	BatchCallRatio decimal.Decimal
}

// UpdateItemRequest patches one quote item. Nil fields are left untouched.
// Patching any price-affecting field re-runs the pricing engine; Remarks is
// the only non-price field and changes alone never trigger repricing.
type UpdateItemRequest struct {
	InputTokens    *int64
	OutputTokens   *int64
	InferenceMode  *pricing.InferenceMode
	Quantity       *int64
	DurationMonths *int64
	BatchCallRatio *decimal.Decimal
	Remarks        *string
}

// priceAffecting reports whether the patch touches a priced input.
func (r UpdateItemRequest) priceAffecting() bool {
	return r.InputTokens != nil || r.OutputTokens != nil || r.InferenceMode != nil ||
		r.Quantity != nil || r.DurationMonths != nil || r.BatchCallRatio != nil
}

// BatchItemFailure records why one entry of a batch add was rejected.
type BatchItemFailure struct {
	ProductCode string `json:"product_code"`
	Reason      string `json:"reason"`
}

// BatchAddResult reports the per-item outcome of a best-effort batch add.
type BatchAddResult struct {
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	SuccessItems []*QuoteItem       `json:"success_items"`
	FailedItems  []BatchItemFailure `json:"failed_items"`
}

// QuoteDetail is a quote with its current ledger position.
type QuoteDetail struct {
	*QuoteSheet
	CurrentVersion int
}

// CloneQuoteRequest clones an existing quote into a fresh draft.
type CloneQuoteRequest struct {
	NewCustomerName string
	NewProjectName  string
}
