package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/PCcoding666/LLM-QUOTATION/internal/errors"
	"github.com/PCcoding666/LLM-QUOTATION/internal/observability"
	"github.com/PCcoding666/LLM-QUOTATION/internal/pricing"
)

const (
	maxQuoteNoRetries  = 3
	defaultValidDays   = 30
	defaultBillingUnit = "1K tokens"
	defaultCurrency    = "USD"
	quoteNoDayFormat   = "20060102"
)

// QuoteService owns every quote mutation. Each call is one unit of work:
// state-machine check, pricing, aggregate mutation with total recomputation,
// version snapshot, then a single atomic repository commit. Any failing step
// aborts the whole mutation.
type QuoteService struct {
	repo      QuoteRepository
	catalog   Catalog
	engine    *pricing.Engine
	sequence  SequenceCounter
	machine   *StateMachine
	ledger    *VersionLedger
	events    EventPublisher
	validDays int
}

// ServiceOption customizes the quote service.
type ServiceOption func(*QuoteService)

// WithValidDays overrides the default validity window for new quotes.
func WithValidDays(days int) ServiceOption {
	return func(s *QuoteService) {
		if days > 0 {
			s.validDays = days
		}
	}
}

// NewQuoteService creates the quote service (DI constructor).
func NewQuoteService(
	repo QuoteRepository,
	catalog Catalog,
	engine *pricing.Engine,
	sequence SequenceCounter,
	events EventPublisher,
	opts ...ServiceOption,
) *QuoteService {
	svc := &QuoteService{
		repo:      repo,
		catalog:   catalog,
		engine:    engine,
		sequence:  sequence,
		machine:   NewStateMachine(),
		ledger:    NewVersionLedger(),
		events:    events,
		validDays: defaultValidDays,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateQuote creates a draft quote with version 1 in the ledger.
func (s *QuoteService) CreateQuote(ctx context.Context, req CreateQuoteRequest) (*QuoteDetail, error) {
	ctx = observability.BeginOperation(ctx, "create_quote")

	if req.CustomerName == "" {
		return nil, errors.New(errors.TypeValidation, "customer name is required").WithField("customer_name")
	}

	quoteNo, err := s.generateQuoteNo(ctx)
	if err != nil {
		return nil, err
	}

	validDays := req.ValidDays
	if validDays <= 0 {
		validDays = s.validDays
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	now := time.Now().UTC()
	quote := &QuoteSheet{
		QuoteID:             uuid.New().String(),
		QuoteNo:             quoteNo,
		CustomerName:        req.CustomerName,
		ProjectName:         req.ProjectName,
		CreatedBy:           req.CreatedBy,
		SalesName:           req.SalesName,
		CustomerContact:     req.CustomerContact,
		CustomerEmail:       req.CustomerEmail,
		Remarks:             req.Remarks,
		Status:              StatusDraft,
		GlobalDiscountRate:  decimal.NewFromInt(1),
		TotalOriginalAmount: decimal.Zero,
		TotalAmount:         decimal.Zero,
		Currency:            currency,
		ValidUntil:          now.AddDate(0, 0, validDays),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	version, err := s.ledger.Snapshot(quote, ChangeCreate)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, quote, version); err != nil {
		return nil, fmt.Errorf("failed to persist quote: %w", err)
	}

	logger := observability.FromContext(ctx)
	logger.Info("quote created",
		observability.String("quote_id", quote.QuoteID),
		observability.String("quote_no", quote.QuoteNo))
	s.publish(ctx, "quote.created", map[string]interface{}{
		"quote_id": quote.QuoteID,
		"quote_no": quote.QuoteNo,
	})

	return s.GetQuoteDetail(ctx, quote.QuoteID)
}

// GetQuoteDetail loads a quote with its items and current version number.
func (s *QuoteService) GetQuoteDetail(ctx context.Context, quoteID string) (*QuoteDetail, error) {
	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.MaxVersionNumber(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	return &QuoteDetail{QuoteSheet: quote, CurrentVersion: current}, nil
}

// ListQuotes returns a filtered page of non-deleted quotes, newest first.
func (s *QuoteService) ListQuotes(ctx context.Context, filter QuoteFilter) (QuotePage, error) {
	return s.repo.List(ctx, filter)
}

// UpdateQuote patches quote metadata and/or performs a status transition.
// Metadata edits require draft status; a pure status change is validated
// against the state machine instead.
func (s *QuoteService) UpdateQuote(ctx context.Context, quoteID string, req UpdateQuoteRequest) (*QuoteDetail, error) {
	ctx = observability.BeginOperation(ctx, "update_quote")
	ctx = observability.WithQuoteID(ctx, quoteID)

	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if req.metadataTouched() {
		if err := s.machine.CheckModifiable(quote.Status); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		if err := s.machine.CheckTransition(quote.Status, *req.Status); err != nil {
			return nil, err
		}
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&quote.CustomerName, req.CustomerName)
	applyString(&quote.ProjectName, req.ProjectName)
	applyString(&quote.SalesName, req.SalesName)
	applyString(&quote.CustomerContact, req.CustomerContact)
	applyString(&quote.CustomerEmail, req.CustomerEmail)
	applyString(&quote.Remarks, req.Remarks)
	if req.Status != nil {
		quote.Status = *req.Status
	}

	version, err := s.ledger.Snapshot(quote, ChangeUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, quote, version); err != nil {
		return nil, err
	}

	s.publish(ctx, "quote.updated", map[string]interface{}{
		"quote_id": quote.QuoteID,
		"status":   string(quote.Status),
	})

	return s.GetQuoteDetail(ctx, quoteID)
}

// DeleteQuote soft-deletes a quote. Deletion is terminal and allowed from any
// non-deleted state; it writes no ledger entry, matching the change-type set.
func (s *QuoteService) DeleteQuote(ctx context.Context, quoteID string) error {
	ctx = observability.BeginOperation(ctx, "delete_quote")
	ctx = observability.WithQuoteID(ctx, quoteID)

	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return err
	}
	if err := s.machine.CheckDeletable(quote.Status); err != nil {
		return err
	}

	quote.Status = StatusDeleted
	if err := s.repo.Save(ctx, quote, nil); err != nil {
		return err
	}

	observability.FromContext(ctx).Info("quote soft-deleted",
		observability.String("quote_id", quoteID))
	s.publish(ctx, "quote.deleted", map[string]interface{}{"quote_id": quoteID})
	return nil
}

// AddItem prices and appends one product line to a draft quote.
func (s *QuoteService) AddItem(ctx context.Context, quoteID string, req AddItemRequest) (*QuoteItem, error) {
	ctx = observability.BeginOperation(ctx, "add_item")
	ctx = observability.WithQuoteID(ctx, quoteID)

	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.CheckModifiable(quote.Status); err != nil {
		return nil, err
	}

	item, err := s.buildItem(ctx, quote, req)
	if err != nil {
		return nil, err
	}
	quote.Items = append(quote.Items, item)
	s.recalculateTotals(quote)

	version, err := s.ledger.Snapshot(quote, ChangeAddItem)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, quote, version); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("item added",
		observability.String("product_code", item.ProductCode),
		observability.Int64("sort_order", item.SortOrder))
	s.publish(ctx, "quote.item_added", map[string]interface{}{
		"quote_id":     quoteID,
		"item_id":      item.ItemID,
		"product_code": item.ProductCode,
	})

	return item, nil
}

// BatchAddItems adds items best-effort: each entry is attempted
// independently, per-item failures are collected without aborting the batch,
// and one snapshot covers everything that succeeded.
func (s *QuoteService) BatchAddItems(ctx context.Context, quoteID string, reqs []AddItemRequest) (*BatchAddResult, error) {
	ctx = observability.BeginOperation(ctx, "batch_add_items")
	ctx = observability.WithQuoteID(ctx, quoteID)

	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.CheckModifiable(quote.Status); err != nil {
		return nil, err
	}

	result := &BatchAddResult{}
	for _, req := range reqs {
		item, itemErr := s.buildItem(ctx, quote, req)
		if itemErr != nil {
			result.FailedItems = append(result.FailedItems, BatchItemFailure{
				ProductCode: req.ProductCode,
				Reason:      itemErr.Error(),
			})
			continue
		}
		quote.Items = append(quote.Items, item)
		result.SuccessItems = append(result.SuccessItems, item)
	}
	result.SuccessCount = len(result.SuccessItems)
	result.FailedCount = len(result.FailedItems)

	s.recalculateTotals(quote)

	version, err := s.ledger.Snapshot(quote, ChangeAddItem)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, quote, version); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("batch add finished",
		observability.Int("success_count", result.SuccessCount),
		observability.Int("failed_count", result.FailedCount))
	s.publish(ctx, "quote.items_batch_added", map[string]interface{}{
		"quote_id":      quoteID,
		"success_count": result.SuccessCount,
		"failed_count":  result.FailedCount,
	})

	return result, nil
}

// UpdateItem patches a quote item. Touching any priced input re-runs the
// pricing engine against the item's current catalog record and the quote's
// current global discount.
func (s *QuoteService) UpdateItem(ctx context.Context, quoteID, itemID string, req UpdateItemRequest) (*QuoteItem, error) {
	ctx = observability.BeginOperation(ctx, "update_item")
	ctx = observability.WithQuoteID(ctx, quoteID)

	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.CheckModifiable(quote.Status); err != nil {
		return nil, err
	}

	item, err := findItem(quote, itemID)
	if err != nil {
		return nil, err
	}

	if req.InputTokens != nil {
		item.InputTokens = *req.InputTokens
	}
	if req.OutputTokens != nil {
		item.OutputTokens = *req.OutputTokens
	}
	if req.InferenceMode != nil {
		item.InferenceMode = *req.InferenceMode
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.DurationMonths != nil {
		item.DurationMonths = *req.DurationMonths
	}
	if req.BatchCallRatio != nil {
		item.BatchCallRatio = *req.BatchCallRatio
	}
	if req.Remarks != nil {
		item.Remarks = *req.Remarks
	}

	if req.priceAffecting() {
		record, err := s.catalog.GetPrice(ctx, item.ProductCode, item.Region)
		if err != nil {
			return nil, err
		}
		result, err := s.priceItem(ctx, record, itemUsage(item), quote.GlobalDiscountRate)
		if err != nil {
			return nil, err
		}
		item.OriginalPrice = result.OriginalPrice
		item.FinalPrice = result.FinalPrice
		item.DiscountRate = quote.GlobalDiscountRate
		item.Breakdown = result.Breakdown
	}

	s.recalculateTotals(quote)

	version, err := s.ledger.Snapshot(quote, ChangeUpdateItem)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, quote, version); err != nil {
		return nil, err
	}

	s.publish(ctx, "quote.item_updated", map[string]interface{}{
		"quote_id": quoteID,
		"item_id":  itemID,
	})

	return item, nil
}

// DeleteItem removes one item. Remaining sort orders are not renumbered.
func (s *QuoteService) DeleteItem(ctx context.Context, quoteID, itemID string) error {
	ctx = observability.BeginOperation(ctx, "delete_item")
	ctx = observability.WithQuoteID(ctx, quoteID)

	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return err
	}
	if err := s.machine.CheckModifiable(quote.Status); err != nil {
		return err
	}

	idx := -1
	for i, item := range quote.Items {
		if item.ItemID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.NotFound("quote item", itemID)
	}
	quote.Items = append(quote.Items[:idx], quote.Items[idx+1:]...)
	s.recalculateTotals(quote)

	version, err := s.ledger.Snapshot(quote, ChangeDeleteItem)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, quote, version); err != nil {
		return err
	}

	s.publish(ctx, "quote.item_deleted", map[string]interface{}{
		"quote_id": quoteID,
		"item_id":  itemID,
	})

	return nil
}

// ApplyGlobalDiscount sets the quote-level discount and re-derives every
// item's final price from its stored original price. The pricing engine is
// deliberately not re-run here: tiered and batch rules are already reflected
// in the original prices.
func (s *QuoteService) ApplyGlobalDiscount(ctx context.Context, quoteID string, rate decimal.Decimal, remark string) (*QuoteDetail, error) {
	ctx = observability.BeginOperation(ctx, "apply_discount")
	ctx = observability.WithQuoteID(ctx, quoteID)

	if err := pricing.ValidateDiscountRate(rate); err != nil {
		return nil, err
	}

	quote, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.CheckModifiable(quote.Status); err != nil {
		return nil, err
	}

	quote.GlobalDiscountRate = rate
	if remark != "" {
		quote.GlobalDiscountRemark = remark
	}
	for _, item := range quote.Items {
		item.DiscountRate = rate
		item.FinalPrice = pricing.RoundStorage(item.OriginalPrice.Mul(rate))
	}
	s.recalculateTotals(quote)

	version, err := s.ledger.Snapshot(quote, ChangeApplyDiscount)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, quote, version); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("global discount applied",
		observability.String("rate", rate.String()))
	s.publish(ctx, "quote.discount_applied", map[string]interface{}{
		"quote_id": quoteID,
		"rate":     rate.String(),
	})

	return s.GetQuoteDetail(ctx, quoteID)
}

// CloneQuote copies a quote into a fresh draft with a new quote number.
// Items keep their prices; sort orders are reassigned 1..n.
func (s *QuoteService) CloneQuote(ctx context.Context, quoteID string, req CloneQuoteRequest) (*QuoteDetail, error) {
	ctx = observability.BeginOperation(ctx, "clone_quote")
	ctx = observability.WithQuoteID(ctx, quoteID)

	source, err := s.repo.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	quoteNo, err := s.generateQuoteNo(ctx)
	if err != nil {
		return nil, err
	}

	customerName := source.CustomerName
	if req.NewCustomerName != "" {
		customerName = req.NewCustomerName
	}
	projectName := source.ProjectName
	if req.NewProjectName != "" {
		projectName = req.NewProjectName
	}

	now := time.Now().UTC()
	clone := &QuoteSheet{
		QuoteID:            uuid.New().String(),
		QuoteNo:            quoteNo,
		CustomerName:       customerName,
		ProjectName:        projectName,
		CreatedBy:          source.CreatedBy,
		SalesName:          source.SalesName,
		CustomerContact:    source.CustomerContact,
		CustomerEmail:      source.CustomerEmail,
		Remarks:            fmt.Sprintf("cloned from %s", source.QuoteNo),
		Status:             StatusDraft,
		GlobalDiscountRate: source.GlobalDiscountRate,
		Currency:           source.Currency,
		ValidUntil:         now.AddDate(0, 0, s.validDays),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for i, item := range source.Items {
		copied := *item
		copied.ItemID = uuid.New().String()
		copied.QuoteID = clone.QuoteID
		copied.SortOrder = int64(i + 1)
		clone.Items = append(clone.Items, &copied)
	}
	clone.ItemSeq = int64(len(clone.Items))
	s.recalculateTotals(clone)

	version, err := s.ledger.Snapshot(clone, ChangeClone)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, clone, version); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("quote cloned",
		observability.String("source_quote_no", source.QuoteNo),
		observability.String("quote_no", clone.QuoteNo))
	s.publish(ctx, "quote.cloned", map[string]interface{}{
		"source_quote_id": quoteID,
		"quote_id":        clone.QuoteID,
	})

	return s.GetQuoteDetail(ctx, clone.QuoteID)
}

// ListVersions returns a quote's full version history, newest first.
func (s *QuoteService) ListVersions(ctx context.Context, quoteID string) ([]*QuoteVersion, error) {
	if _, err := s.repo.Get(ctx, quoteID); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, quoteID)
}

// buildItem prices one add-item request against the catalog and assigns the
// next sort order from the quote's monotone counter.
func (s *QuoteService) buildItem(ctx context.Context, quote *QuoteSheet, req AddItemRequest) (*QuoteItem, error) {
	record, err := s.catalog.GetPrice(ctx, req.ProductCode, req.Region)
	if err != nil {
		return nil, err
	}

	item := &QuoteItem{
		ItemID:         uuid.New().String(),
		QuoteID:        quote.QuoteID,
		ProductCode:    record.ProductCode,
		ProductName:    record.ProductName,
		Region:         req.Region,
		InputTokens:    req.InputTokens,
		OutputTokens:   req.OutputTokens,
		InferenceMode:  req.InferenceMode,
		Quantity:       req.Quantity,
		DurationMonths: req.DurationMonths,
		BatchCallRatio: req.BatchCallRatio,
		BillingUnit:    record.Unit,
	}
	if item.BillingUnit == "" {
		item.BillingUnit = defaultBillingUnit
	}

	result, err := s.priceItem(ctx, record, itemUsage(item), quote.GlobalDiscountRate)
	if err != nil {
		return nil, err
	}
	item.OriginalPrice = result.OriginalPrice
	item.FinalPrice = result.FinalPrice
	item.DiscountRate = quote.GlobalDiscountRate
	item.Breakdown = result.Breakdown

	quote.ItemSeq++
	item.SortOrder = quote.ItemSeq

	return item, nil
}

// usageParams is the priced-input slice of an item, used to rebuild its
// pricing context.
type usageParams struct {
	inputTokens    int64
	outputTokens   int64
	inferenceMode  pricing.InferenceMode
	quantity       int64
	durationMonths int64
	batchCallRatio decimal.Decimal
}

func itemUsage(item *QuoteItem) usageParams {
	return usageParams{
		inputTokens:    item.InputTokens,
		outputTokens:   item.OutputTokens,
		inferenceMode:  item.InferenceMode,
		quantity:       item.Quantity,
		durationMonths: item.DurationMonths,
		batchCallRatio: item.BatchCallRatio,
	}
}

// priceItem runs the pricing engine for one item against a catalog record.
func (s *QuoteService) priceItem(
	ctx context.Context,
	record CatalogPriceRecord,
	usage usageParams,
	globalRate decimal.Decimal,
) (pricing.PriceResult, error) {
	var (
		usageCtx pricing.UsageContext
		err      error
	)

	switch record.ProductType {
	case pricing.ProductTypeLLM:
		usageCtx, err = pricing.NewLLMContext(
			usage.inputTokens, usage.outputTokens,
			usage.inferenceMode,
			record.Variables.InputPrice, record.Variables.OutputPrice,
			usage.quantity, usage.durationMonths,
		)
		if err != nil {
			return pricing.PriceResult{}, err
		}
		if record.Variables.ThinkingMultiplier.IsPositive() {
			usageCtx.ThinkingMultiplier = record.Variables.ThinkingMultiplier
		}
	default:
		usageCtx, err = pricing.NewStandardContext(usage.quantity, usage.durationMonths)
		if err != nil {
			return pricing.PriceResult{}, err
		}
	}

	if record.Variables.BatchDiscountRate.IsPositive() {
		usageCtx.BatchDiscountRate = record.Variables.BatchDiscountRate
	}
	usageCtx.BatchCallRatio = usage.batchCallRatio
	usageCtx.GlobalDiscountRate = globalRate

	return s.engine.Calculate(ctx, record.UnitPrice, usageCtx)
}

// recalculateTotals resums both totals over all current items. Always a full
// resum, never an incremental delta.
func (s *QuoteService) recalculateTotals(quote *QuoteSheet) {
	totalOriginal := decimal.Zero
	totalFinal := decimal.Zero
	for _, item := range quote.Items {
		totalOriginal = totalOriginal.Add(item.OriginalPrice)
		totalFinal = totalFinal.Add(item.FinalPrice)
	}
	quote.TotalOriginalAmount = totalOriginal
	quote.TotalAmount = totalFinal
}

// generateQuoteNo allocates a daily-sequenced quote number, re-checking
// uniqueness against the repository with a bounded number of retries.
func (s *QuoteService) generateQuoteNo(ctx context.Context) (string, error) {
	logger := observability.FromContext(ctx)
	day := time.Now().UTC().Format(quoteNoDayFormat)

	for attempt := 1; attempt <= maxQuoteNoRetries; attempt++ {
		seq, err := s.sequence.Next(ctx, day)
		if err != nil {
			logger.Error("quote number allocation failed",
				observability.Int("attempt", attempt),
				observability.Error(err))
			continue
		}

		quoteNo := fmt.Sprintf("QT%s%04d", day, seq)
		exists, err := s.repo.ExistsQuoteNo(ctx, quoteNo)
		if err != nil {
			return "", err
		}
		if !exists {
			return quoteNo, nil
		}

		logger.Warn("quote number already taken, retrying",
			observability.String("quote_no", quoteNo),
			observability.Int("attempt", attempt))
	}

	return "", errors.New(errors.TypeSequenceExhausted, "quote number generation retries exhausted")
}

func findItem(quote *QuoteSheet, itemID string) (*QuoteItem, error) {
	for _, item := range quote.Items {
		if item.ItemID == itemID {
			return item, nil
		}
	}
	return nil, errors.NotFound("quote item", itemID)
}

func (s *QuoteService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, data)
}
