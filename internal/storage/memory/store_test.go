package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/PCcoding666/LLM-QUOTATION/internal/domain"
	"github.com/PCcoding666/LLM-QUOTATION/internal/errors"
	"github.com/PCcoding666/LLM-QUOTATION/internal/storage/memory"
)

func newQuote(id string) *domain.QuoteSheet {
	return &domain.QuoteSheet{
		QuoteID:             id,
		QuoteNo:             "QT20260115" + id[len(id)-4:],
		CustomerName:        "Acme Corp",
		CreatedBy:           "alice",
		Status:              domain.StatusDraft,
		GlobalDiscountRate:  decimal.NewFromInt(1),
		TotalOriginalAmount: decimal.Zero,
		TotalAmount:         decimal.Zero,
		Currency:            "USD",
		CreatedAt:           time.Now().UTC(),
		UpdatedAt:           time.Now().UTC(),
	}
}

func newVersion(quoteID string, changeType domain.ChangeType) *domain.QuoteVersion {
	return &domain.QuoteVersion{
		VersionID:  "v-" + quoteID + "-" + string(changeType),
		QuoteID:    quoteID,
		ChangeType: changeType,
		Snapshot:   []byte(`{"schema_version":1}`),
		CreatedAt:  time.Now().UTC(),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	quote := newQuote("q-0001")
	quote.Items = []*domain.QuoteItem{
		{ItemID: "i-2", SortOrder: 2},
		{ItemID: "i-1", SortOrder: 1},
	}
	version := newVersion(quote.QuoteID, domain.ChangeCreate)

	require.NoError(t, store.Create(ctx, quote, version))
	require.Equal(t, int64(1), quote.Revision)
	require.Equal(t, 1, version.VersionNumber)

	loaded, err := store.Get(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Equal(t, quote.QuoteID, loaded.QuoteID)

	// Items come back sorted by sort order.
	require.Equal(t, "i-1", loaded.Items[0].ItemID)
	require.Equal(t, "i-2", loaded.Items[1].ItemID)
}

func TestStore_Create_Rejects(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	quote := newQuote("q-0001")
	err := store.Create(ctx, quote, nil)
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.TypeInternal))

	require.NoError(t, store.Create(ctx, quote, newVersion(quote.QuoteID, domain.ChangeCreate)))
	err = store.Create(ctx, newQuote("q-0001"), newVersion("q-0001", domain.ChangeCreate))
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.TypeConflict))
}

func TestStore_Get_NotFound(t *testing.T) {
	store := memory.NewStore()

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestStore_Save_RevisionConflict(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	quote := newQuote("q-0001")
	require.NoError(t, store.Create(ctx, quote, newVersion(quote.QuoteID, domain.ChangeCreate)))

	first, err := store.Get(ctx, quote.QuoteID)
	require.NoError(t, err)
	second, err := store.Get(ctx, quote.QuoteID)
	require.NoError(t, err)

	first.CustomerName = "Globex"
	require.NoError(t, store.Save(ctx, first, newVersion(quote.QuoteID, domain.ChangeUpdate)))
	require.Equal(t, int64(2), first.Revision)

	// The second loader still holds revision 1 and must be rejected.
	second.CustomerName = "Initech"
	err = store.Save(ctx, second, newVersion(quote.QuoteID, domain.ChangeUpdate))
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.TypeConflict))

	loaded, err := store.Get(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Equal(t, "Globex", loaded.CustomerName)
}

func TestStore_Save_VersionNumbering(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	quote := newQuote("q-0001")
	require.NoError(t, store.Create(ctx, quote, newVersion(quote.QuoteID, domain.ChangeCreate)))

	for i := 0; i < 3; i++ {
		loaded, err := store.Get(ctx, quote.QuoteID)
		require.NoError(t, err)
		version := newVersion(quote.QuoteID, domain.ChangeUpdate)
		version.VersionID = fmt.Sprintf("v-%d", i)
		require.NoError(t, store.Save(ctx, loaded, version))
		require.Equal(t, i+2, version.VersionNumber)
	}

	maxVersion, err := store.MaxVersionNumber(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Equal(t, 4, maxVersion)

	versions, err := store.ListVersions(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Len(t, versions, 4)
	for i, version := range versions {
		require.Equal(t, 4-i, version.VersionNumber)
	}
}

func TestStore_Save_NilVersionWritesNoLedgerEntry(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	quote := newQuote("q-0001")
	require.NoError(t, store.Create(ctx, quote, newVersion(quote.QuoteID, domain.ChangeCreate)))

	loaded, err := store.Get(ctx, quote.QuoteID)
	require.NoError(t, err)
	loaded.Status = domain.StatusDeleted
	require.NoError(t, store.Save(ctx, loaded, nil))

	maxVersion, err := store.MaxVersionNumber(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Equal(t, 1, maxVersion)
}

func TestStore_DeepCopyIsolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	quote := newQuote("q-0001")
	quote.Items = []*domain.QuoteItem{{ItemID: "i-1", SortOrder: 1, FinalPrice: decimal.NewFromInt(100)}}
	require.NoError(t, store.Create(ctx, quote, newVersion(quote.QuoteID, domain.ChangeCreate)))

	loaded, err := store.Get(ctx, quote.QuoteID)
	require.NoError(t, err)
	loaded.CustomerName = "Mutated"
	loaded.Items[0].FinalPrice = decimal.Zero

	fresh, err := store.Get(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", fresh.CustomerName)
	require.True(t, fresh.Items[0].FinalPrice.Equal(decimal.NewFromInt(100)))
}

func TestStore_List(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		quote := newQuote(fmt.Sprintf("q-%04d", i))
		quote.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if i == 5 {
			quote.Status = domain.StatusDeleted
		}
		require.NoError(t, store.Create(ctx, quote, newVersion(quote.QuoteID, domain.ChangeCreate)))
	}

	page, err := store.List(ctx, domain.QuoteFilter{})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
	require.Len(t, page.Quotes, 4)

	// Newest first.
	require.Equal(t, "q-0004", page.Quotes[0].QuoteID)

	page, err = store.List(ctx, domain.QuoteFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
	require.Len(t, page.Quotes, 1)
	require.Equal(t, "q-0001", page.Quotes[0].QuoteID)

	page, err = store.List(ctx, domain.QuoteFilter{Page: 9, PageSize: 3})
	require.NoError(t, err)
	require.Empty(t, page.Quotes)
}

func TestStore_ExistsQuoteNo(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	quote := newQuote("q-0001")
	require.NoError(t, store.Create(ctx, quote, newVersion(quote.QuoteID, domain.ChangeCreate)))

	exists, err := store.ExistsQuoteNo(ctx, quote.QuoteNo)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.ExistsQuoteNo(ctx, "QT999912319999")
	require.NoError(t, err)
	require.False(t, exists)
}
