// Package memory provides the in-memory quote repository. Each call is one
// atomic unit of work under a single lock: the quote header, its items and
// the version snapshot commit together or not at all.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PCcoding666/LLM-QUOTATION/internal/domain"
	"github.com/PCcoding666/LLM-QUOTATION/internal/errors"
)

const defaultPageSize = 20

// Store is an in-memory implementation of domain.QuoteRepository.
type Store struct {
	mu       sync.RWMutex
	quotes   map[string]*domain.QuoteSheet
	versions map[string][]*domain.QuoteVersion
}

// NewStore creates an empty in-memory quote store.
func NewStore() *Store {
	return &Store{
		quotes:   make(map[string]*domain.QuoteSheet),
		versions: make(map[string][]*domain.QuoteVersion),
	}
}

var _ domain.QuoteRepository = (*Store)(nil)

// Create persists a new quote together with its initial version snapshot.
func (s *Store) Create(_ context.Context, quote *domain.QuoteSheet, version *domain.QuoteVersion) error {
	if version == nil {
		return errors.New(errors.TypeInternal, "a new quote requires an initial version snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.quotes[quote.QuoteID]; exists {
		return errors.Newf(errors.TypeConflict, "quote already exists: %s", quote.QuoteID)
	}

	quote.Revision = 1
	stored := copyQuote(quote)
	s.quotes[quote.QuoteID] = stored

	v := copyVersion(version)
	v.VersionNumber = 1
	s.versions[quote.QuoteID] = []*domain.QuoteVersion{v}
	version.VersionNumber = v.VersionNumber

	return nil
}

// Get loads a quote with its items sorted by sort order.
func (s *Store) Get(_ context.Context, quoteID string) (*domain.QuoteSheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.quotes[quoteID]
	if !exists {
		return nil, errors.NotFound("quote", quoteID)
	}

	quote := copyQuote(stored)
	sort.Slice(quote.Items, func(i, j int) bool {
		return quote.Items[i].SortOrder < quote.Items[j].SortOrder
	})
	return quote, nil
}

// Save persists a mutated quote, enforcing the revision precondition so that
// concurrent edits cannot silently lose updates. When version is non-nil it
// is numbered and appended within the same critical section.
func (s *Store) Save(_ context.Context, quote *domain.QuoteSheet, version *domain.QuoteVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.quotes[quote.QuoteID]
	if !exists {
		return errors.NotFound("quote", quote.QuoteID)
	}
	if stored.Revision != quote.Revision {
		return errors.Newf(errors.TypeConflict,
			"quote %s was modified concurrently (revision %d, expected %d)",
			quote.QuoteID, stored.Revision, quote.Revision)
	}

	quote.Revision++
	quote.UpdatedAt = time.Now().UTC()
	s.quotes[quote.QuoteID] = copyQuote(quote)

	if version != nil {
		v := copyVersion(version)
		v.VersionNumber = s.maxVersionLocked(quote.QuoteID) + 1
		s.versions[quote.QuoteID] = append(s.versions[quote.QuoteID], v)
		version.VersionNumber = v.VersionNumber
	}

	return nil
}

// List returns a page of non-deleted quotes, newest first.
func (s *Store) List(_ context.Context, filter domain.QuoteFilter) (domain.QuotePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.QuoteSheet, 0, len(s.quotes))
	for _, quote := range s.quotes {
		if quote.Status == domain.StatusDeleted {
			continue
		}
		if filter.Status != "" && quote.Status != filter.Status {
			continue
		}
		if filter.CreatedBy != "" && quote.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.CustomerName != "" &&
			!strings.Contains(strings.ToLower(quote.CustomerName), strings.ToLower(filter.CustomerName)) {
			continue
		}
		matched = append(matched, quote)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	quotes := make([]*domain.QuoteSheet, 0, end-start)
	for _, quote := range matched[start:end] {
		quotes = append(quotes, copyQuote(quote))
	}

	return domain.QuotePage{
		Total:    len(matched),
		Page:     page,
		PageSize: pageSize,
		Quotes:   quotes,
	}, nil
}

// ExistsQuoteNo reports whether a quote number is already taken.
func (s *Store) ExistsQuoteNo(_ context.Context, quoteNo string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, quote := range s.quotes {
		if quote.QuoteNo == quoteNo {
			return true, nil
		}
	}
	return false, nil
}

// MaxVersionNumber returns the latest version number for a quote, 0 if none.
func (s *Store) MaxVersionNumber(_ context.Context, quoteID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.maxVersionLocked(quoteID), nil
}

// ListVersions returns all snapshots for a quote ordered by version number
// descending. Returned copies keep the stored ledger immutable.
func (s *Store) ListVersions(_ context.Context, quoteID string) ([]*domain.QuoteVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.versions[quoteID]
	versions := make([]*domain.QuoteVersion, 0, len(stored))
	for _, v := range stored {
		versions = append(versions, copyVersion(v))
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber > versions[j].VersionNumber
	})
	return versions, nil
}

func (s *Store) maxVersionLocked(quoteID string) int {
	maxVersion := 0
	for _, v := range s.versions[quoteID] {
		if v.VersionNumber > maxVersion {
			maxVersion = v.VersionNumber
		}
	}
	return maxVersion
}

// copyQuote deep-copies a quote so callers can never alias stored state.
func copyQuote(quote *domain.QuoteSheet) *domain.QuoteSheet {
	copied := *quote
	copied.Items = make([]*domain.QuoteItem, 0, len(quote.Items))
	for _, item := range quote.Items {
		itemCopy := *item
		if item.Breakdown != nil {
			itemCopy.Breakdown = append(itemCopy.Breakdown[:0:0], item.Breakdown...)
		}
		copied.Items = append(copied.Items, &itemCopy)
	}
	return &copied
}

func copyVersion(version *domain.QuoteVersion) *domain.QuoteVersion {
	copied := *version
	copied.Snapshot = append(copied.Snapshot[:0:0], version.Snapshot...)
	return &copied
}
