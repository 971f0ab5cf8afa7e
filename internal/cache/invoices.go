// Package cache keeps short-lived copies of outstanding invoices so a
// statement with many deposits does not re-query the store per line.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/shiwake/reconciler/internal/domain"
)

// Source loads outstanding invoices from the backing store.
type Source interface {
	FindOutstandingInvoices(ctx context.Context, companyID string) ([]domain.InvoiceRef, error)
}

// InvoiceCache is a TTL-bounded LRU of outstanding invoices keyed by company.
// Lookup errors are never cached.
type InvoiceCache struct {
	source Source
	lru    *expirable.LRU[string, []domain.InvoiceRef]
}

// NewInvoiceCache wraps source with a cache of at most size companies whose
// entries expire after ttl.
func NewInvoiceCache(source Source, size int, ttl time.Duration) *InvoiceCache {
	return &InvoiceCache{
		source: source,
		lru:    expirable.NewLRU[string, []domain.InvoiceRef](size, nil, ttl),
	}
}

func (c *InvoiceCache) FindOutstandingInvoices(ctx context.Context, companyID string) ([]domain.InvoiceRef, error) {
	if cached, ok := c.lru.Get(companyID); ok {
		return clone(cached), nil
	}
	invoices, err := c.source.FindOutstandingInvoices(ctx, companyID)
	if err != nil {
		return nil, err
	}
	c.lru.Add(companyID, clone(invoices))
	return invoices, nil
}

// Invalidate drops the company's entry after its invoices changed.
func (c *InvoiceCache) Invalidate(companyID string) {
	c.lru.Remove(companyID)
}

// Len reports the number of cached companies.
func (c *InvoiceCache) Len() int {
	return c.lru.Len()
}

func clone(in []domain.InvoiceRef) []domain.InvoiceRef {
	if in == nil {
		return nil
	}
	out := make([]domain.InvoiceRef, len(in))
	copy(out, in)
	return out
}
