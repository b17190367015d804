package engine

import (
	"context"

	"ap-reconciliation-service/internal/models"
)

// InMemoryStore backs the lookup contracts with caller-supplied slices. It
// serves the CLI, which loads everything from files up front, and keeps
// tests free of external infrastructure. A production deployment would
// substitute database-backed implementations behind the same interfaces.
type InMemoryStore struct {
	purchaseOrders []*models.PurchaseOrder
	vendors        map[string]*models.Vendor
	history        map[string][]models.InvoiceRecord
}

// NewInMemoryStore creates an empty in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		vendors: make(map[string]*models.Vendor),
		history: make(map[string][]models.InvoiceRecord),
	}
}

// AddPurchaseOrders registers purchase orders for candidate lookup
func (s *InMemoryStore) AddPurchaseOrders(pos ...*models.PurchaseOrder) {
	s.purchaseOrders = append(s.purchaseOrders, pos...)
}

// AddVendor registers a vendor for lookup by id
func (s *InMemoryStore) AddVendor(vendor *models.Vendor) {
	if vendor != nil {
		s.vendors[vendor.VendorID] = vendor
	}
}

// AddInvoiceHistory registers historical invoice records for a vendor
func (s *InMemoryStore) AddInvoiceHistory(vendorID string, records ...models.InvoiceRecord) {
	s.history[vendorID] = append(s.history[vendorID], records...)
}

// Lookups returns the store wired into a Lookups bundle
func (s *InMemoryStore) Lookups() Lookups {
	return Lookups{
		PurchaseOrders: s,
		Vendors:        s,
		History:        s,
	}
}

// FindPurchaseOrders implements PurchaseOrderLookup
func (s *InMemoryStore) FindPurchaseOrders(ctx context.Context, vendorID string, amounts AmountRange, status models.POStatus) ([]*models.PurchaseOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matches []*models.PurchaseOrder
	for _, po := range s.purchaseOrders {
		if vendorID != "" && po.VendorID != vendorID {
			continue
		}
		if status != "" && po.Status != status {
			continue
		}
		if !amounts.Min.IsZero() && po.Total.LessThan(amounts.Min) {
			continue
		}
		if !amounts.Max.IsZero() && po.Total.GreaterThan(amounts.Max) {
			continue
		}
		matches = append(matches, po)
	}

	return matches, nil
}

// FindVendor implements VendorLookup. A missing vendor returns (nil, nil).
func (s *InMemoryStore) FindVendor(ctx context.Context, vendorID string) (*models.Vendor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.vendors[vendorID], nil
}

// FindInvoiceHistory implements InvoiceHistoryLookup
func (s *InMemoryStore) FindInvoiceHistory(ctx context.Context, vendorID string) ([]models.InvoiceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.history[vendorID], nil
}
