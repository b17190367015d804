package matcher

import (
	"math"
	"testing"

	"ap-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

func invoiceItem(desc string, qty, price, amount float64) models.InvoiceLineItem {
	return models.InvoiceLineItem{
		Description: desc,
		Quantity:    decimal.NewFromFloat(qty),
		UnitPrice:   decimal.NewFromFloat(price),
		Amount:      decimal.NewFromFloat(amount),
	}
}

func poItem(desc string, qty, price, amount float64) models.POLineItem {
	return models.POLineItem{
		Description: desc,
		Quantity:    decimal.NewFromFloat(qty),
		UnitPrice:   decimal.NewFromFloat(price),
		Amount:      decimal.NewFromFloat(amount),
	}
}

func TestMatchLineItemsIdentical(t *testing.T) {
	scorer := NewMatchScorer(nil)

	invoiceItems := []models.InvoiceLineItem{
		invoiceItem("Ergonomic office chair", 4, 250, 1000),
		invoiceItem("Standing desk", 2, 600, 1200),
	}
	poItems := []models.POLineItem{
		poItem("Ergonomic office chair", 4, 250, 1000),
		poItem("Standing desk", 2, 600, 1200),
	}

	result := scorer.MatchLineItems(invoiceItems, poItems)

	if len(result.Pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(result.Pairs))
	}
	if result.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", result.Score)
	}
	for _, pair := range result.Pairs {
		if pair.Score != 1.0 {
			t.Errorf("Pair score = %v, want 1.0", pair.Score)
		}
		if !pair.AmountDelta.IsZero() {
			t.Errorf("AmountDelta = %s, want 0", pair.AmountDelta)
		}
	}
	if len(result.UnmatchedInvoiceItems) != 0 || len(result.UnmatchedPOItems) != 0 {
		t.Error("Expected no unmatched items")
	}
}

func TestMatchLineItemsQuantityDrift(t *testing.T) {
	scorer := NewMatchScorer(nil)

	// Same item billed with more units than ordered: still the same item,
	// but the numeric drift shows in the pair score
	invoiceItems := []models.InvoiceLineItem{
		invoiceItem("Ergonomic office chair", 12, 250, 3000),
	}
	poItems := []models.POLineItem{
		poItem("Ergonomic office chair", 10, 250, 2500),
	}

	result := scorer.MatchLineItems(invoiceItems, poItems)

	if len(result.Pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(result.Pairs))
	}
	score := result.Pairs[0].Score
	if score <= 0.70 || score >= 0.95 {
		t.Errorf("Pair score = %v, want in (0.70, 0.95)", score)
	}
	if result.Pairs[0].AmountDelta.IsZero() {
		t.Error("Expected a nonzero amount delta")
	}
}

func TestMatchLineItemsCoincidentalAmount(t *testing.T) {
	scorer := NewMatchScorer(nil)

	// Different items whose totals happen to coincide must not pair up
	invoiceItems := []models.InvoiceLineItem{
		invoiceItem("Laptop docking station", 1, 1000, 1000),
	}
	poItems := []models.POLineItem{
		poItem("Ergonomic office chair", 4, 250, 1000),
	}

	result := scorer.MatchLineItems(invoiceItems, poItems)

	if len(result.Pairs) != 0 {
		t.Fatalf("Expected no pairs, got %d with score %v", len(result.Pairs), result.Pairs[0].Score)
	}
	if len(result.UnmatchedInvoiceItems) != 1 || len(result.UnmatchedPOItems) != 1 {
		t.Error("Expected each side's item to stay unmatched")
	}
	if result.Score != 0.0 {
		t.Errorf("Score = %v, want 0.0", result.Score)
	}
}

func TestMatchLineItemsUnequalCounts(t *testing.T) {
	scorer := NewMatchScorer(nil)

	// Extra billed item dilutes the aggregate: one perfect pair over two
	// invoice items
	invoiceItems := []models.InvoiceLineItem{
		invoiceItem("Ergonomic office chair", 4, 250, 1000),
		invoiceItem("Expedited freight surcharge", 1, 150, 150),
	}
	poItems := []models.POLineItem{
		poItem("Ergonomic office chair", 4, 250, 1000),
	}

	result := scorer.MatchLineItems(invoiceItems, poItems)

	if len(result.Pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(result.Pairs))
	}
	if math.Abs(result.Score-0.5) > 1e-9 {
		t.Errorf("Score = %v, want 0.5", result.Score)
	}
	if len(result.UnmatchedInvoiceItems) != 1 || result.UnmatchedInvoiceItems[0] != 1 {
		t.Errorf("UnmatchedInvoiceItems = %v, want [1]", result.UnmatchedInvoiceItems)
	}
}

func TestMatchLineItemsEmptySides(t *testing.T) {
	scorer := NewMatchScorer(nil)

	result := scorer.MatchLineItems(nil, nil)
	if result.Score != 0.0 || len(result.Pairs) != 0 {
		t.Error("Empty inputs should yield an empty zero-score result")
	}

	result = scorer.MatchLineItems([]models.InvoiceLineItem{
		invoiceItem("Ergonomic office chair", 4, 250, 1000),
	}, nil)
	if len(result.UnmatchedInvoiceItems) != 1 {
		t.Error("Invoice items should stay unmatched against an empty PO side")
	}
}

func TestMatchLineItemsGreedyAssignmentIsStable(t *testing.T) {
	scorer := NewMatchScorer(nil)

	// Two identical invoice lines competing for two identical PO lines must
	// resolve by original order, every time
	invoiceItems := []models.InvoiceLineItem{
		invoiceItem("Copy paper A4", 10, 5, 50),
		invoiceItem("Copy paper A4", 10, 5, 50),
	}
	poItems := []models.POLineItem{
		poItem("Copy paper A4", 10, 5, 50),
		poItem("Copy paper A4", 10, 5, 50),
	}

	first := scorer.MatchLineItems(invoiceItems, poItems)
	for i := 0; i < 5; i++ {
		again := scorer.MatchLineItems(invoiceItems, poItems)
		if len(again.Pairs) != len(first.Pairs) {
			t.Fatal("Pair count varies across runs")
		}
		for j := range again.Pairs {
			if again.Pairs[j].InvoiceIndex != first.Pairs[j].InvoiceIndex ||
				again.Pairs[j].POIndex != first.Pairs[j].POIndex {
				t.Errorf("Assignment varies across runs: %+v vs %+v", again.Pairs[j], first.Pairs[j])
			}
		}
	}

	if first.Pairs[0].InvoiceIndex != 0 || first.Pairs[0].POIndex != 0 {
		t.Errorf("Tie-break should keep original order, got %+v", first.Pairs[0])
	}
}

func TestNumericAgreement(t *testing.T) {
	tests := []struct {
		name     string
		a, b     float64
		expected float64
	}{
		{"equal", 100, 100, 1.0},
		{"ten percent off", 110, 100, 0.8},
		{"quarter off", 125, 100, 0.5},
		{"half off", 150, 100, 0.0},
		{"way off", 300, 100, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := numericAgreement(decimal.NewFromFloat(tt.a), decimal.NewFromFloat(tt.b))
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("numericAgreement(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}
