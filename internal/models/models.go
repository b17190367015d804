package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// POStatus represents the lifecycle state of a purchase order
type POStatus string

const (
	// POStatusOpen represents a purchase order that can still receive invoices
	POStatusOpen POStatus = "OPEN"
	// POStatusClosed represents a fully invoiced purchase order
	POStatusClosed POStatus = "CLOSED"
	// POStatusCancelled represents a cancelled purchase order
	POStatusCancelled POStatus = "CANCELLED"
)

// String returns the string representation of POStatus
func (s POStatus) String() string {
	return string(s)
}

// IsValid checks if the purchase order status is valid
func (s POStatus) IsValid() bool {
	return s == POStatusOpen || s == POStatusClosed || s == POStatusCancelled
}

// VendorStatus represents the standing of a vendor account
type VendorStatus string

const (
	// VendorStatusActive represents a vendor in good standing
	VendorStatusActive VendorStatus = "ACTIVE"
	// VendorStatusSuspended represents a vendor under temporary hold
	VendorStatusSuspended VendorStatus = "SUSPENDED"
	// VendorStatusBlocked represents a vendor barred from payment
	VendorStatusBlocked VendorStatus = "BLOCKED"
)

// String returns the string representation of VendorStatus
func (s VendorStatus) String() string {
	return string(s)
}

// IsValid checks if the vendor status is valid
func (s VendorStatus) IsValid() bool {
	return s == VendorStatusActive || s == VendorStatusSuspended || s == VendorStatusBlocked
}

// InvoiceLineItem represents one billed item on an invoice
type InvoiceLineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Validate performs basic validation on the InvoiceLineItem
func (li *InvoiceLineItem) Validate() error {
	if strings.TrimSpace(li.Description) == "" {
		return fmt.Errorf("line item description cannot be empty")
	}
	if li.Quantity.IsNegative() {
		return fmt.Errorf("line item quantity cannot be negative: %s", li.Quantity)
	}
	if li.Amount.IsNegative() {
		return fmt.Errorf("line item amount cannot be negative: %s", li.Amount)
	}
	return nil
}

// Invoice represents a vendor document submitted for reconciliation
type Invoice struct {
	InvoiceNumber string            `json:"invoice_number"`
	VendorName    string            `json:"vendor_name"`
	VendorID      string            `json:"vendor_id,omitempty"`
	InvoiceDate   time.Time         `json:"invoice_date"`
	DueDate       time.Time         `json:"due_date,omitempty"`
	Currency      string            `json:"currency"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	Total         decimal.Decimal   `json:"total"`
	LineItems     []InvoiceLineItem `json:"line_items,omitempty"`
}

// Validate performs basic validation on the Invoice
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return fmt.Errorf("invoice number cannot be empty")
	}
	if strings.TrimSpace(inv.VendorName) == "" {
		return fmt.Errorf("invoice vendor name cannot be empty")
	}
	if inv.InvoiceDate.IsZero() {
		return fmt.Errorf("invoice date cannot be zero")
	}
	if inv.Total.IsNegative() {
		return fmt.Errorf("invoice total cannot be negative: %s", inv.Total)
	}
	for i := range inv.LineItems {
		if err := inv.LineItems[i].Validate(); err != nil {
			return fmt.Errorf("line item %d: %w", i+1, err)
		}
	}
	return nil
}

// String returns a string representation of the Invoice
func (inv *Invoice) String() string {
	return fmt.Sprintf("Invoice{Number: %s, Vendor: %s, Total: %s %s, Date: %s}",
		inv.InvoiceNumber, inv.VendorName, inv.Total.String(), inv.Currency,
		inv.InvoiceDate.Format("2006-01-02"))
}

// NormalizedCurrency returns the invoice currency in canonical upper-case form
func (inv *Invoice) NormalizedCurrency() string {
	return strings.ToUpper(strings.TrimSpace(inv.Currency))
}

// POLineItem represents one ordered item on a purchase order
type POLineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	SKU         string          `json:"sku,omitempty"`
	Unit        string          `json:"unit,omitempty"`
}

// PurchaseOrder represents an authorization to buy that invoices reconcile against
type PurchaseOrder struct {
	PONumber     string          `json:"po_number"`
	VendorID     string          `json:"vendor_id"`
	VendorName   string          `json:"vendor_name"`
	CreatedDate  time.Time       `json:"created_date"`
	ExpectedDate time.Time       `json:"expected_date,omitempty"`
	Status       POStatus        `json:"status"`
	Currency     string          `json:"currency"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	PaymentTerms string          `json:"payment_terms,omitempty"`
	LineItems    []POLineItem    `json:"line_items,omitempty"`
}

// Validate performs basic validation on the PurchaseOrder
func (po *PurchaseOrder) Validate() error {
	if strings.TrimSpace(po.PONumber) == "" {
		return fmt.Errorf("PO number cannot be empty")
	}
	if strings.TrimSpace(po.VendorID) == "" {
		return fmt.Errorf("PO vendor id cannot be empty")
	}
	if po.CreatedDate.IsZero() {
		return fmt.Errorf("PO created date cannot be zero")
	}
	if !po.Status.IsValid() {
		return fmt.Errorf("invalid PO status: %s", po.Status)
	}
	if po.Total.IsNegative() {
		return fmt.Errorf("PO total cannot be negative: %s", po.Total)
	}
	return nil
}

// String returns a string representation of the PurchaseOrder
func (po *PurchaseOrder) String() string {
	return fmt.Sprintf("PurchaseOrder{Number: %s, Vendor: %s, Total: %s %s, Status: %s}",
		po.PONumber, po.VendorID, po.Total.String(), po.Currency, po.Status)
}

// NormalizedCurrency returns the PO currency in canonical upper-case form
func (po *PurchaseOrder) NormalizedCurrency() string {
	return strings.ToUpper(strings.TrimSpace(po.Currency))
}

// VendorRiskProfile is a snapshot of a vendor's historical payment behavior
type VendorRiskProfile struct {
	RiskScore         float64         `json:"risk_score"`
	OnTimePaymentRate float64         `json:"on_time_payment_rate"`
	InvoiceCount      int             `json:"invoice_count"`
	AvgInvoiceAmount  decimal.Decimal `json:"avg_invoice_amount"`
	MaxInvoiceAmount  decimal.Decimal `json:"max_invoice_amount"`
	FraudHistory      bool            `json:"fraud_history"`
	FraudFlagCount    int             `json:"fraud_flag_count"`
	LastPaymentDate   time.Time       `json:"last_payment_date,omitempty"`
}

// Validate performs basic validation on the VendorRiskProfile
func (p *VendorRiskProfile) Validate() error {
	if p.RiskScore < 0.0 || p.RiskScore > 1.0 {
		return fmt.Errorf("risk score must be between 0.0 and 1.0: %f", p.RiskScore)
	}
	if p.OnTimePaymentRate < 0.0 || p.OnTimePaymentRate > 1.0 {
		return fmt.Errorf("on-time payment rate must be between 0.0 and 1.0: %f", p.OnTimePaymentRate)
	}
	if p.InvoiceCount < 0 {
		return fmt.Errorf("invoice count cannot be negative: %d", p.InvoiceCount)
	}
	if p.FraudFlagCount < 0 {
		return fmt.Errorf("fraud flag count cannot be negative: %d", p.FraudFlagCount)
	}
	return nil
}

// Vendor represents a registered supplier
type Vendor struct {
	VendorID      string             `json:"vendor_id"`
	Name          string             `json:"name"`
	Status        VendorStatus       `json:"status"`
	OnboardedDate time.Time          `json:"onboarded_date"`
	RiskProfile   *VendorRiskProfile `json:"risk_profile,omitempty"`
}

// Validate performs basic validation on the Vendor
func (v *Vendor) Validate() error {
	if strings.TrimSpace(v.VendorID) == "" {
		return fmt.Errorf("vendor id cannot be empty")
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("vendor name cannot be empty")
	}
	if !v.Status.IsValid() {
		return fmt.Errorf("invalid vendor status: %s", v.Status)
	}
	if v.RiskProfile != nil {
		if err := v.RiskProfile.Validate(); err != nil {
			return fmt.Errorf("risk profile: %w", err)
		}
	}
	return nil
}

// String returns a string representation of the Vendor
func (v *Vendor) String() string {
	return fmt.Sprintf("Vendor{ID: %s, Name: %s, Status: %s}", v.VendorID, v.Name, v.Status)
}

// InvoiceRecord is the minimal historical invoice snapshot used for duplicate
// and anomaly detection
type InvoiceRecord struct {
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// Validate performs basic validation on the InvoiceRecord
func (r *InvoiceRecord) Validate() error {
	if strings.TrimSpace(r.InvoiceNumber) == "" {
		return fmt.Errorf("historical invoice number cannot be empty")
	}
	if r.InvoiceDate.IsZero() {
		return fmt.Errorf("historical invoice date cannot be zero")
	}
	return nil
}

// MarshalJSON implements custom JSON marshaling for InvoiceRecord
func (r *InvoiceRecord) MarshalJSON() ([]byte, error) {
	type Alias InvoiceRecord
	return json.Marshal(&struct {
		TotalAmount string `json:"total_amount"`
		InvoiceDate string `json:"invoice_date"`
		*Alias
	}{
		TotalAmount: r.TotalAmount.String(),
		InvoiceDate: r.InvoiceDate.Format("2006-01-02"),
		Alias:       (*Alias)(r),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for InvoiceRecord
func (r *InvoiceRecord) UnmarshalJSON(data []byte) error {
	type Alias InvoiceRecord
	aux := &struct {
		TotalAmount string `json:"total_amount"`
		InvoiceDate string `json:"invoice_date"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	r.TotalAmount, err = ParseDecimalFromString(aux.TotalAmount)
	if err != nil {
		return fmt.Errorf("invalid total amount format: %w", err)
	}

	r.InvoiceDate, err = ParseTimeWithFormats(aux.InvoiceDate)
	if err != nil {
		return fmt.Errorf("invalid invoice date format: %w", err)
	}

	return nil
}

// Utility functions for type conversion and validation

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseTimeWithFormats attempts to parse time from string using multiple common formats
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	// Common date formats seen on invoices and export files
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"01/02/2006 15:04:05",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// NormalizeInvoiceNumber canonicalizes an invoice number for comparison.
// Case and separator characters are not significant across resubmissions
// of the same document.
func NormalizeInvoiceNumber(number string) string {
	normalized := strings.ToUpper(strings.TrimSpace(number))

	var b strings.Builder
	for _, r := range normalized {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}

	return b.String()
}

// CompareAmountsWithTolerance compares two decimal amounts with a tolerance
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// RelativeDifference returns |a-b| / |b| as a float, guarding a zero reference.
// A zero reference with a nonzero candidate is treated as a full mismatch.
func RelativeDifference(a, b decimal.Decimal) float64 {
	if b.IsZero() {
		if a.IsZero() {
			return 0.0
		}
		return 1.0
	}
	return a.Sub(b).Abs().Div(b.Abs()).InexactFloat64()
}

// DaysBetween returns the signed number of days from b to a, date-granular
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	at := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bt := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(at.Sub(bt).Hours() / 24)
}
