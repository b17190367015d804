// Package engine provides the high-level facade over the matching and risk
// components, plus the collaborator contracts the facade assembles its
// inputs through.
//
// The engine itself is purely functional: it performs no I/O and holds no
// mutable state between calls, so one engine instance can evaluate many
// invoices concurrently. All candidate purchase orders, vendor profiles,
// and invoice history must be materialized by the lookups before scoring
// begins; cancellation applies to that assembly phase, never to the
// scoring itself.
//
// Example usage:
//
//	eng := engine.New(nil)
//	result, err := eng.EvaluateInvoice(ctx, invoice, engine.Lookups{
//		PurchaseOrders: poStore,
//		Vendors:        vendorStore,
//		History:        historyStore,
//	})
package engine

import (
	"context"
	"time"

	"ap-reconciliation-service/internal/decision"
	"ap-reconciliation-service/internal/matcher"
	"ap-reconciliation-service/internal/models"
	"ap-reconciliation-service/internal/risk"
	"ap-reconciliation-service/pkg/errors"
	"ap-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountRange bounds a purchase-order candidate query
type AmountRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// PurchaseOrderLookup returns candidate purchase orders for a vendor
type PurchaseOrderLookup interface {
	FindPurchaseOrders(ctx context.Context, vendorID string, amounts AmountRange, status models.POStatus) ([]*models.PurchaseOrder, error)
}

// VendorLookup resolves a vendor id to its identity and risk profile.
// A missing vendor returns (nil, nil): unknown vendors are a scoring
// condition, not an error.
type VendorLookup interface {
	FindVendor(ctx context.Context, vendorID string) (*models.Vendor, error)
}

// InvoiceHistoryLookup returns previously recorded invoices for a vendor
type InvoiceHistoryLookup interface {
	FindInvoiceHistory(ctx context.Context, vendorID string) ([]models.InvoiceRecord, error)
}

// Lookups bundles the collaborator contracts used to assemble inputs
type Lookups struct {
	PurchaseOrders PurchaseOrderLookup
	Vendors        VendorLookup
	History        InvoiceHistoryLookup
}

// Config bundles the per-component configurations
type Config struct {
	Matching *matcher.MatchingConfig `json:"matching"`
	Risk     *risk.RiskConfig        `json:"risk"`
	Decision *decision.Config        `json:"decision"`
}

// DefaultConfig returns an engine configuration with all component defaults
func DefaultConfig() *Config {
	return &Config{
		Matching: matcher.DefaultMatchingConfig(),
		Risk:     risk.DefaultRiskConfig(),
		Decision: decision.DefaultConfig(),
	}
}

// Validate checks all component configurations
func (c *Config) Validate() error {
	if err := c.Matching.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "matching", c.Matching.String(), err)
	}
	if err := c.Risk.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "risk", nil, err)
	}
	if err := c.Decision.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "decision", nil, err)
	}
	return nil
}

// EvaluationResult is the complete outcome of evaluating one invoice
type EvaluationResult struct {
	EvaluationID string               `json:"evaluation_id"`
	EvaluatedAt  time.Time            `json:"evaluated_at"`
	Invoice      *models.Invoice      `json:"-"`
	Match        *matcher.MatchResult `json:"match,omitempty"`
	Risk         *risk.RiskAssessment `json:"risk,omitempty"`
	Decision     *decision.Decision   `json:"decision,omitempty"`
	Duplicate    *risk.DuplicateInfo  `json:"duplicate,omitempty"`
	VendorRisk   *risk.VendorRiskInfo `json:"vendor_risk,omitempty"`
	Anomaly      *risk.AnomalyInfo    `json:"anomaly,omitempty"`
	Error        string               `json:"error,omitempty"`
	Succeeded    bool                 `json:"succeeded"`
}

// ReconciliationEngine is the facade over all matching and risk components
type ReconciliationEngine struct {
	config     *Config
	scorer     *matcher.MatchScorer
	detector   *matcher.DiscrepancyDetector
	duplicates *risk.DuplicateDetector
	vendors    *risk.VendorRiskAnalyzer
	anomalies  *risk.PriceAnomalyDetector
	aggregator *risk.RiskAggregator
	decider    *decision.Engine
	log        logger.Logger
}

// New creates a reconciliation engine with the specified configuration
func New(config *Config) *ReconciliationEngine {
	if config == nil {
		config = DefaultConfig()
	}

	return &ReconciliationEngine{
		config:     config,
		scorer:     matcher.NewMatchScorer(config.Matching),
		detector:   matcher.NewDiscrepancyDetector(config.Matching),
		duplicates: risk.NewDuplicateDetector(config.Risk),
		vendors:    risk.NewVendorRiskAnalyzer(config.Risk),
		anomalies:  risk.NewPriceAnomalyDetector(config.Risk),
		aggregator: risk.NewRiskAggregator(config.Risk),
		decider:    decision.NewEngine(config.Decision),
		log:        logger.WithComponent("engine"),
	}
}

// ScoreMatch scores one invoice against one purchase order
func (e *ReconciliationEngine) ScoreMatch(invoice *models.Invoice, po *models.PurchaseOrder) (*matcher.MatchResult, error) {
	result, err := e.scorer.ScoreMatch(invoice, po)
	if err != nil {
		return nil, errors.MatchingError(errors.CodeScoringFailed, "match scoring", err)
	}
	return result, nil
}

// DetectDiscrepancies enumerates the discrepancies between an invoice and a
// purchase order
func (e *ReconciliationEngine) DetectDiscrepancies(invoice *models.Invoice, po *models.PurchaseOrder) ([]matcher.Discrepancy, error) {
	discrepancies, err := e.detector.Detect(invoice, po)
	if err != nil {
		return nil, errors.MatchingError(errors.CodeScoringFailed, "discrepancy detection", err)
	}
	return discrepancies, nil
}

// DetectDuplicates checks the invoice against the vendor's recorded history
func (e *ReconciliationEngine) DetectDuplicates(invoice *models.Invoice, history []models.InvoiceRecord) (bool, *risk.DuplicateInfo, error) {
	found, info, err := e.duplicates.Detect(invoice, history)
	if err != nil {
		return false, nil, errors.RiskError(errors.CodeDetectionFailed, "duplicate detection", err)
	}
	return found, info, nil
}

// AnalyzeVendorRisk scores the vendor's risk as of the given reference time
func (e *ReconciliationEngine) AnalyzeVendorRisk(vendor *models.Vendor, asOf time.Time) (float64, *risk.VendorRiskInfo) {
	return e.vendors.Analyze(vendor, asOf)
}

// DetectPriceAnomalies compares the invoice amount against the vendor's
// historical distribution
func (e *ReconciliationEngine) DetectPriceAnomalies(invoice *models.Invoice, history []models.InvoiceRecord) (float64, *risk.AnomalyInfo, error) {
	score, info, err := e.anomalies.Detect(invoice, history)
	if err != nil {
		return 0, nil, errors.RiskError(errors.CodeDetectionFailed, "price anomaly detection", err)
	}
	return score, info, nil
}

// AssessRisk fuses the detector outputs into one assessment
func (e *ReconciliationEngine) AssessRisk(invoice *models.Invoice, vendorRisk *risk.VendorRiskInfo, duplicateInfo *risk.DuplicateInfo, anomalyInfo *risk.AnomalyInfo) (*risk.RiskAssessment, error) {
	assessment, err := e.aggregator.Assess(invoice, vendorRisk, duplicateInfo, anomalyInfo)
	if err != nil {
		return nil, errors.RiskError(errors.CodeAssessmentFailed, "risk assessment", err)
	}
	return assessment, nil
}

// Decide maps a match result and a risk assessment onto the final decision
func (e *ReconciliationEngine) Decide(matchResult *matcher.MatchResult, assessment *risk.RiskAssessment) (*decision.Decision, error) {
	d, err := e.decider.Decide(matchResult, assessment)
	if err != nil {
		return nil, errors.DecisionError(errors.CodeDecisionFailed, "decision", err)
	}
	return d, nil
}

// EvaluateInvoice runs the complete pipeline for one invoice: candidate PO
// selection, match scoring, duplicate/vendor/anomaly detection, risk
// fusion, and the final decision. Contract violations surface as a failed
// result with an explicit error message rather than a panic; every engine
// call returns a structured success-or-failure outcome.
func (e *ReconciliationEngine) EvaluateInvoice(ctx context.Context, invoice *models.Invoice, lookups Lookups) (*EvaluationResult, error) {
	result := &EvaluationResult{
		EvaluationID: uuid.NewString(),
		EvaluatedAt:  time.Now().UTC(),
		Invoice:      invoice,
	}

	if invoice == nil {
		result.Error = "invoice must not be nil"
		return result, errors.ValidationError(errors.CodeMissingField, "invoice", nil, nil)
	}

	log := e.log.WithField("invoice", invoice.InvoiceNumber)
	log.WithField("vendor", invoice.VendorName).Info("evaluating invoice")

	po, err := e.selectCandidatePO(ctx, invoice, lookups.PurchaseOrders)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	if po != nil {
		match, err := e.ScoreMatch(invoice, po)
		if err != nil {
			result.Error = err.Error()
			return result, err
		}
		result.Match = match
		log.WithFields(logger.Fields{
			"po":    po.PONumber,
			"score": match.OverallScore,
			"type":  match.MatchType.String(),
		}).Info("invoice scored against purchase order")
	} else {
		log.Warn("no candidate purchase order found")
		result.Match = e.unmatchedResult(invoice)
	}

	vendor, history, err := e.assembleVendorContext(ctx, invoice, lookups)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	_, dupInfo, err := e.DetectDuplicates(invoice, history)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Duplicate = dupInfo

	_, vendorInfo := e.AnalyzeVendorRisk(vendor, invoice.InvoiceDate)
	result.VendorRisk = vendorInfo

	_, anomalyInfo, err := e.DetectPriceAnomalies(invoice, history)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Anomaly = anomalyInfo

	assessment, err := e.AssessRisk(invoice, vendorInfo, dupInfo, anomalyInfo)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Risk = assessment

	d, err := e.Decide(result.Match, assessment)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Decision = d
	result.Succeeded = true

	log.WithFields(logger.Fields{
		"outcome":    d.Outcome.String(),
		"risk_score": assessment.RiskScore,
		"risk_level": assessment.RiskLevel.String(),
	}).Info("invoice evaluated")

	return result, nil
}

// selectCandidatePO queries open purchase orders around the invoice amount
// and keeps the best-scoring one
func (e *ReconciliationEngine) selectCandidatePO(ctx context.Context, invoice *models.Invoice, lookup PurchaseOrderLookup) (*models.PurchaseOrder, error) {
	if lookup == nil {
		return nil, nil
	}

	// Candidates within double the invoice total in either direction;
	// anything further off cannot plausibly score
	amounts := AmountRange{
		Min: invoice.Total.Div(decimal.NewFromInt(2)),
		Max: invoice.Total.Mul(decimal.NewFromInt(2)),
	}

	candidates, err := lookup.FindPurchaseOrders(ctx, invoice.VendorID, amounts, models.POStatusOpen)
	if err != nil {
		return nil, errors.LookupError(errors.CodeLookupFailed, "purchase orders", err)
	}

	var best *models.PurchaseOrder
	bestScore := -1.0
	for _, po := range candidates {
		match, err := e.scorer.ScoreMatch(invoice, po)
		if err != nil {
			continue
		}
		if match.OverallScore > bestScore {
			best = po
			bestScore = match.OverallScore
		}
	}

	return best, nil
}

// assembleVendorContext materializes the vendor record and invoice history
// before any risk scoring runs
func (e *ReconciliationEngine) assembleVendorContext(ctx context.Context, invoice *models.Invoice, lookups Lookups) (*models.Vendor, []models.InvoiceRecord, error) {
	var vendor *models.Vendor
	var history []models.InvoiceRecord

	if lookups.Vendors != nil && invoice.VendorID != "" {
		v, err := lookups.Vendors.FindVendor(ctx, invoice.VendorID)
		if err != nil {
			return nil, nil, errors.LookupError(errors.CodeLookupFailed, "vendor", err)
		}
		vendor = v
	}

	if lookups.History != nil && invoice.VendorID != "" {
		h, err := lookups.History.FindInvoiceHistory(ctx, invoice.VendorID)
		if err != nil {
			return nil, nil, errors.LookupError(errors.CodeLookupFailed, "invoice history", err)
		}
		history = h
	}

	return vendor, history, nil
}

// unmatchedResult builds the zero-score match result used when no candidate
// purchase order exists
func (e *ReconciliationEngine) unmatchedResult(invoice *models.Invoice) *matcher.MatchResult {
	return &matcher.MatchResult{
		Invoice:          invoice,
		MatchType:        matcher.MatchNone,
		Matched:          false,
		ApprovalRequired: true,
		Reasons:          []string{"No candidate purchase order found"},
	}
}
