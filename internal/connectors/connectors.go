// Package connectors defines the capability contracts that surround the
// core engine: document extraction, external risk assessment, and ERP
// push. Each capability is a single-entry interface with a structured
// result type; concrete implementations register under string identifiers
// at process startup.
package connectors

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ap-reconciliation-service/internal/decision"
	"ap-reconciliation-service/internal/models"
	"ap-reconciliation-service/internal/risk"
	"ap-reconciliation-service/pkg/errors"
	"ap-reconciliation-service/pkg/logger"
)

// ExtractionResult is the structured outcome of document extraction
type ExtractionResult struct {
	Invoice    *models.Invoice `json:"invoice,omitempty"`
	Confidence float64         `json:"confidence"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// Extractor turns a raw document into a structured invoice
type Extractor interface {
	Extract(ctx context.Context, document []byte) (*ExtractionResult, error)
}

// RiskAssessor produces a risk assessment for an invoice from an external
// or alternative source
type RiskAssessor interface {
	AssessRisk(ctx context.Context, invoice *models.Invoice) (*risk.RiskAssessment, error)
}

// PushResult is the structured outcome of an ERP push
type PushResult struct {
	Reference string        `json:"reference,omitempty"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
}

// ErpPusher pushes an approved invoice and its decision into an external
// ERP system
type ErpPusher interface {
	Push(ctx context.Context, invoice *models.Invoice, d *decision.Decision) (*PushResult, error)
}

// RetryPolicy is a bounded retry schedule with a doubling delay,
// parameterized per connector
type RetryPolicy struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
}

// DefaultRetryPolicy returns the standard connector retry schedule
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
	}
}

// Validate checks if the retry policy is valid
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1: %d", p.MaxAttempts)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("initial delay cannot be negative: %s", p.InitialDelay)
	}
	return nil
}

// DelayFor returns the delay before the given retry attempt. Attempt
// numbering starts at 1; the first attempt has no delay, each following
// attempt doubles the previous delay.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := p.InitialDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// Do runs op under the retry policy until it succeeds, the attempts are
// exhausted, or the context is cancelled
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if delay := p.DelayFor(attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return attempt - 1, ctx.Err()
			}
		}

		if err := op(ctx); err != nil {
			lastErr = err
			continue
		}
		return attempt, nil
	}

	return p.MaxAttempts, lastErr
}

// Registry maps string identifiers to connector implementations. It is
// populated once at process startup and read-only afterwards; the mutex
// guards against misuse rather than enabling runtime mutation patterns.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
	assessors  map[string]RiskAssessor
	pushers    map[string]ErpPusher
}

// NewRegistry creates an empty connector registry
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]Extractor),
		assessors:  make(map[string]RiskAssessor),
		pushers:    make(map[string]ErpPusher),
	}
}

// RegisterExtractor registers an extractor under the given id
func (r *Registry) RegisterExtractor(id string, e Extractor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extractors[id]; exists {
		return fmt.Errorf("extractor already registered under id '%s'", id)
	}
	r.extractors[id] = e
	return nil
}

// RegisterRiskAssessor registers a risk assessor under the given id
func (r *Registry) RegisterRiskAssessor(id string, a RiskAssessor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assessors[id]; exists {
		return fmt.Errorf("risk assessor already registered under id '%s'", id)
	}
	r.assessors[id] = a
	return nil
}

// RegisterPusher registers an ERP pusher under the given id
func (r *Registry) RegisterPusher(id string, p ErpPusher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pushers[id]; exists {
		return fmt.Errorf("pusher already registered under id '%s'", id)
	}
	r.pushers[id] = p
	return nil
}

// Extractor returns the extractor registered under the given id
func (r *Registry) Extractor(id string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.extractors[id]
	if !ok {
		return nil, errors.ConnectorError(errors.CodeConnectorUnknown, id, nil)
	}
	return e, nil
}

// RiskAssessor returns the risk assessor registered under the given id
func (r *Registry) RiskAssessor(id string) (RiskAssessor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assessors[id]
	if !ok {
		return nil, errors.ConnectorError(errors.CodeConnectorUnknown, id, nil)
	}
	return a, nil
}

// Pusher returns the ERP pusher registered under the given id
func (r *Registry) Pusher(id string) (ErpPusher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pushers[id]
	if !ok {
		return nil, errors.ConnectorError(errors.CodeConnectorUnknown, id, nil)
	}
	return p, nil
}

// PusherIDs returns the registered pusher ids in sorted order
func (r *Registry) PusherIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.pushers))
	for id := range r.pushers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoggingPusher is an ErpPusher that records the push through the
// structured logger instead of an external system. It stands in for a real
// connector in local runs and tests.
type LoggingPusher struct {
	Policy RetryPolicy
	log    logger.Logger
}

// NewLoggingPusher creates a logging pusher with the given retry policy
func NewLoggingPusher(policy RetryPolicy) *LoggingPusher {
	return &LoggingPusher{
		Policy: policy,
		log:    logger.WithComponent("connector.logging"),
	}
}

// Push implements ErpPusher
func (lp *LoggingPusher) Push(ctx context.Context, invoice *models.Invoice, d *decision.Decision) (*PushResult, error) {
	if invoice == nil || d == nil {
		return nil, errors.ConnectorError(errors.CodePushFailed, "logging",
			fmt.Errorf("invoice and decision must not be nil"))
	}

	start := time.Now()
	attempts, err := lp.Policy.Do(ctx, func(ctx context.Context) error {
		lp.log.WithFields(logger.Fields{
			"invoice": invoice.InvoiceNumber,
			"outcome": d.Outcome.String(),
		}).Info("pushing invoice decision")
		return nil
	})
	if err != nil {
		return nil, errors.ConnectorError(errors.CodePushFailed, "logging", err)
	}

	return &PushResult{
		Reference: fmt.Sprintf("log-%s", models.NormalizeInvoiceNumber(invoice.InvoiceNumber)),
		Attempts:  attempts,
		Duration:  time.Since(start),
	}, nil
}
