package connectors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ap-reconciliation-service/internal/decision"
	"ap-reconciliation-service/internal/models"
	"ap-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

func TestRegistryRegisterAndResolve(t *testing.T) {
	registry := NewRegistry()
	pusher := NewLoggingPusher(DefaultRetryPolicy())

	if err := registry.RegisterPusher("logging", pusher); err != nil {
		t.Fatalf("RegisterPusher failed: %v", err)
	}

	resolved, err := registry.Pusher("logging")
	if err != nil {
		t.Fatalf("Pusher failed: %v", err)
	}
	if resolved != pusher {
		t.Error("Expected the registered pusher back")
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	pusher := NewLoggingPusher(DefaultRetryPolicy())

	if err := registry.RegisterPusher("logging", pusher); err != nil {
		t.Fatalf("RegisterPusher failed: %v", err)
	}
	if err := registry.RegisterPusher("logging", pusher); err == nil {
		t.Error("Expected error for duplicate registration")
	}
}

func TestRegistryUnknownID(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Pusher("sap")
	if err == nil {
		t.Fatal("Expected error for unknown id")
	}

	engErr, ok := errors.AsEngineError(err)
	if !ok || engErr.Code != errors.CodeConnectorUnknown {
		t.Errorf("Expected a connector_unknown error, got %v", err)
	}

	if _, err := registry.Extractor("ocr"); err == nil {
		t.Error("Expected error for unknown extractor id")
	}
	if _, err := registry.RiskAssessor("external"); err == nil {
		t.Error("Expected error for unknown risk assessor id")
	}
}

func TestRegistryPusherIDsSorted(t *testing.T) {
	registry := NewRegistry()
	pusher := NewLoggingPusher(DefaultRetryPolicy())

	for _, id := range []string{"netsuite", "logging", "sap"} {
		if err := registry.RegisterPusher(id, pusher); err != nil {
			t.Fatalf("RegisterPusher(%s) failed: %v", id, err)
		}
	}

	ids := registry.PusherIDs()
	want := []string{"logging", "netsuite", "sap"}
	if len(ids) != len(want) {
		t.Fatalf("len(ids) = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestRetryPolicyDelayFor(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, 500 * time.Millisecond},
		{3, time.Second},
		{4, 2 * time.Second},
	}

	for _, tt := range tests {
		if got := policy.DelayFor(tt.attempt); got != tt.want {
			t.Errorf("DelayFor(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicyDoRetriesUntilSuccess(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}

	calls := 0
	attempts, err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient failure %d", calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3 and 3", attempts, calls)
	}
}

func TestRetryPolicyDoExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond}

	calls := 0
	attempts, err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("persistent failure")
	})
	if err == nil {
		t.Fatal("Expected the last error after exhausting attempts")
	}
	if attempts != 2 || calls != 2 {
		t.Errorf("attempts = %d, calls = %d, want 2 and 2", attempts, calls)
	}
}

func TestRetryPolicyDoCancelledContext(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := policy.Do(ctx, func(ctx context.Context) error {
		return fmt.Errorf("always failing")
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryPolicyValidate(t *testing.T) {
	if err := DefaultRetryPolicy().Validate(); err != nil {
		t.Errorf("Default policy should be valid: %v", err)
	}

	if err := (RetryPolicy{MaxAttempts: 0}).Validate(); err == nil {
		t.Error("Expected error for zero attempts")
	}
	if err := (RetryPolicy{MaxAttempts: 1, InitialDelay: -time.Second}).Validate(); err == nil {
		t.Error("Expected error for negative delay")
	}
}

func TestLoggingPusherPush(t *testing.T) {
	pusher := NewLoggingPusher(DefaultRetryPolicy())

	invoice := &models.Invoice{
		InvoiceNumber: "INV-2025-001",
		VendorName:    "Acme Corporation",
		Total:         decimal.NewFromFloat(1100.00),
	}
	d := &decision.Decision{Outcome: decision.OutcomeAutoApproved}

	result, err := pusher.Push(context.Background(), invoice, d)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if result.Reference != "log-INV2025001" {
		t.Errorf("Reference = %s, want log-INV2025001", result.Reference)
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
}

func TestLoggingPusherNilInputs(t *testing.T) {
	pusher := NewLoggingPusher(DefaultRetryPolicy())

	if _, err := pusher.Push(context.Background(), nil, &decision.Decision{}); err == nil {
		t.Error("Expected error for nil invoice")
	}
	if _, err := pusher.Push(context.Background(), &models.Invoice{}, nil); err == nil {
		t.Error("Expected error for nil decision")
	}
}
