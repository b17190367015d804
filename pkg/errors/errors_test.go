package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestConstructorsSetCategoryAndCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *EngineError
		category ErrorCategory
		code     ErrorCode
	}{
		{"file error", FileError(CodeFileNotFound, "/tmp/missing.json", nil), CategoryFile, CodeFileNotFound},
		{"parse error", ParseError(CodeInvalidFormat, "pos.json", "purchase orders", nil), CategoryParse, CodeInvalidFormat},
		{"validation error", ValidationError(CodeInvalidAmount, "total", "abc", nil), CategoryValidation, CodeInvalidAmount},
		{"configuration error", ConfigurationError(CodeInvalidConfig, "matching", nil, nil), CategoryConfiguration, CodeInvalidConfig},
		{"matching error", MatchingError(CodeScoringFailed, "match scoring", nil), CategoryMatching, CodeScoringFailed},
		{"risk error", RiskError(CodeDetectionFailed, "duplicate detection", nil), CategoryRisk, CodeDetectionFailed},
		{"decision error", DecisionError(CodeDecisionFailed, "decision", nil), CategoryDecision, CodeDecisionFailed},
		{"lookup error", LookupError(CodeLookupFailed, "vendor", nil), CategoryLookup, CodeLookupFailed},
		{"connector error", ConnectorError(CodeConnectorUnknown, "sap", nil), CategoryConnector, CodeConnectorUnknown},
		{"internal error", InternalError(CodeUnexpectedError, "evaluation", nil), CategoryInternal, CodeUnexpectedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Suggestion == "" {
				t.Error("Constructors must attach a suggestion")
			}
		})
	}
}

func TestErrorMessageIncludesSuggestion(t *testing.T) {
	err := New(CategoryValidation, CodeMissingField, "field missing").
		WithSuggestion("provide the field")

	if !strings.Contains(err.Error(), "field missing") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "provide the field") {
		t.Errorf("Error() should include the suggestion: %q", err.Error())
	}
}

func TestWithContext(t *testing.T) {
	err := New(CategoryParse, CodeInvalidData, "bad row").
		WithContext("line", "7").
		WithContext("file", "history.csv")

	if err.Context["line"] != "7" {
		t.Errorf("Context[line] = %v", err.Context["line"])
	}
	if err.Context["file"] != "history.csv" {
		t.Errorf("Context[file] = %v", err.Context["file"])
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryInternal, CodeUnexpectedError, "wrapped")

	if err.Unwrap() != cause {
		t.Error("Unwrap must return the original cause")
	}
	if err.StackTrace == nil {
		t.Error("Wrapped errors must carry a stack trace")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, CategoryInternal, CodeUnexpectedError, "nothing"); err != nil {
		t.Error("Wrapping nil must return nil")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryMatching, 5},
		{CategoryRisk, 5},
		{CategoryDecision, 5},
		{CategoryInternal, 5},
		{CategoryLookup, 6},
		{CategoryConnector, 6},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "test")
		if got := err.GetExitCode(); got != tt.want {
			t.Errorf("GetExitCode(%s) = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestAsEngineError(t *testing.T) {
	inner := FileError(CodeFileNotFound, "/tmp/x", nil)
	wrapped := fmt.Errorf("loading inputs: %w", inner)

	extracted, ok := AsEngineError(wrapped)
	if !ok {
		t.Fatal("Expected to extract the engine error through the chain")
	}
	if extracted.Code != CodeFileNotFound {
		t.Errorf("Code = %s", extracted.Code)
	}

	if _, ok := AsEngineError(fmt.Errorf("plain error")); ok {
		t.Error("A plain error is not an engine error")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	engineErr := ValidationError(CodeMissingField, "invoice", nil, nil)
	if got := WrapIfNeeded(engineErr, CategoryInternal, CodeUnexpectedError, "outer"); got != engineErr {
		t.Error("An existing engine error must pass through unchanged")
	}

	plain := fmt.Errorf("plain")
	got := WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "outer")
	if got.Category != CategoryInternal || got.Unwrap() != plain {
		t.Error("A plain error must be wrapped with the given category")
	}

	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "outer") != nil {
		t.Error("nil must stay nil")
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*EngineError{
		FileError(CodeFileNotFound, "/tmp/a", nil),
		ParseError(CodeInvalidFormat, "b.json", "document", nil),
		ParseError(CodeMissingColumn, "c.csv", "total_amount", nil),
	}

	summary := NewErrorSummary(errs)
	if summary.Total != 3 {
		t.Errorf("Total = %d, want 3", summary.Total)
	}
	if summary.ByCategory[CategoryParse] != 2 {
		t.Errorf("ByCategory[parse] = %d, want 2", summary.ByCategory[CategoryParse])
	}
	if summary.ByCode[CodeFileNotFound] != 1 {
		t.Errorf("ByCode[file_not_found] = %d, want 1", summary.ByCode[CodeFileNotFound])
	}

	// Parse errors dominate file errors in exit priority
	if got := summary.GetExitCode(); got != 3 {
		t.Errorf("GetExitCode = %d, want 3", got)
	}

	if !strings.Contains(summary.Error(), "3 errors occurred") {
		t.Errorf("Error() = %q", summary.Error())
	}
}

func TestErrorSummaryEmpty(t *testing.T) {
	summary := NewErrorSummary(nil)

	if summary.Error() != "no errors" {
		t.Errorf("Error() = %q", summary.Error())
	}
	if summary.GetExitCode() != 0 {
		t.Errorf("GetExitCode = %d, want 0", summary.GetExitCode())
	}
}

func TestErrorSummarySingle(t *testing.T) {
	single := ValidationError(CodeInvalidDate, "invoice_date", "someday", nil)
	summary := NewErrorSummary([]*EngineError{single})

	if summary.Error() != single.Error() {
		t.Error("A single-error summary must render the error itself")
	}
}
