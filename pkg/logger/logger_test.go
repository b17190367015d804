package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestNewLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.WithFields(Fields{
		"invoice": "INV-2025-001",
		"vendor":  "Acme Corporation",
	}).Info("evaluating invoice")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log line is not valid JSON: %v", err)
	}

	if entry["invoice"] != "INV-2025-001" {
		t.Errorf("invoice field = %v", entry["invoice"])
	}
	if entry["msg"] != "evaluating invoice" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: WarnLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.Info("suppressed")
	log.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("Info output should be filtered at warn level")
	}
	if !strings.Contains(out, "emitted") {
		t.Error("Warn output should pass at warn level")
	}
}

func TestWithComponentAndError(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: DebugLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.WithComponent("matcher").WithError(fmt.Errorf("boom")).Error("scoring failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log line is not valid JSON: %v", err)
	}
	if entry["component"] != "matcher" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Level: InfoLevel, Format: TextFormat}, false},
		{"bad level", Config{Level: "loud", Format: TextFormat}, true},
		{"bad format", Config{Level: InfoLevel, Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestNewLoggerInvalidConfig(t *testing.T) {
	if _, err := NewLogger(&Config{Level: "loud", Format: TextFormat}); err == nil {
		t.Error("Expected error for invalid level")
	}
}
