package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"ap-reconciliation-service/internal/models"
	"ap-reconciliation-service/pkg/errors"
	"ap-reconciliation-service/pkg/logger"
)

// HistoryParserConfig maps the column names of a historical invoice CSV
// export to the fields of an InvoiceRecord. Different ERP exports use
// different header names; the defaults cover the common variants and a
// caller can override any mapping for an unusual export.
type HistoryParserConfig struct {
	InvoiceNumberColumn string
	InvoiceDateColumn   string
	TotalAmountColumn   string
	Delimiter           rune
	HasHeader           bool
}

// DefaultHistoryParserConfig returns a configuration for the standard
// export format
func DefaultHistoryParserConfig() *HistoryParserConfig {
	return &HistoryParserConfig{
		InvoiceNumberColumn: "invoice_number",
		InvoiceDateColumn:   "invoice_date",
		TotalAmountColumn:   "total_amount",
		Delimiter:           ',',
		HasHeader:           true,
	}
}

// Validate checks if the parser configuration is valid
func (c *HistoryParserConfig) Validate() error {
	if c.InvoiceNumberColumn == "" || c.InvoiceDateColumn == "" || c.TotalAmountColumn == "" {
		return fmt.Errorf("all column mappings must be set")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter must be set")
	}
	return nil
}

// headerAliases lists alternative header names accepted for each logical
// column, keyed by the canonical column name
var headerAliases = map[string][]string{
	"invoice_number": {"invoice_no", "inv_number", "invoice", "number"},
	"invoice_date":   {"date", "inv_date", "issued_date", "issue_date"},
	"total_amount":   {"amount", "total", "invoice_amount", "gross_amount"},
}

// HistoryParser parses CSV files of previously processed invoices
type HistoryParser struct {
	config *HistoryParserConfig
	logger logger.Logger
}

// NewHistoryParser creates a new HistoryParser with the given configuration
func NewHistoryParser(config *HistoryParserConfig) (*HistoryParser, error) {
	if config == nil {
		config = DefaultHistoryParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"history_parser_config",
			config,
			err,
		).WithSuggestion("Check the history parser column mappings")
	}

	return &HistoryParser{
		config: config,
		logger: logger.WithComponent("history_parser"),
	}, nil
}

// ParseHistory parses a CSV file of historical invoice records
func (hp *HistoryParser) ParseHistory(filePath string) ([]*models.InvoiceRecord, error) {
	return hp.ParseHistoryWithContext(context.Background(), filePath)
}

// ParseHistoryWithContext parses historical records with cancellation
// support
func (hp *HistoryParser) ParseHistoryWithContext(ctx context.Context, filePath string) ([]*models.InvoiceRecord, error) {
	hp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_history",
	}).Info("Starting history parsing")

	file, err := os.Open(filePath)
	if err != nil {
		hp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open history file")
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = hp.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	columns, lineNumber, err := hp.resolveColumns(reader, filePath)
	if err != nil {
		return nil, err
	}

	var records []*models.InvoiceRecord
	for {
		if err := ctx.Err(); err != nil {
			hp.logger.Warn("History parsing was cancelled")
			return records, errors.InternalError(errors.CodeUnexpectedError, "history_parsing", err)
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError(
				errors.CodeInvalidFormat,
				filePath,
				fmt.Sprintf("line %d", lineNumber+1),
				err,
			).WithSuggestion("Check that all rows have valid CSV syntax")
		}
		lineNumber++

		if isEmptyRow(row) {
			continue
		}

		record, err := hp.parseRecord(row, columns, filePath, lineNumber)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	hp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"count":     len(records),
	}).Info("Completed history parsing")
	return records, nil
}

// historyColumns holds the resolved column indices for a file
type historyColumns struct {
	invoiceNumber int
	invoiceDate   int
	totalAmount   int
}

func (hp *HistoryParser) resolveColumns(reader *csv.Reader, filePath string) (*historyColumns, int, error) {
	if !hp.config.HasHeader {
		// Positional layout: number, date, amount
		return &historyColumns{invoiceNumber: 0, invoiceDate: 1, totalAmount: 2}, 0, nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, errors.ValidationError(
				errors.CodeMissingField,
				"file_content",
				"empty",
				nil,
			).WithSuggestion("Ensure the file contains header and data rows")
		}
		return nil, 0, errors.ParseError(errors.CodeInvalidFormat, filePath, "headers", err).
			WithSuggestion("Check the file format and ensure it's a valid CSV")
	}

	columns := &historyColumns{
		invoiceNumber: findColumn(headers, hp.config.InvoiceNumberColumn, "invoice_number"),
		invoiceDate:   findColumn(headers, hp.config.InvoiceDateColumn, "invoice_date"),
		totalAmount:   findColumn(headers, hp.config.TotalAmountColumn, "total_amount"),
	}

	var missing []string
	if columns.invoiceNumber < 0 {
		missing = append(missing, hp.config.InvoiceNumberColumn)
	}
	if columns.invoiceDate < 0 {
		missing = append(missing, hp.config.InvoiceDateColumn)
	}
	if columns.totalAmount < 0 {
		missing = append(missing, hp.config.TotalAmountColumn)
	}
	if len(missing) > 0 {
		hp.logger.WithFields(logger.Fields{
			"missing_headers":   missing,
			"available_headers": headers,
		}).Error("Required headers are missing")
		return nil, 1, errors.ParseError(
			errors.CodeMissingColumn,
			filePath,
			strings.Join(missing, ", "),
			nil,
		).WithSuggestion(fmt.Sprintf("Ensure the CSV file contains these headers: %s", strings.Join(missing, ", ")))
	}

	return columns, 1, nil
}

// findColumn locates a header by its configured name or any known alias
// for the canonical column, case-insensitively
func findColumn(headers []string, configured, canonical string) int {
	accepted := []string{configured, canonical}
	accepted = append(accepted, headerAliases[canonical]...)

	for i, header := range headers {
		cleaned := strings.ToLower(strings.TrimSpace(header))
		for _, name := range accepted {
			if cleaned == strings.ToLower(name) {
				return i
			}
		}
	}
	return -1
}

func (hp *HistoryParser) parseRecord(row []string, columns *historyColumns, filePath string, line int) (*models.InvoiceRecord, error) {
	maxIndex := columns.invoiceNumber
	if columns.invoiceDate > maxIndex {
		maxIndex = columns.invoiceDate
	}
	if columns.totalAmount > maxIndex {
		maxIndex = columns.totalAmount
	}
	if maxIndex >= len(row) {
		return nil, errors.ParseError(
			errors.CodeInvalidData,
			filePath,
			fmt.Sprintf("line %d has %d fields", line, len(row)),
			nil,
		).WithSuggestion("Check that all rows have the same number of columns as the header")
	}

	invoiceDate, err := models.ParseTimeWithFormats(strings.TrimSpace(row[columns.invoiceDate]))
	if err != nil {
		return nil, errors.ValidationError(
			errors.CodeInvalidDate,
			"invoice_date",
			row[columns.invoiceDate],
			err,
		).WithContext("line", fmt.Sprintf("%d", line)).
			WithSuggestion("Use an ISO 8601 date such as 2025-03-14")
	}

	amount, err := models.ParseDecimalFromString(strings.TrimSpace(row[columns.totalAmount]))
	if err != nil {
		return nil, errors.ValidationError(
			errors.CodeInvalidAmount,
			"total_amount",
			row[columns.totalAmount],
			err,
		).WithContext("line", fmt.Sprintf("%d", line)).
			WithSuggestion("Amounts must be decimal numbers without currency symbols")
	}

	record := &models.InvoiceRecord{
		InvoiceNumber: strings.TrimSpace(row[columns.invoiceNumber]),
		InvoiceDate:   invoiceDate,
		TotalAmount:   amount,
	}
	if err := record.Validate(); err != nil {
		return nil, errors.ValidationError(
			errors.CodeInvalidData,
			"invoice_record",
			record.InvoiceNumber,
			err,
		).WithContext("line", fmt.Sprintf("%d", line))
	}
	return record, nil
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
