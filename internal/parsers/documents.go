// Package parsers loads accounts payable documents from disk.
//
// Invoices, purchase orders, and vendor master data arrive as JSON files
// exported from upstream systems; historical invoice records arrive as CSV
// exports whose headers vary between ERP installations. The parsers here
// validate every record on load and return typed errors so the CLI can
// report exactly which file and record was bad.
package parsers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ap-reconciliation-service/internal/models"
	"ap-reconciliation-service/pkg/errors"
	"ap-reconciliation-service/pkg/logger"
)

// DocumentParser loads JSON document files containing invoices, purchase
// orders, and vendor records
type DocumentParser struct {
	logger logger.Logger
}

// NewDocumentParser creates a new DocumentParser
func NewDocumentParser() *DocumentParser {
	return &DocumentParser{
		logger: logger.WithComponent("document_parser"),
	}
}

// LoadInvoice loads a single invoice from a JSON file
func (dp *DocumentParser) LoadInvoice(filePath string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := dp.loadJSON(filePath, &invoice); err != nil {
		return nil, err
	}

	if err := invoice.Validate(); err != nil {
		dp.logger.WithError(err).WithField("file_path", filePath).Error("Invoice failed validation")
		return nil, errors.ValidationError(
			errors.CodeInvalidData,
			"invoice",
			invoice.InvoiceNumber,
			err,
		).WithSuggestion("Check the invoice file for missing or malformed fields")
	}

	dp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"invoice":   invoice.InvoiceNumber,
	}).Debug("Loaded invoice")
	return &invoice, nil
}

// LoadPurchaseOrders loads purchase orders from a JSON file. The file may
// contain either a single object or an array.
func (dp *DocumentParser) LoadPurchaseOrders(filePath string) ([]*models.PurchaseOrder, error) {
	raw, err := dp.readFile(filePath)
	if err != nil {
		return nil, err
	}

	orders, err := decodeOneOrMany[models.PurchaseOrder](raw)
	if err != nil {
		dp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to decode purchase orders")
		return nil, errors.ParseError(errors.CodeInvalidFormat, filePath, "purchase orders", err).
			WithSuggestion("Ensure the file contains a JSON purchase order object or array")
	}

	for i, po := range orders {
		if err := po.Validate(); err != nil {
			return nil, errors.ValidationError(
				errors.CodeInvalidData,
				"purchase_order",
				fmt.Sprintf("record %d", i+1),
				err,
			).WithSuggestion("Check the purchase order file for missing or malformed fields")
		}
	}

	dp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"count":     len(orders),
	}).Debug("Loaded purchase orders")
	return orders, nil
}

// LoadVendors loads vendor master records from a JSON file. The file may
// contain either a single object or an array.
func (dp *DocumentParser) LoadVendors(filePath string) ([]*models.Vendor, error) {
	raw, err := dp.readFile(filePath)
	if err != nil {
		return nil, err
	}

	vendors, err := decodeOneOrMany[models.Vendor](raw)
	if err != nil {
		dp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to decode vendors")
		return nil, errors.ParseError(errors.CodeInvalidFormat, filePath, "vendors", err).
			WithSuggestion("Ensure the file contains a JSON vendor object or array")
	}

	for i, v := range vendors {
		if err := v.Validate(); err != nil {
			return nil, errors.ValidationError(
				errors.CodeInvalidData,
				"vendor",
				fmt.Sprintf("record %d", i+1),
				err,
			).WithSuggestion("Check the vendor file for missing or malformed fields")
		}
	}

	dp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"count":     len(vendors),
	}).Debug("Loaded vendors")
	return vendors, nil
}

func (dp *DocumentParser) loadJSON(filePath string, target interface{}) error {
	raw, err := dp.readFile(filePath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, target); err != nil {
		dp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to decode JSON document")
		return errors.ParseError(errors.CodeInvalidFormat, filePath, "document", err).
			WithSuggestion("Ensure the file contains valid JSON")
	}
	return nil
}

func (dp *DocumentParser) readFile(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		dp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open document file")
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	return raw, nil
}

// decodeOneOrMany decodes a JSON payload that holds either a single object
// or an array of objects
func decodeOneOrMany[T any](raw []byte) ([]*T, error) {
	var many []*T
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []*T{&one}, nil
}
