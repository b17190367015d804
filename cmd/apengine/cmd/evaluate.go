package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ap-reconciliation-service/cmd/apengine/config"
	"ap-reconciliation-service/internal/engine"
	"ap-reconciliation-service/internal/models"
	"ap-reconciliation-service/internal/parsers"
	"ap-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the evaluate command
var (
	invoiceFile string
	poFile      string
	vendorFile  string
	historyFile string

	outputFormat string
	outputFile   string
	showItems    bool

	matchingProfile    string
	amountTolerance    float64
	acceptableLeadDays int
	maxLeadDays        int

	duplicateWindowDays int
	duplicateTolerance  float64
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate an invoice against purchase orders and vendor data",
	Long: `Evaluate matches a supplier invoice to its purchase order, detects
discrepancies and duplicate submissions, assesses vendor and price risk,
and issues a processing decision.

This command requires:
- An invoice file (JSON format)
- A purchase order file (JSON object or array)

Optional inputs:
- A vendor master file (JSON object or array)
- A historical invoice file (CSV format)

Examples:
  # Basic evaluation
  apengine evaluate --invoice invoice.json --po orders.json

  # Full evaluation with vendor data and history
  apengine evaluate --invoice invoice.json --po orders.json \
    --vendors vendors.json --history history.csv

  # Strict matching with a custom amount tolerance
  apengine evaluate --invoice invoice.json --po orders.json \
    --profile strict --amount-tolerance 1.5

  # JSON output to a file
  apengine evaluate --invoice invoice.json --po orders.json \
    --output-format json --output-file result.json`,

	PreRunE: validateEvaluateFlags,
	RunE:    runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	// Required flags
	evaluateCmd.Flags().StringVarP(&invoiceFile, "invoice", "i", "", "path to invoice JSON file (required)")
	evaluateCmd.Flags().StringVarP(&poFile, "po", "p", "", "path to purchase order JSON file (required)")

	// Optional input flags
	evaluateCmd.Flags().StringVar(&vendorFile, "vendors", "", "path to vendor master JSON file")
	evaluateCmd.Flags().StringVar(&historyFile, "history", "", "path to historical invoice CSV file")

	// Output flags
	evaluateCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json")
	evaluateCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	evaluateCmd.Flags().BoolVar(&showItems, "show-line-items", false, "include matched line item pairs in the report")

	// Matching configuration flags
	evaluateCmd.Flags().StringVar(&matchingProfile, "profile", "default", "matching profile: default, strict, relaxed")
	evaluateCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0.0, "amount tolerance percentage (0.0-100.0, 0 keeps the profile value)")
	evaluateCmd.Flags().IntVar(&acceptableLeadDays, "acceptable-lead-days", 0, "days after PO creation with full date score (0 keeps the profile value)")
	evaluateCmd.Flags().IntVar(&maxLeadDays, "max-lead-days", 0, "days after PO creation at which the date score reaches zero (0 keeps the profile value)")

	// Duplicate detection flags
	evaluateCmd.Flags().IntVar(&duplicateWindowDays, "duplicate-window", 0, "fuzzy duplicate detection window in days (0 keeps the default)")
	evaluateCmd.Flags().Float64Var(&duplicateTolerance, "duplicate-tolerance", 0.0, "fuzzy duplicate amount tolerance percentage (0 keeps the default)")

	// Mark required flags
	evaluateCmd.MarkFlagRequired("invoice")
	evaluateCmd.MarkFlagRequired("po")

	// Bind flags to viper
	viper.BindPFlag("invoice", evaluateCmd.Flags().Lookup("invoice"))
	viper.BindPFlag("po", evaluateCmd.Flags().Lookup("po"))
	viper.BindPFlag("vendors", evaluateCmd.Flags().Lookup("vendors"))
	viper.BindPFlag("history", evaluateCmd.Flags().Lookup("history"))
	viper.BindPFlag("output-format", evaluateCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", evaluateCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("show-line-items", evaluateCmd.Flags().Lookup("show-line-items"))
	viper.BindPFlag("profile", evaluateCmd.Flags().Lookup("profile"))
	viper.BindPFlag("amount-tolerance", evaluateCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("acceptable-lead-days", evaluateCmd.Flags().Lookup("acceptable-lead-days"))
	viper.BindPFlag("max-lead-days", evaluateCmd.Flags().Lookup("max-lead-days"))
	viper.BindPFlag("duplicate-window", evaluateCmd.Flags().Lookup("duplicate-window"))
	viper.BindPFlag("duplicate-tolerance", evaluateCmd.Flags().Lookup("duplicate-tolerance"))
}

func validateEvaluateFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	invoiceFile = viper.GetString("invoice")
	poFile = viper.GetString("po")
	vendorFile = viper.GetString("vendors")
	historyFile = viper.GetString("history")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	showItems = viper.GetBool("show-line-items")
	matchingProfile = viper.GetString("profile")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	acceptableLeadDays = viper.GetInt("acceptable-lead-days")
	maxLeadDays = viper.GetInt("max-lead-days")
	duplicateWindowDays = viper.GetInt("duplicate-window")
	duplicateTolerance = viper.GetFloat64("duplicate-tolerance")

	// Validate required flags
	if invoiceFile == "" {
		return fmt.Errorf("invoice is required")
	}
	if poFile == "" {
		return fmt.Errorf("po is required")
	}

	// Validate file existence
	if err := validateFileExists(invoiceFile, "invoice file"); err != nil {
		return err
	}
	if err := validateFileExists(poFile, "purchase order file"); err != nil {
		return err
	}
	if vendorFile != "" {
		if err := validateFileExists(vendorFile, "vendor file"); err != nil {
			return err
		}
	}
	if historyFile != "" {
		if err := validateFileExists(historyFile, "history file"); err != nil {
			return err
		}
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json", outputFormat)
	}

	// Validate tolerances
	if amountTolerance < 0.0 || amountTolerance > 100.0 {
		return fmt.Errorf("amount tolerance must be between 0.0 and 100.0")
	}
	if duplicateTolerance < 0.0 || duplicateTolerance > 100.0 {
		return fmt.Errorf("duplicate tolerance must be between 0.0 and 100.0")
	}
	if acceptableLeadDays < 0 || maxLeadDays < 0 || duplicateWindowDays < 0 {
		return fmt.Errorf("day windows cannot be negative")
	}
	if acceptableLeadDays > 0 && maxLeadDays > 0 && acceptableLeadDays > maxLeadDays {
		return fmt.Errorf("acceptable lead days cannot exceed max lead days")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting invoice evaluation...\n")
		fmt.Fprintf(os.Stderr, "Invoice file: %s\n", invoiceFile)
		fmt.Fprintf(os.Stderr, "Purchase order file: %s\n", poFile)
		if vendorFile != "" {
			fmt.Fprintf(os.Stderr, "Vendor file: %s\n", vendorFile)
		}
		if historyFile != "" {
			fmt.Fprintf(os.Stderr, "History file: %s\n", historyFile)
		}
	}

	// Build configurations
	matchingConfig, err := config.CreateMatchingConfig(
		config.MatchingProfile(matchingProfile), amountTolerance, acceptableLeadDays, maxLeadDays)
	if err != nil {
		return err
	}
	riskConfig, err := config.CreateRiskConfig(duplicateWindowDays, duplicateTolerance)
	if err != nil {
		return err
	}
	engineConfig := config.CreateEngineConfig(matchingConfig, riskConfig)

	// Load input documents
	store, invoice, err := loadInputs()
	if err != nil {
		return err
	}

	// Run the evaluation
	eng := engine.New(engineConfig)
	result, err := eng.EvaluateInvoice(ctx, invoice, store.Lookups())
	if err != nil {
		return err
	}

	// Generate report
	reportConfig, err := config.CreateReportConfig(outputFormat, showItems)
	if err != nil {
		return err
	}
	rep, err := reporter.NewEvaluationReporter(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := rep.WriteReport(output, result); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") && result.Decision != nil {
		fmt.Fprintf(os.Stderr, "\nEvaluation completed: %s\n", result.Decision.Outcome)
	}

	return nil
}

// loadInputs parses the input files and fills an in-memory store for the
// engine lookups
func loadInputs() (*engine.InMemoryStore, *models.Invoice, error) {
	docs := parsers.NewDocumentParser()

	invoice, err := docs.LoadInvoice(invoiceFile)
	if err != nil {
		return nil, nil, err
	}

	orders, err := docs.LoadPurchaseOrders(poFile)
	if err != nil {
		return nil, nil, err
	}

	store := engine.NewInMemoryStore()
	store.AddPurchaseOrders(orders...)

	if vendorFile != "" {
		vendors, err := docs.LoadVendors(vendorFile)
		if err != nil {
			return nil, nil, err
		}
		for _, v := range vendors {
			store.AddVendor(v)
		}
	}

	if historyFile != "" {
		historyParser, err := parsers.NewHistoryParser(config.CreateHistoryParserConfig())
		if err != nil {
			return nil, nil, err
		}
		records, err := historyParser.ParseHistory(historyFile)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range records {
			store.AddInvoiceHistory(invoice.VendorID, *r)
		}
	}

	return store, invoice, nil
}
