package matcher

import (
	"sort"

	"ap-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Per-pair factor weights. Description similarity dominates: two items that
// merely share a total are not the same item.
const (
	pairDescriptionWeight = 0.70
	pairQuantityWeight    = 0.10
	pairUnitPriceWeight   = 0.10
	pairAmountWeight      = 0.10
)

// LineItemPair represents one invoice line item paired against a PO line item
type LineItemPair struct {
	InvoiceIndex int                     `json:"invoice_index"`
	POIndex      int                     `json:"po_index"`
	InvoiceItem  *models.InvoiceLineItem `json:"invoice_item"`
	POItem       *models.POLineItem      `json:"po_item"`
	Matched      bool                    `json:"matched"`
	Score        float64                 `json:"score"`
	AmountDelta  decimal.Decimal         `json:"amount_delta"`
}

// LineItemMatchResult is the outcome of pairing invoice items to PO items
type LineItemMatchResult struct {
	Pairs                 []LineItemPair `json:"pairs"`
	UnmatchedInvoiceItems []int          `json:"unmatched_invoice_items,omitempty"`
	UnmatchedPOItems      []int          `json:"unmatched_po_items,omitempty"`
	Score                 float64        `json:"score"`
}

// MatchLineItems pairs each invoice line item with at most one PO line item,
// maximizing per-pair scores greedily. Candidate pairs are ranked by score
// with original ordering as the tie-break, so identical inputs always yield
// identical pairings. Unpaired items on either side dilute the aggregate
// score.
func (ms *MatchScorer) MatchLineItems(invoiceItems []models.InvoiceLineItem, poItems []models.POLineItem) *LineItemMatchResult {
	result := &LineItemMatchResult{}

	if len(invoiceItems) == 0 || len(poItems) == 0 {
		for i := range invoiceItems {
			result.UnmatchedInvoiceItems = append(result.UnmatchedInvoiceItems, i)
		}
		for j := range poItems {
			result.UnmatchedPOItems = append(result.UnmatchedPOItems, j)
		}
		return result
	}

	type candidate struct {
		invoiceIndex int
		poIndex      int
		score        float64
	}

	candidates := make([]candidate, 0, len(invoiceItems)*len(poItems))
	for i := range invoiceItems {
		for j := range poItems {
			score := ms.scoreLineItemPair(&invoiceItems[i], &poItems[j])
			if score >= ms.Config.LineItemPairThreshold {
				candidates = append(candidates, candidate{invoiceIndex: i, poIndex: j, score: score})
			}
		}
	}

	// Highest score first; ties resolve by original invoice then PO order
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		if candidates[a].invoiceIndex != candidates[b].invoiceIndex {
			return candidates[a].invoiceIndex < candidates[b].invoiceIndex
		}
		return candidates[a].poIndex < candidates[b].poIndex
	})

	invoiceUsed := make([]bool, len(invoiceItems))
	poUsed := make([]bool, len(poItems))

	var totalScore float64
	for _, c := range candidates {
		if invoiceUsed[c.invoiceIndex] || poUsed[c.poIndex] {
			continue
		}
		invoiceUsed[c.invoiceIndex] = true
		poUsed[c.poIndex] = true

		result.Pairs = append(result.Pairs, LineItemPair{
			InvoiceIndex: c.invoiceIndex,
			POIndex:      c.poIndex,
			InvoiceItem:  &invoiceItems[c.invoiceIndex],
			POItem:       &poItems[c.poIndex],
			Matched:      true,
			Score:        c.score,
			AmountDelta:  invoiceItems[c.invoiceIndex].Amount.Sub(poItems[c.poIndex].Amount),
		})
		totalScore += c.score
	}

	for i := range invoiceItems {
		if !invoiceUsed[i] {
			result.UnmatchedInvoiceItems = append(result.UnmatchedInvoiceItems, i)
		}
	}
	for j := range poItems {
		if !poUsed[j] {
			result.UnmatchedPOItems = append(result.UnmatchedPOItems, j)
		}
	}

	// Stable presentation order regardless of assignment order
	sort.Slice(result.Pairs, func(a, b int) bool {
		return result.Pairs[a].InvoiceIndex < result.Pairs[b].InvoiceIndex
	})

	denominator := maxInt(len(invoiceItems), len(poItems))
	result.Score = totalScore / float64(denominator)

	return result
}

// scoreLineItemPair combines description similarity with quantity, unit
// price, and amount agreement for one candidate pairing
func (ms *MatchScorer) scoreLineItemPair(item *models.InvoiceLineItem, poItem *models.POLineItem) float64 {
	descScore := NameSimilarity(item.Description, poItem.Description)
	qtyScore := numericAgreement(item.Quantity, poItem.Quantity)
	priceScore := numericAgreement(item.UnitPrice, poItem.UnitPrice)
	amountScore := numericAgreement(item.Amount, poItem.Amount)

	return pairDescriptionWeight*descScore +
		pairQuantityWeight*qtyScore +
		pairUnitPriceWeight*priceScore +
		pairAmountWeight*amountScore
}

// numericAgreement scores two quantities or amounts by relative difference,
// reaching zero at a 50% divergence
func numericAgreement(a, b decimal.Decimal) float64 {
	if a.Equal(b) {
		return 1.0
	}

	relDiff := models.RelativeDifference(a, b)
	score := 1.0 - 2.0*relDiff
	if score < 0.0 {
		return 0.0
	}
	return score
}
