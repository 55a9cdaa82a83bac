// Package extractor turns raw receipt OCR text into normalized line
// items. The worker runs the heuristic parser by default and an
// LLM-backed extractor when one is configured; either way, failures
// surface as job failures and go through the queue's retry path.
package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pantryos/backend/internal/core"
)

// Extractor produces the worker's result submission for one receipt.
type Extractor interface {
	Extract(ctx context.Context, receipt *core.ReceiptUpload) (core.JobResultSubmission, error)
	Name() string
}

// Heuristic is the dependency-free line parser. It understands the
// common receipt shapes:
//
//	Jasmine Rice 2kg       8.99
//	Tomato x4              3.20
//	Milk 1l
//	Chicken Breast 0.8 kg  7.45
type Heuristic struct{}

// NewHeuristic returns the line parser.
func NewHeuristic() *Heuristic { return &Heuristic{} }

func (Heuristic) Name() string { return "heuristic" }

var (
	qtyUnitRe = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(kg|g|l|ml|oz|lb|pack|box|bottle)\b`)
	countRe   = regexp.MustCompile(`(?i)\bx\s*(\d+)\b`)
	priceRe   = regexp.MustCompile(`[$€£]?\s*(\d+[.,]\d{2})\s*$`)

	// Lines that are receipt chrome, not items.
	skipRe = regexp.MustCompile(`(?i)^(sub)?total|^tax\b|^change\b|^cash\b|^card\b|^visa\b|^mastercard\b|^balance\b|^thank|^receipt\b|^store\b|^tel\b|^date\b|^[-=*#]+$`)
)

// Extract parses the receipt's OCR text. Receipts without OCR text
// cannot be parsed heuristically.
func (h Heuristic) Extract(_ context.Context, receipt *core.ReceiptUpload) (core.JobResultSubmission, error) {
	if strings.TrimSpace(receipt.OCRText) == "" {
		return core.JobResultSubmission{}, fmt.Errorf("heuristic extractor requires ocr text")
	}

	var items []core.ReceiptItem
	for _, line := range strings.Split(receipt.OCRText, "\n") {
		if item, ok := parseLine(line); ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return core.JobResultSubmission{}, fmt.Errorf("no line items recognized")
	}

	return core.JobResultSubmission{
		MerchantName: receipt.MerchantName,
		PurchasedAt:  receipt.PurchasedAt,
		OCRText:      receipt.OCRText,
		Items:        items,
		Notes:        "extracted by heuristic parser",
	}, nil
}

// parseLine extracts one item from one receipt line.
func parseLine(line string) (core.ReceiptItem, bool) {
	line = strings.TrimSpace(line)
	if line == "" || skipRe.MatchString(line) {
		return core.ReceiptItem{}, false
	}

	name := line
	qty := 1.0
	unit := core.UnitCount

	var unitPrice *float64
	if m := priceRe.FindStringSubmatch(name); m != nil {
		if p, err := parseNumber(m[1]); err == nil && p > 0 {
			unitPrice = &p
		}
		name = strings.TrimSpace(priceRe.ReplaceAllString(name, ""))
	}

	if m := qtyUnitRe.FindStringSubmatch(name); m != nil {
		if q, err := parseNumber(m[1]); err == nil && q > 0 {
			qty = q
		}
		unit = core.NormalizeUnit(strings.ToLower(m[2]))
		name = strings.TrimSpace(qtyUnitRe.ReplaceAllString(name, ""))
	} else if m := countRe.FindStringSubmatch(name); m != nil {
		if q, err := strconv.Atoi(m[1]); err == nil && q > 0 {
			qty = float64(q)
		}
		name = strings.TrimSpace(countRe.ReplaceAllString(name, ""))
	}

	name = strings.Trim(name, " .-:\t")
	if name == "" || len(name) < 2 {
		return core.ReceiptItem{}, false
	}

	// Unit price on weighted lines is a line total; leave it as-is, the
	// ledger only tracks it as an observed price point.
	return core.ReceiptItem{
		RawName:   name,
		Quantity:  qty,
		Unit:      unit,
		Category:  guessCategory(name),
		UnitPrice: unitPrice,
	}, true
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

// Keyword tables checked in order; the first match wins, so "frozen
// pizza" lands in frozen before anything else gets a say.
var categoryKeywords = []struct {
	category core.ItemCategory
	words    []string
}{
	{core.CategoryFrozen, []string{"frozen", "ice cream"}},
	{core.CategoryDairy, []string{"milk", "cheese", "yogurt", "butter", "cream"}},
	{core.CategoryProtein, []string{"chicken", "beef", "pork", "fish", "salmon", "egg", "tofu", "turkey", "shrimp", "bean", "lentil"}},
	{core.CategoryProduce, []string{"tomato", "apple", "banana", "onion", "lettuce", "potato", "carrot", "pepper", "spinach", "avocado", "lemon", "garlic"}},
	{core.CategoryGrain, []string{"rice", "pasta", "bread", "flour", "oat", "cereal", "noodle", "tortilla"}},
	{core.CategoryCondiment, []string{"ketchup", "mustard", "sauce", "oil", "vinegar", "salt", "sugar", "spice", "honey", "mayo"}},
	{core.CategorySnack, []string{"chip", "cookie", "chocolate", "candy", "cracker", "popcorn"}},
	{core.CategoryBeverage, []string{"juice", "soda", "coffee", "tea", "water", "beer", "wine", "cola"}},
	{core.CategoryHousehold, []string{"towel", "paper", "soap", "detergent", "cleaner", "sponge", "foil", "bag"}},
}

// guessCategory maps an item name to a category by keyword.
func guessCategory(name string) core.ItemCategory {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				return entry.category
			}
		}
	}
	return core.CategoryOther
}
