package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/llm"
)

const itemsSchemaJSON = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "merchantName": {"type": "string"},
    "purchasedAt":  {"type": "string"},
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "quantity"],
        "properties": {
          "name":      {"type": "string", "minLength": 1},
          "quantity":  {"type": "number", "exclusiveMinimum": 0},
          "unit":      {"type": "string"},
          "category":  {"type": "string"},
          "unitPrice": {"type": "number"}
        }
      }
    }
  }
}`

var itemsSchema = jsonschema.MustCompileString("items.json", itemsSchemaJSON)

// LLM extracts line items through a language model. Unlike the planner
// there is no silent fallback here: an extraction error fails the job
// and the queue's retry policy takes over.
type LLM struct {
	client *llm.Client
}

// NewLLM wraps an llm.Client as an Extractor. Returns nil when the
// client is not configured.
func NewLLM(client *llm.Client) *LLM {
	if client == nil || !client.Configured() {
		return nil
	}
	return &LLM{client: client}
}

func (x *LLM) Name() string { return x.client.Model() }

// Extract sends the receipt content to the model and validates the
// reply before trusting it.
func (x *LLM) Extract(ctx context.Context, receipt *core.ReceiptUpload) (core.JobResultSubmission, error) {
	user := userPrompt(receipt)
	if user == "" {
		return core.JobResultSubmission{}, fmt.Errorf("receipt has no extractable content")
	}

	text, err := x.client.Complete(ctx, systemPrompt, user)
	if err != nil {
		return core.JobResultSubmission{}, fmt.Errorf("extractor: %w", err)
	}
	doc := []byte(llm.StripFences(text))

	var generic any
	if err := json.Unmarshal(doc, &generic); err != nil {
		return core.JobResultSubmission{}, fmt.Errorf("extractor: response is not JSON: %w", err)
	}
	if err := itemsSchema.Validate(generic); err != nil {
		return core.JobResultSubmission{}, fmt.Errorf("extractor: response failed schema: %w", err)
	}

	var parsed struct {
		MerchantName string `json:"merchantName"`
		PurchasedAt  string `json:"purchasedAt"`
		Items        []struct {
			Name      string   `json:"name"`
			Quantity  float64  `json:"quantity"`
			Unit      string   `json:"unit"`
			Category  string   `json:"category"`
			UnitPrice *float64 `json:"unitPrice"`
		} `json:"items"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return core.JobResultSubmission{}, fmt.Errorf("extractor: decode response: %w", err)
	}

	sub := core.JobResultSubmission{
		MerchantName: parsed.MerchantName,
		OCRText:      receipt.OCRText,
		Notes:        "extracted by " + x.client.Model(),
	}
	if sub.MerchantName == "" {
		sub.MerchantName = receipt.MerchantName
	}
	if parsed.PurchasedAt != "" {
		if t, err := time.Parse("2006-01-02", parsed.PurchasedAt); err == nil {
			sub.PurchasedAt = &t
		}
	}
	if sub.PurchasedAt == nil {
		sub.PurchasedAt = receipt.PurchasedAt
	}

	for _, it := range parsed.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		item := core.ReceiptItem{
			RawName:   name,
			Quantity:  it.Quantity,
			Unit:      core.NormalizeUnit(it.Unit),
			Category:  core.NormalizeCategory(it.Category),
			UnitPrice: it.UnitPrice,
		}
		if item.Category == core.CategoryOther {
			item.Category = guessCategory(name)
		}
		sub.Items = append(sub.Items, item)
	}
	if len(sub.Items) == 0 {
		return core.JobResultSubmission{}, fmt.Errorf("extractor: model returned no usable items")
	}
	return sub, nil
}

const systemPrompt = `You extract grocery line items from retail receipts. ` +
	`Respond with JSON only: {"merchantName","purchasedAt","items":[{"name","quantity","unit","category","unitPrice"}]}. ` +
	`unit is one of count|g|kg|ml|l|oz|lb|pack|box|bottle. ` +
	`category is one of grain|produce|protein|dairy|snack|beverage|household|condiment|frozen|other. ` +
	`purchasedAt is YYYY-MM-DD if visible. Skip totals, tax, and payment lines.`

func userPrompt(receipt *core.ReceiptUpload) string {
	var b strings.Builder
	if receipt.MerchantName != "" {
		fmt.Fprintf(&b, "Merchant hint: %s\n", receipt.MerchantName)
	}
	if strings.TrimSpace(receipt.OCRText) != "" {
		fmt.Fprintf(&b, "Receipt OCR text:\n%s\n", receipt.OCRText)
	} else if receipt.ReceiptImageDataURL != "" {
		// Image-only receipts ride as a data URL; providers that cannot
		// see images will fail and the job retries toward dead-letter.
		fmt.Fprintf(&b, "Receipt image (data URL):\n%s\n", receipt.ReceiptImageDataURL)
	}
	return b.String()
}
