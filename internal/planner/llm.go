package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pantryos/backend/internal/core"
	"github.com/pantryos/backend/internal/llm"
)

// Response schemas enforced on the model's output before anything is
// trusted. Out-of-range scores and unknown enums survive validation on
// purpose; normalization clamps and coerces them afterwards.
const dailySchemaJSON = `{
  "type": "object",
  "required": ["meals"],
  "properties": {
    "meals": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "itemKeys", "score"],
        "properties": {
          "title":    {"type": "string", "minLength": 1},
          "cuisine":  {"type": "string"},
          "itemKeys": {"type": "array", "items": {"type": "string"}},
          "score":    {"type": "number"}
        }
      }
    }
  }
}`

const weeklySchemaJSON = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["itemKey", "itemName", "quantity", "score"],
        "properties": {
          "itemKey":   {"type": "string", "minLength": 1},
          "itemName":  {"type": "string"},
          "quantity":  {"type": "number", "exclusiveMinimum": 0},
          "unit":      {"type": "string"},
          "category":  {"type": "string"},
          "priority":  {"type": "string"},
          "score":     {"type": "number"},
          "rationale": {"type": "string"}
        }
      }
    }
  }
}`

var (
	dailySchema  = jsonschema.MustCompileString("daily.json", dailySchemaJSON)
	weeklySchema = jsonschema.MustCompileString("weekly.json", weeklySchemaJSON)
)

// LLM plans meals and purchases through a language model. It never
// surfaces provider errors; callers wrap it in WithFallback so a failed
// call degrades to the heuristic.
type LLM struct {
	client *llm.Client
}

// NewLLM wraps an llm.Client as a Planner. Returns nil when the client
// is not configured; callers treat nil as "heuristic only".
func NewLLM(client *llm.Client) *LLM {
	if client == nil || !client.Configured() {
		return nil
	}
	return &LLM{client: client}
}

// Model implements Planner.
func (p *LLM) Model() string { return p.client.Model() }

// GenerateDaily implements Planner.
func (p *LLM) GenerateDaily(ctx context.Context, in Input) ([]DailyIdea, error) {
	doc, err := p.complete(ctx, dailySystemPrompt, dailyUserPrompt(in), dailySchema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Meals []struct {
			Title    string   `json:"title"`
			Cuisine  string   `json:"cuisine"`
			ItemKeys []string `json:"itemKeys"`
			Score    float64  `json:"score"`
		} `json:"meals"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("planner: decode daily response: %w", err)
	}

	ideas := make([]DailyIdea, 0, len(parsed.Meals))
	for _, m := range parsed.Meals {
		keys := nonEmpty(m.ItemKeys)
		if len(keys) == 0 {
			continue
		}
		ideas = append(ideas, DailyIdea{
			Title:    m.Title,
			Cuisine:  m.Cuisine,
			ItemKeys: keys,
			Score:    core.Round3(core.Clamp01(m.Score)),
		})
	}
	return ideas, nil
}

// GenerateWeekly implements Planner.
func (p *LLM) GenerateWeekly(ctx context.Context, in Input) ([]WeeklyItem, error) {
	doc, err := p.complete(ctx, weeklySystemPrompt, weeklyUserPrompt(in), weeklySchema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Items []struct {
			ItemKey   string  `json:"itemKey"`
			ItemName  string  `json:"itemName"`
			Quantity  float64 `json:"quantity"`
			Unit      string  `json:"unit"`
			Category  string  `json:"category"`
			Priority  string  `json:"priority"`
			Score     float64 `json:"score"`
			Rationale string  `json:"rationale"`
		} `json:"items"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("planner: decode weekly response: %w", err)
	}

	items := make([]WeeklyItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		items = append(items, WeeklyItem{
			ItemKey:   it.ItemKey,
			ItemName:  it.ItemName,
			Quantity:  core.Round2(it.Quantity),
			Unit:      core.NormalizeUnit(it.Unit),
			Category:  core.NormalizeCategory(it.Category),
			Priority:  core.NormalizePriority(it.Priority),
			Score:     core.Round3(core.Clamp01(it.Score)),
			Rationale: it.Rationale,
		})
	}
	return items, nil
}

// complete runs one round trip and validates the reply against schema.
func (p *LLM) complete(ctx context.Context, system, user string, schema *jsonschema.Schema) (json.RawMessage, error) {
	text, err := p.client.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}
	doc := []byte(llm.StripFences(text))

	var generic any
	if err := json.Unmarshal(doc, &generic); err != nil {
		return nil, fmt.Errorf("planner: response is not JSON: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("planner: response failed schema: %w", err)
	}
	return doc, nil
}

const dailySystemPrompt = `You plan home dinners from pantry stock. ` +
	`Respond with JSON only: {"meals":[{"title","cuisine","itemKeys","score"}]}. ` +
	`itemKeys must come from the inventory given. score is 0..1. At most 4 meals.`

const weeklySystemPrompt = `You plan weekly grocery restocking from pantry stock. ` +
	`Respond with JSON only: {"items":[{"itemKey","itemName","quantity","unit","category","priority","score","rationale"}]}. ` +
	`Only propose items that are running low. score is 0..1, priority is high|medium|low.`

func dailyUserPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target date: %s\nInventory:\n", in.TargetDate)
	writeInventory(&b, in)
	return b.String()
}

func weeklyUserPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week of: %s\nInventory:\n", in.TargetDate)
	writeInventory(&b, in)
	return b.String()
}

func writeInventory(b *strings.Builder, in Input) {
	for _, lot := range in.Lots {
		fmt.Fprintf(b, "- %s (%s): %.4g %s, category %s",
			lot.ItemName, lot.ItemKey, lot.QuantityRemaining, lot.Unit, lot.Category)
		if lot.ExpiresAt != nil {
			fmt.Fprintf(b, ", expires %s", lot.ExpiresAt.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	if len(in.FeedbackByItem) > 0 {
		b.WriteString("Household feedback (-1 dislikes .. 1 likes):\n")
		for key, v := range in.FeedbackByItem {
			fmt.Fprintf(b, "- %s: %.3f\n", key, v)
		}
	}
}

func nonEmpty(keys []string) []string {
	out := keys[:0]
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			out = append(out, k)
		}
	}
	return out
}
