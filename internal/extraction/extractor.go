// Package extraction reads supplier invoice photos with a vision model and
// returns the purchase lines as structured data. Results are proposals for
// the operator to confirm, never applied to the catalog automatically.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/shopspring/decimal"
)

// ErrNoContent is returned when the model produced no usable output.
var ErrNoContent = errors.New("extraction returned no content")

// InvoiceLine is one purchased item read off the document.
type InvoiceLine struct {
	IngredientName string          `json:"ingredient_name"`
	Quantity       float64         `json:"quantity"`
	Unit           string          `json:"unit"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// InvoiceExtraction is the structured reading of one supplier invoice.
type InvoiceExtraction struct {
	Supplier          string        `json:"supplier"`
	DocumentDate      string        `json:"document_date"`
	DocumentReference string        `json:"document_reference"`
	Lines             []InvoiceLine `json:"lines"`
}

// Extractor turns invoice images into structured purchase data.
type Extractor interface {
	ExtractInvoice(ctx context.Context, imageURL string) (*InvoiceExtraction, error)
}

type openAIExtractor struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewExtractor creates an Extractor backed by the OpenAI vision API.
func NewExtractor(apiKey string) Extractor {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openAIExtractor{client: &client, model: openai.ChatModelGPT4o}
}

const invoicePrompt = `You read supplier invoices for an ice cream workshop.
Extract the purchase data from the attached document image and answer with a single JSON object:
{
  "supplier": "supplier company name",
  "document_date": "YYYY-MM-DD",
  "document_reference": "invoice or DDT number",
  "lines": [
    {"ingredient_name": "...", "quantity": 0.0, "unit": "kg|l|pcs", "price_per_unit": "0.00", "line_total": "0.00"}
  ]
}
Rules:
1. Prices are strings with at most four decimal places, in the document currency.
2. Normalize units to kg, l, or pcs where the conversion is unambiguous; otherwise keep the printed unit.
3. Omit lines you cannot read instead of guessing.
4. Answer with the JSON object only, no commentary.`

func (e *openAIExtractor) ExtractInvoice(ctx context.Context, imageURL string) (*InvoiceExtraction, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(invoicePrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoContent
	}

	raw := ExtractJSONBlock(resp.Choices[0].Message.Content)
	if raw == "" {
		return nil, ErrNoContent
	}

	var extraction InvoiceExtraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		return nil, fmt.Errorf("parsing extraction output: %w", err)
	}
	return &extraction, nil
}

// ExtractJSONBlock returns the first balanced top-level JSON object in s, or
// an empty string. Models occasionally wrap their answer in prose or code
// fences despite instructions; this recovers the object without a retry.
func ExtractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
