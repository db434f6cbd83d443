package extraction_test

import (
	"encoding/json"
	"testing"

	"gelateria_backend/internal/extraction"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"supplier":"Latteria Rossi"}`,
			want:  `{"supplier":"Latteria Rossi"}`,
		},
		{
			name:  "code fenced",
			input: "```json\n{\"supplier\":\"Latteria Rossi\"}\n```",
			want:  `{"supplier":"Latteria Rossi"}`,
		},
		{
			name:  "wrapped in prose",
			input: `Here is the extracted data: {"supplier":"Latteria Rossi"} as requested.`,
			want:  `{"supplier":"Latteria Rossi"}`,
		},
		{
			name:  "nested objects",
			input: `{"lines":[{"ingredient_name":"milk","quantity":10}]}`,
			want:  `{"lines":[{"ingredient_name":"milk","quantity":10}]}`,
		},
		{
			name:  "braces inside strings",
			input: `{"supplier":"Braces {and} Co.","document_reference":"A}B{C"}`,
			want:  `{"supplier":"Braces {and} Co.","document_reference":"A}B{C"}`,
		},
		{
			name:  "escaped quote inside string",
			input: `{"supplier":"Rossi \"Latteria\" Srl"}`,
			want:  `{"supplier":"Rossi \"Latteria\" Srl"}`,
		},
		{
			name:  "no object at all",
			input: "sorry, the image is unreadable",
			want:  "",
		},
		{
			name:  "unterminated object",
			input: `{"supplier":"Latteria Rossi"`,
			want:  "",
		},
		{
			name:  "only the first object",
			input: `{"a":1} {"b":2}`,
			want:  `{"a":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extraction.ExtractJSONBlock(tt.input)
			if got != tt.want {
				t.Errorf("ExtractJSONBlock(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractJSONBlockRoundTrip(t *testing.T) {
	// A recovered block must parse into the extraction shape.
	input := "The invoice reads as follows:\n```json\n" +
		`{"supplier":"Latteria Rossi","document_date":"2026-08-12","document_reference":"DDT 451",` +
		`"lines":[{"ingredient_name":"whole milk","quantity":25,"unit":"l","price_per_unit":"1.15","line_total":"28.75"}]}` +
		"\n```"

	raw := extraction.ExtractJSONBlock(input)
	if raw == "" {
		t.Fatal("no JSON block recovered")
	}
	var result extraction.InvoiceExtraction
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		t.Fatalf("recovered block does not parse: %v", err)
	}
	if result.Supplier != "Latteria Rossi" {
		t.Errorf("supplier = %q, want Latteria Rossi", result.Supplier)
	}
	if len(result.Lines) != 1 || result.Lines[0].Quantity != 25 {
		t.Errorf("lines = %+v, want one 25 l milk line", result.Lines)
	}
	if result.Lines[0].PricePerUnit.String() != "1.15" {
		t.Errorf("price per unit = %s, want 1.15", result.Lines[0].PricePerUnit)
	}
}
