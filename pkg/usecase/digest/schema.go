package digest

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/tubenote/pkg/model"
	"google.golang.org/genai"
)

// responseSchema is the structured-output schema sent with the Gemini
// request. It must stay in sync with model.Summary.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"full_summary": {
				Type:        genai.TypeString,
				Description: "A comprehensive summary of the transcript in markdown format",
			},
			"extracted_snippets": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"context": {
							Type:        genai.TypeString,
							Description: "The specific text or fact extracted from the transcript",
						},
						"entities": {
							Type:        genai.TypeArray,
							Description: "Key resources, people, or concepts involved",
							Items:       &genai.Schema{Type: genai.TypeString},
						},
						"event_date": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"human_readable": {
									Type:        genai.TypeString,
									Description: "The date as it appears in the text, or 'null' if not specific",
								},
								"date_start_iso": {
									Type:        genai.TypeString,
									Description: "ISO format start date, or null",
								},
								"date_end_iso": {
									Type:        genai.TypeString,
									Description: "ISO format end date, or null",
								},
							},
						},
					},
					Required: []string{"context", "entities", "event_date"},
				},
			},
		},
		Required: []string{"full_summary", "extracted_snippets"},
	}
}

// summarySchema is the JSON Schema equivalent used to validate what the
// model actually returned; structured output does not guarantee schema
// conformance on every response.
var summarySchema = mustResolveSummarySchema()

func mustResolveSummarySchema() *jsonschema.Resolved {
	schema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"full_summary", "extracted_snippets"},
		Properties: map[string]*jsonschema.Schema{
			"full_summary": {Type: "string"},
			"extracted_snippets": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"context", "entities", "event_date"},
					Properties: map[string]*jsonschema.Schema{
						"context": {Type: "string"},
						"entities": {
							Type:  "array",
							Items: &jsonschema.Schema{Type: "string"},
						},
						"event_date": {
							Type: "object",
							// the model emits JSON null as well as the string "null"
							Properties: map[string]*jsonschema.Schema{
								"human_readable": {Types: []string{"string", "null"}},
								"date_start_iso": {Types: []string{"string", "null"}},
								"date_end_iso":   {Types: []string{"string", "null"}},
							},
						},
					},
				},
			},
		},
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}

// parseSummary validates the raw model output against the digest schema and
// decodes it.
func parseSummary(text string) (*model.Summary, error) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, goerr.Wrap(err, "model returned invalid JSON")
	}

	if err := summarySchema.Validate(raw); err != nil {
		return nil, goerr.Wrap(err, "model response does not match digest schema")
	}

	var summary model.Summary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		return nil, goerr.Wrap(err, "failed to decode summary")
	}

	return &summary, nil
}
