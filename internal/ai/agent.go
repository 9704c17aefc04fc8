package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"zenith-fieldservice/internal/core"
)

// ExtractorService turns pasted or OCR'd receipt text into a structured draft
// for operator review.
type ExtractorService interface {
	ExtractReceipt(ctx context.Context, receiptText string, knownParts string) (*core.ReceiptDraft, error)
}

type Extractor struct {
	client *openai.Client
}

func NewExtractor(apiKey string) *Extractor {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Extractor{client: &client}
}

// ExtractReceipt asks the model for a structured draft constrained by a JSON
// schema reflected from core.ReceiptDraft. The returned draft is normalized
// and validated; a draft the core rejects is treated as an extraction
// failure, not surfaced to the operator.
func (e *Extractor) ExtractReceipt(ctx context.Context, receiptText string, knownParts string) (*core.ReceiptDraft, error) {
	prompt := fmt.Sprintf(`You are a field-service back office assistant.
Your goal is to read a vendor receipt and extract its structure.
Rules:
1. Extract every priced line item. Skip subtotal, tax and total lines.
2. Quantities and unit costs must be exact decimal strings (e.g. "12.50").
3. The receipt date must be YYYY-MM-DD.
4. If a line matches one of the known part codes below, set part_code; otherwise leave it empty.
5. Provide a confidence score (0.0-1.0).
6. Explain your reasoning briefly.

Known part codes:
%s

Receipt text:
%s`, knownParts, receiptText)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "receipt_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A structured draft of a vendor receipt"),
				},
			},
		},
	}

	resp, err := e.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var draft core.ReceiptDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}

	return &draft, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.ReceiptDraft
	return reflector.Reflect(v)
}
