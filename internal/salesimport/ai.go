package salesimport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

const DefaultModel = "gpt-4o"

type statement struct {
	Items []Line `json:"items" jsonschema:"description=Every sold item line found in the statement"`
}

// AIParser extracts statement lines through OpenAI structured output.
type AIParser struct {
	client *openai.Client
	model  string
}

func NewAIParser(apiKey string, model string, opts ...option.RequestOption) *AIParser {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &AIParser{client: &client, model: model}
}

func (p *AIParser) Name() string { return "ai" }

func (p *AIParser) Parse(ctx context.Context, platform domain.Platform, text string, catalogue Catalogue) (Result, error) {
	names := make([]string, 0, len(catalogue.MenuItems)+len(catalogue.SKUs))
	for _, item := range catalogue.MenuItems {
		names = append(names, fmt.Sprintf("- %s (%s)", item.Name, item.ID))
	}
	for _, sku := range catalogue.SKUs {
		names = append(names, fmt.Sprintf("- %s (%s)", sku.Name, sku.ID))
	}

	prompt := fmt.Sprintf(`You read %s sales statements for a momo and snacks kitchen.
Extract every sold item with its total quantity.
Rules:
1. Copy item names as written; prefer a catalogue name when the line clearly refers to it.
2. Quantities are plates or items ordered as billed by the platform, never pieces and never prices.
3. Skip totals, taxes, fees and payout lines.

Catalogue:
%s

Statement:
%s`, platform, strings.Join(names, "\n"), text)

	schemaMap, err := statementSchema()
	if err != nil {
		return Result{}, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(p.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "platform_sales_statement",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Sold item lines extracted from a delivery platform statement"),
				},
			},
		},
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return Result{}, fmt.Errorf("empty response content")
	}

	var parsed statement
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return Result{}, fmt.Errorf("failed to parse statement output: %w", err)
	}

	var out Result
	for _, line := range parsed.Items {
		name := strings.TrimSpace(line.Name)
		if name == "" || line.Quantity < 0 {
			out.Skipped = append(out.Skipped, fmt.Sprintf("%s %d", line.Name, line.Quantity))
			continue
		}
		out.Lines = append(out.Lines, Line{Name: name, Quantity: line.Quantity})
	}
	return out, nil
}

func statementSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	raw, err := json.Marshal(reflector.Reflect(&statement{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(raw, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}
