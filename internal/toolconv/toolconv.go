// Package toolconv converts canonical ToolSpecs into each backend's wire
// tool-schema shape, coercing an unparseable schema to an empty object the
// same way every provider's request builder coerces ToolUse.Input.
package toolconv

import "encoding/json"

// emptyObjectSchema is substituted whenever a ToolSpec's InputSchema fails
// to decode as a JSON object.
var emptyObjectSchema = map[string]any{"type": "object", "properties": map[string]any{}}

// DecodeSchema unmarshals raw into a generic value, substituting an empty
// object schema on any decode failure.
func DecodeSchema(raw json.RawMessage) any {
	if len(raw) == 0 {
		return emptyObjectSchema
	}
	var schema any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return emptyObjectSchema
	}
	if _, ok := schema.(map[string]any); !ok {
		return emptyObjectSchema
	}
	return schema
}

// BedrockClaudeTool is the Claude wire shape for one tool.
type BedrockClaudeTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"input_schema"`
}

// BedrockNovaToolSpec is the Nova wire shape for one tool, nested under
// toolConfig.tools[].toolSpec.
type BedrockNovaToolSpec struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	InputSchema BedrockNovaSchema `json:"inputSchema"`
}

// BedrockNovaSchema wraps the raw schema under a "json" key per Nova's
// toolConfig shape.
type BedrockNovaSchema struct {
	JSON any `json:"json"`
}

// OpenAIFunctionTool is the OpenAI-compatible wire shape for one tool:
// {type:"function", function:{name, description, parameters}}.
type OpenAIFunctionTool struct {
	Type     string             `json:"type"`
	Function OpenAIFunctionSpec `json:"function"`
}

// OpenAIFunctionSpec is the nested function descriptor of OpenAIFunctionTool.
type OpenAIFunctionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// Input describes a tool to be converted; callers pass the fields of a
// canon.ToolSpec directly; this package does not import pkg/canon.
type Input struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToBedrockClaude converts specs into Claude wire-format tools.
func ToBedrockClaude(specs []Input) []BedrockClaudeTool {
	out := make([]BedrockClaudeTool, len(specs))
	for i, s := range specs {
		out[i] = BedrockClaudeTool{Name: s.Name, Description: s.Description, InputSchema: DecodeSchema(s.InputSchema)}
	}
	return out
}

// ToBedrockNova converts specs into Nova wire-format tool specs.
func ToBedrockNova(specs []Input) []BedrockNovaToolSpec {
	out := make([]BedrockNovaToolSpec, len(specs))
	for i, s := range specs {
		out[i] = BedrockNovaToolSpec{
			Name:        s.Name,
			Description: s.Description,
			InputSchema: BedrockNovaSchema{JSON: DecodeSchema(s.InputSchema)},
		}
	}
	return out
}

// ToOpenAI converts specs into OpenAI-compatible wire-format tools.
func ToOpenAI(specs []Input) []OpenAIFunctionTool {
	out := make([]OpenAIFunctionTool, len(specs))
	for i, s := range specs {
		out[i] = OpenAIFunctionTool{
			Type: "function",
			Function: OpenAIFunctionSpec{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  DecodeSchema(s.InputSchema),
			},
		}
	}
	return out
}
