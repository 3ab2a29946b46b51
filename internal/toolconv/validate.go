package toolconv

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var schemaCache sync.Map

// ValidateInput compiles inputSchema (caching by its literal text) and
// validates decoded tool-call input against it. Callers use this
// optionally, before dispatching a tool call, when a ToolSpec's schema is
// strict enough to be worth enforcing client-side.
func ValidateInput(inputSchema, input json.RawMessage) error {
	schema, err := compileSchema(inputSchema)
	if err != nil {
		return fmt.Errorf("compile tool input schema: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(input, &decoded); err != nil {
		return fmt.Errorf("decode tool input: %w", err)
	}

	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("tool input invalid: %w", err)
	}
	return nil
}

func compileSchema(schema json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schema)
	if cached, ok := schemaCache.Load(key); ok {
		if compiled, ok := cached.(*jsonschema.Schema); ok {
			return compiled, nil
		}
	}

	compiled, err := jsonschema.CompileString("tool-input.schema.json", key)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}
