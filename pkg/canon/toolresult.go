package canon

import "encoding/json"

// ToolResultContent is a tagged union over the shapes a tool's output can
// take. Recursion inside Multiple is bounded by the recovery policy when
// truncating, not by this type itself.
type ToolResultContent interface {
	isToolResultContent()
}

// TextContent is a plain-text tool result.
type TextContent string

func (TextContent) isToolResultContent() {}

// JSONContent is a structured tool result.
type JSONContent struct {
	Value json.RawMessage
}

func (JSONContent) isToolResultContent() {}

// BinaryContent is an opaque tool result with a declared MIME type.
type BinaryContent struct {
	Data     []byte
	MimeType string
}

func (BinaryContent) isToolResultContent() {}

// MultipleContent is an ordered collection of sub-results.
type MultipleContent struct {
	Blocks []ToolResultContent
}

func (MultipleContent) isToolResultContent() {}

// Render renders content to a single string, the way every provider's
// request builder does when flattening a ToolResult onto the wire.
func Render(c ToolResultContent) string {
	switch v := c.(type) {
	case TextContent:
		return string(v)
	case JSONContent:
		return string(v.Value)
	case BinaryContent:
		return v.MimeType
	case MultipleContent:
		var out string
		for i, b := range v.Blocks {
			if i > 0 {
				out += "\n"
			}
			out += Render(b)
		}
		return out
	default:
		return ""
	}
}
