package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/starford/swashbuckle/internal/apperr"
)

// Response is the answer returned by the chat backend.
type Response struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

const responseSchemaURL = "https://swashbuckle.local/schema/chat-response.json"

const responseSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["response", "sources"],
  "properties": {
    "response": {"type": "string"},
    "sources": {"type": "array", "items": {"type": "string"}}
  }
}`

var schema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(responseSchema), &doc); err != nil {
		panic(fmt.Sprintf("chat: response schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(responseSchemaURL, doc); err != nil {
		panic(fmt.Sprintf("chat: response schema: %v", err))
	}
	s, err := compiler.Compile(responseSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("chat: response schema: %v", err))
	}
	return s
}

// ParseResponse validates and decodes a backend payload. Anything that is
// not JSON or does not match the expected shape is ErrMalformedResponse.
func ParseResponse(data []byte) (*Response, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("chat: decode: %w: %v", apperr.ErrMalformedResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("chat: %w: %s", apperr.ErrMalformedResponse, firstLine(err.Error()))
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("chat: decode: %w: %v", apperr.ErrMalformedResponse, err)
	}
	if resp.Sources == nil {
		resp.Sources = []string{}
	}
	return &resp, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
