package tool

import (
	"context"
	"encoding/json"
)

// Tool is one callable operation exposed over MCP and the CLI. Schema
// returns a JSON Schema (draft-07) object describing the input; Execute
// receives input already validated against it and returns a JSON-encodable
// result.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]interface{}
	Execute(ctx context.Context, input map[string]interface{}) (any, error)
}

func stringArg(input map[string]interface{}, key string) string {
	value, _ := input[key].(string)
	return value
}

func boolArg(input map[string]interface{}, key string) bool {
	value, _ := input[key].(bool)
	return value
}

// intArg tolerates the decodings a JSON integer can arrive as.
func intArg(input map[string]interface{}, key string) (int, bool) {
	switch v := input[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
