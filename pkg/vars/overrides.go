package vars

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/osbeck/labops/pkg/fault"
)

// DecodeOverrides parses raw as a flat JSON object into an ordered
// override list. Key order follows the JSON text, numbers decode as
// json.Number so their literal spelling survives into the rendered
// document, and a duplicated key keeps its first position with the last
// value, matching mapping semantics. Nested arrays or objects fail
// validation.
func DecodeOverrides(raw string) ([]Override, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fault.Validation("extra vars are not valid JSON: %v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fault.Validation("extra vars must be a JSON object")
	}

	var out []Override
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fault.Validation("extra vars are not valid JSON: %v", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fault.Validation("extra vars are not valid JSON: unexpected token %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fault.Validation("extra vars are not valid JSON: %v", err)
		}
		switch value.(type) {
		case nil, bool, string, json.Number:
		default:
			return nil, fault.Validation("extra var %q: nested values are not allowed", key)
		}
		if at, seen := index[key]; seen {
			out[at].Value = value
			continue
		}
		index[key] = len(out)
		out = append(out, Override{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fault.Validation("extra vars are not valid JSON: %v", err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		return nil, fault.Validation("extra vars carry trailing data after the JSON object: %v", tok)
	}
	return out, nil
}
