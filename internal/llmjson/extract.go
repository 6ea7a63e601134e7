// Package llmjson extracts and decodes structured JSON from LLM completions
// that may wrap the JSON payload in arbitrary surrounding prose.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mrwong99/adventure-engine/internal/apperr"
)

// ExtractObject returns the first top-level {...} substring of s, scanning
// for balanced braces and ignoring braces inside string literals.
func ExtractObject(s string) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// Decode extracts the first JSON object from raw and unmarshals it into v.
// Returns apperr.ErrParseFailure (wrapped with the underlying cause) if no
// balanced object is found or it fails to unmarshal — the one repair
// attempt the spec describes is this brace-balanced extraction itself,
// tolerating prose before/after the payload.
func Decode(raw string, v any) error {
	obj, ok := ExtractObject(raw)
	if !ok {
		return fmt.Errorf("llmjson: no JSON object found in completion: %w", apperr.ErrParseFailure)
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("llmjson: decoding %q: %w", obj, errors.Join(err, apperr.ErrParseFailure))
	}
	return nil
}

// ValidateAgainst validates instance (typically the result of json.Unmarshal
// into a map[string]any) against schema. The coordinator's ReAct action
// decoding does not call it; it uses Decode only.
func ValidateAgainst(schema *jsonschema.Schema, instance any) error {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("llmjson: resolving schema: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("llmjson: %w", errors.Join(apperr.ErrParseFailure, err))
	}
	return nil
}
