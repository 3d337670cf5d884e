package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is one desired output field: a name plus a type hint.
type Field struct {
	Name string
	Type string
}

// Schema is an ordered mapping from output field name to type hint.
// Order matters for prompt construction, so it is a slice rather than a
// map; on the wire it is the JSON object `{"<field>": "<hint>", ...}`.
type Schema []Field

// Supported type hints.
var validTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// Validate checks the schema for emptiness, duplicate fields, and
// unknown type hints.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schema must have at least one field")
	}
	seen := make(map[string]bool, len(s))
	for _, f := range s {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema field name must not be empty")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate schema field %q", f.Name)
		}
		seen[f.Name] = true
		if !validTypes[f.Type] {
			return fmt.Errorf("unknown type hint %q for field %q", f.Type, f.Name)
		}
	}
	return nil
}

// FieldNames returns the field names in schema order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// UnmarshalJSON decodes the wire form `{"field": "hint", ...}` while
// preserving key order, which encoding/json maps would lose.
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("schema must be a JSON object")
	}

	var fields Schema
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema key must be a string")
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		hint, ok := valTok.(string)
		if !ok {
			return fmt.Errorf("type hint for field %q must be a string", key)
		}

		fields = append(fields, Field{Name: key, Type: hint})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = fields
	return nil
}

// MarshalJSON encodes the schema back to its wire form in field order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		hint, err := json.Marshal(f.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(hint)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonSchema builds a JSON Schema document for best-effort validation of
// extractor output. Every field is nullable since missing page data is
// reported as null rather than omitted.
func (s Schema) jsonSchema() map[string]any {
	props := make(map[string]any, len(s))
	for _, f := range s {
		props[f.Name] = map[string]any{
			"type": []string{f.Type, "null"},
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             s.FieldNames(),
		"additionalProperties": false,
	}
}
