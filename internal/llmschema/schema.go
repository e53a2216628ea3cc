// Package llmschema declares the JSON response schemas handed to the
// completion service and validates model output against them.
package llmschema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Type is the JSON type of a schema node.
type Type string

const (
	TypeObject Type = "object"
	TypeArray  Type = "array"
	TypeString Type = "string"
	TypeNumber Type = "number"
)

// Schema is a declarative response-schema node. It covers the subset of
// JSON Schema the insight categories need: objects with required fields,
// arrays with a single item shape, strings and numbers.
type Schema struct {
	Type        Type
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// Object builds an object schema. Fields listed in required must exist in props.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

// Array builds an array schema with homogeneous items.
func Array(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// String builds a string schema with an optional description.
func String(desc string) *Schema {
	return &Schema{Type: TypeString, Description: desc}
}

// Number builds a number schema with an optional description.
func Number(desc string) *Schema {
	return &Schema{Type: TypeNumber, Description: desc}
}

// ValidateJSON decodes raw and validates it against the schema.
func (s *Schema) ValidateJSON(raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("llmschema: decode: %w", err)
	}
	return s.Validate(v)
}

// Validate checks a decoded JSON value (map[string]any / []any / string /
// float64) against the schema. The error names the offending path.
func (s *Schema) Validate(v any) error {
	return s.validateAt(v, "$")
}

func (s *Schema) validateAt(v any, path string) error {
	if s == nil {
		return nil
	}
	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("llmschema: %s: expected object, got %T", path, v)
		}
		for _, req := range s.Required {
			if _, ok := obj[req]; !ok {
				return fmt.Errorf("llmschema: %s: missing required field %q", path, req)
			}
		}
		for name, sub := range s.Properties {
			fv, ok := obj[name]
			if !ok || fv == nil {
				continue
			}
			if err := sub.validateAt(fv, path+"."+name); err != nil {
				return err
			}
		}
		return nil
	case TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("llmschema: %s: expected array, got %T", path, v)
		}
		for i, item := range arr {
			if err := s.Items.validateAt(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("llmschema: %s: expected string, got %T", path, v)
		}
		return nil
	case TypeNumber:
		switch v.(type) {
		case float64, json.Number:
			return nil
		}
		return fmt.Errorf("llmschema: %s: expected number, got %T", path, v)
	default:
		return fmt.Errorf("llmschema: %s: unknown schema type %q", path, s.Type)
	}
}

// Fingerprint returns a stable textual identity of the schema, used as part
// of cache keys. Property names are emitted in sorted order.
func (s *Schema) Fingerprint() string {
	var b strings.Builder
	s.fingerprintInto(&b)
	return b.String()
}

func (s *Schema) fingerprintInto(b *strings.Builder) {
	if s == nil {
		b.WriteString("-")
		return
	}
	b.WriteString(string(s.Type))
	switch s.Type {
	case TypeObject:
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteByte('{')
		for _, name := range names {
			b.WriteString(name)
			b.WriteByte(':')
			s.Properties[name].fingerprintInto(b)
			b.WriteByte(';')
		}
		b.WriteByte('}')
	case TypeArray:
		b.WriteByte('[')
		s.Items.fingerprintInto(b)
		b.WriteByte(']')
	}
}
