package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/flowrun/pkg/domain"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value domain.Value) error
}

// --- Built-in Type Implementations ---

// kindType validates values of a single domain.Kind.
type kindType struct {
	name string
	kind domain.Kind
}

func (t *kindType) Name() string { return t.name }

func (t *kindType) Validate(value domain.Value) error {
	if value.Kind() != t.kind {
		return fmt.Errorf("expected %s, got %s", t.name, value.Kind())
	}
	return nil
}

// IntType validates numbers that hold a whole value.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value domain.Value) error {
	n, ok := value.AsNumber()
	if !ok {
		return fmt.Errorf("expected int, got %s", value.Kind())
	}
	if n != math.Trunc(n) || math.IsInf(n, 0) {
		return fmt.Errorf("expected int, got number (not a whole number)")
	}
	return nil
}

// AnyType accepts every value, including null.
type AnyType struct{}

func (t *AnyType) Name() string { return "any" }

func (t *AnyType) Validate(domain.Value) error { return nil }

// SliceType validates lists of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value domain.Value) error {
	items, ok := value.AsList()
	if !ok {
		return fmt.Errorf("expected list, got %s", value.Kind())
	}

	// Validate each element
	for i, elem := range items {
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(domain.Value) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value domain.Value) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &kindType{name: "string", kind: domain.KindString} }

// Number creates a number type validator. Any finite or whole number passes.
func Number() Type { return &kindType{name: "number", kind: domain.KindNumber} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &kindType{name: "bool", kind: domain.KindBool} }

// List creates a validator for lists of any element.
func List() Type { return &kindType{name: "list", kind: domain.KindList} }

// Map creates a validator for map values.
func Map() Type { return &kindType{name: "map", kind: domain.KindMap} }

// Any creates a validator that only requires presence.
func Any() Type { return &AnyType{} }

// Slice creates a list type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(domain.Value) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a string type name to a Type.
// Supports "string", "number" (alias "float"), "int", "bool", "list", "map", "any"
// and list forms such as "[string]" or "[[int]]".
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	// Handle list types: [string], [int], etc.
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "number", "float":
		return Number(), nil
	case "int":
		return Int(), nil
	case "bool":
		return Bool(), nil
	case "list":
		return List(), nil
	case "map":
		return Map(), nil
	case "any":
		return Any(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"code": "string", "quality_threshold": "number"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
