package schema

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/flowrun/pkg/domain"
)

func TestBuiltinTypes(t *testing.T) {
	tests := []struct {
		typ     Type
		value   domain.Value
		wantErr bool
	}{
		{String(), domain.String("hello"), false},
		{String(), domain.String(""), false},
		{String(), domain.Int(42), true},
		{String(), domain.Null(), true},
		{Number(), domain.Number(3.14), false},
		{Number(), domain.Int(3), false},
		{Number(), domain.Bool(true), true},
		{Int(), domain.Int(42), false},
		{Int(), domain.Number(42.0), false},
		{Int(), domain.Number(42.5), true},
		{Int(), domain.String("42"), true},
		{Bool(), domain.Bool(false), false},
		{Bool(), domain.Int(0), true},
		{List(), domain.Strings([]string{"a"}), false},
		{List(), domain.String("a"), true},
		{Map(), domain.MustValue(map[string]any{"a": 1}), false},
		{Map(), domain.Strings(nil), true},
		{Any(), domain.Null(), false},
		{Slice(String()), domain.Strings([]string{"a", "b"}), false},
		{Slice(String()), domain.List(domain.String("a"), domain.Int(1)), true},
		{Slice(Int()), domain.List(), false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.typ.Name(), tt.value), func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCustomType(t *testing.T) {
	nonEmpty := Custom("non_empty", func(v domain.Value) error {
		if v.Len() == 0 {
			return fmt.Errorf("must not be empty")
		}
		return nil
	})

	if nonEmpty.Name() != "non_empty" {
		t.Errorf("Name() = %q, want non_empty", nonEmpty.Name())
	}
	if err := nonEmpty.Validate(domain.String("x")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := nonEmpty.Validate(domain.String("")); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"string", "string", false},
		{"float", "number", false},
		{" int ", "int", false},
		{"[string]", "[string]", false},
		{"[[bool]]", "[[bool]]", false},
		{"map", "map", false},
		{"[]", "", true},
		{"decimal", "", true},
		{"[decimal]", "", true},
	}

	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got.Name() != tt.want {
			t.Errorf("ParseType(%q).Name() = %q, want %q", tt.in, got.Name(), tt.want)
		}
	}
}

func TestSchemaJSON(t *testing.T) {
	var s Schema
	if err := json.Unmarshal([]byte(`{"code":"string","tags":"[string]"}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := s.TypeMap()["tags"]; got != "[string]" {
		t.Errorf("tags = %q, want [string]", got)
	}

	if err := json.Unmarshal([]byte(`{"code":"blob"}`), &s); err == nil {
		t.Error("expected error for unknown type name")
	}
}
