package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Type validates one header value.
type Type interface {
	// Name returns the type string accepted by ParseType (e.g., "string", "[int]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type basicType struct {
	name  string
	check func(any) error
}

func (t *basicType) Name() string             { return t.name }
func (t *basicType) Validate(value any) error { return t.check(value) }

type sliceType struct {
	elem Type
}

func (t *sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t *sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected list, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type requiredType struct {
	Type
}

func (t *requiredType) Name() string { return t.Type.Name() + "!" }

// String accepts strings.
func String() Type {
	return &basicType{name: "string", check: func(v any) error {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		return nil
	}}
}

// Int accepts whole numbers.
func Int() Type {
	return &basicType{name: "int", check: func(v any) error {
		f, ok := number(v)
		if !ok {
			return fmt.Errorf("expected int, got %T", v)
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("expected int, got %v (not a whole number)", v)
		}
		return nil
	}}
}

// Float accepts any number.
func Float() Type {
	return &basicType{name: "float", check: func(v any) error {
		if _, ok := number(v); !ok {
			return fmt.Errorf("expected float, got %T", v)
		}
		return nil
	}}
}

// Bool accepts booleans.
func Bool() Type {
	return &basicType{name: "bool", check: func(v any) error {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		return nil
	}}
}

// Slice accepts lists whose elements all match elem.
func Slice(elem Type) Type {
	return &sliceType{elem: elem}
}

// Required marks a key that every header must carry.
func Required(t Type) Type {
	return &requiredType{Type: t}
}

// Custom creates a type with a user-defined check. Custom types cannot be parsed from strings.
func Custom(name string, validate func(any) error) Type {
	return &basicType{name: name, check: validate}
}

// IsRequired reports whether t was wrapped with Required.
func IsRequired(t Type) bool {
	_, ok := t.(*requiredType)
	return ok
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseType converts a type string to a Type: "string", "int", "float", "bool",
// "[<type>]" for lists, with a trailing "!" for required keys.
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)
	if rest, ok := strings.CutSuffix(typeStr, "!"); ok {
		t, err := ParseType(rest)
		if err != nil {
			return nil, err
		}
		if IsRequired(t) {
			return nil, fmt.Errorf("unsupported type: %s!", rest)
		}
		return Required(t), nil
	}

	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elem, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		if IsRequired(elem) {
			return nil, fmt.Errorf("unsupported type: %s", typeStr)
		}
		return Slice(elem), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of header keys to type strings into a Schema.
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
