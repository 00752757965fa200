package schema

import "sort"

// Schema maps header keys to their expected types.
type Schema map[string]Type

// Validate checks header against the schema and reports every failure, ordered by key.
// Keys missing from the schema are allowed.
func Validate(schema Schema, header map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		typ := schema[key]
		value, exists := header[key]
		if !exists {
			if IsRequired(typ) {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
