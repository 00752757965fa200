// Package schema validates the free-form headers attached to navigation nodes.
//
// A Schema maps header keys to types. Keys are optional unless their type is
// wrapped with Required:
//
//	s := schema.Schema{
//	    "icon":  schema.String(),
//	    "order": schema.Required(schema.Int()),
//	    "tags":  schema.Slice(schema.String()),
//	}
//
//	if err := schema.Validate(s, header); err != nil {
//	    for _, e := range schema.ValidationErrors(err) { ... }
//	}
//
// Schemas are usually declared in configuration as type strings, where a trailing
// "!" marks a required key:
//
//	s, err := schema.ParseTypeMap(map[string]string{"icon": "string", "order": "int!"})
//
// Numbers are accepted in every representation the navigation decoders produce
// (Go integers, float64 from JSON, json.Number from strict Loam repositories).
package schema
