// Package schema provides type validation for workflow state.
//
// It defines a small type system over domain.Value kinds (string, number, int,
// bool, list, map, any) with typed lists and custom validators. Graphs declare a
// schema as a map of state keys to type names; the engine checks the initial
// state against it before the first step runs.
//
// Basic usage:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "code":              "string",
//	    "quality_threshold": "number",
//	    "tags":              "[string]",
//	})
//	if err != nil {
//	    // unknown type name
//	}
//
//	if err := schema.Validate(s, state); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // *schema.ValidationError
//	    }
//	}
//
// Custom validators can be registered for domain-specific validation:
//
//	nonEmpty := schema.Custom("non_empty", func(v domain.Value) error {
//	    if v.Len() == 0 {
//	        return fmt.Errorf("must not be empty")
//	    }
//	    return nil
//	})
package schema
