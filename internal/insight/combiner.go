package insight

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedShape signals a category registered with a shape this
// combiner does not know. It is a programmer error and is never degraded to
// an absent result.
var ErrUnsupportedShape = errors.New("insight: unsupported schema shape")

// combinePartials merges the non-nil MAP outputs into one intermediate
// payload ready for the REDUCE call. The shape tag is resolved once from the
// category schema:
//
//   - ShapeArray: the single array field is concatenated across partials in
//     submission order; de-duplication is deferred to REDUCE.
//   - ShapeNested: each declared array sub-field is concatenated across
//     partials in submission order. A non-array sub-field is passed through
//     from the first partial that carries it, so nothing is silently lost
//     between MAP and REDUCE.
//   - ShapeScalar: each partial's non-empty string value is collected into a
//     candidate list under the field name; REDUCE picks or merges from it.
func combinePartials(cs CategorySchema, partials []map[string]any) (map[string]any, error) {
	switch cs.Shape {
	case ShapeArray:
		var merged []any
		for _, p := range partials {
			if arr, ok := p[cs.FieldName].([]any); ok {
				merged = append(merged, arr...)
			}
		}
		return map[string]any{cs.FieldName: merged}, nil

	case ShapeNested:
		nested := make(map[string]any)
		declared := make(map[string]bool, len(cs.NestedArrayFields))
		for _, sub := range cs.NestedArrayFields {
			declared[sub] = true
			nested[sub] = []any{}
		}
		for _, p := range partials {
			obj, ok := p[cs.FieldName].(map[string]any)
			if !ok {
				continue
			}
			for _, sub := range cs.NestedArrayFields {
				if arr, ok := obj[sub].([]any); ok {
					nested[sub] = append(nested[sub].([]any), arr...)
				}
			}
			for key, val := range obj {
				if declared[key] {
					continue
				}
				if _, exists := nested[key]; !exists {
					nested[key] = val
				}
			}
		}
		return map[string]any{cs.FieldName: nested}, nil

	case ShapeScalar:
		candidates := make([]any, 0, len(partials))
		for _, p := range partials {
			if s, ok := p[cs.FieldName].(string); ok && strings.TrimSpace(s) != "" {
				candidates = append(candidates, s)
			}
		}
		return map[string]any{cs.FieldName: candidates}, nil

	default:
		return nil, fmt.Errorf("%w: category %q declares shape %q", ErrUnsupportedShape, cs.Category, cs.Shape)
	}
}
