// Package insight is the schema-aware map-reduce insight consolidation
// engine: it splits per-file code summaries into token-bounded chunks, runs
// one completion call per chunk under a shared concurrency limiter, merges
// the partial results by schema shape, and issues a final consolidating
// completion call. Small inputs take a single-pass path with no chunking.
package insight

import (
	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
)

// Category names one kind of insight extracted from the summary corpus.
type Category string

const (
	CategoryAppDescription         Category = "appDescription"
	CategoryTechnologies           Category = "technologies"
	CategoryBusinessProcesses      Category = "businessProcesses"
	CategoryExternalDependencies   Category = "externalDependencies"
	CategoryBoundedContexts        Category = "boundedContexts"
	CategoryPotentialMicroservices Category = "potentialMicroservices"
)

// Shape is the structural pattern of a category's output, driving how
// per-chunk partials are combined.
type Shape string

const (
	// ShapeArray: a single array-valued field.
	ShapeArray Shape = "array"
	// ShapeNested: a single field holding an object of array-valued sub-fields.
	ShapeNested Shape = "nested"
	// ShapeScalar: a single string-valued field.
	ShapeScalar Shape = "scalar"
)

// CategorySchema describes one category's output: its shape tag, the top
// level field name, the array-valued sub-fields for nested categories, and
// the canonical response schema handed to the completion service.
type CategorySchema struct {
	Category          Category
	Shape             Shape
	FieldName         string
	NestedArrayFields []string
	Schema            *llmschema.Schema
}
