package insight

import (
	"fmt"
	"sort"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
)

// Registry maps each category to its schema. Entries are declared statically
// at construction and resolved once per generation; the Combiner switches on
// the shape tag instead of inspecting payloads at runtime.
type Registry struct {
	byCategory map[Category]CategorySchema
}

// NewRegistry returns the registry with every supported category declared.
func NewRegistry() *Registry {
	namedItem := llmschema.Object(map[string]*llmschema.Schema{
		"name":        llmschema.String("Short identifying name."),
		"description": llmschema.String("One-paragraph description."),
	}, "name", "description")

	entries := []CategorySchema{
		{
			Category:  CategoryAppDescription,
			Shape:     ShapeScalar,
			FieldName: "appDescription",
			Schema: llmschema.Object(map[string]*llmschema.Schema{
				"appDescription": llmschema.String("Concise description of the application's purpose and main workflow."),
			}, "appDescription"),
		},
		{
			Category:  CategoryTechnologies,
			Shape:     ShapeArray,
			FieldName: "technologies",
			Schema: llmschema.Object(map[string]*llmschema.Schema{
				"technologies": llmschema.Array(namedItem),
			}, "technologies"),
		},
		{
			Category:  CategoryBusinessProcesses,
			Shape:     ShapeArray,
			FieldName: "businessProcesses",
			Schema: llmschema.Object(map[string]*llmschema.Schema{
				"businessProcesses": llmschema.Array(llmschema.Object(map[string]*llmschema.Schema{
					"name":          llmschema.String("Process name."),
					"description":   llmschema.String("What the process achieves."),
					"keyActivities": llmschema.Array(llmschema.String("Business activity within the process.")),
				}, "name", "description")),
			}, "businessProcesses"),
		},
		{
			Category:  CategoryExternalDependencies,
			Shape:     ShapeArray,
			FieldName: "externalDependencies",
			Schema: llmschema.Object(map[string]*llmschema.Schema{
				"externalDependencies": llmschema.Array(llmschema.Object(map[string]*llmschema.Schema{
					"name":        llmschema.String("Dependency name."),
					"kind":        llmschema.String("database | api | queue | library | other"),
					"description": llmschema.String("How the codebase interacts with it."),
				}, "name", "kind")),
			}, "externalDependencies"),
		},
		{
			Category:          CategoryBoundedContexts,
			Shape:             ShapeNested,
			FieldName:         "domainModel",
			NestedArrayFields: []string{"boundedContexts", "aggregates", "entities"},
			Schema: llmschema.Object(map[string]*llmschema.Schema{
				"domainModel": llmschema.Object(map[string]*llmschema.Schema{
					"boundedContexts": llmschema.Array(namedItem),
					"aggregates":      llmschema.Array(namedItem),
					"entities":        llmschema.Array(namedItem),
				}, "boundedContexts", "aggregates", "entities"),
			}, "domainModel"),
		},
		{
			Category:  CategoryPotentialMicroservices,
			Shape:     ShapeArray,
			FieldName: "potentialMicroservices",
			Schema: llmschema.Object(map[string]*llmschema.Schema{
				"potentialMicroservices": llmschema.Array(llmschema.Object(map[string]*llmschema.Schema{
					"name":        llmschema.String("Candidate service name."),
					"description": llmschema.String("Responsibility of the candidate service."),
					"entities":    llmschema.Array(llmschema.String("Domain entity owned by the service.")),
					"operations":  llmschema.Array(llmschema.String("CRUD or business operation exposed.")),
				}, "name", "description")),
			}, "potentialMicroservices"),
		},
	}

	byCategory := make(map[Category]CategorySchema, len(entries))
	for _, e := range entries {
		byCategory[e.Category] = e
	}
	return &Registry{byCategory: byCategory}
}

// SchemaFor resolves a category. Unknown categories are a configuration
// error, not a degradable condition.
func (r *Registry) SchemaFor(c Category) (CategorySchema, error) {
	cs, ok := r.byCategory[c]
	if !ok {
		return CategorySchema{}, fmt.Errorf("insight: unknown category %q", c)
	}
	return cs, nil
}

// Categories lists all registered categories in stable order.
func (r *Registry) Categories() []Category {
	out := make([]Category, 0, len(r.byCategory))
	for c := range r.byCategory {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
