package insight

import (
	"fmt"
	"strings"
)

// PromptBuilder renders the completion prompt for a category. partial marks
// MAP calls that only see a subset of the summary corpus; the consolidating
// REDUCE call and the single-pass strategy pass partial=false.
type PromptBuilder interface {
	BuildPrompt(c Category, content string, partial bool) string
}

// NewPromptBuilder returns the default sectioned prompt builder.
func NewPromptBuilder() PromptBuilder { return sectionedBuilder{} }

type sectionedBuilder struct{}

var categoryPurpose = map[Category]string{
	CategoryAppDescription:         "Describe the application's overall purpose and main workflow.",
	CategoryTechnologies:           "List the key external and host platform technologies depended on.",
	CategoryBusinessProcesses:      "Identify the main business processes the application implements.",
	CategoryExternalDependencies:   "Identify external systems the application integrates with (databases, APIs, queues).",
	CategoryBoundedContexts:        "Derive a domain model: bounded contexts, aggregates and entities.",
	CategoryPotentialMicroservices: "Propose candidate microservices for decomposing this application.",
}

func (sectionedBuilder) BuildPrompt(c Category, content string, partial bool) string {
	purpose := categoryPurpose[c]
	if purpose == "" {
		purpose = fmt.Sprintf("Extract the %q insight from the provided material.", c)
	}

	var buf strings.Builder
	writeSection(&buf, "PURPOSE", "You are a senior software architect analyzing a legacy codebase.\n"+purpose)
	if partial {
		writeSection(&buf, "BACKGROUND",
			"The material below covers only a subset of the codebase's file summaries. "+
				"Report what this subset supports; later passes consolidate across subsets.")
	} else {
		writeSection(&buf, "BACKGROUND",
			"Consolidate the material below into one coherent result. "+
				"Merge semantically equivalent items even when their names differ, "+
				"de-duplicate, and keep the strongest description for each merged item.")
	}
	writeSection(&buf, "INPUT", content)
	writeSection(&buf, "CONSTRAINTS", strings.Join([]string{
		"- Base every item on the INPUT material; do not invent.",
		"- Keep names short and descriptions to one paragraph.",
	}, "\n"))
	writeSection(&buf, "OUTPUT_FORMAT", "JSON only, conforming exactly to the response schema.")
	return strings.TrimSpace(buf.String()) + "\n"
}

func writeSection(buf *strings.Builder, title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	fmt.Fprintf(buf, "[%s]\n%s\n\n", title, body)
}
