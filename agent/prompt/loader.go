package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/dispatcher.txt
	dispatcherRaw string

	//go:embed template/decomposer.txt
	decomposerRaw string

	//go:embed template/aggregator.txt
	aggregatorRaw string

	//go:embed template/knowledge.txt
	knowledgeRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Dispatcher string
	Decomposer string
	Aggregator string
	Knowledge  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Dispatcher: strings.TrimSpace(dispatcherRaw),
		Decomposer: strings.TrimSpace(decomposerRaw),
		Aggregator: strings.TrimSpace(aggregatorRaw),
		Knowledge:  strings.TrimSpace(knowledgeRaw),
	}
}

// Render replaces each {{key}} placeholder with its value. Unknown placeholders are left as is.
// Templates contain literal JSON braces, so a format-string engine is not used here.
func Render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
