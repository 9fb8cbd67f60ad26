package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/pathquiz/pkg/domain"
)

// GraphOverlay contains session state to highlight on the graph.
type GraphOverlay struct {
	AnsweredSteps []int
	CurrentStep   int
	// ResultCategory is the reached result, or -1 while in progress.
	ResultCategory int
}

// OverlayFromSession builds an overlay from a session snapshot.
func OverlayFromSession(s *domain.Session) *GraphOverlay {
	o := &GraphOverlay{CurrentStep: s.StepIndex, ResultCategory: -1}
	for i, done := range s.Answered {
		if done {
			o.AnsweredSteps = append(o.AnsweredSteps, i)
		}
	}
	if s.Completed {
		o.CurrentStep = -1
		if s.ResultIndex != nil {
			o.ResultCategory = *s.ResultIndex
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a quiz definition.
// It applies semantic styling:
// - Steps: [/Parallelogram/]
// - Decision: {Rhombus}
// - Results: ((Circle))
// Back navigation is drawn dotted; rule overrides are labelled with their threshold.
func GenerateMermaid(def *domain.QuizDefinition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, step := range def.Steps {
		fmt.Fprintf(&sb, "    %s[/\"%d. %s\"/]\n", stepID(i), i+1, escape(step.Prompt))
	}
	sb.WriteString("    decide{\"resolve\"}\n")
	for _, r := range def.Results {
		fmt.Fprintf(&sb, "    %s((\"%s\"))\n", resultID(r.Category), escape(r.Title))
	}

	for i := range def.Steps {
		next := "decide"
		if i+1 < len(def.Steps) {
			next = stepID(i + 1)
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", stepID(i), next)
		if i > 0 {
			fmt.Fprintf(&sb, "    %s -. back .-> %s\n", stepID(i), stepID(i-1))
		}
	}

	rules := def.Rules
	if len(def.Steps) > 0 {
		for opt, category := range rules.Base {
			label := fmt.Sprintf("option %d", opt+1)
			if opt < len(def.Steps[0].Options) {
				label = def.Steps[0].Options[opt]
			}
			fmt.Fprintf(&sb, "    decide -- \"%s\" --> %s\n", escape(label), resultID(category))
		}
	}
	fmt.Fprintf(&sb, "    %s -. \"step %d >= %d\" .-> %s\n",
		resultID(rules.DefaultCategory), rules.ExperienceStep+1, rules.ExperienceThreshold+1, resultID(rules.AdvancementCategory))
	overridable := map[int]bool{}
	for _, c := range append([]int{rules.AdvancementCategory}, rules.Base...) {
		if c != rules.DefaultCategory && c != rules.FlexibleCategory && !overridable[c] {
			overridable[c] = true
			fmt.Fprintf(&sb, "    %s -. \"step %d <= %d\" .-> %s\n",
				resultID(c), rules.TimeStep+1, rules.TimeThreshold+1, resultID(rules.FlexibleCategory))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, i := range overlay.AnsweredSteps {
			if i < 0 || i >= len(def.Steps) || seen[i] {
				continue
			}
			seen[i] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", stepID(i))
		}

		switch {
		case overlay.ResultCategory >= 0:
			fmt.Fprintf(&sb, "    class %s current;\n", resultID(overlay.ResultCategory))
		case overlay.CurrentStep >= 0 && overlay.CurrentStep < len(def.Steps):
			fmt.Fprintf(&sb, "    class %s current;\n", stepID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func stepID(i int) string {
	return fmt.Sprintf("step%d", i)
}

func resultID(category int) string {
	return fmt.Sprintf("result%d", category)
}

// escape replaces double quotes, which end a Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
