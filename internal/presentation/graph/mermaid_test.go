package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/pathquiz/internal/presentation/graph"
	"github.com/aretw0/pathquiz/internal/testutils"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	def := testutils.SiteDefinition(t)
	out := graph.GenerateMermaid(def, nil)

	for _, want := range []string{
		"graph TD",
		`step0[/"1. What do you want to achieve?"/]`,
		`decide{"resolve"}`,
		`result1(("Data Science Path"))`,
		"step0 --> step1",
		"step2 --> decide",
		"step1 -. back .-> step0",
		`decide -- "Work with data" --> result1`,
		`result0 -. "step 2 >= 3" .-> result3`,
		`result1 -. "step 3 <= 1" .-> result2`,
		`result3 -. "step 3 <= 1" .-> result2`,
	} {
		assert.Contains(t, out, want)
	}

	assert.NotContains(t, out, "step0 -. back")
	assert.NotContains(t, out, `result0 -. "step 3`, "default category is never moved by time")
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_EscapesQuotes(t *testing.T) {
	def := testutils.SiteDefinition(t)
	def.Steps[0].Prompt = `Pick "one"`

	out := graph.GenerateMermaid(def, nil)
	assert.Contains(t, out, `step0[/"1. Pick 'one'"/]`)
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	def := testutils.SiteDefinition(t)
	sess := domain.NewSession("s1", def.ID, def.StepCount())
	sess.Recorded = []int{1, 2}
	sess.Answered[0] = true
	sess.StepIndex = 1

	out := graph.GenerateMermaid(def, graph.OverlayFromSession(sess))
	assert.Contains(t, out, "class step0 visited;")
	assert.Contains(t, out, "class step1 current;")
	assert.Equal(t, 1, strings.Count(out, " visited;"))

	category := 1
	sess.Completed = true
	sess.StepIndex = def.StepCount()
	sess.Answered = []bool{true, true, true}
	sess.ResultIndex = &category

	out = graph.GenerateMermaid(def, graph.OverlayFromSession(sess))
	assert.Contains(t, out, "class result1 current;")
	assert.NotContains(t, out, "step2 current")
	assert.Equal(t, 3, strings.Count(out, " visited;"))
}
