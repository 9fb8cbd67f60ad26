package domain_test

import (
	"testing"

	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/stretchr/testify/assert"
)

var siteRules = domain.DecisionRules{
	Base:                []int{0, 1, 2, 3},
	DefaultCategory:     0,
	ExperienceStep:      1,
	ExperienceThreshold: 2,
	AdvancementCategory: 3,
	TimeStep:            2,
	TimeThreshold:       0,
	FlexibleCategory:    2,
}

func TestResolveResult_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		answers []int
		want    int
	}{
		{"new career, beginner, low time", []int{0, 0, 0}, 0},
		{"specific skills, advanced, low time", []int{2, 3, 0}, 2},
		{"new career, advanced, low time", []int{0, 3, 0}, 2},
		{"new career, advanced, plenty of time", []int{0, 3, 3}, 3},
		{"data, beginner, low time", []int{1, 0, 0}, 2},
		{"data, beginner, plenty of time", []int{1, 0, 2}, 1},
		{"grow role, intermediate, medium time", []int{3, 2, 1}, 3},
		{"new career, threshold experience, medium time", []int{0, 2, 1}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ResolveResult(siteRules, tt.answers))
		})
	}
}

func TestResolveResult_Deterministic(t *testing.T) {
	answers := []int{0, 3, 0}
	first := domain.ResolveResult(siteRules, answers)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, domain.ResolveResult(siteRules, answers))
	}
	assert.Equal(t, []int{0, 3, 0}, answers, "input must not be mutated")
}

func TestResolveResult_ShortAnswers(t *testing.T) {
	assert.Equal(t, 0, domain.ResolveResult(siteRules, nil))
	assert.Equal(t, 1, domain.ResolveResult(siteRules, []int{1}))
	assert.Equal(t, 3, domain.ResolveResult(siteRules, []int{0, 3}))
}
