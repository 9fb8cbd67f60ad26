package domain

import (
	"fmt"
	"time"
)

// Default transition timings, matching the cross-fade used by the site.
const (
	DefaultFadeOut = 300 * time.Millisecond
	DefaultFadeIn  = 50 * time.Millisecond
)

// QuizDefinition is the immutable description of a quiz, loaded once at startup.
type QuizDefinition struct {
	ID         string           `json:"id" mapstructure:"id"`
	Title      string           `json:"title" mapstructure:"title"`
	Steps      []Step           `json:"steps" mapstructure:"steps"`
	Results    []Result         `json:"results" mapstructure:"results"`
	Rules      DecisionRules    `json:"rules" mapstructure:"rules"`
	Transition TransitionTiming `json:"transition" mapstructure:"transition"`
}

// Step is one question screen.
// Option order is display order and defines the answer index.
type Step struct {
	Prompt       string   `json:"prompt" mapstructure:"prompt"`
	Options      []string `json:"options" mapstructure:"options"`
	Illustration string   `json:"illustration,omitempty" mapstructure:"illustration"`
}

// Result is the recommendation shown when the quiz completes.
type Result struct {
	Category    int    `json:"category" mapstructure:"category"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
	Courses     []int  `json:"courses" mapstructure:"courses"`
}

// DecisionRules is the small decision table mapping answers to a result category.
type DecisionRules struct {
	// Base maps the first answer to a base category.
	Base            []int `json:"base" mapstructure:"base"`
	DefaultCategory int   `json:"default_category" mapstructure:"default_category"`

	ExperienceStep      int `json:"experience_step" mapstructure:"experience_step"`
	ExperienceThreshold int `json:"experience_threshold" mapstructure:"experience_threshold"`
	AdvancementCategory int `json:"advancement_category" mapstructure:"advancement_category"`

	TimeStep         int `json:"time_step" mapstructure:"time_step"`
	TimeThreshold    int `json:"time_threshold" mapstructure:"time_threshold"`
	FlexibleCategory int `json:"flexible_category" mapstructure:"flexible_category"`
}

// TransitionTiming configures the two chained callbacks of a step transition.
type TransitionTiming struct {
	FadeOut time.Duration `json:"fade_out" mapstructure:"fade_out"`
	FadeIn  time.Duration `json:"fade_in" mapstructure:"fade_in"`
}

// Total is the full duration the transition lock is held.
func (t TransitionTiming) Total() time.Duration {
	return t.FadeOut + t.FadeIn
}

// StepCount returns the number of steps.
func (d *QuizDefinition) StepCount() int {
	return len(d.Steps)
}

// ResultFor returns the result registered for a category.
func (d *QuizDefinition) ResultFor(category int) (Result, bool) {
	for _, r := range d.Results {
		if r.Category == category {
			return r, true
		}
	}
	return Result{}, false
}

// ApplyDefaults fills zero-valued timings.
func (d *QuizDefinition) ApplyDefaults() {
	if d.Transition.FadeOut <= 0 {
		d.Transition.FadeOut = DefaultFadeOut
	}
	if d.Transition.FadeIn <= 0 {
		d.Transition.FadeIn = DefaultFadeIn
	}
}

// Validate checks the structural integrity of the definition.
// All problems are wrapped with ErrInvalidDefinition.
func (d *QuizDefinition) Validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: at least one step is required", ErrInvalidDefinition)
	}

	for i, step := range d.Steps {
		if step.Prompt == "" {
			return fmt.Errorf("%w: step %d has no prompt", ErrInvalidDefinition, i)
		}
		if len(step.Options) == 0 {
			return fmt.Errorf("%w: step %d has no options", ErrInvalidDefinition, i)
		}
		seen := make(map[string]bool, len(step.Options))
		for _, opt := range step.Options {
			if seen[opt] {
				return fmt.Errorf("%w: step %d has duplicate option %q", ErrInvalidDefinition, i, opt)
			}
			seen[opt] = true
		}
	}

	r := d.Rules
	if len(r.Base) != len(d.Steps[0].Options) {
		return fmt.Errorf("%w: rules.base has %d entries, first step has %d options",
			ErrInvalidDefinition, len(r.Base), len(d.Steps[0].Options))
	}
	for name, idx := range map[string]int{"experience_step": r.ExperienceStep, "time_step": r.TimeStep} {
		if idx < 0 || idx >= len(d.Steps) {
			return fmt.Errorf("%w: rules.%s %d out of range", ErrInvalidDefinition, name, idx)
		}
	}

	categories := append([]int{r.DefaultCategory, r.AdvancementCategory, r.FlexibleCategory}, r.Base...)
	for _, c := range categories {
		if _, ok := d.ResultFor(c); !ok {
			return fmt.Errorf("%w: no result for category %d", ErrInvalidDefinition, c)
		}
	}

	return nil
}

// ValidateAnswers checks that answers is a complete, in-range answer sequence.
func (d *QuizDefinition) ValidateAnswers(answers []int) error {
	if len(answers) != len(d.Steps) {
		return fmt.Errorf("%w: expected %d answers, got %d", ErrInvalidAnswers, len(d.Steps), len(answers))
	}
	for i, a := range answers {
		if a < 0 || a >= len(d.Steps[i].Options) {
			return fmt.Errorf("%w: answer %d for step %d out of range [0,%d)", ErrInvalidAnswers, a, i, len(d.Steps[i].Options))
		}
	}
	return nil
}
