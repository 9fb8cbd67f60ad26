package domain

// ResolveResult maps a complete answer sequence to a result category.
//
// The rules run in a fixed order and each may only change the category:
//  1. the first answer selects the base category;
//  2. an experience answer at or above the threshold moves the default category
//     to the advancement category;
//  3. a time answer at or below the threshold moves any category other than the
//     default and the flexible one to the flexible category.
//
// Answers shorter than a rule's step index leave that rule inactive.
func ResolveResult(rules DecisionRules, answers []int) int {
	category := rules.DefaultCategory
	if len(answers) > 0 && answers[0] >= 0 && answers[0] < len(rules.Base) {
		category = rules.Base[answers[0]]
	}

	if answerAt(answers, rules.ExperienceStep) >= rules.ExperienceThreshold &&
		category == rules.DefaultCategory {
		category = rules.AdvancementCategory
	}

	if t := answerAt(answers, rules.TimeStep); t >= 0 && t <= rules.TimeThreshold &&
		category != rules.FlexibleCategory && category != rules.DefaultCategory {
		category = rules.FlexibleCategory
	}

	return category
}

func answerAt(answers []int, idx int) int {
	if idx < 0 || idx >= len(answers) {
		return -1
	}
	return answers[idx]
}
