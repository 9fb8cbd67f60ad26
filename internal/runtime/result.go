package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/ports"
)

// Resolve runs the decision table on answers and looks up the recommended courses.
// A course missing from the catalog (or any course, with a nil catalog) becomes a
// placeholder. The result is always complete; a non-nil error reports catalog
// failures other than a missing course.
func Resolve(ctx context.Context, def *domain.QuizDefinition, catalog ports.CourseCatalog, answers []int) (*domain.Resolved, error) {
	category := domain.ResolveResult(def.Rules, answers)

	res, ok := def.ResultFor(category)
	if !ok {
		res = domain.Result{Category: category, Title: fmt.Sprintf("Result %d", category)}
	}

	refs := make([]domain.CourseRef, 0, len(res.Courses))
	var errs []error
	for _, id := range res.Courses {
		ref := domain.CourseRef{ID: id, Title: domain.PlaceholderTitle(id), Placeholder: true}
		if catalog != nil {
			course, err := catalog.CourseByID(ctx, id)
			switch {
			case err == nil:
				ref.Title = course.Title
				ref.Placeholder = false
			case !errors.Is(err, domain.ErrCourseNotFound):
				errs = append(errs, fmt.Errorf("course %d: %w", id, err))
			}
		}
		refs = append(refs, ref)
	}

	return &domain.Resolved{
		Index:       category,
		Title:       res.Title,
		Description: res.Description,
		Courses:     refs,
	}, errors.Join(errs...)
}

func (e *Engine) resolveLocked(ctx context.Context) *domain.Resolved {
	res, err := Resolve(ctx, e.def, e.catalog, e.session.Answers())
	if err != nil {
		e.logger.Warn("course lookup failed", "err", err)
	}
	return res
}

func (e *Engine) directiveLocked() domain.Directive {
	s := e.session
	n := e.def.StepCount()

	d := domain.Directive{
		SessionID:    s.ID,
		StepIndex:    s.StepIndex,
		StepCount:    n,
		LockHeld:     e.locked,
		Completed:    s.Completed,
		Illustration: e.illustration,
		Indicators:   make([]domain.Indicator, n),
	}

	for i := range d.Indicators {
		d.Indicators[i] = domain.Indicator{
			Index:     i,
			Active:    s.Completed || i <= s.StepIndex,
			Completed: i < len(s.Answered) && s.Answered[i],
		}
	}

	if s.Completed {
		d.Result = e.result
		return d
	}

	step := e.def.Steps[s.StepIndex]
	d.QuestionText = step.Prompt
	d.OptionLabels = append([]string(nil), step.Options...)
	d.CanGoBack = s.StepIndex > 0
	if sel, ok := s.Selected(); ok {
		d.SelectedOption = &sel
	}
	return d
}
