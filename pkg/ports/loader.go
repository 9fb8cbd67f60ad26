package ports

import (
	"context"

	"github.com/aretw0/pathquiz/pkg/domain"
)

// DefinitionLoader defines how the engine obtains its quiz definition.
type DefinitionLoader interface {
	// Load returns a validated definition.
	Load(ctx context.Context) (*domain.QuizDefinition, error)
}

// CourseCatalog is the external course lookup used at result time.
type CourseCatalog interface {
	// CourseByID returns domain.ErrCourseNotFound when the ID is unknown.
	CourseByID(ctx context.Context, id int) (domain.Course, error)

	// Courses lists the whole catalog, ordered by ID.
	Courses(ctx context.Context) ([]domain.Course, error)
}
