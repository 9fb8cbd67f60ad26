package memory

import (
	"context"
	"sort"

	"github.com/aretw0/pathquiz/pkg/domain"
)

// Catalog is a read-only course catalog held in memory.
type Catalog struct {
	courses map[int]domain.Course
}

// NewCatalog builds a catalog from courses. Later duplicates win.
func NewCatalog(courses ...domain.Course) *Catalog {
	c := &Catalog{courses: make(map[int]domain.Course, len(courses))}
	for _, course := range courses {
		c.courses[course.ID] = course
	}
	return c
}

// NewSeededCatalog returns the site's course catalog.
func NewSeededCatalog() *Catalog {
	return NewCatalog(SeedCourses()...)
}

// CourseByID implements ports.CourseCatalog.
func (c *Catalog) CourseByID(ctx context.Context, id int) (domain.Course, error) {
	course, ok := c.courses[id]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}

// Courses implements ports.CourseCatalog.
func (c *Catalog) Courses(ctx context.Context) ([]domain.Course, error) {
	out := make([]domain.Course, 0, len(c.courses))
	for _, course := range c.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SeedCourses returns the courses featured on the site.
func SeedCourses() []domain.Course {
	return []domain.Course{
		{ID: 1, Title: "Web Development Fundamentals", Instructor: "John Smith",
			Description: "Learn the basics of web development including HTML, CSS, and JavaScript.",
			Level:       "Beginner", Duration: "8 weeks", Price: 49.99, Rating: 4.8, Students: 1234},
		{ID: 2, Title: "Data Science Essentials", Instructor: "Sarah Johnson",
			Description: "Master the fundamentals of data science and analytics.",
			Level:       "Intermediate", Duration: "10 weeks", Price: 59.99, Rating: 4.9, Students: 856},
		{ID: 3, Title: "Digital Marketing Masterclass", Instructor: "Mike Wilson",
			Description: "Comprehensive guide to modern digital marketing strategies.",
			Level:       "All Levels", Duration: "6 weeks", Price: 39.99, Rating: 4.7, Students: 2156},
		{ID: 4, Title: "Mobile App Development", Instructor: "Emily Chen",
			Description: "Build iOS and Android apps from scratch.",
			Level:       "Advanced", Duration: "12 weeks", Price: 69.99, Rating: 4.9, Students: 943},
		{ID: 5, Title: "Graphic Design for Beginners", Instructor: "David Brown",
			Description: "Master the fundamentals of graphic design and visual communication.",
			Level:       "Beginner", Duration: "8 weeks", Price: 44.99, Rating: 4.6, Students: 1567},
		{ID: 6, Title: "Business Analytics", Instructor: "Lisa Anderson",
			Description: "Learn to make data-driven business decisions.",
			Level:       "Intermediate", Duration: "10 weeks", Price: 54.99, Rating: 4.8, Students: 789},
	}
}
