package domain

import "fmt"

// Course is a catalog entry recommended by quiz results.
type Course struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Instructor  string  `json:"instructor,omitempty"`
	Description string  `json:"description,omitempty"`
	Level       string  `json:"level,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Students    int     `json:"students,omitempty"`
}

// PlaceholderTitle is the label shown for a recommended course missing from the catalog.
func PlaceholderTitle(id int) string {
	return fmt.Sprintf("Course #%d", id)
}
