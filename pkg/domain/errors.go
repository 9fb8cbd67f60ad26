package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidDefinition is returned when a quiz definition fails validation.
var ErrInvalidDefinition = errors.New("invalid quiz definition")

// ErrCourseNotFound is returned by catalogs when no course has the requested ID.
var ErrCourseNotFound = errors.New("course not found")

// ErrInvalidAnswers is returned when an answer sequence does not fit the definition.
var ErrInvalidAnswers = errors.New("invalid answers")
