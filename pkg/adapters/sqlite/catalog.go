// Package sqlite provides a course catalog backed by an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/pathquiz/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS courses (
	id          INTEGER PRIMARY KEY,
	title       TEXT NOT NULL,
	instructor  TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	level       TEXT NOT NULL DEFAULT '',
	duration    TEXT NOT NULL DEFAULT '',
	price       REAL NOT NULL DEFAULT 0,
	rating      REAL NOT NULL DEFAULT 0,
	students    INTEGER NOT NULL DEFAULT 0
);`

const selectCourse = `
	SELECT id, title, instructor, description, level, duration, price, rating, students
	FROM courses`

// Catalog implements ports.CourseCatalog on SQLite.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
// ":memory:" gives a private in-memory catalog.
func Open(ctx context.Context, path string) (*Catalog, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Seed upserts courses in a single transaction.
func (c *Catalog) Seed(ctx context.Context, courses ...domain.Course) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO courses (id, title, instructor, description, level, duration, price, rating, students)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			instructor = excluded.instructor,
			description = excluded.description,
			level = excluded.level,
			duration = excluded.duration,
			price = excluded.price,
			rating = excluded.rating,
			students = excluded.students`)
	if err != nil {
		return fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	for _, course := range courses {
		if _, err := stmt.ExecContext(ctx, course.ID, course.Title, course.Instructor, course.Description,
			course.Level, course.Duration, course.Price, course.Rating, course.Students); err != nil {
			return fmt.Errorf("seed course %d: %w", course.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored courses.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

// CourseByID implements ports.CourseCatalog.
func (c *Catalog) CourseByID(ctx context.Context, id int) (domain.Course, error) {
	row := c.db.QueryRowContext(ctx, selectCourse+` WHERE id = ?`, id)
	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, fmt.Errorf("scan course %d: %w", id, err)
	}
	return course, nil
}

// Courses implements ports.CourseCatalog.
func (c *Catalog) Courses(ctx context.Context) ([]domain.Course, error) {
	rows, err := c.db.QueryContext(ctx, selectCourse+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, course)
	}
	return out, rows.Err()
}

// Ping verifies database connectivity.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (domain.Course, error) {
	var course domain.Course
	err := row.Scan(&course.ID, &course.Title, &course.Instructor, &course.Description,
		&course.Level, &course.Duration, &course.Price, &course.Rating, &course.Students)
	return course, err
}
