// Package entity defines the domain entities for the courses feature.
package entity

import "time"

// Course is taught by exactly one teacher.
type Course struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	TeacherID   string       `json:"teacherId"`
	TeacherName string       `json:"teacherName"`
	Students    []Enrollment `json:"students"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Enrollment records a student joining a course.
type Enrollment struct {
	StudentID   string    `json:"id"`
	StudentName string    `json:"name"`
	EnrolledAt  time.Time `json:"enrolledAt"`
}
