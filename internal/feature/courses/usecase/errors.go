package usecase

import "errors"

var (
	// ErrCourseNotFound is returned when no course has the given id.
	ErrCourseNotFound = errors.New("course not found")

	// ErrStudentNotFound is returned when the student to enrol does not exist or is not a student.
	ErrStudentNotFound = errors.New("student not found")

	// ErrAlreadyEnrolled is returned when the student is already enrolled in the course.
	ErrAlreadyEnrolled = errors.New("student already enrolled")

	// ErrForbidden is returned when the caller may not enrol this student into this course.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when required fields are missing.
	ErrInvalidInput = errors.New("invalid input")
)
