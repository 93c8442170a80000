// Package usecase はコースと受講登録のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	authentity "dynamicpro_backend/internal/feature/auth/domain/entity"
	authusecase "dynamicpro_backend/internal/feature/auth/usecase"
	"dynamicpro_backend/internal/feature/courses/domain/entity"
)

// CourseRepository はコースデータの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CourseRepository interface {
	// Create はコースを保存し、course.IDを設定します。
	Create(ctx context.Context, course *entity.Course) error
	// FindByID はコースを受講者付きで取得します。存在しない場合はErrCourseNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.Course, error)
	// ListByTeacher は教師が担当するコースを返します。
	ListByTeacher(ctx context.Context, teacherID string) ([]entity.Course, error)
	// ListByStudent は学生が受講しているコースを返します。
	ListByStudent(ctx context.Context, studentID string) ([]entity.Course, error)
	// AddEnrollment は受講登録を追加します。重複時はErrAlreadyEnrolledを返します。
	AddEnrollment(ctx context.Context, courseID string, e entity.Enrollment) error
}

// StudentLookup は受講登録対象のユーザーをCredential Storeから取得します。
type StudentLookup interface {
	FindByID(ctx context.Context, id string) (*authentity.User, error)
}

// CreateCourseInput はコース作成の入力値です。
type CreateCourseInput struct {
	Title       string
	Description string
}

// coursesUsecase はコース操作のユースケースを定義します。
type coursesUsecase struct {
	courses CourseRepository
	users   StudentLookup
	now     func() time.Time
}

// NewCoursesUsecase はcoursesUsecaseの新しいインスタンスを生成します。
func NewCoursesUsecase(courses CourseRepository, users StudentLookup) *coursesUsecase {
	return &coursesUsecase{courses: courses, users: users, now: time.Now}
}

// ListCourses はロールに応じたコース一覧を返します。
// 教師は担当コース、学生は受講中のコースのみが対象です。
func (u *coursesUsecase) ListCourses(ctx context.Context, caller *authentity.User) ([]entity.Course, error) {
	var (
		courses []entity.Course
		err     error
	)
	switch caller.Role {
	case authentity.RoleTeacher:
		courses, err = u.courses.ListByTeacher(ctx, caller.ID)
	case authentity.RoleStudent:
		courses, err = u.courses.ListByStudent(ctx, caller.ID)
	default:
		return []entity.Course{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// CreateCourse はコースを作成します。教師のみ（ルーターのRequireRoleで保証）。
func (u *coursesUsecase) CreateCourse(ctx context.Context, teacher *authentity.User, in CreateCourseInput) (*entity.Course, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrInvalidInput)
	}

	course := &entity.Course{
		Title:       title,
		Description: description,
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		Students:    []entity.Enrollment{},
		CreatedAt:   u.now(),
	}
	if err := u.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

// Enroll は学生をコースに登録します。
// 教師は自分のコースにのみ、学生は自分自身のみを登録できます。
func (u *coursesUsecase) Enroll(ctx context.Context, caller *authentity.User, courseID, studentID string) (*entity.Course, error) {
	studentID = strings.TrimSpace(studentID)
	if courseID == "" || studentID == "" {
		return nil, fmt.Errorf("%w: course id and student id are required", ErrInvalidInput)
	}

	course, err := u.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case authentity.RoleTeacher:
		if course.TeacherID != caller.ID {
			return nil, ErrForbidden
		}
	case authentity.RoleStudent:
		if studentID != caller.ID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	student, err := u.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, authusecase.ErrUserNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if student.Role != authentity.RoleStudent {
		return nil, ErrStudentNotFound
	}

	if err := u.courses.AddEnrollment(ctx, course.ID, entity.Enrollment{
		StudentID:   student.ID,
		StudentName: student.Name,
		EnrolledAt:  u.now(),
	}); err != nil {
		return nil, err
	}

	return u.courses.FindByID(ctx, course.ID)
}
