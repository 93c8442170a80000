// Package adapters はcoursesフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dynamicpro_backend/internal/feature/courses/domain/entity"
	"dynamicpro_backend/internal/feature/courses/usecase"
	"dynamicpro_backend/internal/platform/db"
)

// CourseModel はcoursesテーブルの行を表すGORMモデルです。
type CourseModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text;not null"`
	TeacherID   string    `gorm:"size:64;not null;index"`
	TeacherName string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"index"`
}

func (CourseModel) TableName() string { return "courses" }

// EnrollmentModel は受講登録です。(course_id, student_id) の複合主キーで重複登録を防ぎます。
type EnrollmentModel struct {
	CourseID    string    `gorm:"primaryKey;size:36"`
	StudentID   string    `gorm:"primaryKey;size:64;index"`
	StudentName string    `gorm:"size:255"`
	EnrolledAt  time.Time `gorm:"not null"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

type courseGorm struct {
	db *gorm.DB
}

var _ usecase.CourseRepository = (*courseGorm)(nil)

// NewCourseRepository は指定されたgorm.DB接続でCourseRepositoryを生成します。
func NewCourseRepository(db *gorm.DB) *courseGorm {
	return &courseGorm{db: db}
}

func (r *courseGorm) Create(ctx context.Context, c *entity.Course) error {
	m := CourseModel{
		ID:          uuid.NewString(),
		Title:       c.Title,
		Description: c.Description,
		TeacherID:   c.TeacherID,
		TeacherName: c.TeacherName,
		CreatedAt:   c.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	c.ID = m.ID
	return nil
}

func (r *courseGorm) FindByID(ctx context.Context, id string) (*entity.Course, error) {
	var m CourseModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrCourseNotFound
		}
		return nil, err
	}
	out, err := r.withStudents(ctx, []CourseModel{m})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (r *courseGorm) ListByTeacher(ctx context.Context, teacherID string) ([]entity.Course, error) {
	var rows []CourseModel
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withStudents(ctx, rows)
}

func (r *courseGorm) ListByStudent(ctx context.Context, studentID string) ([]entity.Course, error) {
	var rows []CourseModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.student_id = ?", studentID).
		Order("courses.created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withStudents(ctx, rows)
}

func (r *courseGorm) AddEnrollment(ctx context.Context, courseID string, e entity.Enrollment) error {
	err := r.db.WithContext(ctx).Create(&EnrollmentModel{
		CourseID:    courseID,
		StudentID:   e.StudentID,
		StudentName: e.StudentName,
		EnrolledAt:  e.EnrolledAt,
	}).Error
	if err != nil {
		if db.IsDuplicateKey(err) {
			return usecase.ErrAlreadyEnrolled
		}
		return err
	}
	return nil
}

// withStudents は1クエリで全コースの受講者を読み込みます。
func (r *courseGorm) withStudents(ctx context.Context, rows []CourseModel) ([]entity.Course, error) {
	out := make([]entity.Course, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.ID)
	}
	var enrollments []EnrollmentModel
	if err := r.db.WithContext(ctx).
		Where("course_id IN ?", ids).
		Order("enrolled_at ASC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	byCourse := make(map[string][]entity.Enrollment, len(rows))
	for _, e := range enrollments {
		byCourse[e.CourseID] = append(byCourse[e.CourseID], entity.Enrollment{
			StudentID:   e.StudentID,
			StudentName: e.StudentName,
			EnrolledAt:  e.EnrolledAt,
		})
	}

	for _, m := range rows {
		students := byCourse[m.ID]
		if students == nil {
			students = []entity.Enrollment{}
		}
		out = append(out, entity.Course{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			TeacherID:   m.TeacherID,
			TeacherName: m.TeacherName,
			Students:    students,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}
