// Package handler はcoursesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dynamicpro_backend/internal/api"
	authentity "dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/courses/domain/entity"
	"dynamicpro_backend/internal/feature/courses/transport/http/dto"
	"dynamicpro_backend/internal/feature/courses/usecase"
	jwtmw "dynamicpro_backend/internal/platform/jwt"
)

// CoursesUsecase はコース操作のユースケースインターフェースを定義します。
type CoursesUsecase interface {
	ListCourses(ctx context.Context, caller *authentity.User) ([]entity.Course, error)
	CreateCourse(ctx context.Context, teacher *authentity.User, in usecase.CreateCourseInput) (*entity.Course, error)
	Enroll(ctx context.Context, caller *authentity.User, courseID, studentID string) (*entity.Course, error)
}

// CoursesHandler はコースのHTTPリクエストを処理します。
// すべてのエンドポイントはRequireRoleの後に登録します。
type CoursesHandler struct {
	uc   CoursesUsecase
	demo bool
}

// NewCoursesHandler は指定されたusecaseでCoursesHandlerの新しいインスタンスを生成します。
func NewCoursesHandler(uc CoursesUsecase, demo bool) *CoursesHandler {
	return &CoursesHandler{uc: uc, demo: demo}
}

// List はロールに応じたコース一覧を返します。
//
// エンドポイント例:
// GET /courses
func (h *CoursesHandler) List(c *gin.Context) {
	user, ok := callerFrom(c)
	if !ok {
		return
	}
	courses, err := h.uc.ListCourses(c.Request.Context(), user)
	if err != nil {
		slog.Error("list courses failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, api.NewError(api.CodeUnavailable, "service unavailable"))
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Data: courses, Demo: h.demo})
}

// Create はコースを作成します。
//
// エンドポイント例:
// POST /courses
func (h *CoursesHandler) Create(c *gin.Context) {
	user, ok := callerFrom(c)
	if !ok {
		return
	}

	var req dto.CreateCourseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "title and description are required"))
		return
	}

	course, err := h.uc.CreateCourse(c.Request.Context(), user, usecase.CreateCourseInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "title and description are required"))
			return
		}
		slog.Error("create course failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, api.NewError(api.CodeUnavailable, "service unavailable"))
		return
	}

	slog.Info("course created", "course_id", course.ID, "teacher_id", user.ID)
	c.JSON(http.StatusCreated, api.DataResponse{Data: course, Demo: h.demo})
}

// Enroll は学生をコースに登録します。
//
// エンドポイント例:
// POST /courses/:id/enrollments
func (h *CoursesHandler) Enroll(c *gin.Context) {
	user, ok := callerFrom(c)
	if !ok {
		return
	}

	var req dto.EnrollReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "studentId is required"))
		return
	}

	course, err := h.uc.Enroll(c.Request.Context(), user, c.Param("id"), req.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "studentId is required"))
		case errors.Is(err, usecase.ErrCourseNotFound):
			c.JSON(http.StatusNotFound, api.NewError(api.CodeNotFound, "course not found"))
		case errors.Is(err, usecase.ErrStudentNotFound):
			c.JSON(http.StatusNotFound, api.NewError(api.CodeNotFound, "student not found"))
		case errors.Is(err, usecase.ErrForbidden):
			slog.Warn("enrollment forbidden", "user_id", user.ID, "course_id", c.Param("id"), "student_id", req.StudentID)
			c.JSON(http.StatusForbidden, api.NewError(api.CodeForbidden, "not allowed to enrol this student in this course"))
		case errors.Is(err, usecase.ErrAlreadyEnrolled):
			c.JSON(http.StatusConflict, api.NewError(api.CodeConflict, "student already enrolled"))
		default:
			slog.Error("enrollment failed", "user_id", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, api.NewError(api.CodeUnavailable, "service unavailable"))
		}
		return
	}

	slog.Info("student enrolled", "course_id", course.ID, "student_id", req.StudentID)
	c.JSON(http.StatusOK, api.DataResponse{Data: course, Demo: h.demo})
}

func callerFrom(c *gin.Context) (*authentity.User, bool) {
	user, ok := jwtmw.UserFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
		return nil, false
	}
	return user, true
}
