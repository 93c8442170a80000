package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	authentity "dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/courses/domain/entity"
	"dynamicpro_backend/internal/feature/courses/usecase"
	jwtmw "dynamicpro_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockCoursesUsecase struct {
	ListCoursesFunc  func(ctx context.Context, caller *authentity.User) ([]entity.Course, error)
	CreateCourseFunc func(ctx context.Context, teacher *authentity.User, in usecase.CreateCourseInput) (*entity.Course, error)
	EnrollFunc       func(ctx context.Context, caller *authentity.User, courseID, studentID string) (*entity.Course, error)
}

func (m *mockCoursesUsecase) ListCourses(ctx context.Context, caller *authentity.User) ([]entity.Course, error) {
	return m.ListCoursesFunc(ctx, caller)
}

func (m *mockCoursesUsecase) CreateCourse(ctx context.Context, teacher *authentity.User, in usecase.CreateCourseInput) (*entity.Course, error) {
	return m.CreateCourseFunc(ctx, teacher, in)
}

func (m *mockCoursesUsecase) Enroll(ctx context.Context, caller *authentity.User, courseID, studentID string) (*entity.Course, error) {
	return m.EnrollFunc(ctx, caller, courseID, studentID)
}

func asUser(u *authentity.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(jwtmw.ContextUser, u)
		c.Next()
	}
}

func send(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var teacher = &authentity.User{ID: "t1", Name: "Prof", Role: authentity.RoleTeacher}

func TestCoursesHandler_ListAndCreate(t *testing.T) {
	uc := &mockCoursesUsecase{
		ListCoursesFunc: func(ctx context.Context, caller *authentity.User) ([]entity.Course, error) {
			return []entity.Course{{ID: "c1", TeacherID: caller.ID}}, nil
		},
		CreateCourseFunc: func(ctx context.Context, teacher *authentity.User, in usecase.CreateCourseInput) (*entity.Course, error) {
			return &entity.Course{ID: "c2", Title: in.Title, TeacherID: teacher.ID}, nil
		},
	}
	h := NewCoursesHandler(uc, false)
	router := gin.New()
	router.GET("/courses", asUser(teacher), h.List)
	router.POST("/courses", asUser(teacher), h.Create)

	w := send(router, http.MethodGet, "/courses", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"teacherId":"t1"`)

	w = send(router, http.MethodPost, "/courses", gin.H{"title": "Intro", "description": "Basics"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = send(router, http.MethodPost, "/courses", gin.H{"title": "Intro"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoursesHandler_Enroll(t *testing.T) {
	tests := []struct {
		name           string
		body           gin.H
		enrollErr      error
		expectedStatus int
		expectedCode   string
	}{
		{"success", gin.H{"studentId": "s1"}, nil, http.StatusOK, ""},
		{"missing student id", gin.H{}, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown course", gin.H{"studentId": "s1"}, usecase.ErrCourseNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown student", gin.H{"studentId": "s9"}, usecase.ErrStudentNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", gin.H{"studentId": "s1"}, usecase.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"duplicate", gin.H{"studentId": "s1"}, usecase.ErrAlreadyEnrolled, http.StatusConflict, "CONFLICT"},
		{"store failure", gin.H{"studentId": "s1"}, errors.New("boom"), http.StatusInternalServerError, "UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockCoursesUsecase{EnrollFunc: func(ctx context.Context, caller *authentity.User, courseID, studentID string) (*entity.Course, error) {
				if tt.enrollErr != nil {
					return nil, tt.enrollErr
				}
				return &entity.Course{ID: courseID, Students: []entity.Enrollment{{StudentID: studentID}}}, nil
			}}
			router := gin.New()
			router.POST("/courses/:id/enrollments", asUser(teacher), NewCoursesHandler(uc, false).Enroll)

			w := send(router, http.MethodPost, "/courses/c1/enrollments", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var body map[string]string
				_ = json.Unmarshal(w.Body.Bytes(), &body)
				assert.Equal(t, tt.expectedCode, body["code"])
			}
		})
	}
}

func TestCoursesHandler_NoUser(t *testing.T) {
	router := gin.New()
	router.GET("/courses", NewCoursesHandler(&mockCoursesUsecase{}, false).List)

	w := send(router, http.MethodGet, "/courses", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
