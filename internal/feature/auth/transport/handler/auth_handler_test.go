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
	"github.com/stretchr/testify/require"

	"dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/auth/usecase"
	jwtmw "dynamicpro_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockAuthUsecase is a mock implementation of the AuthUsecase interface.
type mockAuthUsecase struct {
	SignupFunc        func(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error)
	LoginFunc         func(ctx context.Context, email, password string, role entity.Role) (*usecase.AuthResult, error)
	CurrentUserFunc   func(ctx context.Context, id string) (*entity.User, error)
	UpdateProfileFunc func(ctx context.Context, id string, in usecase.ProfileInput) (*entity.User, error)
	DemoLoginFunc     func(ctx context.Context, email string, role entity.Role) (*usecase.AuthResult, error)
}

func (m *mockAuthUsecase) Signup(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, in)
	}
	return nil, errors.New("signup failed")
}

func (m *mockAuthUsecase) Login(ctx context.Context, email, password string, role entity.Role) (*usecase.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, role)
	}
	return nil, errors.New("login failed") // Default: failure
}

func (m *mockAuthUsecase) CurrentUser(ctx context.Context, id string) (*entity.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, id)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockAuthUsecase) UpdateProfile(ctx context.Context, id string, in usecase.ProfileInput) (*entity.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, in)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockAuthUsecase) DemoLogin(ctx context.Context, email string, role entity.Role) (*usecase.AuthResult, error) {
	if m.DemoLoginFunc != nil {
		return m.DemoLoginFunc(ctx, email, role)
	}
	return nil, usecase.ErrUserNotFound
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) gin.H {
	t.Helper()
	var body gin.H
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthHandler_Signup(t *testing.T) {
	valid := gin.H{"name": "Ana", "email": "ana@x.com", "password": "secret123", "role": "student"}

	tests := []struct {
		name           string
		requestBody    gin.H
		mockSignupFunc func(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:        "success: user registration",
			requestBody: valid,
			mockSignupFunc: func(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error) {
				return &usecase.AuthResult{Token: "tok", User: &entity.User{ID: "u1", Name: in.Name, Email: in.Email, Role: in.Role, PasswordHash: "hash"}}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "failure: missing name",
			requestBody:    gin.H{"email": "ana@x.com", "password": "secret123", "role": "student"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "failure: invalid email address",
			requestBody:    gin.H{"name": "Ana", "email": "invalid-email", "password": "secret123", "role": "student"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:        "failure: admin role (usecase validation)",
			requestBody: gin.H{"name": "Ana", "email": "ana@x.com", "password": "secret123", "role": "admin"},
			mockSignupFunc: func(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error) {
				return nil, usecase.ErrInvalidInput
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:        "failure: duplicate email",
			requestBody: valid,
			mockSignupFunc: func(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error) {
				return nil, usecase.ErrEmailAlreadyExists
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
		{
			name:        "failure: store unavailable",
			requestBody: valid,
			mockSignupFunc: func(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error) {
				return nil, errors.New("dial tcp 10.0.0.1:27017: connection refused")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(&mockAuthUsecase{SignupFunc: tt.mockSignupFunc}, false)

			router := gin.New()
			router.POST("/auth/register", handler.Signup)

			w := postJSON(t, router, "/auth/register", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decode(t, w)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
				assert.NotEmpty(t, body["message"])
				assert.NotContains(t, w.Body.String(), "10.0.0.1", "driver errors must not leak")
				return
			}
			assert.Equal(t, "tok", body["token"])
			user := body["user"].(map[string]any)
			assert.Equal(t, "student", user["role"])
			assert.NotContains(t, user, "password")
			assert.NotContains(t, user, "passwordHash")
			assert.NotContains(t, body, "demo")
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	valid := gin.H{"email": "ana@x.com", "password": "secret123", "role": "student"}

	tests := []struct {
		name           string
		requestBody    gin.H
		mockLoginFunc  func(ctx context.Context, email, password string, role entity.Role) (*usecase.AuthResult, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:        "success: user login",
			requestBody: valid,
			mockLoginFunc: func(ctx context.Context, email, password string, role entity.Role) (*usecase.AuthResult, error) {
				return &usecase.AuthResult{Token: "tok", User: &entity.User{ID: "u1", Role: role}}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "failure: missing role",
			requestBody:    gin.H{"email": "ana@x.com", "password": "secret123"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:        "failure: unknown user",
			requestBody: valid,
			mockLoginFunc: func(ctx context.Context, email, password string, role entity.Role) (*usecase.AuthResult, error) {
				return nil, usecase.ErrUserNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
		{
			name:        "failure: wrong password",
			requestBody: valid,
			mockLoginFunc: func(ctx context.Context, email, password string, role entity.Role) (*usecase.AuthResult, error) {
				return nil, usecase.ErrInvalidCredentials
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_CREDENTIALS",
		},
		{
			name:           "failure: store unavailable",
			requestBody:    valid,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(&mockAuthUsecase{LoginFunc: tt.mockLoginFunc}, false)

			router := gin.New()
			router.POST("/auth/login", handler.Login)

			w := postJSON(t, router, "/auth/login", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decode(t, w)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
				return
			}
			assert.Equal(t, "tok", body["token"])
		})
	}
}

func TestAuthHandler_DemoLogin(t *testing.T) {
	handler := NewAuthHandler(&mockAuthUsecase{
		DemoLoginFunc: func(ctx context.Context, email string, role entity.Role) (*usecase.AuthResult, error) {
			return &usecase.AuthResult{Token: "demo-tok", User: &entity.User{ID: "d1", Email: email, Role: role}}, nil
		},
	}, true)

	router := gin.New()
	router.POST("/auth/login-demo", handler.DemoLogin)

	w := postJSON(t, router, "/auth/login-demo", gin.H{"email": "demo@x.com", "role": "teacher"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["demo"])
	assert.Equal(t, "demo-tok", body["token"])

	w = postJSON(t, router, "/auth/login-demo", gin.H{"role": "teacher"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_DemoLogin_RegisteredAccount(t *testing.T) {
	handler := NewAuthHandler(&mockAuthUsecase{
		DemoLoginFunc: func(ctx context.Context, email string, role entity.Role) (*usecase.AuthResult, error) {
			return nil, usecase.ErrEmailAlreadyExists
		},
	}, true)

	router := gin.New()
	router.POST("/auth/login-demo", handler.DemoLogin)

	w := postJSON(t, router, "/auth/login-demo", gin.H{"email": "prof@x.com", "role": "teacher"})

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "CONFLICT", body["code"])
	assert.NotContains(t, body, "token")
}

// withIdentity simulates AuthRequired for handler-level tests.
func withIdentity(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(jwtmw.ContextIdentity, entity.Identity{ID: id, Role: entity.RoleStudent})
		c.Next()
	}
}

func TestAuthHandler_Verify(t *testing.T) {
	tests := []struct {
		name           string
		currentUser    func(ctx context.Context, id string) (*entity.User, error)
		expectedStatus int
	}{
		{
			name: "returns stored user",
			currentUser: func(ctx context.Context, id string) (*entity.User, error) {
				return &entity.User{ID: id, Name: "Ana", PasswordHash: "hash"}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "user deleted",
			currentUser:    func(ctx context.Context, id string) (*entity.User, error) { return nil, usecase.ErrUserNotFound },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "store failure",
			currentUser:    func(ctx context.Context, id string) (*entity.User, error) { return nil, errors.New("timeout") },
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(&mockAuthUsecase{CurrentUserFunc: tt.currentUser}, false)
			router := gin.New()
			router.GET("/auth/verify", withIdentity("u1"), handler.Verify)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/verify", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				user := decode(t, w)["user"].(map[string]any)
				assert.Equal(t, "u1", user["id"])
				assert.NotContains(t, w.Body.String(), "hash")
			}
		})
	}

	t.Run("no identity", func(t *testing.T) {
		handler := NewAuthHandler(&mockAuthUsecase{}, false)
		router := gin.New()
		router.GET("/auth/verify", handler.Verify)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/verify", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Profile(t *testing.T) {
	handler := NewAuthHandler(&mockAuthUsecase{}, true)
	router := gin.New()
	router.GET("/profile", func(c *gin.Context) {
		c.Set(jwtmw.ContextUser, &entity.User{ID: "u1", Name: "Ana"})
		c.Next()
	}, handler.Profile)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["demo"])
	assert.Equal(t, "Ana", body["data"].(map[string]any)["name"])
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	var got usecase.ProfileInput
	handler := NewAuthHandler(&mockAuthUsecase{
		UpdateProfileFunc: func(ctx context.Context, id string, in usecase.ProfileInput) (*entity.User, error) {
			got = in
			return &entity.User{ID: id, Name: *in.Name}, nil
		},
	}, false)
	router := gin.New()
	router.PUT("/profile", withIdentity("u1"), handler.UpdateProfile)

	raw, _ := json.Marshal(gin.H{"name": "Ana Maria"})
	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Ana Maria", *got.Name)
	assert.Nil(t, got.Bio, "omitted fields stay nil")
	assert.Equal(t, "Ana Maria", decode(t, w)["data"].(map[string]any)["name"])
}
