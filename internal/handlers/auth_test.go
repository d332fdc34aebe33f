package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-collab/internal/config"
	"github.com/yukikurage/task-collab/internal/constants"
	"github.com/yukikurage/task-collab/internal/database"
	"github.com/yukikurage/task-collab/internal/dto"
	apierrors "github.com/yukikurage/task-collab/internal/errors"
	"github.com/yukikurage/task-collab/internal/repository"
	"github.com/yukikurage/task-collab/internal/services"
)

type authTestEnv struct {
	store       repository.Store
	handler     *AuthHandler
	authService *services.AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	store, err := repository.Open(context.Background(), config.DatabaseConfig{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "auth.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})

	authService := services.NewAuthService(store)

	return authTestEnv{
		store:       store,
		handler:     NewAuthHandler(authService),
		authService: authService,
	}
}

func newSessionRouter() *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)

	r := newSessionRouter()
	r.POST("/api/auth/register", env.handler.Register)

	payload := map[string]string{
		"name":             "New User",
		"email":            "new@example.com",
		"password":         "supersecret",
		"confirm_password": "supersecret",
	}
	w := postJSON(t, r, "/api/auth/register", payload)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, payload["email"], response.Email)
	require.Equal(t, payload["name"], response.Name)
	require.NotEmpty(t, w.Result().Cookies(), "expected session cookie to be set")
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(context.Background(), services.RegisterInput{
		Name:            "Existing",
		Email:           "taken@example.com",
		Password:        "supersecret",
		ConfirmPassword: "supersecret",
	})
	require.NoError(t, err)

	r := newSessionRouter()
	r.POST("/api/auth/register", env.handler.Register)

	tests := []struct {
		name     string
		payload  map[string]string
		wantCode int
		wantErr  string
	}{
		{
			name:     "duplicate email",
			payload:  map[string]string{"name": "Other", "email": "taken@example.com", "password": "secret1", "confirm_password": "secret1"},
			wantCode: http.StatusConflict,
			wantErr:  apierrors.ErrCodeEmailTaken,
		},
		{
			name:     "short password",
			payload:  map[string]string{"name": "Other", "email": "other@example.com", "password": "123", "confirm_password": "123"},
			wantCode: http.StatusBadRequest,
			wantErr:  apierrors.ErrCodeValidationFailed,
		},
		{
			name:     "mismatched confirmation",
			payload:  map[string]string{"name": "Other", "email": "other@example.com", "password": "secret1", "confirm_password": "secret2"},
			wantCode: http.StatusBadRequest,
			wantErr:  apierrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/api/auth/register", tt.payload)
			require.Equal(t, tt.wantCode, w.Code)

			var response apierrors.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			require.Equal(t, tt.wantErr, response.Code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(context.Background(), services.RegisterInput{
		Name:            "Existing",
		Email:           "existing@example.com",
		Password:        "supersecret",
		ConfirmPassword: "supersecret",
	})
	require.NoError(t, err)

	r := newSessionRouter()
	r.POST("/api/auth/login", env.handler.Login)

	w := postJSON(t, r, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "supersecret",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "existing@example.com", response.Email)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")

	w = postJSON(t, r, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Register(context.Background(), services.RegisterInput{
		Name:            "Current User",
		Email:           "current@example.com",
		Password:        "supersecret",
		ConfirmPassword: "supersecret",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	c.Set(constants.ContextKeyUserID, user.ID)

	env.handler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Name, response.Name)
}

func TestAuthHandler_GetCurrentUserWithoutSession(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)

	env.handler.GetCurrentUser(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
