package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"library-portal/pkg/common/config"
	"library-portal/pkg/common/testutil"
	book "library-portal/pkg/core/book/model"
	profilesvc "library-portal/pkg/core/profile/service"
	"library-portal/pkg/core/session"
	"library-portal/pkg/web/router"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type testServer struct {
	t   *testing.T
	h   *server.Hertz
	cfg *config.Config
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Middleware.RateLimit.Rate = 0
	cfg.Middleware.Security.BcryptCost = bcrypt.MinCost

	db := testutil.NewDB(t)
	redisCache, _ := testutil.NewRedis(t)
	deps := router.NewDependencies(cfg, db, redisCache)

	ctx := context.Background()
	for _, p := range []profilesvc.NewProfile{
		{Name: "Thủ thư", Email: "librarian@library.vn", Address: "HN", Password: "librarian-pw", Role: session.RoleLibrarian},
		{Name: "Độc giả", Email: "reader@library.vn", Address: "HN", Password: "reader-pw1", Role: session.RoleReader},
	} {
		_, err := deps.Profiles.Create(ctx, p)
		require.NoError(t, err)
	}

	h := server.New()
	require.NoError(t, router.RegisterAPIs(h, cfg, deps))
	return &testServer{t: t, h: h, cfg: cfg, db: db}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope, string) {
	s.t.Helper()

	var reqBody *ut.Body
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reqBody = &ut.Body{Body: bytes.NewReader(raw), Len: len(raw)}
	}

	headers := []ut.Header{{Key: "Content-Type", Value: "application/json"}}
	if token != "" {
		headers = append(headers, ut.Header{Key: "Authorization", Value: "Bearer " + token})
	}

	w := ut.PerformRequest(s.h.Engine, method, path, reqBody, headers...)
	resp := w.Result()

	var env envelope
	if len(resp.Body()) > 0 {
		require.NoError(s.t, json.Unmarshal(resp.Body(), &env), string(resp.Body()))
	}
	return resp.StatusCode(), env, string(resp.Header.Peek("Set-Cookie"))
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	status, env, cookie := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(s.t, http.StatusOK, status, env.Message)
	assert.True(s.t, strings.HasPrefix(cookie, s.cfg.Middleware.JWT.CookieName+"="), cookie)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(s.t, data.Token)
	return data.Token
}

func (s *testServer) sign(claims jwt.MapClaims) string {
	s.t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Middleware.JWT.Secret))
	require.NoError(s.t, err)
	return token
}

func TestHealthCheckRoute(t *testing.T) {
	s := newTestServer(t)

	w := ut.PerformRequest(s.h.Engine, http.MethodGet, "/health", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `"database"`)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	token := s.login("Librarian@Library.vn", "librarian-pw")

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Middleware.JWT.Secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "librarian", claims["role"])
	assert.EqualValues(t, 1, claims["sv"])

	status, env, _ := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "librarian@library.vn", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, env, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, env.Errors)
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)

	status, env, _ := s.do(http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	expired := s.sign(jwt.MapClaims{
		"id": "x", "role": "admin", "sv": 1,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	status, _, _ = s.do(http.MethodGet, "/api/categories", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// 签名有效但用户不存在
	ghost := s.sign(jwt.MapClaims{
		"id": "ghost", "role": "admin", "sv": 1,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	status, _, _ = s.do(http.MethodGet, "/api/categories", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCategoryLifecycle(t *testing.T) {
	s := newTestServer(t)
	librarian := s.login("librarian@library.vn", "librarian-pw")
	reader := s.login("reader@library.vn", "reader-pw1")

	status, env, _ := s.do(http.MethodPost, "/api/categories", librarian, map[string]string{"name": "Fiction"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		Category struct {
			ID          string  `json:"id"`
			Name        string  `json:"name"`
			Description *string `json:"description"`
			BooksCount  int     `json:"books_count"`
		} `json:"category"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Fiction", created.Category.Name)
	assert.Nil(t, created.Category.Description)
	assert.Zero(t, created.Category.BooksCount)

	status, env, _ = s.do(http.MethodPost, "/api/categories", librarian, map[string]string{"name": "Fiction"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "name", env.Errors[0].Field)

	status, _, _ = s.do(http.MethodPost, "/api/categories", reader, map[string]string{"name": "Poetry"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env, _ = s.do(http.MethodGet, "/api/categories?sortBy=name&sortOrder=desc", reader, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Categories []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Categories, 1)

	id := created.Category.ID
	status, env, _ = s.do(http.MethodPatch, "/api/categories/"+id, librarian, map[string]string{
		"name": "Fiction & Fantasy", "description": "Tiểu thuyết",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Fiction & Fantasy", created.Category.Name)
	require.NotNil(t, created.Category.Description)
	assert.Equal(t, "Tiểu thuyết", *created.Category.Description)

	status, _, _ = s.do(http.MethodPatch, "/api/categories/missing", librarian, map[string]string{"name": "X"})
	assert.Equal(t, http.StatusNotFound, status)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.db.Create(&book.Book{Title: fmt.Sprintf("book-%d", i), CategoryID: id}).Error)
	}
	status, env, _ = s.do(http.MethodDelete, "/api/categories/"+id, librarian, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "id", env.Errors[0].Field)
	assert.Contains(t, env.Errors[0].Message, "2 cuốn sách")

	status, _, _ = s.do(http.MethodDelete, "/api/categories/"+id, reader, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	reader := s.login("reader@library.vn", "reader-pw1")

	status, env, _ := s.do(http.MethodGet, "/api/profile", reader, nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Profile struct {
			Name         string  `json:"name"`
			Email        string  `json:"email"`
			Phone        string  `json:"phone"`
			TotalFines   float64 `json:"total_fines"`
			TotalBorrows int     `json:"total_borrows"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "reader@library.vn", got.Profile.Email)
	assert.Equal(t, "", got.Profile.Phone)
	assert.Zero(t, got.Profile.TotalFines)

	status, env, _ = s.do(http.MethodPut, "/api/profile", reader, map[string]string{
		"name": "Độc giả", "phone": "12345", "address": "HN",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "phone", env.Errors[0].Field)

	status, env, _ = s.do(http.MethodPut, "/api/profile", reader, map[string]string{
		"name": "Độc giả mới", "phone": "0912345678", "address": "Huế",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), "0912345678")
}

func TestChangePasswordInvalidatesOldToken(t *testing.T) {
	s := newTestServer(t)
	oldToken := s.login("reader@library.vn", "reader-pw1")

	status, env, _ := s.do(http.MethodPut, "/api/profile/password", oldToken, map[string]string{
		"currentPassword": "reader-pw1", "newPassword": "reader-pw1", "confirmPassword": "reader-pw1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "newPassword", env.Errors[0].Field)

	status, _, _ = s.do(http.MethodPut, "/api/profile/password", oldToken, map[string]string{
		"currentPassword": "not-my-password", "newPassword": "reader-pw2", "confirmPassword": "reader-pw2",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env, cookie := s.do(http.MethodPut, "/api/profile/password", oldToken, map[string]string{
		"currentPassword": "reader-pw1", "newPassword": "reader-pw2", "confirmPassword": "reader-pw2",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.True(t, strings.HasPrefix(cookie, s.cfg.Middleware.JWT.CookieName+"="), cookie)
	assert.NotContains(t, cookie, oldToken)

	status, _, _ = s.do(http.MethodGet, "/api/profile", oldToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "reader@library.vn", "password": "reader-pw1",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	newToken := s.login("reader@library.vn", "reader-pw2")
	status, _, _ = s.do(http.MethodGet, "/api/profile", newToken, nil)
	assert.Equal(t, http.StatusOK, status)
}
