package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashburst/internal/authz"
	"github.com/hashburst/internal/config"
	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testUserSecret = "router-user-secret"

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_mw_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp.StatusCode
}

func TestResolveAllowedOrigin(t *testing.T) {
	cases := []struct {
		origin      string
		allowed     []string
		credentials bool
		want        string
	}{
		{origin: "https://hashburst.io", allowed: []string{"*"}, want: "*"},
		{origin: "https://hashburst.io", allowed: []string{"*"}, credentials: true, want: "https://hashburst.io"},
		{origin: "https://app.hashburst.io", allowed: []string{"https://APP.hashburst.io"}, want: "https://app.hashburst.io"},
		{origin: "https://evil.example", allowed: []string{"https://app.hashburst.io"}, want: ""},
		{origin: "", allowed: []string{"https://app.hashburst.io"}, want: ""},
	}
	for _, tc := range cases {
		if got := resolveAllowedOrigin(tc.origin, tc.allowed, tc.credentials); got != tc.want {
			t.Fatalf("origin %q want %q got %q", tc.origin, tc.want, got)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"*"}, MaxAge: 600}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://hashburst.io")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Max-Age") != "600" || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected cors headers: %v", w.Header())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("request id should be echoed, got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if generated := w2.Header().Get(requestIDHeader); len(generated) != 36 {
		t.Fatalf("generated request id should be a uuid, got %q", generated)
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"":              "error.auth_header_missing",
		"Token abc":     "error.auth_header_invalid",
		"Bearer ":       "error.auth_header_invalid",
		"bearer abc.de": "",
	}
	for header, wantKey := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		if _, key := bearerToken(c); key != wantKey {
			t.Fatalf("header %q want key %q got %q", header, wantKey, key)
		}
	}
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/admin/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
	if w.Code != http.StatusOK || decodeStatusCode(t, w) != 401 {
		t.Fatalf("missing secret should yield status_code 401, got %d %s", w.Code, w.Body.String())
	}
}

func TestUserJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t)
	userRepo := repository.NewUserRepository(db)
	user := &models.User{Email: "mw@example.com", PasswordHash: "x", ReferralCode: "MWUSER01", Status: constants.UserStatusActive}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	cfg := &config.Config{UserJWT: config.JWTConfig{SecretKey: testUserSecret, ExpireHours: 1}}
	authSvc := service.NewUserAuthService(cfg, userRepo, nil)
	token, _, err := authSvc.GenerateUserJWT(user, 1)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	r := gin.New()
	r.Use(UserJWTAuthMiddleware(testUserSecret, userRepo))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "user_id": c.GetUint(ctxUserID)})
	})
	call := func(tokenValue string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenValue)
		r.ServeHTTP(w, req)
		return decodeStatusCode(t, w)
	}

	if code := call(token); code != 0 {
		t.Fatalf("valid token should pass, got %d", code)
	}
	if code := call(token + "x"); code != 401 {
		t.Fatalf("tampered token should fail, got %d", code)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("token_version", 1).Error; err != nil {
		t.Fatalf("bump token version failed: %v", err)
	}
	if code := call(token); code != 401 {
		t.Fatalf("revoked token should fail, got %d", code)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	user.TokenVersion = 1
	fresh, _, _ := authSvc.GenerateUserJWT(user, 1)
	if code := call(fresh); code != 401 {
		t.Fatalf("disabled user should be rejected, got %d", code)
	}
}

func TestAdminRBACMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t)
	authzSvc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("init authz failed: %v", err)
	}
	if err := authzSvc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	if err := authzSvc.SetAdminRoles(5, []string{authz.RoleReadonlyAuditor}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}

	build := func(adminID uint, super bool) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(ctxAdminID, adminID)
			c.Set(ctxAdminIsSuper, super)
			c.Next()
		})
		r.Use(AdminRBACMiddleware(authzSvc))
		handler := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) }
		r.GET("/api/v1/admin/referral/settings", handler)
		r.PUT("/api/v1/admin/referral/settings", handler)
		return r
	}
	call := func(r *gin.Engine, method string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/admin/referral/settings", nil))
		return decodeStatusCode(t, w)
	}

	auditor := build(5, false)
	if code := call(auditor, http.MethodGet); code != 0 {
		t.Fatalf("auditor should read settings, got %d", code)
	}
	if code := call(auditor, http.MethodPut); code != 403 {
		t.Fatalf("auditor must not update settings, got %d", code)
	}
	if code := call(build(6, true), http.MethodPut); code != 0 {
		t.Fatalf("super admin should bypass rbac, got %d", code)
	}
	if code := call(build(0, false), http.MethodGet); code != 401 {
		t.Fatalf("missing admin should be unauthorized, got %d", code)
	}
}
