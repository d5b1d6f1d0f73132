package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"shiftdesk/backend/config"
	"shiftdesk/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 测试替身 ──

type fakeTokenChecker struct {
	revoked map[string]bool
	err     error
}

func (f *fakeTokenChecker) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

type fakeLimiter struct {
	counts map[string]int
	err    error
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[key]++
	remaining := int64(limit - f.counts[key])
	if remaining < 0 {
		remaining = 0
	}
	return f.counts[key] <= limit, remaining, nil
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret-key",
		AccessTokenTTL: time.Hour,
	})
}

func okHandler(c *gin.Context) { c.Status(http.StatusOK) }

// ── JWTAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	token, _, err := mgr.GenerateAccessToken("emp-a", "employee")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}
	claims, _ := mgr.ParseToken(token)

	tests := []struct {
		name       string
		header     string
		checker    TokenChecker
		wantStatus int
	}{
		{"缺少认证头", "", nil, http.StatusUnauthorized},
		{"格式错误", "Token " + token, nil, http.StatusUnauthorized},
		{"无效 Token", "Bearer garbage", nil, http.StatusUnauthorized},
		{"有效 Token", "Bearer " + token, nil, http.StatusOK},
		{"已注销", "Bearer " + token, &fakeTokenChecker{revoked: map[string]bool{claims.ID: true}}, http.StatusUnauthorized},
		{"黑名单不可用时放行", "Bearer " + token, &fakeTokenChecker{err: errors.New("redis down")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", JWTAuth(mgr, tt.checker), func(c *gin.Context) {
				if c.GetString(ContextUserID) != "emp-a" {
					t.Errorf("期望注入 user_id=emp-a，实际=%q", c.GetString(ContextUserID))
				}
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("期望状态码 %d，实际=%d", tt.wantStatus, w.Code)
			}
		})
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"角色匹配", "manager", http.StatusOK},
		{"角色不匹配", "employee", http.StatusForbidden},
		{"未认证", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/manager", func(c *gin.Context) {
				if tt.role != "" {
					c.Set(ContextRole, tt.role)
				}
				c.Next()
			}, RoleAuth("manager"), okHandler)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manager", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("期望状态码 %d，实际=%d", tt.wantStatus, w.Code)
			}
		})
	}
}

// ── RateLimit ──

func TestRateLimit_PerUser(t *testing.T) {
	limiter := &fakeLimiter{counts: make(map[string]int)}

	r := gin.New()
	r.POST("/shifts/apply", func(c *gin.Context) {
		c.Set(ContextUserID, c.GetHeader("X-User"))
		c.Next()
	}, RateLimit(limiter, 2, time.Minute), okHandler)

	send := func(user string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/shifts/apply", nil)
		req.Header.Set("X-User", user)
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("emp-a"); w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求应放行，实际=%d", i+1, w.Code)
		}
	}
	w := send("emp-a")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("超出限额应返回 429，实际=%d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("期望 X-RateLimit-Remaining=0，实际=%q", w.Header().Get("X-RateLimit-Remaining"))
	}

	// 不同用户独立计数
	if w := send("emp-b"); w.Code != http.StatusOK {
		t.Errorf("其他用户不应受影响，实际=%d", w.Code)
	}
	if _, ok := limiter.counts["user:emp-a:/shifts/apply"]; !ok {
		t.Errorf("限流键应包含用户与路由，实际=%v", limiter.counts)
	}
}

func TestRateLimit_Degrades(t *testing.T) {
	tests := []struct {
		name    string
		limiter RateLimiter
	}{
		{"未配置", nil},
		{"后端出错", &fakeLimiter{err: errors.New("redis down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/x", RateLimit(tt.limiter, 1, time.Minute), okHandler)
			for i := 0; i < 3; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
				if w.Code != http.StatusOK {
					t.Fatalf("降级时应放行，实际=%d", w.Code)
				}
			}
		})
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	readAll := func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	}

	r := gin.New()
	r.POST("/upload", BodyLimit(8), readAll)

	// Content-Length 已超限
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123456789")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际=%d", w.Code)
	}

	// 未声明长度，读取时超限
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123456789"))
	req.ContentLength = -1
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123")))
	if w.Code != http.StatusOK {
		t.Errorf("未超限应放行，实际=%d", w.Code)
	}
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RequestID(), okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "trace-123")
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "trace-123" {
		t.Errorf("应沿用请求头中的 ID，实际=%q", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", requestIDMaxLen+1))
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); len(got) != 36 {
		t.Errorf("超长 ID 应替换为 UUID，实际=%q", got)
	}
}
