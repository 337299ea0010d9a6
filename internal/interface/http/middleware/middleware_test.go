package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/labinventory/internal/infrastructure/config"
	"github.com/xiebiao/labinventory/pkg/jwt"
)

type fakeBlacklist struct {
	tokens map[string]bool
	err    error
}

func (f *fakeBlacklist) IsInBlacklist(_ context.Context, token string) (bool, error) {
	return f.tokens[token], f.err
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func TestRequireAuth(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour, 24*time.Hour)
	pair, err := manager.GenerateToken(7, "zhangsan", "张三")
	require.NoError(t, err)

	blacklist := &fakeBlacklist{tokens: map[string]bool{}}
	auth := NewAuthMiddleware(manager, blacklist)

	r := newEngine(auth.RequireAuth())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetUserID(c),
			"username": GetUsername(c),
			"token":    GetToken(c),
		})
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("有效Token", func(t *testing.T) {
		w := call("Bearer " + pair.AccessToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":7,"username":"zhangsan","token":"`+pair.AccessToken+`"}`, w.Body.String())
	})

	t.Run("缺少Token", func(t *testing.T) {
		w := call("")
		assert.Contains(t, w.Body.String(), `"code":40100`)
	})

	t.Run("格式错误", func(t *testing.T) {
		w := call("Token " + pair.AccessToken)
		assert.Contains(t, w.Body.String(), `"code":40100`)
	})

	t.Run("Refresh Token不能当Access Token用", func(t *testing.T) {
		w := call("Bearer " + pair.RefreshToken)
		assert.Contains(t, w.Body.String(), `"code":40101`)
	})

	t.Run("黑名单", func(t *testing.T) {
		blacklist.tokens[pair.AccessToken] = true
		defer delete(blacklist.tokens, pair.AccessToken)

		w := call("Bearer " + pair.AccessToken)
		assert.Contains(t, w.Body.String(), `"code":40102`)
	})

	t.Run("黑名单查询失败", func(t *testing.T) {
		blacklist.err = errors.New("redis down")
		defer func() { blacklist.err = nil }()

		w := call("Bearer " + pair.AccessToken)
		assert.NotContains(t, w.Body.String(), `"user_id":7`)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestCORS(t *testing.T) {
	cfg := config.CORSConfig{
		Enabled:          true,
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           600,
	}

	t.Run("携带凭证时回显Origin", func(t *testing.T) {
		r := newEngine(CORS(cfg))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "http://lab.local")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://lab.local", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "Content-Disposition", w.Header().Get("Access-Control-Expose-Headers"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("无Origin不加头", func(t *testing.T) {
		r := newEngine(CORS(cfg))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("未启用", func(t *testing.T) {
		disabled := cfg
		disabled.Enabled = false
		disabled.AllowOrigins = []string{"http://a"}
		r := newEngine(CORS(disabled))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "http://b")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLogger(t *testing.T) {
	r := newEngine(Logger(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) {
		id, _ := c.Get("request_id")
		c.String(http.StatusOK, id.(string))
	})

	t.Run("沿用客户端请求ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "req-123", w.Body.String())
	})

	t.Run("生成请求ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})

	t.Run("访问日志带链路ID", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
			SpanID:     trace.SpanID{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11},
			TraceFlags: trace.FlagsSampled,
		})
		withSpan := func(c *gin.Context) {
			c.Request = c.Request.WithContext(trace.ContextWithSpanContext(c.Request.Context(), sc))
			c.Next()
		}
		traced := newEngine(withSpan, Logger(zap.New(core)))
		traced.GET("/y", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		traced.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/y", nil))

		entries := logs.FilterMessage("request").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
		assert.Equal(t, "0a0b0c0d0e0f1011", fields["span_id"])
		assert.Equal(t, int64(http.StatusNoContent), fields["status"])
	})

	t.Run("没有链路时不输出链路字段", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		plain := newEngine(Logger(zap.New(core)))
		plain.GET("/z", func(c *gin.Context) { c.Status(http.StatusOK) })

		plain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/z", nil))

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.NotContains(t, fields, "trace_id")
		assert.NotContains(t, fields, "span_id")
	})
}
