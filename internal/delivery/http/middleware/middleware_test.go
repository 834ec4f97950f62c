package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"trailer-booking/pkg/apperror"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CSRFMiddleware(false))
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CSRFTokenKey)) }
	r.GET("/", ok)
	r.POST("/", ok)
	r.POST("/v1/bookings", ok)

	t.Run("Safe request issues a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		cookie := cookieNamed(rec, CSRFTokenCookieName)
		require.NotNil(t, cookie)
		assert.Len(t, cookie.Value, CSRFTokenLength*2)
		assert.Equal(t, cookie.Value, rec.Body.String())
	})

	t.Run("Post without token is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: CSRFTokenCookieName, Value: "abc"})
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Mismatched header is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: CSRFTokenCookieName, Value: "abc"})
		req.Header.Set(CSRFTokenHeaderName, "xyz")
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Matching header passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: CSRFTokenCookieName, Value: "abc"})
		req.Header.Set(CSRFTokenHeaderName, "abc")
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Matching form field passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		form := url.Values{CSRFTokenFormField: {"abc"}, "action": {"update"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: CSRFTokenCookieName, Value: "abc"})
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Exempt path skips the check", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/bookings", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestFormSession(t *testing.T) {
	r := gin.New()
	r.Use(FormSession(false, time.Hour))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionID(c)) })

	t.Run("New visitor gets a session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		cookie := cookieNamed(rec, SessionCookieName)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, 3600, cookie.MaxAge)
		assert.Equal(t, cookie.Value, rec.Body.String())
		_, err := uuid.Parse(cookie.Value)
		assert.NoError(t, err)
	})

	t.Run("Existing session is kept", func(t *testing.T) {
		id := uuid.NewString()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id})
		r.ServeHTTP(rec, req)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("Malformed session is replaced", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "booking:lock:other"})
		r.ServeHTTP(rec, req)
		assert.NotEqual(t, "booking:lock:other", rec.Body.String())
	})
}

func rateLimitedRouter(rl RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hitN(r *gin.Engine, n int) []int {
	codes := make([]int, n)
	for i := range codes {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = rec.Code
	}
	return codes
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("In memory", func(t *testing.T) {
		r := rateLimitedRouter(RateLimitConfig{Limit: 2, Window: time.Minute, KeyPrefix: "rl:test:"})
		assert.Equal(t, []int{200, 200, 429}, hitN(r, 3))
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		defer client.Close()

		r := rateLimitedRouter(RateLimitConfig{Limit: 2, Window: time.Minute, KeyPrefix: "rl:test:", Redis: client})
		assert.Equal(t, []int{200, 200, 429}, hitN(r, 3))
		assert.True(t, mr.Exists("rl:test:192.0.2.1"))
	})

	t.Run("Redis outage fails closed when asked", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer client.Close()
		mr.SetError("ERR simulated outage")

		r := rateLimitedRouter(RateLimitConfig{Limit: 2, Window: time.Minute, FailClosed: true, Redis: client})
		assert.Equal(t, []int{503}, hitN(r, 1))
	})

	t.Run("Zero limit disables", func(t *testing.T) {
		r := rateLimitedRouter(RateLimitConfig{Limit: 0, Window: time.Minute})
		assert.Equal(t, []int{200, 200, 200}, hitN(r, 3))
	})
}

func (m *memoryCounters) isSweeping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweeping
}

func TestMemoryCountersSweeper(t *testing.T) {
	m := &memoryCounters{interval: 10 * time.Millisecond}
	assert.False(t, m.isSweeping())

	m.hit("192.0.2.1", 20*time.Millisecond, time.Now())
	assert.True(t, m.isSweeping())

	require.Eventually(t, func() bool { return !m.isSweeping() }, time.Second, 5*time.Millisecond)
	_, ok := m.entries.Load("192.0.2.1")
	assert.False(t, ok, "expired counters are dropped")

	m.hit("192.0.2.2", 20*time.Millisecond, time.Now())
	assert.True(t, m.isSweeping(), "a new counter restarts the sweeper")
	require.Eventually(t, func() bool { return !m.isSweeping() }, time.Second, 5*time.Millisecond)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("RequestID")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Equal(t, generated, rec.Body.String())

	id := uuid.NewString()
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	r.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Body.String())
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperror.Conflict("busy")) })
	r.GET("/internal", func(c *gin.Context) { _ = c.Error(errors.New("dial tcp: secret host")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"busy"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret host")
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://okctrailers.com"}, true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", origin)
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("https://okctrailers.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://okctrailers.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight("http://localhost:3000")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
