package user

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skaum103/form-flow-backend/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCookieRecorder() (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	return w, c
}

// Cookie 的 Secure/Domain/SameSite 取自启动时注入的配置，不读进程环境
func TestSessionCookie_ProductionConfig(t *testing.T) {
	Init(nil, nil, &config.Config{Env: "production", CookieDomain: "example.com"})
	defer Init(nil, nil, &config.Config{Env: "dev"})

	w, c := newCookieRecorder()
	setSessionCookie(c, "tok", time.Now().Add(time.Hour))

	res := w.Result()
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "session_token", ck.Name)
	assert.Equal(t, "tok", ck.Value)
	assert.Equal(t, "example.com", ck.Domain)
	assert.True(t, ck.Secure)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
}

func TestSessionCookie_DevConfig(t *testing.T) {
	Init(nil, nil, &config.Config{Env: "dev"})

	w, c := newCookieRecorder()
	setSessionCookie(c, "tok", time.Now().Add(time.Hour))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Empty(t, ck.Domain)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
}

func TestClearSessionCookie(t *testing.T) {
	Init(nil, nil, &config.Config{Env: "dev"})

	w, c := newCookieRecorder()
	clearSessionCookie(c)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "session_token", ck.Name)
	assert.Empty(t, ck.Value)
	assert.Equal(t, -1, ck.MaxAge)
}
