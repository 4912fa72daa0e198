package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserAgent(t *testing.T) {
	t.Run("Desktop Chrome on Windows", func(t *testing.T) {
		info := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Equal(t, "Chrome", info.Browser)
		assert.Equal(t, "windows", info.Platform)
		assert.False(t, info.IsMobile)
		assert.False(t, info.IsBot)
	})

	t.Run("Mobile Safari on iPhone", func(t *testing.T) {
		info := ParseUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		assert.True(t, info.IsMobile)
		assert.Equal(t, "ios", info.Platform)
	})

	t.Run("Empty", func(t *testing.T) {
		info := ParseUserAgent("")
		assert.Equal(t, "Unknown", info.Browser)
		assert.Equal(t, "unknown", info.Platform)
	})
}

func TestGetRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newContext := func(headers map[string]string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "192.0.2.10:4321"
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		c.Request = req
		return c
	}

	assert.Equal(t, "203.0.113.5", GetRealIP(newContext(map[string]string{"X-Real-IP": "203.0.113.5"})))
	assert.Equal(t, "198.51.100.7", GetRealIP(newContext(map[string]string{"X-Forwarded-For": "10.0.0.1, 198.51.100.7"})))
	assert.Equal(t, "10.0.0.1", GetRealIP(newContext(map[string]string{"X-Forwarded-For": "10.0.0.1, 192.168.1.1"})))
	assert.Equal(t, "192.0.2.10", GetRealIP(newContext(nil)))
}

func TestGenerateJWTSecrets(t *testing.T) {
	access, refresh, err := GenerateJWTSecrets()
	require.NoError(t, err)
	assert.Len(t, access, 64)
	assert.Len(t, refresh, 64)
	assert.NotEqual(t, access, refresh)
}
