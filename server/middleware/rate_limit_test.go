package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(10, 20)

	// Burst of 20, so the first 20 pass and the 21st is rejected.
	for i := 0; i < 20; i++ {
		require.True(t, rl.Allow("client-a"), "request %d should pass", i)
	}
	assert.False(t, rl.Allow("client-a"))

	// Independent key is unaffected.
	assert.True(t, rl.Allow("client-b"))
}

func TestRateLimiterConfigurableBurst(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	require.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))
}

func TestRateLimitByIP(t *testing.T) {
	rl := NewRateLimiter(10, 20)
	e := echo.New()
	handler := RateLimitByIP(rl)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	call := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		return rec.Code
	}

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, call())
	}
	assert.Equal(t, http.StatusTooManyRequests, call())
}
