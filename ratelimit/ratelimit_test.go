package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"eshop/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestNew_LimitsPerIP(t *testing.T) {
	app := fiber.New()
	app.Use(New(config.Limiter{Max: 2, Window: time.Minute}, nil))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, limitMessage, body["message"])
}

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	s, err := NewRedisStorage(config.Redis{Addr: addr})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Reset())

	val, err := s.Get("10.0.0.1")
	require.NoError(t, err)
	require.Nil(t, val)

	require.NoError(t, s.Set("10.0.0.1", []byte("hits"), time.Minute))
	val, err = s.Get("10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, []byte("hits"), val)

	require.NoError(t, s.Delete("10.0.0.1"))
	val, err = s.Get("10.0.0.1")
	require.NoError(t, err)
	require.Nil(t, val)
}
