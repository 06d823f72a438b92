package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newApp(fail error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: Handler(zap.NewNop())})
	app.Get("/fail", func(c *fiber.Ctx) error { return fail })
	app.Use(RouteNotFound)
	return app
}

func call(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandler_Statuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		state   string
		message string
	}{
		{"not found", NotFound("No product for this id %d", 7), 404, "fail", "No product for this id 7"},
		{"wrapped", fmt.Errorf("load: %w", Unauthorized("Invalid token")), 401, "fail", "Invalid token"},
		{"forbidden", Forbidden("nope"), 403, "fail", "nope"},
		{"fiber error", fiber.ErrRequestEntityTooLarge, 413, "fail", "Request Entity Too Large"},
		{"duplicate", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), 400, "fail", "Duplicate field value"},
		{"unknown", errors.New("boom"), 500, "error", "Something went wrong"},
		{"internal", Internal("There is an error in sending email", errors.New("smtp down")), 500, "error", "There is an error in sending email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, newApp(tt.err), "/fail")
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.state, body["status"])
			require.Equal(t, tt.message, body["message"])
		})
	}
}

func TestHandler_ValidationFields(t *testing.T) {
	status, body := call(t, newApp(Validation(map[string]string{"name": "name is required"})), "/fail")

	require.Equal(t, 400, status)
	require.Equal(t, map[string]any{"name": "name is required"}, body["errors"])
}

func TestRouteNotFound(t *testing.T) {
	status, body := call(t, newApp(nil), "/api/nowhere?x=1")

	require.Equal(t, 400, status)
	require.Equal(t, "can't find the route : /api/nowhere?x=1", body["message"])
}
