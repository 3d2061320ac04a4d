package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler fiber.Handler) (int, map[string]any) {
	t.Helper()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantType    string
		wantMessage string
	}{
		{
			name:        "not found",
			err:         apperror.NotFound("Course not found"),
			wantCode:    fiber.StatusNotFound,
			wantType:    "NOT_FOUND",
			wantMessage: "Course not found",
		},
		{
			name:        "internal hides cause",
			err:         apperror.Internal(errors.New("mongo down")),
			wantCode:    fiber.StatusInternalServerError,
			wantType:    "INTERNAL_SERVER_ERROR",
			wantMessage: "An unexpected error occurred.",
		},
		{
			name:        "fiber error",
			err:         fiber.NewError(fiber.StatusMethodNotAllowed, "Method Not Allowed"),
			wantCode:    fiber.StatusMethodNotAllowed,
			wantType:    "BAD_REQUEST",
			wantMessage: "Method Not Allowed",
		},
		{
			name:        "plain error",
			err:         errors.New("boom"),
			wantCode:    fiber.StatusInternalServerError,
			wantType:    "INTERNAL_SERVER_ERROR",
			wantMessage: "An unexpected error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, func(*fiber.Ctx) error { return tt.err })

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, false, body["success"])
			detail, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, detail["type"])
			assert.Equal(t, tt.wantMessage, detail["message"])
			assert.NotContains(t, detail["message"], "mongo")
		})
	}
}

func TestErrorHandlerValidation(t *testing.T) {
	code, body := serve(t, func(*fiber.Ctx) error {
		return apperror.Validation([]apperror.FieldError{{Field: "title", Message: "Title is required"}})
	})

	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, []any{map[string]any{"field": "title", "message": "Title is required"}}, body["errors"])
}

func TestSuccessRendersEmptyList(t *testing.T) {
	code, body := serve(t, func(c *fiber.Ctx) error {
		return Success(c, []string{}, "ok")
	})

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []any{}, body["data"])
	assert.NotContains(t, body, "warnings")
}

func TestSuccessWithWarnings(t *testing.T) {
	code, body := serve(t, func(c *fiber.Ctx) error {
		return SuccessWithWarnings(c, nil, "partial", []string{"Failed to upload a.pdf"}, fiber.StatusCreated)
	})

	assert.Equal(t, fiber.StatusCreated, code)
	assert.Nil(t, body["data"])
	assert.Equal(t, []any{"Failed to upload a.pdf"}, body["warnings"])
}

func TestCalculatePagination(t *testing.T) {
	meta := CalculatePagination(0, 500, 250)
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, 100, meta.PerPage)
	assert.Equal(t, 3, meta.TotalPages)

	meta = CalculatePagination(2, 0, 0)
	assert.Equal(t, 10, meta.PerPage)
	assert.Equal(t, 0, meta.TotalPages)
}
