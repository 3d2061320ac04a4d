// Package testutil builds fiber apps and requests for handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// NewApp returns an app using the production error handler
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
}

// As authenticates every request as caller
func As(caller auth.Caller) fiber.Handler {
	return func(c *fiber.Ctx) error {
		middleware.SetCaller(c, caller)
		return c.Next()
	}
}

// JSON builds a request with a JSON body; a nil body sends none
func JSON(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("JSON() failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return req
}

// File is one part of a multipart request
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// Multipart builds a multipart/form-data request
func Multipart(t *testing.T, method, path string, fields map[string]string, files ...File) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Multipart() failed: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Name+`"`)
		h.Set("Content-Type", f.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("Multipart() failed: %v", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			t.Fatalf("Multipart() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Multipart() failed: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

// Do runs req against app and decodes the JSON response body
func Do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body failed: %v", err)
	}

	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("response is not a JSON object: %s", raw)
		}
	}
	return resp.StatusCode, out
}

// Errors returns the field errors of a 422 body as field -> message
func Errors(body map[string]any) map[string]string {
	out := map[string]string{}
	list, _ := body["errors"].([]any)
	for _, item := range list {
		e, _ := item.(map[string]any)
		field, _ := e["field"].(string)
		message, _ := e["message"].(string)
		out[field] = message
	}
	return out
}

// ErrorMessage returns error.message of a failure body
func ErrorMessage(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	msg, _ := e["message"].(string)
	return msg
}
