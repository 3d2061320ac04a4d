package validation

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const inputLocalsKey = "validatedInput"

// Input is the request data seen by validation chains and handlers.
// Sanitizers may replace Body values before the handler runs.
type Input struct {
	Params map[string]string
	Body   map[string]any
	Files  map[string][]*multipart.FileHeader
}

// ReadInput collects route params, the JSON or multipart body and uploaded files
func ReadInput(c *fiber.Ctx) (*Input, error) {
	in := &Input{
		Params: c.AllParams(),
		Body:   map[string]any{},
		Files:  map[string][]*multipart.FileHeader{},
	}

	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, apperror.BadRequest("Invalid multipart form").Wrap(err)
		}
		for key, values := range form.Value {
			key = strings.TrimSuffix(key, "[]")
			if len(values) == 1 {
				in.Body[key] = values[0]
				continue
			}
			list := make([]any, len(values))
			for i, v := range values {
				list[i] = v
			}
			in.Body[key] = list
		}
		for key, files := range form.File {
			in.Files[key] = files
		}

	case len(c.Body()) > 0:
		var body any
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return nil, apperror.BadRequest("Invalid request body").Wrap(err)
		}
		if obj, ok := body.(map[string]any); ok {
			in.Body = obj
		}
	}

	return in, nil
}

// InputFrom returns the input stored by Validate
func InputFrom(c *fiber.Ctx) *Input {
	if in, ok := c.Locals(inputLocalsKey).(*Input); ok {
		return in
	}
	return &Input{
		Params: c.AllParams(),
		Body:   map[string]any{},
		Files:  map[string][]*multipart.FileHeader{},
	}
}

// Has reports whether the body carries key
func (in *Input) Has(key string) bool {
	_, ok := in.Body[key]
	return ok
}

// Param returns a route parameter
func (in *Input) Param(name string) string {
	return in.Params[name]
}

// ParamObjectID parses a route parameter as an ObjectID.
// A malformed value is a 400 carrying message.
func (in *Input) ParamObjectID(name, message string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(in.Params[name])
	if err != nil {
		return primitive.NilObjectID, apperror.BadRequest(message)
	}
	return id, nil
}

// ObjectIDFromHex parses id, rejecting the zero ObjectID
func ObjectIDFromHex(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if oid.IsZero() {
		return primitive.NilObjectID, primitive.ErrInvalidHex
	}
	return oid, nil
}

// ObjectIDs parses a list body value; malformed entries are dropped
func (in *Input) ObjectIDs(key string) []primitive.ObjectID {
	ids := []primitive.ObjectID{}
	for _, raw := range in.StringSlice(key) {
		if id, err := primitive.ObjectIDFromHex(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// String returns the body value rendered as a string
func (in *Input) String(key string) string {
	v, ok := in.Body[key]
	if !ok {
		return ""
	}
	return stringify(v)
}

// Float parses a numeric body value
func (in *Input) Float(key string) (float64, bool) {
	switch v := in.Body[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Bool parses a boolean body value; unparseable values are false
func (in *Input) Bool(key string) bool {
	switch v := in.Body[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

// StringSlice returns a list body value. A JSON encoded array string is decoded.
func (in *Input) StringSlice(key string) []string {
	out := []string{}
	switch v := in.Body[key].(type) {
	case []any:
		for _, item := range v {
			out = append(out, stringify(item))
		}
	case string:
		var list []string
		if err := json.Unmarshal([]byte(v), &list); err == nil {
			return list
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Decode converts a body value into out through its JSON form
func (in *Input) Decode(key string, out any) error {
	v, ok := in.Body[key]
	if !ok || v == nil {
		return nil
	}
	if s, isString := v.(string); isString {
		return json.Unmarshal([]byte(s), out)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// File returns the first uploaded file under field, or nil
func (in *Input) File(field string) *multipart.FileHeader {
	if files := in.Files[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// FileList returns every uploaded file under field
func (in *Input) FileList(field string) []*multipart.FileHeader {
	return in.Files[field]
}

// stringify renders a decoded JSON value the way form validators see it
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
