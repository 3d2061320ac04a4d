package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// DefaultMessage is reported by a failing rule that was never labelled
const DefaultMessage = "Invalid value"

// engine backs the string rules; validator.Validate is safe for concurrent use
var engine = validator.New()

// Check is one declared step of a request validator
type Check interface {
	check(in *Input) []apperror.FieldError
}

type location int

const (
	inBody location = iota
	inParams
)

type rule struct {
	test     func(value any, present bool, in *Input) error
	sanitize func(value any) any
	message  string
}

// FieldChain validates a single param or body field.
// Rules run in declaration order and the first failure is the only one recorded.
type FieldChain struct {
	loc      location
	field    string
	optional bool
	rules    []*rule
}

// Body starts a chain on a body field
func Body(field string) *FieldChain {
	return &FieldChain{loc: inBody, field: field}
}

// Param starts a chain on a route parameter
func Param(field string) *FieldChain {
	return &FieldChain{loc: inParams, field: field}
}

func (f *FieldChain) add(test func(value any, present bool, in *Input) error) *FieldChain {
	f.rules = append(f.rules, &rule{test: test})
	return f
}

// Optional skips the whole chain when the field is absent
func (f *FieldChain) Optional() *FieldChain {
	f.optional = true
	return f
}

// NotEmpty fails on a missing field or one that renders as an empty string
func (f *FieldChain) NotEmpty() *FieldChain {
	return f.add(func(value any, present bool, _ *Input) error {
		if !present || stringify(value) == "" {
			return errFailed
		}
		return nil
	})
}

// IsString requires a string value
func (f *FieldChain) IsString() *FieldChain {
	return f.add(func(value any, _ bool, _ *Input) error {
		if _, ok := value.(string); !ok {
			return errFailed
		}
		return nil
	})
}

// IsNumeric requires a number or a numeric string
func (f *FieldChain) IsNumeric() *FieldChain {
	return f.tag("numeric")
}

// IsBoolean requires a boolean or a boolean string
func (f *FieldChain) IsBoolean() *FieldChain {
	return f.tag("boolean")
}

// IsMongoID requires a 24 character hex ObjectID
func (f *FieldChain) IsMongoID() *FieldChain {
	return f.tag("mongodb")
}

// IsArray requires a list value
func (f *FieldChain) IsArray() *FieldChain {
	return f.add(func(value any, _ bool, _ *Input) error {
		if _, ok := value.([]any); !ok {
			return errFailed
		}
		return nil
	})
}

// EachMongoID requires every element of a list to be an ObjectID
func (f *FieldChain) EachMongoID() *FieldChain {
	return f.add(func(value any, _ bool, _ *Input) error {
		list, ok := value.([]any)
		if !ok {
			return errFailed
		}
		for _, item := range list {
			s, isString := item.(string)
			if !isString || engine.Var(s, "required,mongodb") != nil {
				return errFailed
			}
		}
		return nil
	})
}

func (f *FieldChain) tag(tag string) *FieldChain {
	return f.add(func(value any, _ bool, _ *Input) error {
		if engine.Var(stringify(value), "required,"+tag) != nil {
			return errFailed
		}
		return nil
	})
}

// Custom runs fn on the field value; a returned error's text becomes the message
func (f *FieldChain) Custom(fn func(value any, in *Input) error) *FieldChain {
	f.rules = append(f.rules, &rule{
		test: func(value any, _ bool, in *Input) error {
			return fn(value, in)
		},
	})
	return f
}

// DecodeJSON replaces a string value by its decoded JSON form.
// Multipart forms carry nested objects this way.
func (f *FieldChain) DecodeJSON() *FieldChain {
	f.rules = append(f.rules, &rule{sanitize: decodeJSONValue})
	return f
}

// WithMessage labels every preceding rule of the chain that has no message yet
func (f *FieldChain) WithMessage(message string) *FieldChain {
	for _, r := range f.rules {
		if r.test != nil && r.message == "" {
			r.message = message
		}
	}
	return f
}

var errFailed = errors.New(DefaultMessage)

func decodeJSONValue(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return value
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return value
	}
	return decoded
}

func (f *FieldChain) lookup(in *Input) (any, bool) {
	if f.loc == inParams {
		v, ok := in.Params[f.field]
		if !ok || v == "" {
			return nil, false
		}
		return v, true
	}
	v, ok := in.Body[f.field]
	return v, ok
}

func (f *FieldChain) check(in *Input) []apperror.FieldError {
	value, present := f.lookup(in)
	if !present && f.optional {
		return nil
	}

	for _, r := range f.rules {
		if r.sanitize != nil {
			value = r.sanitize(value)
			if f.loc == inBody && present {
				in.Body[f.field] = value
			}
			continue
		}

		err := r.test(value, present, in)
		if err == nil {
			continue
		}

		message := r.message
		if message == "" {
			message = DefaultMessage
			if !errors.Is(err, errFailed) {
				message = err.Error()
			}
		}
		return []apperror.FieldError{{Field: f.field, Message: message}}
	}
	return nil
}

// AllowedFileTypes is the MIME allow list for assessment and submission uploads
var AllowedFileTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type fileCheck struct {
	field    string
	maxCount int
	allowed  []string
}

// OptionalFile rejects an uploaded file whose MIME type is not in allowed
func OptionalFile(field string, allowed ...string) Check {
	return fileCheck{field: field, maxCount: 1, allowed: allowed}
}

// OptionalFiles limits how many files may be uploaded under field
func OptionalFiles(field string, maxCount int, allowed ...string) Check {
	return fileCheck{field: field, maxCount: maxCount, allowed: allowed}
}

func (fc fileCheck) check(in *Input) []apperror.FieldError {
	files := in.Files[fc.field]
	if len(files) == 0 {
		return nil
	}
	if fc.maxCount > 0 && len(files) > fc.maxCount {
		return []apperror.FieldError{{Field: fc.field, Message: fmt.Sprintf("A maximum of %d files is allowed", fc.maxCount)}}
	}
	if len(fc.allowed) == 0 {
		return nil
	}
	for _, fh := range files {
		if !mimeAllowed(fh, fc.allowed) {
			return []apperror.FieldError{{Field: fc.field, Message: "Invalid file type"}}
		}
	}
	return nil
}

func mimeAllowed(fh *multipart.FileHeader, allowed []string) bool {
	mimeType := strings.ToLower(strings.TrimSpace(strings.SplitN(fh.Header.Get("Content-Type"), ";", 2)[0]))
	for _, a := range allowed {
		if mimeType == a {
			return true
		}
	}
	return false
}

// Validate runs every check against the request and responds 422 with the
// collected field errors, or stores the input and calls the next handler.
func Validate(checks ...Check) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := ReadInput(c)
		if err != nil {
			return err
		}

		errs := []apperror.FieldError{}
		for _, chk := range checks {
			errs = append(errs, chk.check(in)...)
		}
		if len(errs) > 0 {
			return apperror.Validation(errs)
		}

		c.Locals(inputLocalsKey, in)
		return c.Next()
	}
}
