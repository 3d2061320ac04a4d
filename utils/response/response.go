package response

import (
	"errors"

	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Response represents a standardized success response.
// Data is always rendered so an empty list stays [].
type Response struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data"`
	Warnings []string    `json:"warnings,omitempty"`
}

// ErrorResponse represents a failed request
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Type    apperror.Type `json:"type"`
	Message string        `json:"message"`
	Details interface{}   `json:"details"`
}

// ValidationResponse is the 422 body produced by request validators
type ValidationResponse struct {
	Success bool                  `json:"success"`
	Errors  []apperror.FieldError `json:"errors"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// Success returns a successful response; status defaults to 200
func Success(c *fiber.Ctx, data interface{}, message string, status ...int) error {
	code := fiber.StatusOK
	if len(status) > 0 {
		code = status[0]
	}
	return c.Status(code).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SuccessWithWarnings returns a successful response listing partial failures
func SuccessWithWarnings(c *fiber.Ctx, data interface{}, message string, warnings []string, status int) error {
	return c.Status(status).JSON(Response{
		Success:  true,
		Message:  message,
		Data:     data,
		Warnings: warnings,
	})
}

// Failure returns an error response with the type derived from status
func Failure(c *fiber.Ctx, message string, status int) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error: &ErrorDetail{
			Type:    apperror.TypeForStatus(status),
			Message: message,
		},
	})
}

// ValidationFailed returns the 422 field list
func ValidationFailed(c *fiber.Ctx, errs []apperror.FieldError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationResponse{
		Success: false,
		Errors:  errs,
	})
}

// Paginated returns a paginated response
func Paginated(c *fiber.Ctx, data interface{}, pagination PaginationMeta) error {
	return c.Status(fiber.StatusOK).JSON(PaginatedResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// CalculatePagination calculates pagination metadata
func CalculatePagination(page, limit int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		TotalPages:  totalPages,
	}
}

// ErrorHandler renders every error returned from a handler or middleware
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		if appErr.Err != nil || appErr.StatusCode >= fiber.StatusInternalServerError {
			log.Errorf("%s %s: %v", c.Method(), c.Path(), appErr)
		}
		if appErr.Type == apperror.TypeValidation {
			if fields, ok := appErr.Details.([]apperror.FieldError); ok {
				return ValidationFailed(c, fields)
			}
		}
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Success: false,
			Error: &ErrorDetail{
				Type:    appErr.Type,
				Message: appErr.Message,
				Details: appErr.Details,
			},
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return Failure(c, fiberErr.Message, fiberErr.Code)
	}

	log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Success: false,
		Error: &ErrorDetail{
			Type:    apperror.TypeInternal,
			Message: "An unexpected error occurred.",
		},
	})
}
