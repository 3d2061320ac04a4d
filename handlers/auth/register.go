package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	authutil "github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// TokenRevoker blacklists access tokens on logout
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti, subjectID string, expiresAt time.Time, reason string) error
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	store                database.UserStore
	jwtManager           *authutil.JWTManager
	revoker              TokenRevoker
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler; revoker and bruteForceProtection may be nil
func NewAuthHandler(store database.UserStore, jwtManager *authutil.JWTManager, revoker TokenRevoker, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		store:                store,
		jwtManager:           jwtManager,
		revoker:              revoker,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"` // defaults to "user"
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
}

// TokenResponse represents a successful registration or login
type TokenResponse struct {
	User        interface{} `json:"user"`
	AccessToken string      `json:"access_token"`
	ExpiresIn   int         `json:"expires_in"` // in seconds
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = validation.SanitizeString(req.Username)

	if err := h.validator.ValidateStruct(&req); err != nil {
		return apperror.Validation(validation.FormatValidationErrors(err))
	}
	if ok, problems := validation.ValidatePassword(req.Password); !ok {
		fields := make([]apperror.FieldError, 0, len(problems))
		for _, p := range problems {
			fields = append(fields, apperror.FieldError{Field: "password", Message: p})
		}
		return apperror.Validation(fields)
	}

	if req.Role == "" {
		req.Role = model.RoleUser
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return apperror.Internal(err)
	}

	user := &model.User{
		Username:  req.Username,
		FirstName: optional(req.FirstName),
		LastName:  optional(req.LastName),
		Email:     req.Email,
		Phone:     optional(req.Phone),
		Role:      req.Role,
		Password:  hash,
	}

	if err := h.store.CreateUser(c.UserContext(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return apperror.Conflict("Email already registered")
		}
		return apperror.Internal(err)
	}

	res, err := h.issue(user.ID.Hex(), user.Email, user.Username, user.Role, user)
	if err != nil {
		return err
	}

	return response.Success(c, res, "Registration successful", fiber.StatusCreated)
}

func (h *AuthHandler) issue(id, email, username, role string, account interface{}) (*TokenResponse, error) {
	token, _, err := h.jwtManager.GenerateAccessToken(id, email, username, role)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &TokenResponse{
		User:        account,
		AccessToken: token,
		ExpiresIn:   int(h.jwtManager.Expiry().Seconds()),
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
