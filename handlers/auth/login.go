package auth

import (
	"errors"
	"strings"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	authutil "github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// LoginScope separates user login lockouts from super admin ones
const LoginScope = "login"

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" || req.Password == "" {
		return apperror.BadRequest("Email and password are required")
	}

	ctx := c.UserContext()
	ip := c.IP()

	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		// Record failed attempt even if user not found
		h.bruteForceProtection.RecordFailure(ctx, LoginScope, ip, req.Email)
		return apperror.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return apperror.Internal(err)
	}

	if err := authutil.VerifyPassword(user.Password, req.Password); err != nil {
		h.bruteForceProtection.RecordFailure(ctx, LoginScope, ip, req.Email)
		return apperror.Unauthorized("Invalid email or password")
	}

	h.bruteForceProtection.RecordSuccess(ctx, LoginScope, ip)

	res, err := h.issue(user.ID.Hex(), user.Email, user.Username, user.Role, user)
	if err != nil {
		return err
	}

	return response.Success(c, res, "Login successful")
}
