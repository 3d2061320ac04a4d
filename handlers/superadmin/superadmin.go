package superadmin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// LoginScope keys super admin lockouts apart from user logins
const LoginScope = "super-admin-login"

// SuperAdminHandler handles platform operator requests
type SuperAdminHandler struct {
	store                database.UserStore
	jwtManager           *auth.JWTManager
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewSuperAdminHandler creates a new super admin handler
func NewSuperAdminHandler(store database.UserStore, jwtManager *auth.JWTManager, bruteForceProtection *middleware.BruteForceProtection) *SuperAdminHandler {
	return &SuperAdminHandler{
		store:                store,
		jwtManager:           jwtManager,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// LoginRequest represents a super admin login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateRoleRequest represents a role change
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// Login handles POST /api/v1/super-admin/login
func (h *SuperAdminHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.validator.ValidateStruct(&req); err != nil {
		return apperror.Validation(validation.FormatValidationErrors(err))
	}

	ctx := c.UserContext()
	ip := c.IP()

	admin, err := h.store.GetSuperAdminByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperror.Internal(err)
	}
	if err == nil {
		err = auth.VerifyPassword(admin.Password, req.Password)
	}
	if err != nil {
		h.bruteForceProtection.RecordFailure(ctx, LoginScope, ip, req.Email)
		return apperror.Unauthorized("Invalid email or password")
	}
	h.bruteForceProtection.RecordSuccess(ctx, LoginScope, ip)

	username := ""
	if admin.Username != nil {
		username = *admin.Username
	}
	token, _, err := h.jwtManager.GenerateAccessToken(admin.ID.Hex(), admin.Email, username, model.RoleSuperAdmin)
	if err != nil {
		return apperror.Internal(err)
	}

	return response.Success(c, fiber.Map{
		"user":         admin,
		"access_token": token,
		"expires_in":   int(h.jwtManager.Expiry().Seconds()),
	}, "Login successful")
}

// ListUsers handles GET /api/v1/super-admin/users
func (h *SuperAdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := h.store.ListUsers(c.UserContext(), int64(limit), int64((page-1)*limit))
	if err != nil {
		return apperror.Internal(err)
	}

	return response.Paginated(c, users, response.CalculatePagination(page, limit, total))
}

// UpdateUserRole handles PUT /api/v1/super-admin/users/:userId/role
func (h *SuperAdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	operator, err := middleware.CurrentSuperAdmin(c)
	if err != nil {
		return err
	}

	userID, err := validation.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return apperror.BadRequest("Invalid user id")
	}

	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return apperror.Validation(validation.FormatValidationErrors(err))
	}

	user, err := h.store.UpdateUserRole(c.UserContext(), userID, req.Role)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("User not found")
		}
		return apperror.Internal(err)
	}
	log.Infof("super admin %s set role of user %s to %s", operator.Email, userID.Hex(), req.Role)

	return response.Success(c, user, "User role updated successfully")
}
