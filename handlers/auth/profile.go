package auth

import (
	"errors"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	authutil "github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/v1/auth/profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return apperror.Unauthorized("")
	}

	ctx := c.UserContext()
	var (
		profile interface{}
		err     error
	)
	if _, isSuperAdmin := caller.(*authutil.SuperAdmin); isSuperAdmin {
		profile, err = h.store.GetSuperAdmin(ctx, caller.AccountID())
	} else {
		profile, err = h.store.GetUser(ctx, caller.AccountID())
	}
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("User not found")
		}
		return apperror.Internal(err)
	}

	return response.Success(c, profile, "Profile fetched successfully")
}
