package auth

import (
	"time"

	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// Logout handles POST /api/v1/auth/logout by blacklisting the access token
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return apperror.Unauthorized("")
	}

	if h.revoker != nil {
		expiresAt := time.Now().Add(h.jwtManager.Expiry())
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}

		if err := h.revoker.RevokeToken(c.UserContext(), claims.ID, claims.UserID, expiresAt, "logout"); err != nil {
			return apperror.Internal(err)
		}
	}

	return response.Success(c, nil, "Successfully logged out")
}
