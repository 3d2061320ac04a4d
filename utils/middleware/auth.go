package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	callerLocalsKey = "caller"
	claimsLocalsKey = "claims"
)

// RevocationChecker reports whether a token id was revoked
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager  *auth.JWTManager
	store       database.UserStore
	revocations RevocationChecker
}

// NewAuthMiddleware creates a new auth middleware; revocations may be nil
func NewAuthMiddleware(jwtManager *auth.JWTManager, store database.UserStore, revocations RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:  jwtManager,
		store:       store,
		revocations: revocations,
	}
}

// Authenticate resolves the bearer token into the caller identity
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperror.Unauthorized("Missing authorization token")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return apperror.Unauthorized("Invalid authorization format")
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return apperror.Unauthorized("Token has expired")
			}
			return apperror.Unauthorized("Invalid token")
		}

		ctx := c.UserContext()
		if m.revocations != nil {
			revoked, err := m.revocations.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				return apperror.Internal(err)
			}
			if revoked {
				return apperror.Unauthorized("Token has been revoked")
			}
		}

		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return apperror.Unauthorized("Invalid token")
		}

		caller, err := m.resolve(ctx, id, claims.Role)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return apperror.Unauthorized("User not found")
			}
			return apperror.Internal(err)
		}

		SetCaller(c, caller)
		c.Locals(claimsLocalsKey, claims)
		return c.Next()
	}
}

// resolve loads the account so that role changes apply to tokens already issued
func (m *AuthMiddleware) resolve(ctx context.Context, id primitive.ObjectID, role string) (auth.Caller, error) {
	if role == model.RoleSuperAdmin {
		admin, err := m.store.GetSuperAdmin(ctx, id)
		if err != nil {
			return nil, err
		}
		return &auth.SuperAdmin{ID: admin.ID, Email: admin.Email}, nil
	}

	user, err := m.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return auth.CallerForUser(user), nil
}

// Authorize rejects callers whose role is not listed
func Authorize(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CallerFrom(c)
		if !ok {
			return apperror.Unauthorized("")
		}

		for _, r := range roles {
			if caller.Role() == r {
				return c.Next()
			}
		}

		return apperror.Forbidden("You are not authorized to access this resource")
	}
}

// SetCaller stores the caller identity on the request
func SetCaller(c *fiber.Ctx, caller auth.Caller) {
	c.Locals(callerLocalsKey, caller)
}

// CallerFrom extracts the caller identity from context
func CallerFrom(c *fiber.Ctx) (auth.Caller, bool) {
	caller, ok := c.Locals(callerLocalsKey).(auth.Caller)
	return caller, ok && caller != nil
}

// CurrentAdmin returns the calling instructor
func CurrentAdmin(c *fiber.Ctx) (*auth.Admin, error) {
	caller, ok := CallerFrom(c)
	if !ok {
		return nil, apperror.Unauthorized("")
	}
	admin, ok := caller.(*auth.Admin)
	if !ok {
		return nil, apperror.Forbidden("Admin access required")
	}
	return admin, nil
}

// CurrentLearner returns the calling learner
func CurrentLearner(c *fiber.Ctx) (*auth.Learner, error) {
	caller, ok := CallerFrom(c)
	if !ok {
		return nil, apperror.Unauthorized("")
	}
	learner, ok := caller.(*auth.Learner)
	if !ok {
		return nil, apperror.Forbidden("Learner access required")
	}
	return learner, nil
}

// CurrentSuperAdmin returns the calling platform operator
func CurrentSuperAdmin(c *fiber.Ctx) (*auth.SuperAdmin, error) {
	caller, ok := CallerFrom(c)
	if !ok {
		return nil, apperror.Unauthorized("")
	}
	admin, ok := caller.(*auth.SuperAdmin)
	if !ok {
		return nil, apperror.Forbidden("Super admin access required")
	}
	return admin, nil
}

// GetClaims extracts the token claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(claimsLocalsKey).(*auth.Claims)
	return claims, ok
}
