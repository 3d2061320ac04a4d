package auth

import (
	"testing"
	"time"

	"github.com/gamifylearn/gamification-api/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager(JWTConfig{Secret: "test-secret", Issuer: "gamification-api"})
	id := primitive.NewObjectID().Hex()

	token, jti, err := manager.GenerateAccessToken(id, "ada@example.com", "ada", model.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, id, claims.Subject)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, DefaultTokenExpiry, manager.Expiry())
}

func TestValidateTokenFailures(t *testing.T) {
	manager := NewJWTManager(JWTConfig{Secret: "test-secret"})
	other := NewJWTManager(JWTConfig{Secret: "another-secret"})
	expired := NewJWTManager(JWTConfig{Secret: "test-secret", Expiry: time.Nanosecond})

	foreign, _, err := other.GenerateAccessToken("64b7f0c2a1b2c3d4e5f60718", "a@b.c", "a", model.RoleUser)
	require.NoError(t, err)

	stale, _, err := expired.GenerateAccessToken("64b7f0c2a1b2c3d4e5f60718", "a@b.c", "a", model.RoleUser)
	require.NoError(t, err)
	time.Sleep(time.Second)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "64b7f0c2a1b2c3d4e5f60718"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "not.a.token", wantErr: ErrInvalidToken},
		{name: "wrong secret", token: foreign, wantErr: ErrInvalidToken},
		{name: "expired", token: stale, wantErr: ErrExpiredToken},
		{name: "unsigned", token: unsigned, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateTokenRequiresUserID(t *testing.T) {
	manager := NewJWTManager(JWTConfig{Secret: "test-secret"})

	token, _, err := manager.GenerateAccessToken("", "a@b.c", "a", model.RoleUser)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestCallerForUser(t *testing.T) {
	id := primitive.NewObjectID()

	admin := CallerForUser(&model.User{ID: id, Role: model.RoleAdmin, Email: "i@example.com"})
	require.IsType(t, &Admin{}, admin)
	assert.Equal(t, model.RoleAdmin, admin.Role())
	assert.Equal(t, id, admin.AccountID())

	learner := CallerForUser(&model.User{ID: id, Role: model.RoleUser})
	require.IsType(t, &Learner{}, learner)
	assert.Equal(t, model.RoleUser, learner.Role())

	super := &SuperAdmin{ID: id, Email: "root@example.com"}
	assert.Equal(t, model.RoleSuperAdmin, super.Role())
	assert.Equal(t, "root@example.com", super.AccountEmail())
}
