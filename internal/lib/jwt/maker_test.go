package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pms-backend/internal/models"
)

const testSecret = "test_secret_key_1234567890"

func testUser() *models.User {
	return &models.User{
		ID:          42,
		UUID:        uuid.New(),
		Email:       "a@b.com",
		IsAdmin:     true,
		IsSuperuser: false,
	}
}

func TestJWTMaker_GenerateAndParseToken(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(testSecret, tokenTTL)

	tests := []struct {
		name string
		user *models.User
	}{
		{name: "admin user", user: testUser()},
		{name: "regular user", user: &models.User{ID: 1, UUID: uuid.New()}},
		{name: "superuser", user: &models.User{ID: 2, UUID: uuid.New(), IsSuperuser: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.user)
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.user.UUID.String(), claims[SubjectClaim])
			assert.EqualValues(t, tt.user.ID, claims["id"])
			assert.Equal(t, tt.user.IsAdmin, claims["is_admin"])
			assert.Equal(t, tt.user.IsSuperuser, claims["is_superuser"])
			assert.Equal(t, TokenTypeAccess, claims["token_type"])
			assert.NotEmpty(t, claims["jti"])

			exp, err := jwt.MapClaims(claims).GetExpirationTime()
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), exp.Time, 2*time.Second)
		})
	}
}

func TestJWTMaker_UniqueJTI(t *testing.T) {
	maker := NewJWTMaker(testSecret, time.Minute)
	user := testUser()

	t1, err := maker.GenerateToken(user)
	require.NoError(t, err)
	t2, err := maker.GenerateToken(user)
	require.NoError(t, err)

	c1, err := maker.ParseToken(t1)
	require.NoError(t, err)
	c2, err := maker.ParseToken(t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1["jti"], c2["jti"])
}

func TestJWTMaker_ParseToken_Errors(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute)

	valid, err := maker.GenerateToken(testUser())
	require.NoError(t, err)

	expired, err := NewJWTMaker(testSecret, -time.Hour).GenerateToken(testUser())
	require.NoError(t, err)

	wrongSecret, err := NewJWTMaker("wrong_secret_key", 15*time.Minute).GenerateToken(testUser())
	require.NoError(t, err)

	other, err := maker.GenerateToken(&models.User{ID: 1, UUID: uuid.New()})
	require.NoError(t, err)
	validParts, otherParts := strings.Split(valid, "."), strings.Split(other, ".")
	tampered := strings.Join([]string{validParts[0], otherParts[1], validParts[2]}, ".")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		SubjectClaim: uuid.NewString(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		SubjectClaim: uuid.NewString(),
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "garbage", wantErr: jwt.ErrTokenMalformed},
		{name: "expired", token: expired, wantErr: jwt.ErrTokenExpired},
		{name: "wrong secret", token: wrongSecret, wantErr: jwt.ErrTokenSignatureInvalid},
		{name: "tampered", token: tampered, wantErr: jwt.ErrTokenSignatureInvalid},
		{name: "missing exp", token: noExp, wantErr: jwt.ErrTokenRequiredClaimMissing},
		{name: "other algorithm", token: hs512, wantErr: jwt.ErrTokenSignatureInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Nil(t, claims)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestJWTMaker_Leeway(t *testing.T) {
	token, err := NewJWTMaker(testSecret, -10*time.Second).GenerateToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTMaker(testSecret, time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := NewJWTMaker(testSecret, time.Hour, WithLeeway(time.Minute)).ParseToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestJWTMaker_Clock(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	maker := NewJWTMaker(testSecret, time.Hour, WithClock(func() time.Time { return issued }))

	token, err := maker.GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	exp, err := jwt.MapClaims(claims).GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour).Unix(), exp.Unix())
}
