package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "test-secret"

func operator(t *testing.T) Operator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return Operator{Email: "admin@example.com", PasswordHash: string(hash), Secret: secret, TTL: time.Hour}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("op", []string{RoleAdmin}, secret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "op", claims.Subject)
	assert.True(t, claims.IsAdmin())

	_, err = ParseAccessToken(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateAccessToken("op", nil, secret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(expired, secret)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestOperatorLogin(t *testing.T) {
	op := operator(t)

	resp, err := op.Login("Admin@Example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	claims, err := ParseAccessToken(resp.AccessToken, secret)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())

	_, err = op.Login("admin@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = op.Login("someone@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	op.PasswordHash = ""
	_, err = op.Login("admin@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", Middleware(secret), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString(GetClaims(c).Subject)
	})

	admin, err := GenerateAccessToken("op", []string{RoleAdmin}, secret, time.Minute)
	require.NoError(t, err)
	viewer, err := GenerateAccessToken("viewer", []string{"reader"}, secret, time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"malformed", "Token abc", fiber.StatusUnauthorized},
		{"bad token", "Bearer abc", fiber.StatusUnauthorized},
		{"not admin", "Bearer " + viewer, fiber.StatusForbidden},
		{"admin", "Bearer " + admin, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
