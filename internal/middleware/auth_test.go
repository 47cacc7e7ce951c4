package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type revocationStub struct {
	revoked map[string]bool
	err     error
}

func (r *revocationStub) IsRevoked(_ context.Context, jti string, _ uint, _ time.Time) (bool, error) {
	return r.revoked[jti], r.err
}

func signRaw(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newAuthApp(revoked RevocationChecker) *fiber.App {
	app := fiber.New()
	app.Get("/test", AuthRequired(testSecret, revoked), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := newAuthApp(nil)

	valid, _, err := IssueToken(testSecret, 123, "alice", time.Now())
	require.NoError(t, err)
	expired, _, err := IssueToken(testSecret, 123, "alice", time.Now().Add(-8*24*time.Hour))
	require.NoError(t, err)

	wrongIssuer := signRaw(t, jwt.MapClaims{
		"sub": strconv.Itoa(123),
		"iss": "someone-else",
		"aud": TokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noExpiry := signRaw(t, jwt.MapClaims{
		"sub": strconv.Itoa(123),
		"iss": TokenIssuer,
		"aud": TokenAudience,
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, 0},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized, 0},
		{"Wrong Issuer", "Bearer " + wrongIssuer, http.StatusUnauthorized, 0},
		{"Missing Expiry", "Bearer " + noExpiry, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.EqualValues(t, tt.expectedUserID, body["userID"])
			}
		})
	}
}

func TestAuthRequired_Revoked(t *testing.T) {
	token, claims, err := IssueToken(testSecret, 5, "bob", time.Now())
	require.NoError(t, err)

	app := newAuthApp(&revocationStub{revoked: map[string]bool{claims.JTI: true}})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRequired_RevocationStoreDownStillAuthenticates(t *testing.T) {
	token, _, err := IssueToken(testSecret, 5, "bob", time.Now())
	require.NoError(t, err)

	app := newAuthApp(&revocationStub{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseToken_RoundTrip(t *testing.T) {
	now := time.Now()
	token, issued, err := IssueToken(testSecret, 42, "carol", now)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "carol", claims.Username)
	assert.Equal(t, issued.JTI, claims.JTI)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.WithinDuration(t, now.Add(TokenLifetime), claims.ExpiresAt, time.Second)

	_, err = ParseToken("another-secret-another-secret-1234", token)
	assert.Error(t, err)
}
