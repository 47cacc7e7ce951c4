package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"namethatobject/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "namethatobject-api"
	TokenAudience = "namethatobject-client"
	TokenLifetime = 7 * 24 * time.Hour
)

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	UserID    uint
	Username  string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevocationChecker reports whether a token was revoked, either by id on
// logout or for every token of a user issued before account deletion.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string, userID uint, issuedAt time.Time) (bool, error)
}

// IssueToken signs an HS256 token for the user.
func IssueToken(secret string, userID uint, username string, now time.Time) (string, TokenClaims, error) {
	claims := TokenClaims{
		UserID:    userID,
		Username:  username,
		JTI:       uuid.NewString(),
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(TokenLifetime),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"iat":      now.Unix(),
		"exp":      claims.ExpiresAt.Unix(),
		"jti":      claims.JTI,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", TokenClaims{}, err
	}
	return signed, claims, nil
}

// ParseToken verifies signature, expiry, issuer and audience.
func ParseToken(secret, tokenString string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return TokenClaims{}, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return TokenClaims{}, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return TokenClaims{}, errors.New("invalid user ID in token")
	}

	out := TokenClaims{UserID: uint(userID)}
	out.Username, _ = claims["username"].(string)
	out.JTI, _ = claims["jti"].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// AuthRequired rejects requests without a valid, unrevoked bearer token.
// On success it stores the user id in locals ("userID") and the token claims
// in locals ("tokenClaims"). revoked may be nil, in which case revocation is
// not checked.
func AuthRequired(secret string, revoked RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := BearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.UserContext(), claims.JTI, claims.UserID, claims.IssuedAt)
			if err != nil {
				// an unreachable revocation store does not lock everyone out
				Logger.WarnContext(c.UserContext(), "token revocation check failed", "error", err)
			} else if isRevoked {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("userID", claims.UserID)
		c.Locals("tokenClaims", claims)
		c.SetUserContext(WithUserID(c.UserContext(), claims.UserID))

		return c.Next()
	}
}
