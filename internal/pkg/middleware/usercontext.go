package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/internal/pkg/usercontext"
)

// Claims are the JWT claims issued by the identity service.
type Claims struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(token string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UUID == "" {
		claims.UUID = claims.Subject
	}
	if claims.UUID == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// UserContextMiddleware sets up the user context for every request from the
// bearer token. Requests without a valid token continue as anonymous.
func UserContextMiddleware(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}

		claims, err := ParseToken(token, secret)
		if err != nil {
			log.Warnf("[Auth] Rejected bearer token from %s: %v", c.IP(), err)
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserUUID:   claims.UUID,
			Email:      claims.Email,
			Role:       claims.Role,
			IsLoggedIn: true,
			IsAdmin:    strings.EqualFold(claims.Role, models.ROLE_ADMIN),
		})
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
