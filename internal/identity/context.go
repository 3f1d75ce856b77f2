package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Principal identifies the authenticated caller. It is extracted from the JWT
// once per request and threaded explicitly through every core operation; no
// package holds ambient current-user state.
type Principal struct {
	UserID    string
	SessionID string
}

// FromContext extracts the principal from JWT claims in the Fiber context.
func FromContext(c *fiber.Ctx) (Principal, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return Principal{}, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Principal{}, errors.New("missing sub claim")
	}

	sid, _ := claims["sid"].(string)

	return Principal{UserID: sub, SessionID: sid}, nil
}
