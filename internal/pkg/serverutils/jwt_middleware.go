package serverutils

import (
	"fmt"

	"ai-caller-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ParseToken validates a signed console token and returns its claims.
func ParseToken(tokenStr, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

// NewJwtMiddleware stores user_id, client_id, email and role from the bearer token in locals.
func NewJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		claims, err := ParseToken(authHeader[7:], secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		for _, key := range []string{"user_id", "client_id", "email", "role"} {
			if v, ok := claims[key].(string); ok {
				ctx.Locals(key, v)
			}
		}
		return ctx.Next()
	}
}

// ActorFromClaims builds the request actor. A missing role defaults to client admin.
func ActorFromClaims(claims map[string]string) (entity.Actor, error) {
	userId, err := uuid.Parse(claims["user_id"])
	if err != nil {
		return entity.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid user id in token")
	}

	actor := entity.Actor{
		UserId: userId,
		Email:  claims["email"],
		Role:   entity.ActorRole(claims["role"]),
	}
	if actor.Role == "" {
		actor.Role = entity.ActorRoleClientAdmin
	}

	if raw := claims["client_id"]; raw != "" {
		clientId, err := uuid.Parse(raw)
		if err != nil {
			return entity.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid client id in token")
		}
		actor.ClientId = &clientId
	}
	return actor, nil
}

func ActorFromCtx(ctx *fiber.Ctx) (entity.Actor, error) {
	claims := map[string]string{}
	for _, key := range []string{"user_id", "client_id", "email", "role"} {
		if v, ok := ctx.Locals(key).(string); ok {
			claims[key] = v
		}
	}
	return ActorFromClaims(claims)
}

// ActorFromMapClaims is used by the websocket handshake, which reads the token from the query.
func ActorFromMapClaims(claims jwt.MapClaims) (entity.Actor, error) {
	flat := map[string]string{}
	for _, key := range []string{"user_id", "client_id", "email", "role"} {
		if v, ok := claims[key].(string); ok {
			flat[key] = v
		}
	}
	return ActorFromClaims(flat)
}
