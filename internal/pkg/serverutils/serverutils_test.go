package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ai-caller-be/internal/entity"
	"ai-caller-be/pkg/elevenlabs"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerMiddleware_MapsErrors(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", ValidateRequest(payload{}), fiber.StatusBadRequest},
		{"fiber error", fiber.NewError(fiber.StatusConflict, "conflict"), fiber.StatusConflict},
		{"tenant", fmt.Errorf("delete: %w", entity.ErrForbiddenTenant), fiber.StatusForbidden},
		{"not found", entity.ErrKnowledgeDocumentNotFound, fiber.StatusNotFound},
		{"upstream not found", &elevenlabs.NotFoundError{Resource: "document x"}, fiber.StatusNotFound},
		{"upstream unauthorized", &elevenlabs.UnauthorizedError{}, fiber.StatusBadGateway},
		{"upstream transient", &elevenlabs.TransientNetworkError{Op: "list", Err: errors.New("timeout")}, fiber.StatusServiceUnavailable},
		{"upstream api", &elevenlabs.APIError{StatusCode: 500, Status: "Internal Server Error"}, fiber.StatusBadGateway},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body BaseResponse[any]
			raw, _ := io.ReadAll(resp.Body)
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.status, body.Code)
		})
	}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJwtMiddleware_PopulatesActor(t *testing.T) {
	userId := uuid.New()
	clientId := uuid.New()
	token := signToken(t, "s3cret", jwt.MapClaims{
		"user_id":   userId.String(),
		"client_id": clientId.String(),
		"email":     "ops@x.test",
		"role":      "client_admin",
	})

	app := fiber.New()
	app.Use(NewJwtMiddleware("s3cret"))
	var got entity.Actor
	app.Get("/", func(ctx *fiber.Ctx) error {
		actor, err := ActorFromCtx(ctx)
		got = actor
		return err
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, userId, got.UserId)
	require.NotNil(t, got.ClientId)
	assert.Equal(t, clientId, *got.ClientId)
	assert.Equal(t, "ops@x.test", got.Email)
	assert.Equal(t, entity.ActorRoleClientAdmin, got.Role)
}

func TestJwtMiddleware_RejectsBadTokens(t *testing.T) {
	app := fiber.New()
	app.Use(NewJwtMiddleware("s3cret"))
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusOK) })

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"wrong secret": "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": uuid.NewString()}),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestActorFromClaims_DefaultsRole(t *testing.T) {
	actor, err := ActorFromClaims(map[string]string{"user_id": uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, entity.ActorRoleClientAdmin, actor.Role)
	assert.Nil(t, actor.ClientId)

	_, err = ActorFromClaims(map[string]string{"user_id": "nope"})
	assert.Error(t, err)
}
