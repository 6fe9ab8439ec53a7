package serverutils

import (
	"errors"

	"ai-caller-be/internal/entity"
	"ai-caller-be/pkg/elevenlabs"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into BaseResponse bodies.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, res := mapError(err)
		return ctx.Status(status).JSON(res)
	}
}

func mapError(err error) (int, BaseResponse[any]) {
	var (
		fiberErr      *fiber.Error
		validationErr validator.ValidationErrors
		apiErr        *elevenlabs.APIError
	)

	switch {
	case errors.As(err, &validationErr):
		res := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
		res.Errors = validationMessages(validationErr)
		return fiber.StatusBadRequest, res
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	case errors.Is(err, entity.ErrForbiddenTenant):
		return fiber.StatusForbidden, ErrorResponse(fiber.StatusForbidden, err.Error())
	case errors.Is(err, entity.ErrKnowledgeDocumentNotFound),
		errors.Is(err, entity.ErrKnowledgeMetaNotFound),
		elevenlabs.IsNotFound(err):
		return fiber.StatusNotFound, ErrorResponse(fiber.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrUnsupportedKnowledgeType),
		errors.Is(err, entity.ErrAgentIdRequired):
		return fiber.StatusBadRequest, ErrorResponse(fiber.StatusBadRequest, err.Error())
	case elevenlabs.IsUnauthorized(err):
		return fiber.StatusBadGateway, ErrorResponse(fiber.StatusBadGateway,
			"The knowledge base service rejected the API key. Check the ElevenLabs API key configuration.")
	case elevenlabs.IsTransient(err):
		return fiber.StatusServiceUnavailable, ErrorResponse(fiber.StatusServiceUnavailable,
			"The knowledge base service is unreachable. Please retry.")
	case elevenlabs.IsMalformed(err), errors.As(err, &apiErr):
		return fiber.StatusBadGateway, ErrorResponse(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, err.Error())
	}
}
