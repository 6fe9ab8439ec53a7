package controller

import (
	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/pkg/serverutils"
	"ai-caller-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAgentKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Get(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
}

type agentKnowledgeController struct {
	service service.IAgentKnowledgeService
	auth    fiber.Handler
}

func NewAgentKnowledgeController(service service.IAgentKnowledgeService, auth fiber.Handler) IAgentKnowledgeController {
	return &agentKnowledgeController{service: service, auth: auth}
}

func (c *agentKnowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agents/:agentId/knowledge-base-db")
	h.Use(c.auth)
	h.Get("", c.Get)
	h.Put("", c.Save)
	h.Post("", c.Save)
}

func (c *agentKnowledgeController) Get(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.UserContext(), ctx.Params("agentId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get agent knowledge base", res))
}

func (c *agentKnowledgeController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveAgentKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.AgentId = ctx.Params("agentId")
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Save(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save agent knowledge base", res))
}
