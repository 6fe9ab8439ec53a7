package controller

import (
	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/pkg/serverutils"
	"ai-caller-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IKnowledgeMetaController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	GetByClient(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type knowledgeMetaController struct {
	service service.IKnowledgeMetaService
	auth    fiber.Handler
}

func NewKnowledgeMetaController(service service.IKnowledgeMetaService, auth fiber.Handler) IKnowledgeMetaController {
	return &knowledgeMetaController{service: service, auth: auth}
}

func (c *knowledgeMetaController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge-base")
	h.Use(c.auth)
	h.Get("", c.GetAll)
	h.Get("client/:clientId", c.GetByClient)
	h.Post("", c.Create)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

func (c *knowledgeMetaController) GetAll(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var query dto.KnowledgeMetaQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}

	res, err := c.service.GetAll(ctx.UserContext(), actor, query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge base metadata", res))
}

func (c *knowledgeMetaController) GetByClient(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	clientId, err := uuid.Parse(ctx.Params("clientId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid client id")
	}

	res, err := c.service.GetByClient(ctx.UserContext(), actor, clientId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge base metadata", res))
}

func (c *knowledgeMetaController) Create(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateKnowledgeMetaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create knowledge base metadata", res))
}

func (c *knowledgeMetaController) Update(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	var req dto.UpdateKnowledgeMetaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update knowledge base metadata", res))
}

func (c *knowledgeMetaController) Delete(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	if err := c.service.Delete(ctx.UserContext(), actor, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete knowledge base metadata", nil))
}
