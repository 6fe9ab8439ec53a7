package controller

import (
	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/pkg/serverutils"
	"ai-caller-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeBaseController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Impact(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type knowledgeBaseController struct {
	service service.IKnowledgeBaseService
	auth    fiber.Handler
}

func NewKnowledgeBaseController(service service.IKnowledgeBaseService, auth fiber.Handler) IKnowledgeBaseController {
	return &knowledgeBaseController{service: service, auth: auth}
}

func (c *knowledgeBaseController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1/documents")
	h.Use(c.auth)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Patch(":id", c.Update)
	h.Get(":id/dependents", c.Impact)
	h.Delete(":id", c.Delete)
}

func (c *knowledgeBaseController) List(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var query dto.ListKnowledgeQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}

	res, err := c.service.List(ctx.UserContext(), actor, query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge base documents", res))
}

func (c *knowledgeBaseController) Create(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateKnowledgeDocumentRequest
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

	return ctx.JSON(serverutils.SuccessResponse("Success create knowledge base document", res))
}

func (c *knowledgeBaseController) Show(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), actor, ctx.Params("id"), ctx.QueryBool("refresh", false))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show knowledge base document", res))
}

func (c *knowledgeBaseController) Update(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateKnowledgeDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), actor, ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update knowledge base document", res))
}

func (c *knowledgeBaseController) Impact(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetImpact(ctx.UserContext(), actor, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get dependent agents", res))
}

func (c *knowledgeBaseController) Delete(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Delete(ctx.UserContext(), actor, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete knowledge base document", res))
}
