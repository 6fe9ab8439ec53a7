package handler

import (
	"encoding/json"
	"strings"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/internal/pkg/serverutils"
	"ai-caller-be/internal/service"
	internalWS "ai-caller-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type ConsoleHandler struct {
	console   service.IConsoleService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewConsoleHandler(console service.IConsoleService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *ConsoleHandler {
	return &ConsoleHandler{
		console:   console,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (h *ConsoleHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/knowledge/v1/ws", h.ServeWs)
}

// ServeWs authenticates the handshake and upgrades it into a live console session.
func (h *ConsoleHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on a websocket handshake, so the query wins.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	claims, err := serverutils.ParseToken(tokenStr, h.jwtSecret)
	if err != nil {
		h.logger.Warn("ConsoleHandler", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	actor, err := serverutils.ActorFromMapClaims(claims)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		client := internalWS.NewClient(h.hub, conn, actor)
		client.Session = h.console.NewSession(actor, func(msg dto.ConsoleMessage) {
			data, err := json.Marshal(msg)
			if err != nil {
				return
			}
			client.Enqueue(data)
		})

		h.logger.Info("ConsoleHandler", "Console session started", map[string]interface{}{"user_id": actor.UserId})
		internalWS.ServeWs(h.hub, client)
		h.logger.Info("ConsoleHandler", "Console session ended", map[string]interface{}{"user_id": actor.UserId})
	})(c)
}
