package router

import (
	"context"

	"learning_chat_service/internal/chat/app"
	"learning_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册聊天相关的路由
// @title Learning Chat Service API
// @version 1.0
// @description API documentation for Learning Chat Service
// @host localhost:8080
// @BasePath /
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, attachmentHandler *app.AttachmentHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", app.ConnectCheck)
	r.Post("/debug", app.DebugLogFlag)

	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	r.Post("/attachments", attachmentHandler.Upload)
	r.Get("/attachments/url", attachmentHandler.DownloadURL)
}
