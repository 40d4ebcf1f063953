package router

import (
	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/http/handler"
)

func ConversationRouter(router *gin.RouterGroup, handler *handler.ConversationHandler) {
	router.GET("", handler.List)
	router.GET("/:id/messages", handler.Messages)
	router.DELETE("/:id", handler.Delete)
}
