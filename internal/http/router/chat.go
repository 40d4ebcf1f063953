package router

import (
	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/http/handler"
)

func ChatRouter(router *gin.RouterGroup, handler *handler.ChatHandler) {
	router.POST("", handler.Send)
}
