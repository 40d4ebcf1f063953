package router

import (
	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/http/handler"
)

func InstructionRouter(router *gin.RouterGroup, handler *handler.InstructionHandler) {
	router.GET("", handler.List)
	router.POST("", handler.Create)
	router.PATCH("/:id", handler.Update)
	router.DELETE("/:id", handler.Delete)
}
