package router

import (
	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/http/handler"
)

func TaskRouter(router *gin.RouterGroup, handler *handler.TaskHandler) {
	router.GET("", handler.List)
	router.GET("/stats", handler.Stats)
	router.GET("/:id", handler.Get)
	router.DELETE("/:id", handler.Delete)
}
