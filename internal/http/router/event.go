package router

import (
	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/http/handler"
)

func EventRouter(router *gin.RouterGroup, handler *handler.EventIngestHandler) {
	router.POST("", handler.Ingest)
}
