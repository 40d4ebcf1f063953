package router

import (
	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/http/handler"
	"advisorhub.app/assistant/internal/queue"
	"advisorhub.app/assistant/internal/store"
)

type RouterConfig struct {
	TraceHeader string
}

type Deps struct {
	Chat          handler.ChatService
	Tasks         handler.TaskService
	Instructions  store.InstructionStore
	Conversations store.ConversationStore
	Messages      store.MessageStore
	Producer      queue.Producer
}

func SetupRoutes(router *gin.Engine, deps Deps, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		chatHandler := handler.NewChatHandler(deps.Chat)
		ChatRouter(v1.Group("/chat"), chatHandler)

		taskHandler := handler.NewTaskHandler(deps.Tasks)
		TaskRouter(v1.Group("/tasks"), taskHandler)

		instructionHandler := handler.NewInstructionHandler(deps.Instructions)
		InstructionRouter(v1.Group("/instructions"), instructionHandler)

		conversationHandler := handler.NewConversationHandler(deps.Conversations, deps.Messages)
		ConversationRouter(v1.Group("/conversations"), conversationHandler)

		eventHandler := handler.NewEventIngestHandler(deps.Producer, cfg.TraceHeader)
		EventRouter(v1.Group("/events"), eventHandler)
	}
}
