package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"advisorhub.app/assistant/internal/assistant"
	"advisorhub.app/assistant/internal/http/handler"
)

var _ = Describe("ChatHandler", func() {
	var (
		router *gin.Engine
		svc    *mockChatService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockChatService{}
		h := handler.NewChatHandler(svc)
		router.POST("/chat", h.Send)
	})

	It("returns the assistant reply on success", func() {
		svc.processTurnFn = func(_ context.Context, userID, conversationID int64, content, scope string) (*assistant.TurnResult, error) {
			Expect(userID).To(Equal(int64(7)))
			Expect(conversationID).To(BeZero())
			Expect(content).To(Equal("show my tasks"))
			Expect(scope).To(Equal(assistant.ScopeAll))
			return &assistant.TurnResult{ConversationID: 42, Content: "You have 3 tasks."}, nil
		}

		body, _ := json.Marshal(map[string]string{
			"user_id": "7",
			"message": "show my tasks",
		})
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["conversation_id"]).To(Equal("42"))
		Expect(resp["reply"]).To(Equal("You have 3 tasks."))
	})

	It("passes an explicit conversation id and scope through", func() {
		svc.processTurnFn = func(_ context.Context, _, conversationID int64, _, scope string) (*assistant.TurnResult, error) {
			Expect(conversationID).To(Equal(int64(42)))
			Expect(scope).To(Equal(assistant.ScopeEmails))
			return &assistant.TurnResult{ConversationID: 42, Content: "ok"}, nil
		}

		body, _ := json.Marshal(map[string]string{
			"user_id":         "7",
			"conversation_id": "42",
			"message":         "any emails from John?",
			"scope":           "emails",
		})
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("returns the fixed apology when the turn fails", func() {
		svc.processTurnFn = func(_ context.Context, _, _ int64, _, _ string) (*assistant.TurnResult, error) {
			return nil, errors.New("llm unavailable")
		}

		body, _ := json.Marshal(map[string]string{
			"user_id": "7",
			"message": "hello",
		})
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["reply"]).To(Equal(assistant.Apology()))
	})

	It("returns 400 on an empty message", func() {
		body, _ := json.Marshal(map[string]string{"user_id": "7"})
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 400 on an unknown scope", func() {
		body, _ := json.Marshal(map[string]string{
			"user_id": "7",
			"message": "hello",
			"scope":   "everything",
		})
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
