package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"advisorhub.app/assistant/internal/http/handler"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
)

var _ = Describe("InstructionHandler", func() {
	var (
		router *gin.Engine
		mock   *mockInstructionStore
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		mock = &mockInstructionStore{}
		h := handler.NewInstructionHandler(mock)
		router.GET("/instructions", h.List)
		router.POST("/instructions", h.Create)
		router.PATCH("/instructions/:id", h.Update)
		router.DELETE("/instructions/:id", h.Delete)
	})

	It("creates an instruction active by default", func() {
		var created *model.OngoingInstruction
		mock.createFn = func(_ context.Context, ins *model.OngoingInstruction) error {
			created = ins
			return nil
		}

		body, _ := json.Marshal(map[string]string{
			"instruction": "When someone asks about scheduling, create a task",
		})
		req := httptest.NewRequest(http.MethodPost, "/instructions?user_id=7", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(created).NotTo(BeNil())
		Expect(created.UserID).To(Equal(int64(7)))
		Expect(created.IsActive).To(BeTrue())
		Expect(created.ID).NotTo(BeZero())
	})

	It("lists instructions", func() {
		mock.listFn = func(_ context.Context, userID int64) ([]model.OngoingInstruction, error) {
			Expect(userID).To(Equal(int64(7)))
			return []model.OngoingInstruction{{ID: 1, Instruction: "Flag urgent emails", IsActive: true}}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/instructions?user_id=7", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string][]map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["instructions"]).To(HaveLen(1))
	})

	It("toggles is_active", func() {
		mock.setActiveFn = func(_ context.Context, userID, id int64, active bool) error {
			Expect(userID).To(Equal(int64(7)))
			Expect(id).To(Equal(int64(5)))
			Expect(active).To(BeFalse())
			return nil
		}

		body, _ := json.Marshal(map[string]bool{"is_active": false})
		req := httptest.NewRequest(http.MethodPatch, "/instructions/5?user_id=7", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNoContent))
	})

	It("returns 404 deleting a missing instruction", func() {
		mock.deleteFn = func(_ context.Context, _, _ int64) error {
			return store.ErrNotFound
		}

		req := httptest.NewRequest(http.MethodDelete, "/instructions/99?user_id=7", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
