package workflow_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/workflow"
)

var _ = Describe("Service", func() {
	var (
		ctx   context.Context
		tasks *memTaskStore
		svc   *workflow.Service
	)

	const userID int64 = 7

	BeforeEach(func() {
		ctx = context.Background()
		tasks = newMemTaskStore()
		svc = workflow.NewService(tasks)
	})

	Describe("Create", func() {
		It("defaults priority to medium and status to pending", func() {
			task, err := svc.Create(ctx, userID, workflow.CreateParams{Title: "Call John"})
			Expect(err).NotTo(HaveOccurred())
			Expect(task.ID).NotTo(BeZero())
			Expect(task.Priority).To(Equal(model.TaskPriorityMedium))
			Expect(task.Status).To(Equal(model.TaskStatusPending))
		})

		It("rejects an empty title", func() {
			_, err := svc.Create(ctx, userID, workflow.CreateParams{})
			Expect(err).To(MatchError(ContainSubstring("title is required")))
		})

		It("honors an explicit status", func() {
			task, err := svc.Create(ctx, userID, workflow.CreateParams{
				Title:  "Waiting on Sarah",
				Status: model.TaskStatusWaitingResponse,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Status).To(Equal(model.TaskStatusWaitingResponse))
		})
	})

	Describe("Transition", func() {
		It("allows pending to in_progress", func() {
			task, _ := svc.Create(ctx, userID, workflow.CreateParams{Title: "t"})

			updated, err := svc.Transition(ctx, userID, task.ID, model.TaskStatusInProgress)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(model.TaskStatusInProgress))
		})

		It("stamps CompletedAt on completion", func() {
			task, _ := svc.Create(ctx, userID, workflow.CreateParams{Title: "t"})

			updated, err := svc.Complete(ctx, userID, task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(model.TaskStatusCompleted))
			Expect(updated.CompletedAt).NotTo(BeNil())
		})

		It("rejects leaving completed", func() {
			task, _ := svc.Create(ctx, userID, workflow.CreateParams{Title: "t"})
			_, err := svc.Complete(ctx, userID, task.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Transition(ctx, userID, task.ID, model.TaskStatusInProgress)
			Expect(err).To(MatchError(workflow.ErrInvalidTransition))
		})

		It("rejects waiting_response to pending", func() {
			task, _ := svc.Create(ctx, userID, workflow.CreateParams{
				Title:  "t",
				Status: model.TaskStatusWaitingResponse,
			})

			_, err := svc.Transition(ctx, userID, task.ID, model.TaskStatusPending)
			Expect(err).To(MatchError(workflow.ErrInvalidTransition))
		})

		It("treats a same-status transition as a no-op", func() {
			task, _ := svc.Create(ctx, userID, workflow.CreateParams{Title: "t"})

			updated, err := svc.Transition(ctx, userID, task.ID, model.TaskStatusPending)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(model.TaskStatusPending))
		})
	})

	Describe("UpdateMetadata", func() {
		It("merges without discarding existing keys", func() {
			task, _ := svc.Create(ctx, userID, workflow.CreateParams{
				Title:    "t",
				Metadata: model.Metadata{"type": "user_task", "keep": "me"},
			})

			updated, err := svc.UpdateMetadata(ctx, userID, task.ID, model.Metadata{"declined": true})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Metadata).To(HaveKeyWithValue("keep", "me"))
			Expect(updated.Metadata).To(HaveKeyWithValue("type", "user_task"))
			Expect(updated.Metadata).To(HaveKeyWithValue("declined", true))
		})
	})

	Describe("ListActive", func() {
		It("returns in_progress before pending and respects the limit", func() {
			for i := 0; i < 3; i++ {
				_, err := svc.Create(ctx, userID, workflow.CreateParams{Title: "pending"})
				Expect(err).NotTo(HaveOccurred())
			}
			task, _ := svc.Create(ctx, userID, workflow.CreateParams{Title: "active"})
			_, err := svc.Transition(ctx, userID, task.ID, model.TaskStatusInProgress)
			Expect(err).NotTo(HaveOccurred())

			active, err := svc.ListActive(ctx, userID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(2))
			Expect(active[0].Title).To(Equal("active"))
		})
	})

	Describe("Stats", func() {
		It("computes counts and completion rate", func() {
			due := time.Now().Add(-24 * time.Hour)
			_, err := svc.Create(ctx, userID, workflow.CreateParams{Title: "overdue", DueDate: &due})
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 2; i++ {
				task, err := svc.Create(ctx, userID, workflow.CreateParams{Title: "done"})
				Expect(err).NotTo(HaveOccurred())
				_, err = svc.Complete(ctx, userID, task.ID)
				Expect(err).NotTo(HaveOccurred())
			}
			task, err := svc.Create(ctx, userID, workflow.CreateParams{Title: "waiting"})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Transition(ctx, userID, task.ID, model.TaskStatusWaitingResponse)
			Expect(err).NotTo(HaveOccurred())

			stats, err := svc.Stats(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(4))
			Expect(stats.Pending).To(Equal(1))
			Expect(stats.Waiting).To(Equal(1))
			Expect(stats.Completed).To(Equal(2))
			Expect(stats.Overdue).To(Equal(1))
			Expect(stats.CompletionRate).To(Equal(50.0))
		})

		It("reports zero rate with no tasks", func() {
			stats, err := svc.Stats(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(BeZero())
			Expect(stats.CompletionRate).To(BeZero())
		})
	})
})
