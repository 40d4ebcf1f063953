package workflow_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/workflow"
)

var _ = Describe("Multi-step workflows", func() {
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

	newAppointmentWorkflow := func() *workflow.MultiStepResult {
		result, err := svc.CreateMultiStep(ctx, userID, workflow.MultiStepParams{
			Title:    "Schedule appointment with Sarah",
			Priority: model.TaskPriorityHigh,
			Metadata: model.Metadata{"contactName": "Sarah"},
			Steps: []workflow.StepParams{
				{Title: "Send availability email", Metadata: model.Metadata{"type": "send_email"}},
				{Title: "Wait for response", Metadata: model.Metadata{"type": "wait_response"}},
				{Title: "Create meeting", Metadata: model.Metadata{"type": "create_meeting"}},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	Describe("CreateMultiStep", func() {
		It("creates the parent with workflow markers", func() {
			result := newAppointmentWorkflow()

			Expect(result.Parent.Metadata).To(HaveKeyWithValue("type", model.TaskTypeMultiStepParent))
			Expect(result.Parent.Metadata).To(HaveKeyWithValue("totalSteps", 3))
			Expect(result.Parent.Metadata).To(HaveKeyWithValue("contactName", "Sarah"))
			Expect(result.Parent.Status).To(Equal(model.TaskStatusPending))
		})

		It("creates ordered pending children carrying step metadata", func() {
			result := newAppointmentWorkflow()

			Expect(result.Steps).To(HaveLen(3))
			for i, step := range result.Steps {
				Expect(*step.StepOrder).To(Equal(i + 1))
				Expect(*step.ParentTaskID).To(Equal(result.Parent.ID))
				Expect(step.Status).To(Equal(model.TaskStatusPending))
				Expect(step.Metadata).To(HaveKeyWithValue("type", model.TaskTypeMultiStepChild))
			}
		})

		It("rejects an empty step list", func() {
			_, err := svc.CreateMultiStep(ctx, userID, workflow.MultiStepParams{Title: "empty"})
			Expect(err).To(MatchError(ContainSubstring("at least one step")))
		})
	})

	Describe("AdvanceToNextStep", func() {
		It("completes the step and promotes the next one", func() {
			result := newAppointmentWorkflow()

			advance, err := svc.AdvanceToNextStep(ctx, userID, result.Steps[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(advance.NextStep).NotTo(BeNil())
			Expect(advance.NextStep.Title).To(Equal("Wait for response"))
			Expect(advance.NextStep.Status).To(Equal(model.TaskStatusInProgress))
			Expect(advance.Message).To(Equal("Advanced to step 2: Wait for response"))

			done, err := svc.Get(ctx, userID, result.Steps[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(done.Status).To(Equal(model.TaskStatusCompleted))

			parent, err := svc.Get(ctx, userID, result.Parent.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(parent.Status).To(Equal(model.TaskStatusInProgress))
		})

		It("completes the parent after the last step", func() {
			result := newAppointmentWorkflow()

			for _, step := range result.Steps[:2] {
				_, err := svc.AdvanceToNextStep(ctx, userID, step.ID)
				Expect(err).NotTo(HaveOccurred())
			}
			advance, err := svc.AdvanceToNextStep(ctx, userID, result.Steps[2].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(advance.NextStep).To(BeNil())
			Expect(advance.Message).To(Equal("All steps completed! Multi-step task is now complete."))

			parent, err := svc.Get(ctx, userID, result.Parent.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(parent.Status).To(Equal(model.TaskStatusCompleted))
		})

		It("rejects a task outside a workflow", func() {
			task, err := svc.Create(ctx, userID, workflow.CreateParams{Title: "standalone"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.AdvanceToNextStep(ctx, userID, task.ID)
			Expect(err).To(MatchError(ContainSubstring("not part of a multi-step workflow")))
		})
	})

	Describe("ResumeWaitingTask", func() {
		It("records the response and moves the task to in_progress", func() {
			result := newAppointmentWorkflow()
			waiting := result.Steps[1]
			_, err := svc.Transition(ctx, userID, waiting.ID, model.TaskStatusWaitingResponse)
			Expect(err).NotTo(HaveOccurred())

			resumed, err := svc.ResumeWaitingTask(ctx, userID, waiting.ID, model.Metadata{
				"responseType": "accepted",
				"selectedTime": "Tomorrow at 9:00 AM",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resumed.Status).To(Equal(model.TaskStatusInProgress))
			Expect(resumed.Metadata).To(HaveKeyWithValue("responseReceived", true))
			Expect(resumed.Metadata).To(HaveKey("responseTimestamp"))
			Expect(resumed.Metadata).To(HaveKeyWithValue("type", model.TaskTypeMultiStepChild))

			data, ok := resumed.Metadata["responseData"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(data).To(HaveKeyWithValue("responseType", "accepted"))
		})

		It("rejects a task that is not waiting", func() {
			task, err := svc.Create(ctx, userID, workflow.CreateParams{Title: "t"})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.ResumeWaitingTask(ctx, userID, task.ID, model.Metadata{})
			Expect(err).To(MatchError(ContainSubstring("not waiting for a response")))
		})
	})
})
