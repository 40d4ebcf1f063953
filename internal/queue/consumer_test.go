package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"advisorhub.app/assistant/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	It("parses a full event entry", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID: "1-0",
			Values: map[string]any{
				"user_id":  "42",
				"source":   "gmail",
				"payload":  `{"subject": "Invoice"}`,
				"attempt":  "2",
				"trace_id": "abc123",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1-0"))
		Expect(msg.UserID).To(Equal(int64(42)))
		Expect(msg.Source).To(Equal("gmail"))
		Expect(msg.Payload).To(Equal(`{"subject": "Invoice"}`))
		Expect(msg.Attempt).To(Equal(2))
		Expect(msg.TraceID).To(Equal("abc123"))
	})

	It("defaults the attempt to 1", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID:     "1-0",
			Values: map[string]any{"user_id": "42", "source": "calendar"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
	})

	It("tolerates a missing payload and trace id", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID:     "1-0",
			Values: map[string]any{"user_id": "42", "source": "hubspot"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Payload).To(BeEmpty())
		Expect(msg.TraceID).To(BeEmpty())
	})

	It("rejects an entry without a user id", func() {
		_, err := queue.ParseMessage(redis.XMessage{
			ID:     "1-0",
			Values: map[string]any{"source": "gmail"},
		})
		Expect(err).To(MatchError(ContainSubstring("missing user_id")))
	})

	It("rejects an entry without a source", func() {
		_, err := queue.ParseMessage(redis.XMessage{
			ID:     "1-0",
			Values: map[string]any{"user_id": "42"},
		})
		Expect(err).To(MatchError(ContainSubstring("missing source")))
	})

	It("rejects a non-numeric user id", func() {
		_, err := queue.ParseMessage(redis.XMessage{
			ID:     "1-0",
			Values: map[string]any{"user_id": "alice", "source": "gmail"},
		})
		Expect(err).To(MatchError(ContainSubstring("parsing user_id")))
	})
})
