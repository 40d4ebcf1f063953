package assistant_test

import (
	"context"
	"sort"
	"time"

	"advisorhub.app/assistant/common/llm"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/provider"
	"advisorhub.app/assistant/internal/store"
)

type mockChatClient struct {
	chatFn func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	calls  []llm.ChatRequest
}

func (m *mockChatClient) ChatWithTools(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.calls = append(m.calls, req)
	if m.chatFn != nil {
		return m.chatFn(ctx, req)
	}
	return &llm.ChatResponse{Content: "ok", FinishReason: "stop"}, nil
}

func (m *mockChatClient) Model() string { return "test-model" }

type mockUserStore struct {
	getByIDFn    func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.User{ID: id, Name: "Test User", Email: "user@example.com"}, nil
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStore) Create(_ context.Context, _ *model.User) error { return nil }

type mockConversationStore struct {
	createFn func(ctx context.Context, conv *model.Conversation) error
	touched  []int64
}

func (m *mockConversationStore) GetByID(_ context.Context, _ int64) (*model.Conversation, error) {
	return nil, store.ErrNotFound
}

func (m *mockConversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	if m.createFn != nil {
		return m.createFn(ctx, conv)
	}
	return nil
}

func (m *mockConversationStore) Touch(_ context.Context, id int64) error {
	m.touched = append(m.touched, id)
	return nil
}

func (m *mockConversationStore) ListByUser(_ context.Context, _ int64, _ int) ([]model.Conversation, error) {
	return nil, nil
}

func (m *mockConversationStore) Delete(_ context.Context, _ int64) error { return nil }

func (m *mockConversationStore) DeleteEmptyOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type mockMessageStore struct {
	listRecentFn func(ctx context.Context, conversationID int64, limit int) ([]model.Message, error)
	appended     []model.Message
}

func (m *mockMessageStore) ListRecent(ctx context.Context, conversationID int64, limit int) ([]model.Message, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, conversationID, limit)
	}
	return nil, nil
}

func (m *mockMessageStore) Append(_ context.Context, msg *model.Message) error {
	m.appended = append(m.appended, *msg)
	return nil
}

type mockInstructionStore struct {
	createFn     func(ctx context.Context, ins *model.OngoingInstruction) error
	listActiveFn func(ctx context.Context, userID int64) ([]model.OngoingInstruction, error)
}

func (m *mockInstructionStore) Create(ctx context.Context, ins *model.OngoingInstruction) error {
	if m.createFn != nil {
		return m.createFn(ctx, ins)
	}
	return nil
}

func (m *mockInstructionStore) List(_ context.Context, _ int64) ([]model.OngoingInstruction, error) {
	return nil, nil
}

func (m *mockInstructionStore) ListActive(ctx context.Context, userID int64) ([]model.OngoingInstruction, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockInstructionStore) SetActive(_ context.Context, _, _ int64, _ bool) error { return nil }
func (m *mockInstructionStore) Delete(_ context.Context, _, _ int64) error            { return nil }

type mockEmailStore struct {
	listRecentFn func(ctx context.Context, userID int64, filter store.EmailFilter) ([]model.EmailMessage, error)
}

func (m *mockEmailStore) ListRecent(ctx context.Context, userID int64, filter store.EmailFilter) ([]model.EmailMessage, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockEmailStore) Insert(_ context.Context, _ *model.EmailMessage) error { return nil }

type mockCalendarStore struct {
	listFn   func(ctx context.Context, userID int64, filter store.CalendarFilter) ([]model.CalendarEvent, error)
	inserted []model.CalendarEvent
	deleted  []int64
}

func (m *mockCalendarStore) List(ctx context.Context, userID int64, filter store.CalendarFilter) ([]model.CalendarEvent, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockCalendarStore) GetByID(_ context.Context, _, _ int64) (*model.CalendarEvent, error) {
	return nil, store.ErrNotFound
}

func (m *mockCalendarStore) Insert(_ context.Context, event *model.CalendarEvent) error {
	m.inserted = append(m.inserted, *event)
	return nil
}

func (m *mockCalendarStore) Delete(_ context.Context, _, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockContactStore struct {
	getByEmailFn func(ctx context.Context, userID int64, email string) (*model.Contact, error)
	searchFn     func(ctx context.Context, userID int64, terms []string, limit int) ([]model.Contact, error)
	listFn       func(ctx context.Context, userID int64, limit int) ([]model.Contact, error)
	created      []model.Contact
}

func (m *mockContactStore) GetByEmail(ctx context.Context, userID int64, email string) (*model.Contact, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, userID, email)
	}
	return nil, store.ErrNotFound
}

func (m *mockContactStore) Search(ctx context.Context, userID int64, terms []string, limit int) ([]model.Contact, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, userID, terms, limit)
	}
	return nil, nil
}

func (m *mockContactStore) List(ctx context.Context, userID int64, limit int) ([]model.Contact, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockContactStore) Create(_ context.Context, contact *model.Contact) error {
	m.created = append(m.created, *contact)
	return nil
}

type mockNoteStore struct {
	searchContentFn func(ctx context.Context, userID int64, query string, limit int) ([]store.NoteWithContact, error)
	created         []model.ContactNote
}

func (m *mockNoteStore) SearchContent(ctx context.Context, userID int64, query string, limit int) ([]store.NoteWithContact, error) {
	if m.searchContentFn != nil {
		return m.searchContentFn(ctx, userID, query, limit)
	}
	return nil, nil
}

func (m *mockNoteStore) Create(_ context.Context, note *model.ContactNote) error {
	m.created = append(m.created, *note)
	return nil
}

type mockSearcher struct {
	searchFn func(ctx context.Context, userID int64, query string, limit int, filter string) ([]model.RelevantDocument, error)
}

func (m *mockSearcher) Search(ctx context.Context, userID int64, query string, limit int, filter string) ([]model.RelevantDocument, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, userID, query, limit, filter)
	}
	return nil, nil
}

type mockMail struct {
	sendFn func(ctx context.Context, userID int64, params provider.SendEmailParams) (*provider.SendEmailResult, error)
	sent   []provider.SendEmailParams
}

func (m *mockMail) Send(ctx context.Context, userID int64, params provider.SendEmailParams) (*provider.SendEmailResult, error) {
	m.sent = append(m.sent, params)
	if m.sendFn != nil {
		return m.sendFn(ctx, userID, params)
	}
	return &provider.SendEmailResult{MessageID: "msg-1"}, nil
}

type mockGCal struct {
	createFn func(ctx context.Context, userID int64, params provider.CreateEventParams) (*provider.CreateEventResult, error)
	deleteFn func(ctx context.Context, userID int64, eventID string) error
}

func (m *mockGCal) Create(ctx context.Context, userID int64, params provider.CreateEventParams) (*provider.CreateEventResult, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, params)
	}
	return &provider.CreateEventResult{EventID: "evt-1"}, nil
}

func (m *mockGCal) Delete(ctx context.Context, userID int64, eventID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, eventID)
	}
	return nil
}

type mockCRM struct {
	createContactFn func(ctx context.Context, userID int64, params provider.CreateContactParams) (*model.Contact, error)
}

func (m *mockCRM) CreateContact(ctx context.Context, userID int64, params provider.CreateContactParams) (*model.Contact, error) {
	if m.createContactFn != nil {
		return m.createContactFn(ctx, userID, params)
	}
	email := params.Email
	return &model.Contact{ID: 1, HubspotID: "hs-1", Email: &email}, nil
}

// memTaskStore backs the workflow service in executor tests.
type memTaskStore struct {
	tasks map[int64]*model.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[int64]*model.Task)}
}

func (m *memTaskStore) Create(_ context.Context, task *model.Task) error {
	clone := *task
	m.tasks[task.ID] = &clone
	return nil
}

func (m *memTaskStore) GetByID(_ context.Context, userID, id int64) (*model.Task, error) {
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return nil, store.ErrNotFound
	}
	clone := *task
	return &clone, nil
}

func (m *memTaskStore) GetWithSteps(ctx context.Context, userID, id int64) (*model.Task, error) {
	task, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	for _, t := range m.tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == id {
			task.Steps = append(task.Steps, *t)
		}
	}
	sort.Slice(task.Steps, func(i, j int) bool {
		return derefOrder(task.Steps[i]) < derefOrder(task.Steps[j])
	})
	return task, nil
}

func (m *memTaskStore) Update(_ context.Context, task *model.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return store.ErrNotFound
	}
	clone := *task
	clone.Steps = nil
	m.tasks[task.ID] = &clone
	return nil
}

func (m *memTaskStore) Delete(_ context.Context, userID, id int64) error {
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTaskStore) List(_ context.Context, userID int64, filter store.TaskFilter) ([]model.Task, error) {
	var out []model.Task
	for _, t := range m.tasks {
		if t.UserID != userID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.ParentTaskID != nil && (t.ParentTaskID == nil || *t.ParentTaskID != *filter.ParentTaskID) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memTaskStore) ListOverdue(_ context.Context, _ int64, _ time.Time) ([]model.Task, error) {
	return nil, nil
}

func (m *memTaskStore) CountByStatus(_ context.Context, userID int64) (map[model.TaskStatus]int, error) {
	counts := make(map[model.TaskStatus]int)
	for _, t := range m.tasks {
		if t.UserID == userID {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (m *memTaskStore) CountOverdue(_ context.Context, _ int64, _ time.Time) (int, error) {
	return 0, nil
}

func (m *memTaskStore) byType(taskType string) []*model.Task {
	return m.byMetadata("type", taskType)
}

func (m *memTaskStore) byWorkflow(workflowType string) []*model.Task {
	return m.byMetadata("workflowType", workflowType)
}

func (m *memTaskStore) byMetadata(key, value string) []*model.Task {
	var out []*model.Task
	for _, t := range m.tasks {
		if v, _ := t.Metadata[key].(string); v == value {
			out = append(out, t)
		}
	}
	return out
}

func derefOrder(t model.Task) int {
	if t.StepOrder == nil {
		return 0
	}
	return *t.StepOrder
}
