package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"advisorhub.app/assistant/common/id"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/provider"
	"advisorhub.app/assistant/internal/retrieval"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/workflow"
)

func (e *Executor) searchContacts(ctx context.Context, userID int64, args SearchContactsArgs) (*Result, error) {
	terms := []string{args.Query}
	for _, term := range strings.Fields(strings.ToLower(args.Query)) {
		if len(term) > 1 {
			terms = append(terms, term)
		}
	}

	contacts, err := e.contacts.Search(ctx, userID, terms, 15)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}

	recentEmails, err := e.emails.ListRecent(ctx, userID, store.EmailFilter{Text: args.Query, Limit: 10})
	if err != nil {
		return nil, fmt.Errorf("search email senders: %w", err)
	}

	known := make(map[string]bool)
	for _, contact := range contacts {
		if contact.Email != nil {
			known[strings.ToLower(*contact.Email)] = true
		}
	}

	// Senders that correspond to no HubSpot contact become lightweight
	// "email contact" entries.
	type emailContact struct {
		Name        string
		Email       string
		LastContact time.Time
		LastSubject string
	}
	var emailContacts []emailContact
	seen := make(map[string]bool)
	for _, email := range recentEmails {
		from := strings.ToLower(extractEmailAddress(email.From))
		if from == "" || known[from] || seen[from] {
			continue
		}
		seen[from] = true
		emailContacts = append(emailContacts, emailContact{
			Name:        nameFromAddress(email.From),
			Email:       from,
			LastContact: email.ReceivedAt,
			LastSubject: email.Subject,
		})
		if len(emailContacts) == 5 {
			break
		}
	}

	vectorMatches, err := e.searcher.Search(ctx, userID, args.Query, 8, retrieval.FilterContacts)
	if err != nil {
		slog.WarnContext(ctx, "contact vector search failed", "error", err)
	}

	notes, err := e.notes.SearchContent(ctx, userID, args.Query, 5)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}

	var sections []string
	if len(contacts) > 0 {
		sections = append(sections, fmt.Sprintf("**HubSpot Contacts (%d):**", len(contacts)))
		for i, contact := range contacts {
			company := ""
			if contact.Company != nil && *contact.Company != "" {
				company = " at " + *contact.Company
			}
			phone := ""
			if contact.Phone != nil && *contact.Phone != "" {
				phone = " (" + *contact.Phone + ")"
			}
			email := "N/A"
			if contact.Email != nil && *contact.Email != "" {
				email = *contact.Email
			}
			sections = append(sections, fmt.Sprintf("%d. %s%s\n   Email: %s%s",
				i+1, contact.DisplayName(), company, email, phone))
		}
	}
	if len(emailContacts) > 0 {
		if len(sections) > 0 {
			sections = append(sections, "")
		}
		sections = append(sections, fmt.Sprintf("**Email Contacts (%d):**", len(emailContacts)))
		for i, contact := range emailContacts {
			sections = append(sections, fmt.Sprintf("%d. %s\n   Email: %s\n   Last contact: %s - %q",
				i+1, contact.Name, contact.Email, contact.LastContact.Format("1/2/2006"), contact.LastSubject))
		}
	}
	if len(notes) > 0 {
		if len(sections) > 0 {
			sections = append(sections, "")
		}
		sections = append(sections, fmt.Sprintf("**Related Notes (%d):**", len(notes)))
		for i, note := range notes {
			content := note.Content
			if len(content) > 100 {
				content = content[:100] + "..."
			}
			sections = append(sections, fmt.Sprintf("%d. Note about %s:\n   %q", i+1, note.ContactName, content))
		}
	}

	total := len(contacts) + len(emailContacts)
	formatted := strings.Join(sections, "\n")
	if total == 0 {
		formatted = fmt.Sprintf("No contacts found matching %q. Try searching by name, email, company, or phone number.", args.Query)
	}

	data := map[string]any{
		"contacts":      contacts,
		"emailContacts": emailContacts,
	}
	if len(notes) > 0 {
		related := make([]map[string]any, len(notes))
		for i, note := range notes {
			related[i] = map[string]any{
				"content":      snippet(note.Content, 200) + "...",
				"contactName":  note.ContactName,
				"contactEmail": note.ContactEmail,
				"date":         note.CreatedAt,
			}
		}
		data["relatedNotes"] = related
	}
	if len(vectorMatches) > 0 {
		matches := make([]map[string]any, len(vectorMatches))
		for i, doc := range vectorMatches {
			source := doc.Metadata.Title
			if source == "" {
				source = "HubSpot Data"
			}
			matches[i] = map[string]any{
				"content":     snippet(doc.Content, 200) + "...",
				"source":      source,
				"contactName": doc.Metadata.ContactName,
			}
		}
		data["vectorMatches"] = matches
	}

	return &Result{Count: total, Formatted: formatted, Data: data}, nil
}

func (e *Executor) listAllContacts(ctx context.Context, userID int64, args ListAllContactsArgs) (*Result, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 50
	}

	contacts, err := e.contacts.List(ctx, userID, limit)
	if err != nil {
		return &Result{Formatted: "Failed to retrieve contacts. Please try again.", Error: err.Error()}, nil
	}

	// Group by company, preserving first-seen order.
	groups := make(map[string][]model.Contact)
	var companies []string
	for _, contact := range contacts {
		company := "No Company"
		if contact.Company != nil && *contact.Company != "" {
			company = *contact.Company
		}
		if _, ok := groups[company]; !ok {
			companies = append(companies, company)
		}
		groups[company] = append(groups[company], contact)
	}

	lines := []string{fmt.Sprintf("**Total Contacts: %d**\n", len(contacts))}
	for _, company := range companies {
		members := groups[company]
		lines = append(lines, fmt.Sprintf("**%s (%d)**:", company, len(members)))
		for i, contact := range members {
			email := ""
			if contact.Email != nil && *contact.Email != "" {
				email = " - " + *contact.Email
			}
			phone := ""
			if contact.Phone != nil && *contact.Phone != "" {
				phone = " - " + *contact.Phone
			}
			lines = append(lines, fmt.Sprintf("  %d. %s%s%s", i+1, contact.DisplayName(), email, phone))
		}
		lines = append(lines, "")
	}

	byCompany := make([]map[string]any, len(companies))
	for i, company := range companies {
		byCompany[i] = map[string]any{"company": company, "count": len(groups[company])}
	}

	return &Result{
		Count:     len(contacts),
		Formatted: strings.Join(lines, "\n"),
		Data: map[string]any{
			"contacts": contacts,
			"summary": map[string]any{
				"totalContacts":     len(contacts),
				"companies":         len(companies),
				"contactsByCompany": byCompany,
			},
		},
	}, nil
}

func (e *Executor) createHubspotContact(ctx context.Context, userID int64, args CreateHubspotContactArgs) (*Result, error) {
	existing, err := e.contacts.GetByEmail(ctx, userID, args.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing contact: %w", err)
	}
	if existing != nil {
		return &Result{Success: false, Error: fmt.Sprintf("Contact with email %s already exists", args.Email)}, nil
	}

	// Create in HubSpot first; a provider failure falls back to a local
	// record plus a sync task.
	contact, crmErr := e.crm.CreateContact(ctx, userID, provider.CreateContactParams{
		Email:     args.Email,
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Company:   args.Company,
	})
	if crmErr != nil {
		slog.WarnContext(ctx, "hubspot create failed, creating local contact", "error", crmErr)
		contact = &model.Contact{
			ID:        id.New(),
			UserID:    userID,
			HubspotID: fmt.Sprintf("temp_%d", e.now().UnixMilli()),
		}
		contact.Email = &args.Email
		if args.FirstName != "" {
			contact.FirstName = &args.FirstName
		}
		if args.LastName != "" {
			contact.LastName = &args.LastName
		}
		if args.Company != "" {
			contact.Company = &args.Company
		}
	}
	if err := e.contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("store contact: %w", err)
	}

	if args.Note != "" {
		note := &model.ContactNote{
			ID:            id.New(),
			UserID:        userID,
			ContactID:     &contact.ID,
			HubspotNoteID: fmt.Sprintf("temp_note_%d", e.now().UnixMilli()),
			Content:       args.Note,
		}
		if err := e.notes.Create(ctx, note); err != nil {
			slog.ErrorContext(ctx, "store contact note", "error", err)
		}
	}

	status := "synced"
	if crmErr != nil {
		status = "pending_hubspot_sync"
	}
	description := fmt.Sprintf("Create contact: %s %s at %s", args.FirstName, args.LastName, args.Company)
	if _, err := e.workflow.Create(ctx, userID, workflow.CreateParams{
		Title:       fmt.Sprintf("Create HubSpot contact for %s", args.Email),
		Description: &description,
		Priority:    model.TaskPriorityMedium,
		Metadata: model.Metadata{
			"type":      "create_hubspot_contact",
			"contactId": contact.ID,
			"email":     args.Email,
			"firstName": args.FirstName,
			"lastName":  args.LastName,
			"company":   args.Company,
			"note":      args.Note,
			"status":    status,
		},
	}); err != nil {
		slog.ErrorContext(ctx, "record contact task", "error", err)
	}

	message := fmt.Sprintf("Created HubSpot contact for %s", args.Email)
	if crmErr != nil {
		message = fmt.Sprintf("Created local contact for %s and scheduled HubSpot sync", args.Email)
	}
	return &Result{
		Success: true,
		Message: message,
		Data:    map[string]any{"contact": contact},
	}, nil
}

func (e *Executor) createTask(ctx context.Context, userID int64, args CreateTaskArgs) (*Result, error) {
	var description *string
	if args.Description != "" {
		description = &args.Description
	}
	task, err := e.workflow.Create(ctx, userID, workflow.CreateParams{
		Title:       args.Title,
		Description: description,
		Priority:    model.TaskPriority(args.Priority),
		Metadata:    model.Metadata{"type": "user_task", "status": "pending"},
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Created task: %s", task.Title),
		Data:    map[string]any{"task": task},
	}, nil
}

func (e *Executor) addOngoingInstruction(ctx context.Context, userID int64, args AddOngoingInstructionArgs) (*Result, error) {
	text := strings.TrimSpace(args.Instruction)

	active, err := e.instructions.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	for _, existing := range active {
		if strings.Contains(strings.ToLower(existing.Instruction), strings.ToLower(text)) {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("Similar instruction already exists: %q", existing.Instruction),
			}, nil
		}
	}

	instruction := &model.OngoingInstruction{
		ID:          id.New(),
		UserID:      userID,
		Instruction: text,
		IsActive:    true,
	}
	if err := e.instructions.Create(ctx, instruction); err != nil {
		return nil, fmt.Errorf("create instruction: %w", err)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Added ongoing instruction: %q", args.Instruction),
		Data:    map[string]any{"instruction": instruction},
	}, nil
}
