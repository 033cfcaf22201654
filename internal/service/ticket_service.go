package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/itsmkit/helpdesk-service/internal/domain"
	"github.com/itsmkit/helpdesk-service/internal/events"
	"github.com/itsmkit/helpdesk-service/internal/repository"
	apperrors "github.com/itsmkit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows: creation with reference
// allocation, status/priority updates, assignment and the comment log.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Subcategory string
	Priority    string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket creates a ticket for a user, allocating a fresh unique
// ticket reference. The reference is fixed before the row becomes
// visible; the unique index on ticket_ref backstops concurrent
// creations that pass the pre-check with the same candidate.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	category := domain.TicketCategory(strings.TrimSpace(input.Category))
	if !category.IsValid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("invalid category. Allowed values: %s", joinCategories()), nil)
	}

	priority, err := normalizePriority(input.Priority)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    category,
		Subcategory: strings.TrimSpace(input.Subcategory),
		Status:      domain.TicketStatusNew,
		Priority:    priority,
		CreatedBy:   userID,
	}

	if err := s.persistWithFreshRef(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  userID,
		Payload: events.TicketCreatedPayload{
			TicketRef: ticket.TicketRef,
			Category:  ticket.Category,
			Priority:  ticket.Priority,
			Title:     ticket.Title,
		},
	})
	return ticket, nil
}

// persistWithFreshRef draws reference candidates until one survives
// both the pre-check and the insert. A duplicate at commit time means
// a concurrent creation won the race for the candidate; retry with a
// new suffix rather than failing the request.
func (s *TicketService) persistWithFreshRef(ctx context.Context, ticket *domain.Ticket) error {
	for attempt := 0; attempt < ticketRefAttempts; attempt++ {
		candidate := newTicketRef(time.Now())
		_, err := s.tickets.GetByTicketRef(ctx, candidate)
		if err == nil {
			continue // taken
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}

		ticket.TicketRef = candidate
		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrDuplicateTicketRef) {
			continue
		}
		return apperrors.MapError(err)
	}
	return apperrors.NewDomainError(
		"ID_ALLOCATION_EXHAUSTED",
		"could not allocate a unique ticket id; please retry",
		503,
		map[string]any{"attempts": ticketRefAttempts},
	)
}

// UpdateStatus validates and applies a status change. No transition
// graph is enforced; any allowed status can replace any other.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, status string) (*domain.Ticket, error) {
	newStatus := domain.TicketStatus(strings.TrimSpace(status))
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("invalid status. Allowed statuses are: %s", joinStatuses()), nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// UpdatePriority normalizes, validates and applies a priority change,
// returning the ticket with its user references resolved for display.
func (s *TicketService) UpdatePriority(ctx context.Context, ticketID string, priority string) (*domain.TicketWithParties, error) {
	newPriority, err := normalizePriority(priority)
	if err != nil {
		return nil, err
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return s.expandParties(ctx, ticket)
}

// AssignToEngineer binds a ticket to an engineer and forces the
// assigned status.
func (s *TicketService) AssignToEngineer(ctx context.Context, ticketID, engineerID string) (*domain.Ticket, error) {
	return s.assign(ctx, ticketID, engineerID, domain.RoleEngineer)
}

// AssignToAdmin binds a ticket to an admin and forces the assigned
// status.
func (s *TicketService) AssignToAdmin(ctx context.Context, ticketID, adminID string) (*domain.Ticket, error) {
	return s.assign(ctx, ticketID, adminID, domain.RoleAdmin)
}

func (s *TicketService) assign(ctx context.Context, ticketID, assigneeID string, requiredRole domain.Role) (*domain.Ticket, error) {
	if ticketID == "" || assigneeID == "" {
		return nil, apperrors.NewValidationError("ticket id and assignee id are required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	// Absent user and wrong role report the same message, matching the
	// behavior callers already depend on.
	if err != nil || assignee.Role != requiredRole {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("%s not found or user is not %s", roleLabel(requiredRole), roleArticle(requiredRole)),
			map[string]any{"user_id": assigneeID})
	}

	// Ticket update and back-reference append happen in one
	// transaction; the append is idempotent so a retry is safe.
	if err := s.tickets.Assign(ctx, ticket.ID, assignee.ID, domain.TicketStatusAssigned); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	ticket.AssignedTo = &assignee.ID
	ticket.Status = domain.TicketStatusAssigned

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Payload: events.TicketAssignedPayload{
			AssigneeID:   assignee.ID,
			AssigneeRole: assignee.Role,
		},
	})
	return ticket, nil
}

// AddComment appends an immutable note to the ticket's comment log.
func (s *TicketService) AddComment(ctx context.Context, ticketID, text, commentedBy string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required", nil)
	}
	commentedBy = strings.TrimSpace(commentedBy)
	if commentedBy == "" {
		return nil, apperrors.NewValidationError("commenter name is required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID:    ticket.ID,
		Text:        text,
		CommentedBy: commentedBy,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			CommentedBy: comment.CommentedBy,
			TextPreview: textPreview(comment.Text, 120),
		},
	})
	return comment, nil
}

// GetTicket fetches a ticket and its comment log.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// ListTickets returns all tickets newest-first with user references
// resolved, for the admin overview.
func (s *TicketService) ListTickets(ctx context.Context, limit, offset int) ([]domain.TicketWithParties, error) {
	tickets, err := s.tickets.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	resolved := make(map[string]*domain.User)
	result := make([]domain.TicketWithParties, 0, len(tickets))
	for i := range tickets {
		entry := domain.TicketWithParties{Ticket: &tickets[i]}
		entry.CreatedBy = s.resolveUser(ctx, resolved, tickets[i].CreatedBy)
		if tickets[i].AssignedTo != nil {
			entry.AssignedTo = s.resolveUser(ctx, resolved, *tickets[i].AssignedTo)
		}
		result = append(result, entry)
	}
	return result, nil
}

// ListTicketsByUser returns the tickets created by the given user.
func (s *TicketService) ListTicketsByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required", nil)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	tickets, err := s.tickets.ListByCreator(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// DeleteTicket removes a ticket permanently.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID string) error {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Payload:  events.TicketDeletedPayload{TicketRef: ticket.TicketRef},
	})
	return nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, apperrors.NewValidationError("ticket id is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) expandParties(ctx context.Context, ticket *domain.Ticket) (*domain.TicketWithParties, error) {
	result := &domain.TicketWithParties{Ticket: ticket}
	creator, err := s.users.GetByID(ctx, ticket.CreatedBy)
	if err == nil {
		result.CreatedBy = creator
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if ticket.AssignedTo != nil {
		assignee, err := s.users.GetByID(ctx, *ticket.AssignedTo)
		if err == nil {
			result.AssignedTo = assignee
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}
	return result, nil
}

func (s *TicketService) resolveUser(ctx context.Context, cache map[string]*domain.User, userID string) *domain.User {
	if user, ok := cache[userID]; ok {
		return user
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		cache[userID] = nil
		return nil
	}
	cache[userID] = user
	return user
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizePriority(priority string) (domain.TicketPriority, error) {
	priority = strings.TrimSpace(priority)
	if priority == "" {
		return "", apperrors.NewValidationError("priority is required", nil)
	}
	normalized := domain.TicketPriority(strings.ToUpper(priority[:1]) + strings.ToLower(priority[1:]))
	if !normalized.IsValid() {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("invalid priority. Allowed values: %s", joinPriorities()), nil)
	}
	return normalized, nil
}

func roleLabel(role domain.Role) string {
	return strings.ToUpper(string(role)[:1]) + string(role)[1:]
}

func roleArticle(role domain.Role) string {
	switch role {
	case domain.RoleEngineer, domain.RoleAdmin:
		return "an " + string(role)
	default:
		return "a " + string(role)
	}
}

func joinStatuses() string {
	parts := make([]string, 0, len(domain.AllowedStatuses))
	for _, status := range domain.AllowedStatuses {
		parts = append(parts, string(status))
	}
	return strings.Join(parts, ", ")
}

func joinPriorities() string {
	parts := make([]string, 0, len(domain.AllowedPriorities))
	for _, priority := range domain.AllowedPriorities {
		parts = append(parts, string(priority))
	}
	return strings.Join(parts, ", ")
}

func joinCategories() string {
	parts := make([]string, 0, len(domain.AllowedCategories))
	for _, category := range domain.AllowedCategories {
		parts = append(parts, string(category))
	}
	return strings.Join(parts, ", ")
}

func textPreview(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}
