package dto

import (
	"time"

	"github.com/itsmkit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Priority    string `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// AssignTicketRequest payload for both engineer and admin assignment.
type AssignTicketRequest struct {
	TicketID   string `json:"ticket_id"`
	AssigneeID string `json:"assignee_id"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// TicketResponse is the canonical ticket representation.
type TicketResponse struct {
	ID          string                `json:"id"`
	TicketID    string                `json:"ticket_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Subcategory string                `json:"subcategory,omitempty"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatedBy   string                `json:"created_by"`
	AssignedTo  *string               `json:"assigned_to"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketExpandedResponse carries resolved user references for display.
type TicketExpandedResponse struct {
	TicketResponse
	CreatedByUser  *UserSummary `json:"created_by_user,omitempty"`
	AssignedToUser *UserSummary `json:"assigned_to_user,omitempty"`
}

// TicketDetailResponse includes the comment log.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
}

// CommentResponse represents one comment log entry.
type CommentResponse struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	CommentedBy string    `json:"commented_by"`
	CommentedAt time.Time `json:"commented_at"`
}

// FromTicket maps a domain ticket onto the response shape.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		TicketID:    ticket.TicketRef,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Subcategory: ticket.Subcategory,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CreatedBy:   ticket.CreatedBy,
		AssignedTo:  ticket.AssignedTo,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// FromTicketWithParties maps a ticket plus resolved references.
func FromTicketWithParties(entry domain.TicketWithParties) TicketExpandedResponse {
	resp := TicketExpandedResponse{TicketResponse: FromTicket(entry.Ticket)}
	if entry.CreatedBy != nil {
		summary := FromUserSummary(entry.CreatedBy)
		resp.CreatedByUser = &summary
	}
	if entry.AssignedTo != nil {
		summary := FromUserSummary(entry.AssignedTo)
		resp.AssignedToUser = &summary
	}
	return resp
}

// FromComment maps a domain comment onto the response shape.
func FromComment(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:          comment.ID,
		Text:        comment.Text,
		CommentedBy: comment.CommentedBy,
		CommentedAt: comment.CommentedAt,
	}
}
