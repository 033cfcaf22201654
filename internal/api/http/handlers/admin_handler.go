package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/itsmkit/helpdesk-service/internal/api/dto"
	"github.com/itsmkit/helpdesk-service/internal/auth"
	"github.com/itsmkit/helpdesk-service/internal/domain"
	"github.com/itsmkit/helpdesk-service/internal/service"
	apperrors "github.com/itsmkit/helpdesk-service/pkg/util/errorutil"
)

// AdminHandler serves the admin triage surface: listing, status and
// priority updates, assignment, directory maintenance and deletes.
type AdminHandler struct {
	tickets   *service.TicketService
	directory *service.DirectoryService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(ticketService *service.TicketService, directoryService *service.DirectoryService) *AdminHandler {
	return &AdminHandler{tickets: ticketService, directory: directoryService}
}

// ListAllTickets GET /admin/tickets.
func (h *AdminHandler) ListAllTickets(c *fiber.Ctx) error {
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)
	entries, err := h.tickets.ListTickets(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketExpandedResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.FromTicketWithParties(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListUserTickets GET /admin/users/:userId/tickets.
func (h *AdminHandler) ListUserTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTicketsByUser(c.Context(), c.Params("userId"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStatus PATCH /admin/tickets/:id/status.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// UpdatePriority PATCH /admin/tickets/:id/priority.
func (h *AdminHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.tickets.UpdatePriority(c.Context(), c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicketWithParties(*entry)})
}

// AssignToEngineer PATCH /admin/tickets/assign/engineer.
func (h *AdminHandler) AssignToEngineer(c *fiber.Ctx) error {
	return h.assign(c, h.tickets.AssignToEngineer)
}

// AssignToAdmin PATCH /admin/tickets/assign/admin.
func (h *AdminHandler) AssignToAdmin(c *fiber.Ctx) error {
	return h.assign(c, h.tickets.AssignToAdmin)
}

func (h *AdminHandler) assign(c *fiber.Ctx, op func(ctx context.Context, ticketID, assigneeID string) (*domain.Ticket, error)) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := op(c.Context(), req.TicketID, req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// AddComment POST /admin/tickets/:id/comments.
func (h *AdminHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.tickets.AddComment(c.Context(), c.Params("id"), req.Text, principal.User.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromComment(comment)})
}

// DeleteTicket DELETE /admin/tickets/:id.
func (h *AdminHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.tickets.DeleteTicket(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.directory.ListUsers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// ListEngineers GET /admin/engineers.
func (h *AdminHandler) ListEngineers(c *fiber.Ctx) error {
	users, err := h.directory.ListByRole(c.Context(), domain.RoleEngineer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// ListAdmins GET /admin/admins.
func (h *AdminHandler) ListAdmins(c *fiber.Ctx) error {
	users, err := h.directory.ListByRole(c.Context(), domain.RoleAdmin)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(users)})
}

// UpdateUser PATCH /admin/users/:userId.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.directory.UpdateProfile(c.Context(), c.Params("userId"), req.ToProfileUpdate())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUser(user)})
}

// DeleteUser DELETE /admin/users/:userId.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.directory.DeleteUser(c.Context(), c.Params("userId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func userResponses(users []domain.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.FromUser(&users[i]))
	}
	return items
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
