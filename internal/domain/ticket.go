package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew         TicketStatus = "new"
	TicketStatusInProgress  TicketStatus = "in_progress"
	TicketStatusAssigned    TicketStatus = "assigned"
	TicketStatusResolved    TicketStatus = "resolved"
	TicketStatusNotResolved TicketStatus = "not_resolved"
)

// AllowedStatuses lists every valid ticket status.
var AllowedStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusInProgress,
	TicketStatusAssigned,
	TicketStatusResolved,
	TicketStatusNotResolved,
}

// IsValid reports whether the status is a member of the allowed set.
func (s TicketStatus) IsValid() bool {
	for _, candidate := range AllowedStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency. Stored Title-cased.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// AllowedPriorities lists every valid ticket priority.
var AllowedPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// IsValid reports whether the priority is a member of the allowed set.
func (p TicketPriority) IsValid() bool {
	for _, candidate := range AllowedPriorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// TicketCategory classifies the kind of support request.
type TicketCategory string

const (
	CategoryHardware TicketCategory = "Hardware"
	CategorySoftware TicketCategory = "Software"
	CategoryNetwork  TicketCategory = "Network"
	CategoryAccess   TicketCategory = "Access"
	CategoryRequest  TicketCategory = "Request"
	CategoryIncident TicketCategory = "Incident"
)

// AllowedCategories lists every valid ticket category.
var AllowedCategories = []TicketCategory{
	CategoryHardware,
	CategorySoftware,
	CategoryNetwork,
	CategoryAccess,
	CategoryRequest,
	CategoryIncident,
}

// IsValid reports whether the category is a member of the allowed set.
func (c TicketCategory) IsValid() bool {
	for _, candidate := range AllowedCategories {
		if c == candidate {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests. TicketRef is the
// human-facing business identifier; ID is the storage key.
type Ticket struct {
	ID          string
	TicketRef   string
	Title       string
	Description string
	Category    TicketCategory
	Subcategory string
	Status      TicketStatus
	Priority    TicketPriority
	CreatedBy   string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketWithParties bundles a ticket with its resolved user references.
type TicketWithParties struct {
	Ticket     *Ticket
	CreatedBy  *User
	AssignedTo *User
}
