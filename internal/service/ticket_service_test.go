package service

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmkit/helpdesk-service/internal/domain"
	"github.com/itsmkit/helpdesk-service/internal/repository"
	apperrors "github.com/itsmkit/helpdesk-service/pkg/util/errorutil"
)

type fakeUserRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.User
	assigned map[string][]string
	seq      int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:     make(map[string]*domain.User),
		assigned: make(map[string][]string),
	}
}

func (f *fakeUserRepo) addUser(name string, role domain.Role) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user := &domain.User{
		ID:    "user-" + strconv.Itoa(f.seq),
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	f.byID[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = "user-" + strconv.Itoa(f.seq)
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	copied.AssignedTickets = append([]string(nil), f.assigned[id]...)
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.byID {
		result = append(result, *user)
	}
	return result, nil
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.User
	for _, user := range f.byID {
		if user.Role == role {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUserRepo) appendAssigned(userID, ticketID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.assigned[userID] {
		if existing == ticketID {
			return
		}
	}
	f.assigned[userID] = append(f.assigned[userID], ticketID)
}

type fakeTicketRepo struct {
	mu          sync.Mutex
	byID        map[string]*domain.Ticket
	refToID     map[string]string
	users       *fakeUserRepo
	seq         int
	failCreates int
}

func newFakeTicketRepo(users *fakeUserRepo) *fakeTicketRepo {
	return &fakeTicketRepo{
		byID:    make(map[string]*domain.Ticket),
		refToID: make(map[string]string),
		users:   users,
	}
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreates > 0 {
		f.failCreates--
		return repository.ErrDuplicateTicketRef
	}
	if _, taken := f.refToID[ticket.TicketRef]; taken {
		return repository.ErrDuplicateTicketRef
	}
	f.seq++
	ticket.ID = "ticket-" + strconv.Itoa(f.seq)
	copied := *ticket
	f.byID[ticket.ID] = &copied
	f.refToID[ticket.TicketRef] = ticket.ID
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	f.byID[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) GetByTicketRef(ctx context.Context, ref string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.refToID[ref]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *f.byID[id]
	return &copied, nil
}

func (f *fakeTicketRepo) List(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.byID {
		result = append(result, *ticket)
	}
	return result, nil
}

func (f *fakeTicketRepo) ListByCreator(ctx context.Context, userID string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.byID {
		if ticket.CreatedBy == userID {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (f *fakeTicketRepo) Assign(ctx context.Context, ticketID, assigneeID string, status domain.TicketStatus) error {
	f.mu.Lock()
	ticket, ok := f.byID[ticketID]
	if !ok {
		f.mu.Unlock()
		return pgx.ErrNoRows
	}
	ticket.AssignedTo = &assigneeID
	ticket.Status = status
	f.mu.Unlock()
	f.users.appendAssigned(assigneeID, ticketID)
	return nil
}

func (f *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(f.refToID, ticket.TicketRef)
	delete(f.byID, id)
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[string][]domain.Comment
	seq      int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string][]domain.Comment)}
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	comment.ID = "comment-" + strconv.Itoa(f.seq)
	f.comments[comment.TicketID] = append(f.comments[comment.TicketID], *comment)
	return nil
}

func (f *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Comment(nil), f.comments[ticketID]...), nil
}

type serviceFixture struct {
	service  *TicketService
	tickets  *fakeTicketRepo
	comments *fakeCommentRepo
	users    *fakeUserRepo
}

func newServiceFixture() *serviceFixture {
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo(users)
	comments := newFakeCommentRepo()
	return &serviceFixture{
		service: NewTicketService(TicketDependencies{
			TicketRepo:  tickets,
			CommentRepo: comments,
			UserRepo:    users,
		}),
		tickets:  tickets,
		comments: comments,
		users:    users,
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

var ticketRefPattern = regexp.MustCompile(`^TKT-\d{8}-[A-Z0-9]{5}$`)

func TestCreateTicket(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)

	ticket, err := fx.service.CreateTicket(context.Background(), creator.ID, TicketCreateInput{
		Title:       "Printer jam",
		Description: "Paper stuck in tray 2",
		Category:    "Hardware",
		Priority:    "high",
	})
	require.NoError(t, err)

	assert.Regexp(t, ticketRefPattern, ticket.TicketRef)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, creator.ID, ticket.CreatedBy)
	assert.Nil(t, ticket.AssignedTo)
}

func TestCreateTicketValidation(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	ctx := context.Background()

	cases := map[string]TicketCreateInput{
		"missing title":       {Description: "d", Category: "Hardware", Priority: "Low"},
		"missing description": {Title: "t", Category: "Hardware", Priority: "Low"},
		"bad category":        {Title: "t", Description: "d", Category: "Gardening", Priority: "Low"},
		"bad priority":        {Title: "t", Description: "d", Category: "Hardware", Priority: "urgent"},
		"missing priority":    {Title: "t", Description: "d", Category: "Hardware"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fx.service.CreateTicket(ctx, creator.ID, input)
			assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
		})
	}
}

func TestCreateTicketConcurrentRefsUnique(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)

	const n = 50
	refs := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, err := fx.service.CreateTicket(context.Background(), creator.ID, TicketCreateInput{
				Title:       "load test",
				Description: "concurrent creation",
				Category:    "Incident",
				Priority:    "Medium",
			})
			if err == nil {
				refs <- ticket.TicketRef
			}
		}()
	}
	wg.Wait()
	close(refs)

	seen := make(map[string]bool)
	for ref := range refs {
		assert.Regexp(t, ticketRefPattern, ref)
		assert.False(t, seen[ref], "duplicate ticket ref %s", ref)
		seen[ref] = true
	}
	assert.Len(t, seen, n)
}

func TestCreateTicketRetriesOnCommitConflict(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	fx.tickets.failCreates = 3

	ticket, err := fx.service.CreateTicket(context.Background(), creator.ID, TicketCreateInput{
		Title:       "t",
		Description: "d",
		Category:    "Software",
		Priority:    "Low",
	})
	require.NoError(t, err)
	assert.Regexp(t, ticketRefPattern, ticket.TicketRef)
}

func TestCreateTicketAllocationExhausted(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	fx.tickets.failCreates = ticketRefAttempts + 1

	_, err := fx.service.CreateTicket(context.Background(), creator.ID, TicketCreateInput{
		Title:       "t",
		Description: "d",
		Category:    "Software",
		Priority:    "Low",
	})
	assert.Equal(t, "ID_ALLOCATION_EXHAUSTED", domainCode(t, err))
}

func TestUpdateStatus(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	ticket := mustCreate(t, fx, creator.ID)

	updated, err := fx.service.UpdateStatus(context.Background(), ticket.ID, "in_progress")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	// no transition graph: resolved back to new is allowed
	updated, err = fx.service.UpdateStatus(context.Background(), ticket.ID, "resolved")
	require.NoError(t, err)
	updated, err = fx.service.UpdateStatus(context.Background(), ticket.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, updated.Status)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	ticket := mustCreate(t, fx, creator.ID)

	_, err := fx.service.UpdateStatus(context.Background(), ticket.ID, "closed")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	stored, getErr := fx.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TicketStatusNew, stored.Status, "stored status must be unchanged")
}

func TestUpdateStatusNotFound(t *testing.T) {
	fx := newServiceFixture()
	_, err := fx.service.UpdateStatus(context.Background(), "missing", "new")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestUpdatePriorityNormalization(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	ticket := mustCreate(t, fx, creator.ID)

	for _, input := range []string{"low", "LOW", "Low", "lOw"} {
		entry, err := fx.service.UpdatePriority(context.Background(), ticket.ID, input)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketPriorityLow, entry.Ticket.Priority, "input %q", input)
	}

	// applying the same input twice is idempotent
	first, err := fx.service.UpdatePriority(context.Background(), ticket.ID, "critical")
	require.NoError(t, err)
	second, err := fx.service.UpdatePriority(context.Background(), ticket.ID, "critical")
	require.NoError(t, err)
	assert.Equal(t, first.Ticket.Priority, second.Ticket.Priority)
}

func TestUpdatePriorityExpandsParties(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	engineer := fx.users.addUser("bob", domain.RoleEngineer)
	ticket := mustCreate(t, fx, creator.ID)

	_, err := fx.service.AssignToEngineer(context.Background(), ticket.ID, engineer.ID)
	require.NoError(t, err)

	entry, err := fx.service.UpdatePriority(context.Background(), ticket.ID, "medium")
	require.NoError(t, err)
	require.NotNil(t, entry.CreatedBy)
	assert.Equal(t, creator.ID, entry.CreatedBy.ID)
	require.NotNil(t, entry.AssignedTo)
	assert.Equal(t, engineer.ID, entry.AssignedTo.ID)
}

func TestUpdatePriorityRejectsUnknownValue(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	ticket := mustCreate(t, fx, creator.ID)

	_, err := fx.service.UpdatePriority(context.Background(), ticket.ID, "urgent")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	stored, getErr := fx.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.TicketPriorityHigh, stored.Priority)
}

func TestAssignToEngineer(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	engineer := fx.users.addUser("bob", domain.RoleEngineer)
	ticket := mustCreate(t, fx, creator.ID)

	assigned, err := fx.service.AssignToEngineer(context.Background(), ticket.ID, engineer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, engineer.ID, *assigned.AssignedTo)

	stored, err := fx.users.GetByID(context.Background(), engineer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ticket.ID}, stored.AssignedTickets)
}

func TestAssignTwiceAppendsBackReferenceOnce(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	engineer := fx.users.addUser("bob", domain.RoleEngineer)
	ticket := mustCreate(t, fx, creator.ID)

	_, err := fx.service.AssignToEngineer(context.Background(), ticket.ID, engineer.ID)
	require.NoError(t, err)
	_, err = fx.service.AssignToEngineer(context.Background(), ticket.ID, engineer.ID)
	require.NoError(t, err)

	stored, err := fx.users.GetByID(context.Background(), engineer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ticket.ID}, stored.AssignedTickets)
}

func TestAssignRoleGuard(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	plainUser := fx.users.addUser("carol", domain.RoleUser)
	admin := fx.users.addUser("dora", domain.RoleAdmin)
	ticket := mustCreate(t, fx, creator.ID)

	// engineer assignment must reject non-engineers, including admins
	for _, target := range []string{plainUser.ID, admin.ID, "missing-user"} {
		_, err := fx.service.AssignToEngineer(context.Background(), ticket.ID, target)
		assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	}

	stored, err := fx.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedTo)
	assert.Equal(t, domain.TicketStatusNew, stored.Status)

	storedUser, err := fx.users.GetByID(context.Background(), plainUser.ID)
	require.NoError(t, err)
	assert.Empty(t, storedUser.AssignedTickets)
}

func TestAssignToAdminRequiresAdminRole(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	engineer := fx.users.addUser("bob", domain.RoleEngineer)
	admin := fx.users.addUser("dora", domain.RoleAdmin)
	ticket := mustCreate(t, fx, creator.ID)

	_, err := fx.service.AssignToAdmin(context.Background(), ticket.ID, engineer.ID)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	assigned, err := fx.service.AssignToAdmin(context.Background(), ticket.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, admin.ID, *assigned.AssignedTo)
}

func TestAssignMissingInput(t *testing.T) {
	fx := newServiceFixture()
	_, err := fx.service.AssignToEngineer(context.Background(), "", "someone")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	_, err = fx.service.AssignToEngineer(context.Background(), "ticket", "")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestAddCommentAppendOnly(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	ticket := mustCreate(t, fx, creator.ID)
	ctx := context.Background()

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		_, err := fx.service.AddComment(ctx, ticket.ID, text, "Alice")
		require.NoError(t, err)
	}

	_, comments, err := fx.service.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, len(texts))
	for i, comment := range comments {
		assert.Equal(t, texts[i], comment.Text)
		assert.Equal(t, "Alice", comment.CommentedBy)
	}
}

func TestAddCommentValidation(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	ticket := mustCreate(t, fx, creator.ID)
	ctx := context.Background()

	_, err := fx.service.AddComment(ctx, ticket.ID, "   ", "Alice")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = fx.service.AddComment(ctx, ticket.ID, "text", "")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = fx.service.AddComment(ctx, "missing", "text", "Alice")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestDeleteTicket(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	ticket := mustCreate(t, fx, creator.ID)
	ctx := context.Background()

	require.NoError(t, fx.service.DeleteTicket(ctx, ticket.ID))

	_, _, err := fx.service.GetTicket(ctx, ticket.ID)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))

	err = fx.service.DeleteTicket(ctx, ticket.ID)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestListTicketsByUser(t *testing.T) {
	fx := newServiceFixture()
	creator := fx.users.addUser("alice", domain.RoleUser)
	other := fx.users.addUser("bob", domain.RoleUser)
	mustCreate(t, fx, creator.ID)
	mustCreate(t, fx, creator.ID)
	ctx := context.Background()

	tickets, err := fx.service.ListTicketsByUser(ctx, creator.ID)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	tickets, err = fx.service.ListTicketsByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	_, err = fx.service.ListTicketsByUser(ctx, "missing")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func mustCreate(t *testing.T, fx *serviceFixture, creatorID string) *domain.Ticket {
	t.Helper()
	ticket, err := fx.service.CreateTicket(context.Background(), creatorID, TicketCreateInput{
		Title:       "Printer jam",
		Description: "Paper stuck in tray 2",
		Category:    "Hardware",
		Priority:    "High",
	})
	require.NoError(t, err)
	return ticket
}
