package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

// fakeTxManager just runs the function; the fakes below are not
// transactional, they mutate in place.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, q repository.Querier) error) error {
	return fn(ctx, nil)
}

type fakeTicketRepo struct {
	tickets map[int64]*domain.Ticket
	nextID  int64

	// failCreates makes the next N Create calls return a unique
	// violation, simulating a concurrent writer taking the number.
	failCreates int

	customerNames map[int64]string
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:       map[int64]*domain.Ticket{},
		customerNames: map[int64]string{},
	}
}

func (r *fakeTicketRepo) WithQuerier(repository.Querier) repository.TicketRepository { return r }

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	if r.failCreates > 0 {
		r.failCreates--
		return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_ticket_number_key"}
	}
	for _, existing := range r.tickets {
		if existing.TicketNumber == ticket.TicketNumber {
			return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_ticket_number_key"}
		}
	}
	r.nextID++
	ticket.ID = r.nextID
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.CreatedAt = stored.CreatedAt
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetDetailByID(ctx context.Context, id int64) (*domain.TicketDetail, error) {
	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.detail(ticket), nil
}

func (r *fakeTicketRepo) detail(ticket *domain.Ticket) *domain.TicketDetail {
	return &domain.TicketDetail{
		Ticket:       *ticket,
		CustomerName: r.customerNames[ticket.CustomerID],
	}
}

func (r *fakeTicketRepo) LatestTicketNumber(_ context.Context, prefix string) (string, error) {
	var latest *domain.Ticket
	for _, ticket := range r.tickets {
		if !strings.HasPrefix(ticket.TicketNumber, prefix) {
			continue
		}
		if latest == nil || ticket.ID > latest.ID {
			latest = ticket
		}
	}
	if latest == nil {
		return "", pgx.ErrNoRows
	}
	return latest.TicketNumber, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.TicketDetail, int, error) {
	var matched []*domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		if filter.CategoryID != nil && (ticket.CategoryID == nil || *ticket.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Unassigned && ticket.AssignedTo != nil {
			continue
		}
		if len(filter.TicketIDs) > 0 && !containsID(filter.TicketIDs, ticket.ID) {
			continue
		}
		matched = append(matched, ticket)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	result := make([]domain.TicketDetail, 0, len(matched))
	for _, ticket := range matched {
		result = append(result, *r.detail(ticket))
	}
	return result, total, nil
}

func (r *fakeTicketRepo) TouchUpdatedAt(_ context.Context, id int64) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	return nil
}

func containsStatus(values []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsPriority(values []domain.TicketPriority, v domain.TicketPriority) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsID(values []int64, v int64) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

type fakeCommentRepo struct {
	comments []*domain.TicketComment
	nextID   int64
}

func newFakeCommentRepo() *fakeCommentRepo { return &fakeCommentRepo{} }

func (r *fakeCommentRepo) WithQuerier(repository.Querier) repository.TicketCommentRepository {
	return r
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	copied := *comment
	r.comments = append(r.comments, &copied)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID int64, includeInternal bool) ([]domain.TicketComment, error) {
	var result []domain.TicketComment
	for _, comment := range r.comments {
		if comment.TicketID != ticketID {
			continue
		}
		if comment.IsInternal && !includeInternal {
			continue
		}
		result = append(result, *comment)
	}
	return result, nil
}

type fakeHistoryRepo struct {
	entries []*domain.TicketHistory
	nextID  int64
}

func newFakeHistoryRepo() *fakeHistoryRepo { return &fakeHistoryRepo{} }

func (r *fakeHistoryRepo) WithQuerier(repository.Querier) repository.TicketHistoryRepository {
	return r
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.nextID++
	history.ID = r.nextID
	history.CreatedAt = time.Now()
	copied := *history
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, *entry)
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) actionsFor(ticketID int64) []domain.HistoryAction {
	var actions []domain.HistoryAction
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			actions = append(actions, entry.Action)
		}
	}
	return actions
}

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[int64]*domain.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) WithQuerier(repository.Querier) repository.UserRepository { return r }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	user.ID = int64(len(r.users) + 1)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeCategoryRepo struct {
	subcategories map[int64]bool
}

func newFakeCategoryRepo(subcategoryIDs ...int64) *fakeCategoryRepo {
	repo := &fakeCategoryRepo{subcategories: map[int64]bool{}}
	for _, id := range subcategoryIDs {
		repo.subcategories[id] = true
	}
	return repo
}

func (r *fakeCategoryRepo) WithQuerier(repository.Querier) repository.CategoryRepository { return r }

func (r *fakeCategoryRepo) CreateCategory(context.Context, *domain.Category) error    { return nil }
func (r *fakeCategoryRepo) UpdateCategory(context.Context, *domain.Category) error    { return nil }
func (r *fakeCategoryRepo) DeleteCategory(context.Context, int64) error               { return nil }
func (r *fakeCategoryRepo) ListCategories(context.Context) ([]domain.Category, error) { return nil, nil }
func (r *fakeCategoryRepo) CreateSubcategory(context.Context, *domain.Subcategory) error {
	return nil
}
func (r *fakeCategoryRepo) ListSubcategories(context.Context, int64) ([]domain.Subcategory, error) {
	return nil, nil
}

func (r *fakeCategoryRepo) SubcategoryExists(_ context.Context, id int64) (bool, error) {
	return r.subcategories[id], nil
}

type fakeNotificationRepo struct {
	notifications []*domain.Notification
	nextID        int64
	failCreate    bool
}

func newFakeNotificationRepo() *fakeNotificationRepo { return &fakeNotificationRepo{} }

func (r *fakeNotificationRepo) WithQuerier(repository.Querier) repository.NotificationRepository {
	return r
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	if r.failCreate {
		return pgx.ErrTxClosed
	}
	r.nextID++
	notification.ID = r.nextID
	notification.CreatedAt = time.Now()
	copied := *notification
	r.notifications = append(r.notifications, &copied)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	var result []domain.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			result = append(result, *notification)
		}
	}
	return result, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID int64) error {
	for _, notification := range r.notifications {
		if notification.ID == id && notification.UserID == userID {
			notification.IsRead = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeNotificationRepo) forUser(userID int64) []*domain.Notification {
	var result []*domain.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			result = append(result, notification)
		}
	}
	return result
}

// recordingDispatcher captures published events without handlers.
type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) lastOfType(t events.EventType) (events.Event, bool) {
	for i := len(d.published) - 1; i >= 0; i-- {
		if d.published[i].Type == t {
			return d.published[i], true
		}
	}
	return events.Event{}, false
}
