package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type ticketServiceFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	comments   *fakeCommentRepo
	history    *fakeHistoryRepo
	users      *fakeUserRepo
	categories *fakeCategoryRepo
	dispatcher *recordingDispatcher
}

var (
	testCustomer = &domain.User{ID: 1, Name: "Casey Customer", Email: "casey@example.com", Role: domain.RoleCustomer}
	testEmployee = &domain.User{ID: 2, Name: "Erin Employee", Email: "erin@example.com", Role: domain.RoleEmployee}
	testAdmin    = &domain.User{ID: 3, Name: "Avery Admin", Email: "avery@example.com", Role: domain.RoleAdmin}
	otherUser    = &domain.User{ID: 4, Name: "Olive Other", Email: "olive@example.com", Role: domain.RoleCustomer}
)

func newTicketServiceFixture(t *testing.T) *ticketServiceFixture {
	t.Helper()
	f := &ticketServiceFixture{
		tickets:    newFakeTicketRepo(),
		comments:   newFakeCommentRepo(),
		history:    newFakeHistoryRepo(),
		users:      newFakeUserRepo(testCustomer, testEmployee, testAdmin, otherUser),
		categories: newFakeCategoryRepo(10),
		dispatcher: &recordingDispatcher{},
	}
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:   f.tickets,
		CommentRepo:  f.comments,
		HistoryRepo:  f.history,
		UserRepo:     f.users,
		CategoryRepo: f.categories,
		TxManager:    fakeTxManager{},
		Dispatcher:   f.dispatcher,
	})
	return f
}

func ptr[T any](v T) *T { return &v }

func TestCreateTicketDefaults(t *testing.T) {
	f := newTicketServiceFixture(t)

	detail, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:     "Printer on fire",
		Description: "Smoke is coming out of the office printer.",
	})
	require.NoError(t, err)

	assert.Equal(t, "TKT1", detail.TicketNumber)
	assert.Equal(t, domain.TicketStatusOpen, detail.Status)
	assert.Equal(t, domain.TicketPriorityMedium, detail.Priority)
	assert.Equal(t, testCustomer.ID, detail.CustomerID)
	assert.Nil(t, detail.AssignedTo)
	assert.Nil(t, detail.ResolvedAt)

	actions := f.history.actionsFor(detail.ID)
	assert.Equal(t, []domain.HistoryAction{domain.HistoryActionCreated}, actions)

	event, ok := f.dispatcher.lastOfType(events.EventTicketCreated)
	require.True(t, ok)
	payload := event.Payload.(events.TicketCreatedPayload)
	assert.Equal(t, "TKT1", payload.TicketNumber)
}

func TestCreateTicketNumbersAreSequential(t *testing.T) {
	f := newTicketServiceFixture(t)

	for i, want := range []string{"TKT1", "TKT2", "TKT3"} {
		detail, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
			Subject:     "Issue",
			Description: "Details",
		})
		require.NoError(t, err, "creation %d", i)
		assert.Equal(t, want, detail.TicketNumber)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketServiceFixture(t)

	_, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:     "   ",
		Description: "Details",
	})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:     "Subject",
		Description: "",
	})
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestCreateTicketInvalidPriorityRejected(t *testing.T) {
	f := newTicketServiceFixture(t)

	_, err := f.service.CreateTicket(context.Background(), testEmployee, TicketCreateInput{
		Subject:     "Subject",
		Description: "Details",
		Priority:    ptr(domain.TicketPriority("whenever")),
	})
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestCreateTicketCustomerStaffFieldsScrubbed(t *testing.T) {
	f := newTicketServiceFixture(t)

	// a customer smuggling staff-only create fields gets them silently
	// dropped rather than rejected
	detail, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:           "Subject",
		Description:       "Details",
		RequesterID:       ptr(otherUser.ID),
		AssignedTo:        ptr(testEmployee.ID),
		AssignmentGroupID: ptr(int64(5)),
		WorkNotes:         ptr("secret triage note"),
	})
	require.NoError(t, err)

	assert.Equal(t, testCustomer.ID, detail.CustomerID)
	assert.Nil(t, detail.AssignedTo)
	assert.Nil(t, detail.AssignmentGroupID)

	comments, err := f.comments.ListByTicket(context.Background(), detail.ID, true)
	require.NoError(t, err)
	assert.Empty(t, comments, "scrubbed work note must not be stored")
}

func TestCreateTicketStaffOnBehalfOfRequester(t *testing.T) {
	f := newTicketServiceFixture(t)

	detail, err := f.service.CreateTicket(context.Background(), testEmployee, TicketCreateInput{
		Subject:     "Filed over the phone",
		Description: "Customer called in.",
		RequesterID: ptr(testCustomer.ID),
		AssignedTo:  ptr(testEmployee.ID),
	})
	require.NoError(t, err)

	assert.Equal(t, testCustomer.ID, detail.CustomerID)
	require.NotNil(t, detail.AssignedTo)
	assert.Equal(t, testEmployee.ID, *detail.AssignedTo)
}

func TestCreateTicketUnknownRequesterRejected(t *testing.T) {
	f := newTicketServiceFixture(t)

	_, err := f.service.CreateTicket(context.Background(), testEmployee, TicketCreateInput{
		Subject:     "Subject",
		Description: "Details",
		RequesterID: ptr(int64(999)),
	})
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestCreateTicketUnknownSubcategorySilentlyDropped(t *testing.T) {
	f := newTicketServiceFixture(t)

	detail, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:       "Subject",
		Description:   "Details",
		SubcategoryID: ptr(int64(999)),
	})
	require.NoError(t, err)
	assert.Nil(t, detail.SubcategoryID)

	known, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:       "Subject",
		Description:   "Details",
		SubcategoryID: ptr(int64(10)),
	})
	require.NoError(t, err)
	require.NotNil(t, known.SubcategoryID)
	assert.Equal(t, int64(10), *known.SubcategoryID)
}

func TestCreateTicketCommentsAndWorkNotes(t *testing.T) {
	f := newTicketServiceFixture(t)

	detail, err := f.service.CreateTicket(context.Background(), testEmployee, TicketCreateInput{
		Subject:            "Subject",
		Description:        "Details",
		AdditionalComments: ptr("first public update"),
		WorkNotes:          ptr("internal triage note"),
	})
	require.NoError(t, err)

	all, err := f.comments.ListByTicket(context.Background(), detail.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].IsInternal)
	assert.True(t, all[1].IsInternal)

	actions := f.history.actionsFor(detail.ID)
	assert.Equal(t, []domain.HistoryAction{
		domain.HistoryActionCommentAdded,
		domain.HistoryActionWorkNoteAdded,
		domain.HistoryActionCreated,
	}, actions)
}

func TestCreateTicketRetriesOnNumberCollision(t *testing.T) {
	f := newTicketServiceFixture(t)
	f.tickets.failCreates = 1

	detail, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:     "Subject",
		Description: "Details",
	})
	require.NoError(t, err, "one collision is absorbed by the retry")
	assert.Equal(t, "TKT1", detail.TicketNumber)
}

func TestCreateTicketSecondCollisionSurfaces(t *testing.T) {
	f := newTicketServiceFixture(t)
	f.tickets.failCreates = 2

	_, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:     "Subject",
		Description: "Details",
	})
	require.Error(t, err, "only one retry is attempted")
}

func TestUpdateTicketStaffFields(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	detail, err := f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Status:     ptr(domain.TicketStatusInProgress),
		Priority:   ptr(domain.TicketPriorityHigh),
		AssignedTo: ptr(testEmployee.ID),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusInProgress, detail.Status)
	assert.Equal(t, domain.TicketPriorityHigh, detail.Priority)
	require.NotNil(t, detail.AssignedTo)
	assert.Equal(t, testEmployee.ID, *detail.AssignedTo)
	assert.Nil(t, detail.ResolvedAt, "only resolved sets the timestamp")
}

func TestUpdateTicketResolvedStampsTimestamp(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	first, err := f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Status:     ptr(domain.TicketStatusResolved),
		Resolution: ptr("rebooted it"),
	})
	require.NoError(t, err)
	require.NotNil(t, first.ResolvedAt)
	firstStamp := *first.ResolvedAt

	time.Sleep(5 * time.Millisecond)

	// resolving an already resolved ticket moves the timestamp forward
	second, err := f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatusResolved),
	})
	require.NoError(t, err)
	require.NotNil(t, second.ResolvedAt)
	assert.True(t, second.ResolvedAt.After(firstStamp), "resolved_at is restamped on every resolved write")
}

func TestUpdateTicketResolvedAtSurvivesReopen(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	_, err := f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatusResolved),
	})
	require.NoError(t, err)

	reopened, err := f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatusOpen),
	})
	require.NoError(t, err)
	assert.NotNil(t, reopened.ResolvedAt, "reopening does not clear the last resolution time")
}

func TestUpdateTicketPermissiveTransitions(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	// closed straight back to open is allowed
	for _, status := range []domain.TicketStatus{
		domain.TicketStatusClosed,
		domain.TicketStatusOpen,
		domain.TicketStatusResolved,
		domain.TicketStatusInProgress,
	} {
		detail, err := f.service.UpdateTicket(context.Background(), testAdmin, created.ID, TicketUpdateInput{
			Status: ptr(status),
		})
		require.NoError(t, err, "transition to %s", status)
		assert.Equal(t, status, detail.Status)
	}
}

func TestUpdateTicketCustomerOwnFields(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	detail, err := f.service.UpdateTicket(context.Background(), testCustomer, created.ID, TicketUpdateInput{
		Subject:     ptr("Clarified subject"),
		Description: ptr("More detail about the smoke."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Clarified subject", detail.Subject)
}

func TestUpdateTicketCustomerStaffFieldWholesaleReject(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	_, err := f.service.UpdateTicket(context.Background(), testCustomer, created.ID, TicketUpdateInput{
		Subject: ptr("Changed"),
		Status:  ptr(domain.TicketStatusClosed),
	})
	assertDomainCode(t, err, "FORBIDDEN")

	// nothing of the mixed request was applied
	unchanged, err := f.tickets.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Subject, unchanged.Subject)
	assert.Equal(t, domain.TicketStatusOpen, unchanged.Status)
}

func TestUpdateTicketOwnership(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	_, err := f.service.UpdateTicket(context.Background(), otherUser, created.ID, TicketUpdateInput{
		Subject: ptr("not mine"),
	})
	assertDomainCode(t, err, "ACCESS_DENIED")

	// staff bypass the ownership wall
	_, err = f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Subject: ptr("triaged"),
	})
	require.NoError(t, err)
}

func TestUpdateTicketNoFields(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	_, err := f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{})
	assertDomainCode(t, err, "NO_FIELDS_TO_UPDATE")
}

func TestUpdateTicketNotFound(t *testing.T) {
	f := newTicketServiceFixture(t)

	_, err := f.service.UpdateTicket(context.Background(), testEmployee, 404, TicketUpdateInput{
		Subject: ptr("x"),
	})
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestUpdateTicketRecordsHistoryWithSnapshot(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	_, err := f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Status: ptr(domain.TicketStatusInProgress),
	})
	require.NoError(t, err)

	entries, err := f.history.ListByTicket(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	updated := entries[1]
	assert.Equal(t, domain.HistoryActionUpdated, updated.Action)
	assert.Equal(t, domain.TicketStatusOpen, updated.OldValue["status"], "old snapshot keeps the pre-update status")
	assert.Equal(t, domain.TicketStatusInProgress, updated.NewValue["status"])
}

func TestDeleteTicket(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	require.NoError(t, f.service.DeleteTicket(context.Background(), testAdmin, created.ID))

	_, err := f.tickets.GetByID(context.Background(), created.ID)
	assert.Error(t, err)

	event, ok := f.dispatcher.lastOfType(events.EventTicketDeleted)
	require.True(t, ok)
	payload := event.Payload.(events.TicketDeletedPayload)
	assert.Equal(t, created.TicketNumber, payload.TicketNumber)
}

func TestDeleteTicketNotFound(t *testing.T) {
	f := newTicketServiceFixture(t)
	err := f.service.DeleteTicket(context.Background(), testAdmin, 404)
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestGetTicketHidesInternalCommentsFromCustomers(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	require.NoError(t, f.comments.Create(context.Background(), &domain.TicketComment{
		TicketID: created.ID, AuthorID: testCustomer.ID, Body: "public",
	}))
	require.NoError(t, f.comments.Create(context.Background(), &domain.TicketComment{
		TicketID: created.ID, AuthorID: testEmployee.ID, Body: "internal", IsInternal: true,
	}))

	_, customerComments, _, err := f.service.GetTicket(context.Background(), testCustomer, created.ID)
	require.NoError(t, err)
	require.Len(t, customerComments, 1)
	assert.Equal(t, "public", customerComments[0].Body)

	_, staffComments, _, err := f.service.GetTicket(context.Background(), testEmployee, created.ID)
	require.NoError(t, err)
	assert.Len(t, staffComments, 2)
}

func TestGetTicketOwnership(t *testing.T) {
	f := newTicketServiceFixture(t)
	created := mustCreate(t, f, testCustomer)

	_, _, _, err := f.service.GetTicket(context.Background(), otherUser, created.ID)
	assertDomainCode(t, err, "ACCESS_DENIED")
}

func TestListTicketsCustomerScoped(t *testing.T) {
	f := newTicketServiceFixture(t)
	mustCreate(t, f, testCustomer)
	mustCreate(t, f, testCustomer)
	mustCreate(t, f, otherUser)

	page, err := f.service.ListTickets(context.Background(), testCustomer, TicketListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, ticket := range page.Tickets {
		assert.Equal(t, testCustomer.ID, ticket.CustomerID)
	}

	staffPage, err := f.service.ListTickets(context.Background(), testEmployee, TicketListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, staffPage.Total)
}

func TestListTicketsStatusFilterAndPagination(t *testing.T) {
	f := newTicketServiceFixture(t)
	for i := 0; i < 5; i++ {
		mustCreate(t, f, testCustomer)
	}

	page, err := f.service.ListTickets(context.Background(), testEmployee, TicketListFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusOpen},
		Page:     2,
		Limit:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Tickets, 2)
	assert.Equal(t, 3, page.TotalPages)
}

func TestListTicketsUnassignedFilterStaffOnly(t *testing.T) {
	f := newTicketServiceFixture(t)
	assigned := mustCreate(t, f, testCustomer)
	mustCreate(t, f, testCustomer)

	_, err := f.service.UpdateTicket(context.Background(), testEmployee, assigned.ID, TicketUpdateInput{
		AssignedTo: ptr(testEmployee.ID),
	})
	require.NoError(t, err)

	page, err := f.service.ListTickets(context.Background(), testEmployee, TicketListFilter{Unassigned: true})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	// a customer cannot use the staff filter; it is ignored
	customerPage, err := f.service.ListTickets(context.Background(), testCustomer, TicketListFilter{Unassigned: true})
	require.NoError(t, err)
	assert.Equal(t, 2, customerPage.Total)
}

func TestPreviewNextNumberDoesNotReserve(t *testing.T) {
	f := newTicketServiceFixture(t)
	mustCreate(t, f, testCustomer)

	assert.Equal(t, "TKT2", f.service.PreviewNextNumber(context.Background()))
	assert.Equal(t, "TKT2", f.service.PreviewNextNumber(context.Background()), "preview is repeatable")

	detail, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject: "Subject", Description: "Details",
	})
	require.NoError(t, err)
	assert.Equal(t, "TKT2", detail.TicketNumber, "the previewed number is still available")
}

func TestTicketLifecycleEndToEnd(t *testing.T) {
	f := newTicketServiceFixture(t)

	created, err := f.service.CreateTicket(context.Background(), testCustomer, TicketCreateInput{
		Subject:            "VPN will not connect",
		Description:        "Times out after the password prompt.",
		Priority:           ptr(domain.TicketPriorityHigh),
		AdditionalComments: ptr("Happens on both laptops."),
	})
	require.NoError(t, err)
	assert.Equal(t, "TKT1", created.TicketNumber)

	_, err = f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Status:     ptr(domain.TicketStatusInProgress),
		AssignedTo: ptr(testEmployee.ID),
	})
	require.NoError(t, err)

	resolved, err := f.service.UpdateTicket(context.Background(), testEmployee, created.ID, TicketUpdateInput{
		Status:     ptr(domain.TicketStatusResolved),
		Resolution: ptr("Renewed the certificate."),
	})
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, "Renewed the certificate.", *resolved.Resolution)

	entries, err := f.history.ListByTicket(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "comment, created and two updates")
}

func mustCreate(t *testing.T, f *ticketServiceFixture, actor *domain.User) *domain.TicketDetail {
	t.Helper()
	detail, err := f.service.CreateTicket(context.Background(), actor, TicketCreateInput{
		Subject:     "Something broke",
		Description: "It does not work anymore.",
	})
	require.NoError(t, err)
	return detail
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}
