package joinrequest

import (
	"context"
	"testing"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/internal/testutil"
	"Cooki-Backend/pkg/event"
	"Cooki-Backend/pkg/pantry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *testutil.Store
	mailer  *testutil.Mailer
	service JoinRequestService
	owner   *entities.User
	guest   *entities.User
	home    *entities.Pantry
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := testutil.NewStore()
	mailer := &testutil.Mailer{}
	events := event.NewEventService(store, store)
	pantries := pantry.NewPantryService(store, events)

	owner := store.SeedUser("Alice")
	guest := store.SeedUser("Bob")
	home := store.SeedPantry("Home", owner)

	return fixture{
		store:   store,
		mailer:  mailer,
		service: NewJoinRequestService(store, pantries, events, store, mailer),
		owner:   owner,
		guest:   guest,
		home:    home,
	}
}

func (f fixture) requester(email *string) domain.Requester {
	return domain.Requester{UserID: f.guest.ID.String(), Name: f.guest.Name, Email: email}
}

func countType(events []*entities.Event, typ string) int {
	n := 0
	for _, e := range events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestCreateJoinRequest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	require.NoError(t, err)
	assert.Equal(t, entities.JoinRequestPending, req.Status)
	assert.Equal(t, f.home.ID.String(), req.PantryID)
	assert.Equal(t, "Bob", req.RequesterName)

	events := f.store.EventsOf(domain.PantryScope(f.home.ID.String()))
	require.Len(t, events, 1)
	assert.Equal(t, entities.EventJoinRequestCreated, events[0].Type)
	assert.Equal(t, req.ID, events[0].ActionID)
	assert.Equal(t, "Bob", events[0].ActionPayload["requester_name"])
}

func TestCreateJoinRequestErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.service.CreateJoinRequest(ctx, "no-such-token", f.requester(nil))
	assert.ErrorIs(t, err, domain.ErrPantryNotFound)

	owner := domain.Requester{UserID: f.owner.ID.String(), Name: f.owner.Name}
	_, err = f.service.CreateJoinRequest(ctx, f.home.JoinToken, owner)
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	_, err = f.service.CreateJoinRequest(ctx, f.home.JoinToken, domain.Requester{Name: "anon"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestOnePendingRequestPerPantryAndUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	pantryID := f.home.ID.String()
	ownerID := f.owner.ID.String()

	first, err := f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	require.NoError(t, err)

	_, err = f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	_, err = f.service.RejectJoinRequest(ctx, pantryID, first.ID, ownerID)
	require.NoError(t, err)

	second, err := f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = f.service.ApproveJoinRequest(ctx, pantryID, second.ID, ownerID)
	require.NoError(t, err)

	_, err = f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)
}

func TestApproveJoinRequest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	pantryID := f.home.ID.String()
	guestID := f.guest.ID.String()
	email := "bob@example.com"

	created, err := f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(&email))
	require.NoError(t, err)

	approved, err := f.service.ApproveJoinRequest(ctx, pantryID, created.ID, f.owner.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entities.JoinRequestApproved, approved.Status)
	require.NotNil(t, approved.RespondedBy)
	assert.Equal(t, f.owner.ID.String(), *approved.RespondedBy)
	assert.NotNil(t, approved.RespondedAt)

	assert.Contains(t, f.store.MemberIDs(f.home.ID), guestID)
	assert.Contains(t, f.store.PantryIDs(f.guest.ID), pantryID)

	userEvents := f.store.EventsOf(domain.UserScope(guestID))
	assert.Equal(t, 1, countType(userEvents, entities.EventJoinRequestAccepted))
	pantryEvents := f.store.EventsOf(domain.PantryScope(pantryID))
	assert.Equal(t, 1, countType(pantryEvents, entities.EventNewMember))

	require.Equal(t, 1, f.mailer.Count())
	assert.Equal(t, email, f.mailer.Sent[0].To)

	_, err = f.service.ApproveJoinRequest(ctx, pantryID, created.ID, f.owner.ID.String())
	assert.ErrorIs(t, err, domain.ErrJoinRequestNotPending)
	_, err = f.service.RejectJoinRequest(ctx, pantryID, created.ID, f.owner.ID.String())
	assert.ErrorIs(t, err, domain.ErrJoinRequestNotPending)
	assert.Equal(t, 1, countType(f.store.EventsOf(domain.UserScope(guestID)), entities.EventJoinRequestAccepted))
}

func TestRejectJoinRequest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	pantryID := f.home.ID.String()
	guestID := f.guest.ID.String()

	created, err := f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	require.NoError(t, err)

	rejected, err := f.service.RejectJoinRequest(ctx, pantryID, created.ID, f.owner.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entities.JoinRequestRejected, rejected.Status)

	assert.NotContains(t, f.store.MemberIDs(f.home.ID), guestID)
	assert.Equal(t, 1, countType(f.store.EventsOf(domain.UserScope(guestID)), entities.EventJoinRequestDenied))
	assert.Zero(t, countType(f.store.EventsOf(domain.PantryScope(pantryID)), entities.EventNewMember))
	assert.Zero(t, f.mailer.Count())
}

func TestOnlyMembersAnswerRequests(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	pantryID := f.home.ID.String()
	stranger := f.store.SeedUser("Mallory")

	created, err := f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	require.NoError(t, err)

	_, err = f.service.ApproveJoinRequest(ctx, pantryID, created.ID, stranger.ID.String())
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.service.ApproveJoinRequest(ctx, pantryID, created.ID, f.guest.ID.String())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.ApproveJoinRequest(ctx, pantryID, "00000000-0000-0000-0000-000000000000", f.owner.ID.String())
	assert.ErrorIs(t, err, domain.ErrJoinRequestNotFound)
	_, err = f.service.RejectJoinRequest(ctx, pantryID, "not-a-uuid", f.owner.ID.String())
	assert.ErrorIs(t, err, domain.ErrJoinRequestNotFound)

	pending, err := f.service.GetPendingJoinRequests(ctx, pantryID, f.owner.ID.String())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotContains(t, f.store.MemberIDs(f.home.ID), f.guest.ID.String())

	_, err = f.service.GetPendingJoinRequests(ctx, pantryID, stranger.ID.String())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRequestFromAnotherPantryIsNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := f.store.SeedPantry("Cabin", f.owner)

	created, err := f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	require.NoError(t, err)

	_, err = f.service.ApproveJoinRequest(ctx, other.ID.String(), created.ID, f.owner.ID.String())
	assert.ErrorIs(t, err, domain.ErrJoinRequestNotFound)
}

func TestGetJoinRequestsFiltersStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	pantryID := f.home.ID.String()
	carol := f.store.SeedUser("Carol")

	bobReq, err := f.service.CreateJoinRequest(ctx, f.home.JoinToken, f.requester(nil))
	require.NoError(t, err)
	_, err = f.service.CreateJoinRequest(ctx, f.home.JoinToken, domain.Requester{UserID: carol.ID.String(), Name: "Carol"})
	require.NoError(t, err)
	_, err = f.service.RejectJoinRequest(ctx, pantryID, bobReq.ID, f.owner.ID.String())
	require.NoError(t, err)

	all, err := f.service.GetJoinRequests(ctx, pantryID, f.owner.ID.String())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.service.GetPendingJoinRequests(ctx, pantryID, f.owner.ID.String())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Carol", pending[0].RequesterName)
}

func TestWatchPendingJoinRequests(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pantryID := f.home.ID.String()

	updates, err := f.service.WatchPendingJoinRequests(ctx, pantryID, f.owner.ID.String())
	require.NoError(t, err)

	next := func() []domain.JoinRequestResponse {
		t.Helper()
		select {
		case list, ok := <-updates:
			require.True(t, ok)
			return list
		case <-time.After(2 * time.Second):
			t.Fatal("no update")
			return nil
		}
	}

	assert.Empty(t, next())

	created, err := f.service.CreateJoinRequest(context.Background(), f.home.JoinToken, f.requester(nil))
	require.NoError(t, err)
	list := next()
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	_, err = f.service.RejectJoinRequest(context.Background(), pantryID, created.ID, f.owner.ID.String())
	require.NoError(t, err)
	assert.Empty(t, next())

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
