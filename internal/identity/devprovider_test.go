package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lotworks/lotworks/internal/shared"
	_ "github.com/lotworks/lotworks/internal/testing/guard"
)

func TestDevProviderSignIn(t *testing.T) {
	p := NewDevProvider()
	require.NoError(t, p.Seed("mara@lot.test", "sw0rdfish42", "u1"))
	ctx := context.Background()

	var events []Event
	unsubscribe := p.Subscribe(func(ev Event) { events = append(events, ev) })
	defer unsubscribe()

	require.ErrorIs(t, p.SignInWithPassword(ctx, "mara@lot.test", "wrong-password"), shared.ErrInvalidCredentials)
	require.ErrorIs(t, p.SignInWithPassword(ctx, "nobody@lot.test", "sw0rdfish42"), shared.ErrInvalidCredentials)
	require.Empty(t, events)

	require.NoError(t, p.SignInWithPassword(ctx, "mara@lot.test", "sw0rdfish42"))
	require.Len(t, events, 1)
	require.Equal(t, EventSignedIn, events[0].Type)
	require.Equal(t, "u1", events[0].Session.UserID)
	require.NotEmpty(t, events[0].Session.AccessToken)
}

func TestDevProviderCurrentSessionCopies(t *testing.T) {
	p := NewDevProvider()
	require.NoError(t, p.Seed("mara@lot.test", "sw0rdfish42", "u1"))
	ctx := context.Background()

	sess, err := p.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)

	require.NoError(t, p.SignInWithPassword(ctx, "mara@lot.test", "sw0rdfish42"))
	sess, err = p.CurrentSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)

	// Mutating the copy must not touch provider state.
	sess.UserID = "tampered"
	again, err := p.CurrentSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", again.UserID)
}

func TestDevProviderSignOut(t *testing.T) {
	p := NewDevProvider()
	require.NoError(t, p.Seed("mara@lot.test", "sw0rdfish42", "u1"))
	ctx := context.Background()
	require.NoError(t, p.SignInWithPassword(ctx, "mara@lot.test", "sw0rdfish42"))

	var events []Event
	unsubscribe := p.Subscribe(func(ev Event) { events = append(events, ev) })
	defer unsubscribe()

	require.NoError(t, p.SignOut(ctx))
	sess, err := p.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)
	require.Len(t, events, 1)
	require.Equal(t, EventSignedOut, events[0].Type)
}

func TestDevProviderSignUpRejectsDuplicates(t *testing.T) {
	p := NewDevProvider()
	ctx := context.Background()
	meta := SignUpMetadata{FirstName: "Mara", LastName: "Voss", Role: shared.RoleSeller}

	require.NoError(t, p.SignUp(ctx, "mara@lot.test", "sw0rdfish42", meta))
	require.ErrorIs(t, p.SignUp(ctx, "mara@lot.test", "sw0rdfish42", meta), shared.ErrValidation)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	p := NewDevProvider()
	require.NoError(t, p.Seed("mara@lot.test", "sw0rdfish42", "u1"))

	count := 0
	unsubscribe := p.Subscribe(func(Event) { count++ })
	require.NoError(t, p.SignInWithPassword(context.Background(), "mara@lot.test", "sw0rdfish42"))
	require.Equal(t, 1, count)

	unsubscribe()
	require.NoError(t, p.SignOut(context.Background()))
	require.Equal(t, 1, count)
}
