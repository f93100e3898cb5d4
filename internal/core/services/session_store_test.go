package services

import (
	"context"
	"testing"
	"time"

	"forumclient/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newBoundStore(t *testing.T) (*SessionStore, *fakeIdentity) {
	t.Helper()
	store := NewSessionStore(zaptest.NewLogger(t).Sugar(), nil)
	idp := newFakeIdentity()
	require.NoError(t, store.Bind(idp))
	return store, idp
}

func TestSessionStore_StartsLoading(t *testing.T) {
	store, _ := newBoundStore(t)

	snap := store.Snapshot()
	assert.True(t, snap.Loading())
	assert.Equal(t, domain.SessionUnknown, snap.State)
}

func TestSessionStore_FirstEventIsAuthoritative(t *testing.T) {
	store, idp := newBoundStore(t)

	idp.emit(domain.SessionEvent{Reason: domain.EventReasonStartup})
	assert.Equal(t, domain.SessionAnonymous, store.Snapshot().State)

	idp.signIn("uid-1", "tok-1")
	snap := store.Snapshot()
	require.True(t, snap.Authenticated())
	assert.Equal(t, "uid-1", snap.IdentityID())
	assert.Equal(t, "tok-1", snap.Session.Credential)
}

func TestSessionStore_BindTwiceFails(t *testing.T) {
	store, _ := newBoundStore(t)
	assert.ErrorIs(t, store.Bind(newFakeIdentity()), ErrAlreadyBound)
}

func TestSessionStore_IgnoresSessionWithoutCredential(t *testing.T) {
	store, idp := newBoundStore(t)

	idp.emit(domain.SessionEvent{Session: &domain.Session{IdentityID: "uid-1"}})
	assert.Equal(t, domain.SessionAnonymous, store.Snapshot().State)
}

func TestSessionStore_SubscribersRunInOrderBeforeApplyReturns(t *testing.T) {
	store, idp := newBoundStore(t)

	var order []string
	store.Subscribe(func(prev, next domain.SessionSnapshot) { order = append(order, "transport:"+next.IdentityID()) })
	unsub := store.Subscribe(func(prev, next domain.SessionSnapshot) { order = append(order, "cache:"+prev.IdentityID()) })

	idp.signIn("uid-1", "tok-1")
	assert.Equal(t, []string{"transport:uid-1", "cache:"}, order)

	unsub()
	idp.signIn("uid-2", "tok-2")
	assert.Equal(t, []string{"transport:uid-1", "cache:", "transport:uid-2"}, order)
}

func TestSessionStore_BeforePublishRunsBeforeSnapshotIsVisible(t *testing.T) {
	store, idp := newBoundStore(t)

	var order []string
	store.Subscribe(func(prev, next domain.SessionSnapshot) {
		order = append(order, "sub:"+store.Snapshot().IdentityID())
	})
	store.BeforePublish(func(prev, next domain.SessionSnapshot) {
		order = append(order, "hook:"+prev.State.String()+">"+next.IdentityID())
	})

	idp.signIn("uid-1", "tok-1")
	assert.Equal(t, []string{"hook:unknown>uid-1", "sub:uid-1"}, order)

	order = nil
	idp.emit(domain.SessionEvent{Reason: domain.EventReasonSignOut})
	assert.Equal(t, []string{"hook:authenticated>", "sub:"}, order)
}

func TestSessionStore_ReadersWaitForBeforePublishHooks(t *testing.T) {
	store, idp := newBoundStore(t)
	idp.signIn("uid-1", "tok-1")

	entered := make(chan struct{})
	release := make(chan struct{})
	unhook := store.BeforePublish(func(prev, next domain.SessionSnapshot) {
		close(entered)
		<-release
	})
	defer unhook()

	done := make(chan struct{})
	go func() {
		idp.emit(domain.SessionEvent{Reason: domain.EventReasonSignOut})
		close(done)
	}()
	<-entered

	read := make(chan domain.SessionSnapshot, 1)
	go func() { read <- store.Snapshot() }()

	select {
	case snap := <-read:
		t.Fatalf("snapshot %s observed before hooks returned", snap.State)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done
	assert.Equal(t, domain.SessionAnonymous, (<-read).State)
}

func TestSessionStore_SnapshotIsCopy(t *testing.T) {
	store, idp := newBoundStore(t)

	sess := &domain.Session{IdentityID: "uid-1", Credential: "tok-1"}
	idp.emit(domain.SessionEvent{Session: sess})
	sess.Credential = "mutated"

	assert.Equal(t, "tok-1", store.Snapshot().Session.Credential)
}

func TestSessionStore_WaitReady(t *testing.T) {
	store, idp := newBoundStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := store.WaitReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go idp.emit(domain.SessionEvent{Reason: domain.EventReasonStartup})

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	snap, err := store.WaitReady(ctx2)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionAnonymous, snap.State)
}

func TestSessionStore_UnbindStopsUpdates(t *testing.T) {
	store, idp := newBoundStore(t)
	idp.signIn("uid-1", "tok-1")

	store.Unbind()
	idp.emit(domain.SessionEvent{Reason: domain.EventReasonSignOut})

	assert.True(t, store.Snapshot().Authenticated())
}
