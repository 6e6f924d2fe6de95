package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/boardsync/internal/domain"
)

func TestAddUser_FirstBecomesCurrent(t *testing.T) {
	s := NewUserStore(domain.EmptyRoster(), WithIDGenerator(seqIDs()))

	alice := s.AddUser("Alice", "#FF6B6B", "🦊")
	bob := s.AddUser("Bob", "#4ECDC4", "")

	r := s.Snapshot()
	assert.Equal(t, "user-id-1", alice)
	require.NotNil(t, r.CurrentUserID)
	assert.Equal(t, alice, *r.CurrentUserID)
	assert.Equal(t, "Bob", r.Users[bob].Name)
}

func TestDeleteUser_ClearsCurrentPointer(t *testing.T) {
	s := NewUserStore(domain.EmptyRoster(), WithIDGenerator(seqIDs()))
	alice := s.AddUser("Alice", "#FF6B6B", "")
	bob := s.AddUser("Bob", "#4ECDC4", "")

	require.NoError(t, s.DeleteUser(bob))
	assert.Equal(t, alice, *s.Snapshot().CurrentUserID)

	require.NoError(t, s.DeleteUser(alice))
	assert.Nil(t, s.Snapshot().CurrentUserID)
	assert.ErrorIs(t, s.DeleteUser(alice), ErrUserNotFound)
}

func TestUpdateAndSelectUser(t *testing.T) {
	s := NewUserStore(domain.EmptyRoster(), WithIDGenerator(seqIDs()))
	alice := s.AddUser("Alice", "#FF6B6B", "")
	bob := s.AddUser("Bob", "#4ECDC4", "")

	name := "Robert"
	require.NoError(t, s.UpdateUser(bob, UserPatch{Name: &name}))
	require.NoError(t, s.SetCurrentUser(&bob))

	r := s.Snapshot()
	assert.Equal(t, "Robert", r.Users[bob].Name)
	assert.Equal(t, "#4ECDC4", r.Users[bob].Color)
	assert.Equal(t, bob, *r.CurrentUserID)

	ghost := "ghost"
	assert.ErrorIs(t, s.SetCurrentUser(&ghost), ErrUserNotFound)
	require.NoError(t, s.SetCurrentUser(nil))
	assert.Nil(t, s.Snapshot().CurrentUserID)
	assert.Contains(t, s.Snapshot().Users, alice)
}

func TestSetRoster(t *testing.T) {
	s := NewUserStore(domain.EmptyRoster())
	id := "u1"
	s.SetRoster(domain.Roster{Users: map[string]domain.User{"u1": {ID: "u1", Name: "A"}}, CurrentUserID: &id})

	var notified domain.Roster
	s.Subscribe(func(r domain.Roster) { notified = r })
	s.SetRoster(domain.Roster{})

	assert.Len(t, notified.Users, 1, "nil users map keeps current users")
	assert.Nil(t, notified.CurrentUserID)
}
