package state

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

type UserPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// UserStore owns the collaborator roster and the current-user pointer.
type UserStore struct {
	mu     sync.Mutex
	roster domain.Roster
	cfg    config
	subs   listeners[domain.Roster]
}

func NewUserStore(initial domain.Roster, opts ...Option) *UserStore {
	s := &UserStore{cfg: buildConfig(opts)}
	s.roster = initial.Clone()
	if s.roster.Users == nil {
		s.roster.Users = map[string]domain.User{}
	}
	return s
}

func (s *UserStore) Snapshot() domain.Roster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Clone()
}

func (s *UserStore) Subscribe(fn func(domain.Roster)) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *UserStore) mutate(fn func(r *domain.Roster) error) error {
	s.mu.Lock()
	err := fn(&s.roster)
	var snap domain.Roster
	if err == nil {
		snap = s.roster.Clone()
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.subs.notify(snap)
	return nil
}

// AddUser adds a user and returns its id. The first user added while no
// current user is selected becomes the current user.
func (s *UserStore) AddUser(name, color, icon string) string {
	var id string
	_ = s.mutate(func(r *domain.Roster) error {
		id = "user-" + s.cfg.newID()
		r.Users[id] = domain.User{ID: id, Name: name, Color: color, Icon: icon}
		if r.CurrentUserID == nil {
			cur := id
			r.CurrentUserID = &cur
		}
		return nil
	})
	return id
}

func (s *UserStore) UpdateUser(userID string, patch UserPatch) error {
	return s.mutate(func(r *domain.Roster) error {
		u, ok := r.Users[userID]
		if !ok {
			s.cfg.log.WithField("user", userID).Warn("update of unknown user ignored")
			return ErrUserNotFound
		}
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Color != nil {
			u.Color = *patch.Color
		}
		if patch.Icon != nil {
			u.Icon = *patch.Icon
		}
		r.Users[userID] = u
		return nil
	})
}

// DeleteUser removes the user. Tasks keep their references to it. The
// current-user pointer is cleared if it pointed at the deleted user.
func (s *UserStore) DeleteUser(userID string) error {
	return s.mutate(func(r *domain.Roster) error {
		if _, ok := r.Users[userID]; !ok {
			s.cfg.log.WithField("user", userID).Warn("delete of unknown user ignored")
			return ErrUserNotFound
		}
		delete(r.Users, userID)
		if r.CurrentUserID != nil && *r.CurrentUserID == userID {
			r.CurrentUserID = nil
		}
		return nil
	})
}

// SetCurrentUser selects the active user; nil clears the selection.
func (s *UserStore) SetCurrentUser(userID *string) error {
	return s.mutate(func(r *domain.Roster) error {
		if userID == nil {
			r.CurrentUserID = nil
			return nil
		}
		if _, ok := r.Users[*userID]; !ok {
			return ErrUserNotFound
		}
		id := *userID
		r.CurrentUserID = &id
		return nil
	})
}

// SetRoster replaces the roster. A nil users map keeps the current users;
// the current-user pointer is always taken from next.
func (s *UserStore) SetRoster(next domain.Roster) {
	next = next.Clone()
	_ = s.mutate(func(r *domain.Roster) error {
		if next.Users != nil {
			if len(r.Users) > 0 && len(next.Users) == 0 {
				s.cfg.log.WithFields(logrus.Fields{
					"previous": len(r.Users),
				}).Warn("roster replacement drops every user")
			}
			r.Users = next.Users
		}
		r.CurrentUserID = next.CurrentUserID
		return nil
	})
}
