package domain

import (
	"cmp"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon,omitempty"`
}

// Roster is the persisted collaborator list plus the active user pointer.
type Roster struct {
	Users         map[string]User `json:"users"`
	CurrentUserID *string         `json:"currentUserId"`
}

// EmptyRoster returns a roster with no users and no current user.
func EmptyRoster() Roster {
	return Roster{Users: map[string]User{}}
}

func (r Roster) Clone() Roster {
	c := Roster{}
	if r.Users != nil {
		c.Users = maps.Clone(r.Users)
	}
	if r.CurrentUserID != nil {
		id := *r.CurrentUserID
		c.CurrentUserID = &id
	}
	return c
}

// Current returns the active user, if one is selected and still exists.
func (r Roster) Current() (User, bool) {
	if r.CurrentUserID == nil {
		return User{}, false
	}
	u, ok := r.Users[*r.CurrentUserID]
	return u, ok
}

// ColorsOf returns the colours of the given users in order, skipping ids
// that no longer resolve to a user.
func (r Roster) ColorsOf(userIDs []string) []string {
	var colors []string
	for _, id := range userIDs {
		if u, ok := r.Users[id]; ok {
			colors = append(colors, u.Color)
		}
	}
	return colors
}

// SortedUsers returns the users ordered by name, then id.
func (r Roster) SortedUsers() []User {
	users := slices.Collect(maps.Values(r.Users))
	slices.SortFunc(users, func(a, b User) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return users
}

var DefaultColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FECA57",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
}

var DefaultIcons = []string{
	"😊", "🌟", "🦄", "🐱", "🦊", "🐰", "🐨", "🦁", "🐸", "🦋",
	"🌸", "🌺", "🌻", "🌈", "💫", "🎨", "🎯", "🚀", "💡", "❤️",
}

func RandomColor() string {
	return DefaultColors[rand.IntN(len(DefaultColors))]
}

func RandomIcon() string {
	return DefaultIcons[rand.IntN(len(DefaultIcons))]
}
