package models

import "time"

// Account is the persisted document for a single user.
type Account struct {
	Username      string         `json:"username"`
	PasswordHash  string         `json:"passwordHash"`
	CreatedAt     time.Time      `json:"createdAt"`
	Timestamp     string         `json:"timestamp"`
	LastUpdated   *time.Time     `json:"lastUpdated,omitempty"`
	Events        []Event        `json:"memos"`
	Friends       []string       `json:"friends"`
	Notifications []Notification `json:"notifications"`
}

// IsFriend reports whether username is in the friend list.
func (a *Account) IsFriend(username string) bool {
	for _, f := range a.Friends {
		if f == username {
			return true
		}
	}
	return false
}

// AddFriend appends username unless already present.
func (a *Account) AddFriend(username string) bool {
	if a.IsFriend(username) {
		return false
	}
	a.Friends = append(a.Friends, username)
	return true
}

func (a *Account) RemoveFriend(username string) bool {
	for i, f := range a.Friends {
		if f == username {
			a.Friends = append(a.Friends[:i], a.Friends[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Account) FindEvent(id string) (int, bool) {
	for i := range a.Events {
		if a.Events[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (a *Account) FindNotification(id string) (int, bool) {
	for i := range a.Notifications {
		if a.Notifications[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Touch stamps the account as modified.
func (a *Account) Touch(now time.Time) {
	t := now.UTC()
	a.LastUpdated = &t
}
