package entities

import "strings"

const UsersPath = "users"

type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
	LastLogin   string `json:"last_login,omitempty"`
	Timestamps
}

func (u User) GetID() int     { return u.ID }
func (u User) GetURL() string { return detailURL(UsersPath, u.ID) }

// GetName is the username, users are picked by it.
func (u User) GetName() string { return u.Username }

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
