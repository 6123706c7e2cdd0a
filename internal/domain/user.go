// Package domain contains entities without logic, just meta-data.
package domain

import "fmt"

type UserID int64

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// DisplayName resolves the name shown to other participants,
// falling back full name -> username -> "User {id}".
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprintf("User %d", u.ID)
}
