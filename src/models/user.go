package models

import (
	"time"
)

type User struct {
	ID int `db:"id"`

	Username string `db:"username"`
	Email    string `db:"email"`
	Name     string `db:"name"`
	IsStaff  bool   `db:"is_staff"`

	InsertedAt time.Time `db:"inserted_at"`
}

func (u *User) BestName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
