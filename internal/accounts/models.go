package accounts

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Groups       []int64   `json:"groups"`
	IsSuperuser  bool      `json:"-"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"date_joined"`
}

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserInput struct {
	Username *string  `json:"username" validate:"omitempty,notblank,max=150"`
	Email    *string  `json:"email" validate:"omitempty,optemail"`
	Groups   *[]int64 `json:"groups"`
	Password *string  `json:"password" validate:"omitempty,bcryptlen"` // write-only
}

type GroupInput struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=150"`
}
