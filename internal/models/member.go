package models

import "time"

// Member represents a person who shares expenses.
type Member struct {
	// ID is assigned by the store when the member is created.
	ID int64

	// Name is the display name of the member.
	Name string

	// Email is optional contact information.
	Email string

	// CreatedAt is the Unix timestamp when the member was added.
	CreatedAt int64
}

// NewMember creates a member that has not been stored yet.
func NewMember(name, email string) *Member {
	return &Member{
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}
}
