package domain

import (
	"context"
	"time"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserPoll is the short form of a poll listed on its creator's profile.
type UserPoll struct {
	ID          string
	Question    string
	IsPublished bool
	CreatedAt   time.Time
}

// UserWithPolls is a user together with the polls they created.
type UserWithPolls struct {
	User
	Polls []UserPoll
}

type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, userID string) (*User, error)
	GetWithPolls(ctx context.Context, userID string) (*UserWithPolls, error)
}
