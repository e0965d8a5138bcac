package domain

import "time"

// Profile is a user account.
type Profile struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	Email        string
	Profile      string
	Organization string
	Position     string
	AvatarPath   string
	DateJoined   time.Time
}

// Group is a named collection of users.
type Group struct {
	ID           int64
	Title        string
	Slug         string
	Description  string
	LastModified time.Time
}
