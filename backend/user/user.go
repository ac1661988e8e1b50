package user

import (
	"context"
	"errors"
)

// ErrNoResultSet is returned by a Database when a lookup executed but the
// response carried no row set at all.
var ErrNoResultSet = errors.New("lookup returned no result set")

// User represents a stored credential pair
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Database is the statement registry the handlers execute against.
// GetUserByUsername returns nil, nil when no row matches.
type Database interface {
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	PutUser(ctx context.Context, user *User) error
}
