package domain

import "errors"

// MinCredentialLength is the minimum accepted length for both usernames and
// passwords on signup and login.
const MinCredentialLength = 3

var (
	ErrUsernameTaken       = errors.New("username already exists")
	ErrCredentialsTooShort = errors.New("username and password must be at least 3 characters")
	ErrUserNotFound        = errors.New("user not found")
)

// User is a registered account. Passwords are opaque strings compared for
// equality; the credential store is pluggable behind ports.Storage.
type User struct {
	Username string `json:"username" gorm:"primaryKey"`
	Password string `json:"-"`
}

// Credentials is the login/signup request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the minimum-length rule shared by signup and login.
func (c Credentials) Validate() error {
	if len(c.Username) < MinCredentialLength || len(c.Password) < MinCredentialLength {
		return ErrCredentialsTooShort
	}
	return nil
}
