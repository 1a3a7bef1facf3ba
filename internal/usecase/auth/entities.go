package auth

import (
	"errors"

	"greenbonds/internal/domain/user"
)

const (
	MsgRegistered      = "User registered successfully"
	MsgLoggedIn        = "Login successful"
	MsgLoggedOut       = "Logout successful"
	MsgProfileUpdated  = "Profile updated successfully"
	MsgPasswordChanged = "Password changed successfully"

	minPasswordLen = 6
)

var (
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrDeactivated        = errors.New("Account is deactivated")
	ErrTokenRequired      = errors.New("Authorization token is required")
	ErrInvalidToken       = errors.New("Invalid token")
	ErrTokenExpired       = errors.New("Token has expired")
)

// InputError is a request the caller must fix; the message is shown as is.
type InputError struct{ Message string }

func (e *InputError) Error() string { return e.Message }

func invalid(msg string) error { return &InputError{Message: msg} }

type RegisterInput struct {
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	UserType    user.Type `json:"userType"`
	CompanyName string    `json:"companyName,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate only touches the fields that are set.
type ProfileUpdate struct {
	FirstName   *string           `json:"firstName,omitempty"`
	LastName    *string           `json:"lastName,omitempty"`
	CompanyName *string           `json:"companyName,omitempty"`
	Preferences *user.Preferences `json:"preferences,omitempty"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type AuthResult struct {
	Message     string     `json:"message"`
	AccessToken string     `json:"access_token"`
	User        *user.User `json:"user"`
}
