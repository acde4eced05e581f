package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the stored user entity. PasswordHash, ResetPasswordToken and
// ConfirmationToken are credential-adjacent and must never cross the
// system boundary; responses carry a PublicUser instead.
type User struct {
	ID                 string    `json:"id,omitempty"`         // Unique identifier for the user
	Email              string    `json:"email,omitempty"`      // User's email address
	Username           string    `json:"username,omitempty"`   // Unique username
	PasswordHash       string    `json:"-"`                    // Hashed version of the user's password - never serialize
	ResetPasswordToken string    `json:"-"`                    // Outstanding password-reset token - never serialize
	ConfirmationToken  string    `json:"-"`                    // Email confirmation token - never serialize
	FirstName          string    `json:"first_name,omitempty"` // First name of the user
	LastName           string    `json:"last_name,omitempty"`  // Last name of the user
	Confirmed          bool      `json:"confirmed,omitempty"`  // Has the user confirmed their email
	DateJoined         time.Time `json:"date_joined,omitempty"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
