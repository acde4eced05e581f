package users

import "time"

// PublicUser is the sanitized projection of a User returned to
// clients. It is an explicit allow-list: fields not declared here
// (password hash, reset-password token, confirmation token) cannot
// leak, whatever shape the stored user takes.
type PublicUser struct {
	ID         string    `json:"id"`
	Email      string    `json:"email,omitempty"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Confirmed  bool      `json:"confirmed"`
	DateJoined time.Time `json:"date_joined,omitempty"`
}

// NewPublicUser builds a fresh projection for a response. Nil in, nil
// out; the input is never mutated.
func NewPublicUser(u *User) *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Confirmed:  u.Confirmed,
		DateJoined: u.DateJoined,
	}
}
