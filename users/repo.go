package users

// UserRepo is the contract the session core expects from the user
// store. GetByIdentifier matches a single user by either email or
// username; GetByID covers the refresh path where only the token
// subject is known.
type UserRepo interface {
	Upsert(user *User) error
	Delete(id string) error
	GetByIdentifier(identifier string) (*User, error)
	GetByID(id string) (*User, error)
	Count() (int, error)
}
