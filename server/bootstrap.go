package server

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/jrsteele09/go-session-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultAdminUsername = "admin"

// InitialiseSystem seeds an initial admin user when the store is
// empty, so a fresh install has a working login. The generated
// password is logged once and never stored in the clear.
func (s *Server) InitialiseSystem() error {
	count, err := s.userRepo.Count()
	if err != nil {
		return errors.Wrap(err, "[InitialiseSystem] Count")
	}
	if count > 0 {
		return nil
	}

	passwordBytes := make([]byte, 16)
	if _, err := rand.Read(passwordBytes); err != nil {
		return errors.Wrap(err, "[InitialiseSystem] rand.Read")
	}
	generatedPassword := base64.URLEncoding.EncodeToString(passwordBytes)

	passwordHash, err := users.HashPassword(generatedPassword)
	if err != nil {
		return errors.Wrap(err, "[InitialiseSystem] HashPassword")
	}

	admin := &users.User{
		Username:     DefaultAdminUsername,
		PasswordHash: passwordHash,
		Confirmed:    true,
	}
	if err := s.userRepo.Upsert(admin); err != nil {
		return errors.Wrap(err, "[InitialiseSystem] Upsert")
	}

	log.Info().
		Str("username", DefaultAdminUsername).
		Str("password", generatedPassword).
		Msg("created initial admin user - save this password, it will not be displayed again")
	return nil
}
