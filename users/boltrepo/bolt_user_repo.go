// Package boltuserrepo is a bbolt-backed implementation of
// users.UserRepo, suitable for single-node deployments.
package boltuserrepo

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("not found")

var (
	bktUsers       = []byte("users")
	bktIdentifiers = []byte("user_identifiers") // email/username -> user id
)

var _ users.UserRepo = (*BoltUserRepo)(nil)

// storedUser is the persistence shape. The User entity hides its
// credential fields from JSON with `json:"-"`, which is right for
// responses but would drop them from storage, so they are mapped
// explicitly here.
type storedUser struct {
	users.User
	PasswordHash       string `json:"password_hash,omitempty"`
	ResetPasswordToken string `json:"reset_password_token,omitempty"`
	ConfirmationToken  string `json:"confirmation_token,omitempty"`
}

func toStored(u *users.User) storedUser {
	return storedUser{
		User:               *u,
		PasswordHash:       u.PasswordHash,
		ResetPasswordToken: u.ResetPasswordToken,
		ConfirmationToken:  u.ConfirmationToken,
	}
}

func (s storedUser) toUser() *users.User {
	u := s.User
	u.PasswordHash = s.PasswordHash
	u.ResetPasswordToken = s.ResetPasswordToken
	u.ConfirmationToken = s.ConfirmationToken
	return &u
}

// BoltUserRepo stores users in a bolt database. Users are kept in one
// bucket keyed by ID; a second bucket maps both email and username to
// the ID so GetByIdentifier is a single lookup for either key.
type BoltUserRepo struct {
	db *bolt.DB
}

// New opens (creating if needed) the users database under dataFolder.
func New(dataFolder string) (*BoltUserRepo, error) {
	if err := os.MkdirAll(dataFolder, 0o755); err != nil {
		return nil, errors.Wrap(err, "[boltuserrepo.New] MkdirAll")
	}
	db, err := bolt.Open(filepath.Join(dataFolder, "users.db"), 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[boltuserrepo.New] bolt.Open")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bktUsers); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bktIdentifiers)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "[boltuserrepo.New] create buckets")
	}
	return &BoltUserRepo{db: db}, nil
}

func (r *BoltUserRepo) Close() error {
	return r.db.Close()
}

func (r *BoltUserRepo) Upsert(user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(toStored(user))
		if err != nil {
			return errors.Wrap(err, "[BoltUserRepo.Upsert] Marshal")
		}
		if err := tx.Bucket(bktUsers).Put([]byte(user.ID), data); err != nil {
			return errors.Wrap(err, "[BoltUserRepo.Upsert] Put user")
		}
		identifiers := tx.Bucket(bktIdentifiers)
		if user.Email != "" {
			if err := identifiers.Put([]byte(user.Email), []byte(user.ID)); err != nil {
				return errors.Wrap(err, "[BoltUserRepo.Upsert] Put email")
			}
		}
		if user.Username != "" {
			if err := identifiers.Put([]byte(user.Username), []byte(user.ID)); err != nil {
				return errors.Wrap(err, "[BoltUserRepo.Upsert] Put username")
			}
		}
		return nil
	})
}

func (r *BoltUserRepo) Delete(id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		data := tx.Bucket(bktUsers).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		var stored storedUser
		if err := json.Unmarshal(data, &stored); err != nil {
			return errors.Wrap(err, "[BoltUserRepo.Delete] Unmarshal")
		}
		user := stored.User
		identifiers := tx.Bucket(bktIdentifiers)
		if user.Email != "" {
			if err := identifiers.Delete([]byte(user.Email)); err != nil {
				return err
			}
		}
		if user.Username != "" {
			if err := identifiers.Delete([]byte(user.Username)); err != nil {
				return err
			}
		}
		return tx.Bucket(bktUsers).Delete([]byte(id))
	})
}

func (r *BoltUserRepo) GetByIdentifier(identifier string) (*users.User, error) {
	var user *users.User
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bktIdentifiers).Get([]byte(identifier))
		if id == nil {
			return ErrNotFound
		}
		return getUser(tx, id, &user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *BoltUserRepo) GetByID(id string) (*users.User, error) {
	var user *users.User
	err := r.db.View(func(tx *bolt.Tx) error {
		return getUser(tx, []byte(id), &user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *BoltUserRepo) Count() (int, error) {
	var count int
	err := r.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bktUsers).Stats().KeyN
		return nil
	})
	return count, err
}

func getUser(tx *bolt.Tx, id []byte, out **users.User) error {
	data := tx.Bucket(bktUsers).Get(id)
	if data == nil {
		return ErrNotFound
	}
	var stored storedUser
	if err := json.Unmarshal(data, &stored); err != nil {
		return errors.Wrap(err, "[boltuserrepo] Unmarshal")
	}
	*out = stored.toUser()
	return nil
}
