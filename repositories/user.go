//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chatwav/domain"
	"chatwav/errors"
	"context"
	goerrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix     = "user:"
	emailPrefix    = "email:"
	usernamePrefix = "username:"
)

type IUserRepository interface {
	CreateUser(ctx context.Context, email, username, hashedPassword string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, id domain.UserID) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser persists the user and its email/username indexes in one transaction.
func (u UserRepository) CreateUser(ctx context.Context, email, username, hashedPassword string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           domain.UserID(uuid.NewString()),
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		if exists(txn, emailPrefix+email) {
			return errors.ErrUserAlreadyExists
		}
		if exists(txn, usernamePrefix+username) {
			return errors.ErrUsernameTaken
		}
		if err := txn.Set([]byte(userPrefix+string(user.ID)), encodeUser(user)); err != nil {
			return err
		}
		if err := txn.Set([]byte(emailPrefix+email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(usernamePrefix+username), []byte(user.ID))
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, emailPrefix+email)
		if err != nil {
			return err
		}
		user, err = getUser(txn, domain.UserID(id))
		return err
	})
	return user, notFound(err, errors.ErrUserNotFound)
}

func (u UserRepository) GetUserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, notFound(err, errors.ErrUserNotFound)
}

func getUser(txn *badger.Txn, id domain.UserID) (domain.User, error) {
	item, err := txn.Get([]byte(userPrefix + string(id)))
	if err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	return user, err
}

func encodeUser(user domain.User) []byte {
	var w recordWriter
	w.string(1, string(user.ID))
	w.string(2, user.Email)
	w.string(3, user.Username)
	w.string(4, user.PasswordHash)
	w.time(5, user.CreatedAt)
	return w.b
}

func decodeUser(b []byte) (domain.User, error) {
	r, err := parseRecord(b)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           domain.UserID(r.string(1)),
		Email:        r.string(2),
		Username:     r.string(3),
		PasswordHash: r.string(4),
		CreatedAt:    r.time(5),
	}, nil
}

func exists(txn *badger.Txn, key string) bool {
	_, err := txn.Get([]byte(key))
	return err == nil
}

func getString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	return string(val), err
}

// notFound translates badger's missing key into a domain error.
func notFound(err, sentinel error) error {
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return sentinel
	}
	return err
}
