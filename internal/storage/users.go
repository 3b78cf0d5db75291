package storage

import (
	"context"
	"fmt"

	"github.com/kazkleen/crm/internal/metrics"
)

type UserRepository struct {
	store  *DocumentStore
	hasher PasswordHasher
}

func NewUserRepository(store *DocumentStore) *UserRepository {
	return &UserRepository{store: store, hasher: store.Hasher()}
}

// Authenticate returns the user whose username and password both match.
// Unknown users and wrong passwords are both ErrNotFound.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (User, error) {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to authenticate: %w", err)
	}
	i := indexOfUser(doc.Users, username)
	if i < 0 || !VerifyPassword(doc.Users[i].Password, password) {
		metrics.AuthFailuresTotal.Inc()
		return User{}, fmt.Errorf("invalid credentials: %w", ErrNotFound)
	}
	return doc.Users[i], nil
}

func (r *UserRepository) Create(ctx context.Context, username, password string, role Role) (User, error) {
	if !role.Valid() {
		return User{}, fmt.Errorf("role %q: %w", role, ErrInvalidRole)
	}
	hashed, err := r.hasher.Hash(password)
	if err != nil {
		return User{}, err
	}

	user := User{Username: username, Password: hashed, Role: role}
	err = r.store.Update(ctx, func(doc *Document) error {
		if indexOfUser(doc.Users, username) >= 0 {
			return fmt.Errorf("user %q: %w", username, ErrDuplicateUsername)
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_user").Inc()
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	metrics.UsersCreatedTotal.Inc()
	return user, nil
}

func (r *UserRepository) ChangePassword(ctx context.Context, username, newPassword string) error {
	hashed, err := r.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	err = r.store.Update(ctx, func(doc *Document) error {
		i := indexOfUser(doc.Users, username)
		if i < 0 {
			return fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		doc.Users[i].Password = hashed
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("change_password").Inc()
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// Delete removes the user and reports whether it existed. The last manager
// and the user holding the session may be deleted too.
func (r *UserRepository) Delete(ctx context.Context, username string) (bool, error) {
	deleted := false
	err := r.store.Update(ctx, func(doc *Document) error {
		i := indexOfUser(doc.Users, username)
		if i < 0 {
			return errSkipSave
		}
		doc.Users = append(doc.Users[:i], doc.Users[i+1:]...)
		deleted = true
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("delete_user").Inc()
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	if deleted {
		metrics.UsersDeletedTotal.Inc()
	}
	return deleted, nil
}

func (r *UserRepository) List(ctx context.Context) ([]User, error) {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return doc.Users, nil
}

func (r *UserRepository) Find(ctx context.Context, username string) (User, error) {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to find user: %w", err)
	}
	i := indexOfUser(doc.Users, username)
	if i < 0 {
		return User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return doc.Users[i], nil
}
