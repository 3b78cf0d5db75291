package handler

import (
	"context"
	"fmt"

	"github.com/kazkleen/crm/internal/session"
	"github.com/kazkleen/crm/internal/storage"
)

func (h *Handler) HandleListUsers(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	users, err := h.users.List(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		h.println("No users found")
		return nil
	}

	h.println("Users:")
	for _, u := range users {
		h.printf("- %s (%s)\n", u.Username, u.Role)
	}
	return nil
}

func (h *Handler) HandleAddUser(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	if err := storage.ValidateCredentials(args[0], args[1]); err != nil {
		return err
	}

	user, err := h.users.Create(ctx, args[0], args[1], storage.Role(args[2]))
	if err != nil {
		return err
	}
	h.printf("User %s (%s) created successfully!\n", user.Username, user.Role)
	return nil
}

func (h *Handler) HandlePasswd(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	if err := storage.ValidateCredentials(args[0], args[1]); err != nil {
		return err
	}
	if err := h.users.ChangePassword(ctx, args[0], args[1]); err != nil {
		return err
	}
	h.println("Password changed successfully!")
	return nil
}

func (h *Handler) HandleDeleteUser(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	deleted, err := h.users.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("user %q: %w", args[0], storage.ErrNotFound)
	}
	h.println("User deleted successfully!")
	return nil
}
