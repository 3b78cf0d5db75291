package handler

import (
	"context"
	"errors"

	"github.com/kazkleen/crm/internal/session"
	"github.com/kazkleen/crm/internal/storage"
)

func (h *Handler) HandleLogin(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	if err := storage.ValidateCredentials(args[0], args[1]); err != nil {
		return err
	}

	user, err := h.users.Authenticate(ctx, args[0], args[1])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errors.New("invalid credentials, please try again")
		}
		return err
	}

	sess, err := h.sessions.Begin(ctx, user)
	if err != nil {
		return err
	}
	h.printf("Logged in as %s (%s)\n", sess.Username, sess.Role)
	return nil
}

func (h *Handler) HandleLogout(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := h.sessions.End(ctx); err != nil {
		return err
	}
	h.println("Logged out")
	return nil
}

func (h *Handler) HandleWhoami(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	sess, err := h.sessions.Current(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			h.println("Not logged in")
			return nil
		}
		return err
	}
	h.printf("%s (%s), logged in since %s\n", sess.Username, sess.Role, sess.StartedAt.Format("2006-01-02 15:04:05"))
	return nil
}
