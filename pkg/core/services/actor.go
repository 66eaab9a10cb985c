// Package services contains the application operations. Every operation takes
// the acting user explicitly; nothing reads auth state from the context. All
// writes of one operation happen in a single transaction through db.TxRunner.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

// ResolveActor turns a user reference from the entry boundary into the acting
// user. The reference is tried as a display name first, then as an id; an
// unresolvable reference means the caller is not authenticated.
func ResolveActor(ctx context.Context, runner db.TxRunner, logger *zap.Logger, ref string) (db.User, error) {
	if ref == "" {
		return db.User{}, fmt.Errorf("%w: no acting user given", db.ErrNotAuthenticated)
	}

	var actor db.User
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		byName, err := s.FindUserByName(ctx, ref)
		if err != nil {
			return err
		}
		if byName != nil {
			actor = *byName
			return nil
		}

		byID, err := s.GetUser(ctx, ref)
		if err != nil {
			if errors.Is(err, db.ErrInvalidReference) {
				return fmt.Errorf("%w: unknown user %q", db.ErrNotAuthenticated, ref)
			}
			return err
		}
		actor = byID
		return nil
	})
	if err != nil {
		return db.User{}, err
	}

	logger.Debug("Resolved acting user",
		zap.String("user_id", actor.ID),
		zap.String("name", actor.Name),
		zap.Bool("admin", actor.Admin))
	return actor, nil
}

func requireAdmin(actor db.User) error {
	if !actor.Admin {
		return fmt.Errorf("%w: %s is not an admin", db.ErrPermissionDenied, actor.Name)
	}
	return nil
}

// inGroup guards every entity fetched by id: rows from another group are
// treated as if they did not exist
func inGroup(actor db.User, groupID string) error {
	if groupID != actor.GroupID {
		return fmt.Errorf("%w: entity belongs to another group", db.ErrInvalidReference)
	}
	return nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
