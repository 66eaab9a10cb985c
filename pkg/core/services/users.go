package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

// CreateGroup creates a new group together with its first admin. The admin is
// created in the same transaction so a group is never left without one.
func CreateGroup(ctx context.Context, runner db.TxRunner, logger *zap.Logger, name, adminName string) (db.Group, db.User, error) {
	if name == "" {
		return db.Group{}, db.User{}, fmt.Errorf("%w: group name must not be empty", db.ErrInvalidArgument)
	}
	if adminName == "" {
		return db.Group{}, db.User{}, fmt.Errorf("%w: admin name must not be empty", db.ErrInvalidArgument)
	}

	group := db.Group{ID: uuid.New().String(), Name: name}
	admin := db.User{
		ID:      uuid.New().String(),
		GroupID: group.ID,
		Name:    adminName,
		Admin:   true,
	}

	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		if err := s.InsertGroup(ctx, group); err != nil {
			return err
		}
		return s.InsertUser(ctx, admin)
	})
	if err != nil {
		return db.Group{}, db.User{}, fmt.Errorf("failed to create group: %w", err)
	}

	logger.Info("Created group",
		zap.String("group_id", group.ID),
		zap.String("name", group.Name),
		zap.String("admin_id", admin.ID))
	return group, admin, nil
}

// ListGroups retrieves every group
func ListGroups(ctx context.Context, runner db.TxRunner, logger *zap.Logger) ([]db.Group, error) {
	var groups []db.Group
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		var err error
		groups, err = s.ListGroups(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	logger.Debug("Listed groups", zap.Int("count", len(groups)))
	return groups, nil
}

// GroupInfo retrieves the acting user's group
func GroupInfo(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger) (db.Group, error) {
	var group db.Group
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		var err error
		group, err = s.GetGroup(ctx, actor.GroupID)
		return err
	})
	if err != nil {
		return db.Group{}, fmt.Errorf("failed to fetch group: %w", err)
	}
	return group, nil
}

// AddUser creates a new member in the acting admin's group. New members start
// as regular performers; promote them with UpdateUser.
func AddUser(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, name string) (db.User, error) {
	if err := requireAdmin(actor); err != nil {
		return db.User{}, err
	}
	if name == "" {
		return db.User{}, fmt.Errorf("%w: user name must not be empty", db.ErrInvalidArgument)
	}

	user := db.User{
		ID:      uuid.New().String(),
		GroupID: actor.GroupID,
		Name:    name,
	}
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		return s.InsertUser(ctx, user)
	})
	if err != nil {
		return db.User{}, fmt.Errorf("failed to add user: %w", err)
	}

	logger.Info("Added user",
		zap.String("user_id", user.ID),
		zap.String("name", user.Name),
		zap.String("group_id", user.GroupID))
	return user, nil
}

// UpdateUser applies a partial update to a member of the acting admin's group.
// An admin revoking their own admin flag is ignored without error, so a group
// cannot lock itself out through this path.
func UpdateUser(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, userID string, patch db.UserPatch) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.ID && patch.Admin != nil && !*patch.Admin {
		logger.Warn("Ignoring self-demotion", zap.String("user_id", actor.ID))
		return nil
	}

	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		user, err := s.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, user.GroupID); err != nil {
			return err
		}
		return s.UpdateUser(ctx, userID, patch)
	})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	logger.Info("Updated user", zap.String("user_id", userID))
	return nil
}

// DeleteUser removes a member of the acting admin's group. Selections and
// ledger rows go with the user; published slots keep running without a
// performer. Admins cannot delete themselves.
func DeleteUser(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.ID {
		return fmt.Errorf("%w: cannot delete the acting user", db.ErrInvalidReference)
	}

	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		user, err := s.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := inGroup(actor, user.GroupID); err != nil {
			return err
		}
		return s.DeleteUser(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logger.Info("Deleted user", zap.String("user_id", userID))
	return nil
}

// ListUsers retrieves the members of the acting user's group, sorted by name
func ListUsers(ctx context.Context, runner db.TxRunner, actor db.User, logger *zap.Logger) ([]db.User, error) {
	var users []db.User
	err := runner.InTx(ctx, func(ctx context.Context, s db.Store) error {
		var err error
		users, err = s.ListUsersByGroup(ctx, actor.GroupID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
