package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/EbbDrop/Perma/pkg/db"
)

// InsertGroup inserts a new group record
func (s *txStore) InsertGroup(ctx context.Context, group db.Group) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO groups (id, name) VALUES ($1, $2)
	`, group.ID, group.Name)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by id
func (s *txStore) GetGroup(ctx context.Context, id string) (db.Group, error) {
	var g db.Group
	err := s.tx.QueryRow(ctx, `
		SELECT id, name FROM groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Group{}, fmt.Errorf("%w: group %s", db.ErrInvalidReference, id)
	}
	if err != nil {
		return db.Group{}, fmt.Errorf("failed to query group: %w", err)
	}
	return g, nil
}

// ListGroups retrieves all groups
func (s *txStore) ListGroups(ctx context.Context) ([]db.Group, error) {
	rows, err := s.tx.Query(ctx, `SELECT id, name FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []db.Group
	for rows.Next() {
		var g db.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}

// InsertUser inserts a new user record
func (s *txStore) InsertUser(ctx context.Context, user db.User) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO users (id, group_id, name, admin, assisted, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.GroupID, user.Name, user.Admin, user.Assisted, user.Note)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id
func (s *txStore) GetUser(ctx context.Context, id string) (db.User, error) {
	var u db.User
	err := s.tx.QueryRow(ctx, `
		SELECT id, group_id, name, admin, assisted, note
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.GroupID, &u.Name, &u.Admin, &u.Assisted, &u.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.User{}, fmt.Errorf("%w: user %s", db.ErrInvalidReference, id)
	}
	if err != nil {
		return db.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// FindUserByName retrieves a user by display name, or nil when absent
func (s *txStore) FindUserByName(ctx context.Context, name string) (*db.User, error) {
	var u db.User
	err := s.tx.QueryRow(ctx, `
		SELECT id, group_id, name, admin, assisted, note
		FROM users WHERE name = $1
		LIMIT 1
	`, name).Scan(&u.ID, &u.GroupID, &u.Name, &u.Admin, &u.Assisted, &u.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by name: %w", err)
	}
	return &u, nil
}

// ListUsersByGroup retrieves all users in a group ordered by name
func (s *txStore) ListUsersByGroup(ctx context.Context, groupID string) ([]db.User, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, group_id, name, admin, assisted, note
		FROM users WHERE group_id = $1
		ORDER BY name, id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []db.User
	for rows.Next() {
		var u db.User
		if err := rows.Scan(&u.ID, &u.GroupID, &u.Name, &u.Admin, &u.Assisted, &u.Note); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateUser applies a partial update to a user record
func (s *txStore) UpdateUser(ctx context.Context, id string, patch db.UserPatch) error {
	var sets []string
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Admin != nil {
		add("admin", *patch.Admin)
	}
	if patch.Assisted != nil {
		add("assisted", *patch.Assisted)
	}
	if len(sets) == 0 {
		return nil
	}

	tag, err := s.tx.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", db.ErrInvalidReference, id)
	}
	return nil
}

// SetUserNote sets or clears the note of a user
func (s *txStore) SetUserNote(ctx context.Context, id string, note *string) error {
	tag, err := s.tx.Exec(ctx, `UPDATE users SET note = $2 WHERE id = $1`, id, note)
	if err != nil {
		return fmt.Errorf("failed to set user note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", db.ErrInvalidReference, id)
	}
	return nil
}

// ClearNotes clears the note of every user in the group
func (s *txStore) ClearNotes(ctx context.Context, groupID string) error {
	_, err := s.tx.Exec(ctx, `UPDATE users SET note = NULL WHERE group_id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to clear notes: %w", err)
	}
	return nil
}

// DeleteUser deletes a user record
func (s *txStore) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", db.ErrInvalidReference, id)
	}
	return nil
}
