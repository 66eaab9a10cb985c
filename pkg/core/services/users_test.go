package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EbbDrop/Perma/pkg/db"
)

func TestCreateGroupCreatesFirstAdmin(t *testing.T) {
	r := newMemRunner()

	group, admin, err := CreateGroup(context.Background(), r, testLogger, "Hillside House", "Ada")
	require.NoError(t, err)

	assert.Equal(t, "Hillside House", group.Name)
	assert.Equal(t, group.ID, admin.GroupID)
	assert.True(t, admin.Admin)
	assert.Len(t, r.db.users, 1)
}

func TestResolveActorByNameAndID(t *testing.T) {
	f := newFixture()

	byName, err := ResolveActor(context.Background(), f.runner, testLogger, "Bob")
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, byName.ID)

	byID, err := ResolveActor(context.Background(), f.runner, testLogger, f.carol.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carol", byID.Name)
}

func TestResolveActorUnknownIsNotAuthenticated(t *testing.T) {
	f := newFixture()

	_, err := ResolveActor(context.Background(), f.runner, testLogger, "nobody")
	assert.ErrorIs(t, err, db.ErrNotAuthenticated)

	_, err = ResolveActor(context.Background(), f.runner, testLogger, "")
	assert.ErrorIs(t, err, db.ErrNotAuthenticated)
}

func TestAddUserRequiresAdmin(t *testing.T) {
	f := newFixture()

	_, err := AddUser(context.Background(), f.runner, f.bob, testLogger, "Dave")
	assert.ErrorIs(t, err, db.ErrPermissionDenied)

	user, err := AddUser(context.Background(), f.runner, f.admin, testLogger, "Dave")
	require.NoError(t, err)
	assert.Equal(t, f.group.ID, user.GroupID)
	assert.False(t, user.Admin)
}

func TestUpdateUserIgnoresSelfDemotion(t *testing.T) {
	f := newFixture()

	demote := false
	err := UpdateUser(context.Background(), f.runner, f.admin, testLogger, f.admin.ID, db.UserPatch{Admin: &demote})
	require.NoError(t, err)

	assert.True(t, f.user(f.admin.ID).Admin)
}

func TestUpdateUserPromotesMember(t *testing.T) {
	f := newFixture()

	promote := true
	err := UpdateUser(context.Background(), f.runner, f.admin, testLogger, f.bob.ID, db.UserPatch{Admin: &promote})
	require.NoError(t, err)

	assert.True(t, f.user(f.bob.ID).Admin)
}

func TestUpdateUserRejectsOtherGroup(t *testing.T) {
	f := newFixture()
	other := newFixture()
	stranger := other.admin
	f.runner.db.users[stranger.ID] = stranger

	name := "Renamed"
	err := UpdateUser(context.Background(), f.runner, f.admin, testLogger, stranger.ID, db.UserPatch{Name: &name})
	assert.ErrorIs(t, err, db.ErrInvalidReference)
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	f := newFixture()

	err := DeleteUser(context.Background(), f.runner, f.admin, testLogger, f.admin.ID)
	assert.ErrorIs(t, err, db.ErrInvalidReference)
	assert.Contains(t, f.runner.db.users, f.admin.ID)
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture()
	cook := f.seedType("Cook")
	slot := f.seedSlot("Dinner", &cook.ID, &f.bob.ID, day(1), db.SlotPublished)
	f.seedSelection(f.bob.ID, slot.ID)
	f.seedCount(f.bob.ID, cook.ID, 3)

	err := DeleteUser(context.Background(), f.runner, f.admin, testLogger, f.bob.ID)
	require.NoError(t, err)

	assert.NotContains(t, f.runner.db.users, f.bob.ID)
	assert.Empty(t, f.runner.db.selections)
	assert.Empty(t, f.countRows(f.bob.ID, cook.ID))
	assert.Nil(t, f.slot(slot.ID).PerformerID)
}

func TestListUsersSortedByName(t *testing.T) {
	f := newFixture()

	users, err := ListUsers(context.Background(), f.runner, f.bob, testLogger)
	require.NoError(t, err)

	require.Len(t, users, 3)
	assert.Equal(t, "Ada", users[0].Name)
	assert.Equal(t, "Bob", users[1].Name)
	assert.Equal(t, "Carol", users[2].Name)
}
