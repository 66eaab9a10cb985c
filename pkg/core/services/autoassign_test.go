package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EbbDrop/Perma/pkg/db"
)

func TestAutoAssignSpreadsByLedgerCounts(t *testing.T) {
	f := newFixture()
	cook := f.seedType("Cook")
	f.seedCount(f.bob.ID, cook.ID, 5)
	f.seedCount(f.carol.ID, cook.ID, 2)
	slot := f.seedSlot("Dinner", &cook.ID, nil, day(1), db.SlotUpcoming)
	f.seedSelection(f.bob.ID, slot.ID)
	f.seedSelection(f.carol.ID, slot.ID)

	result, err := AutoAssign(context.Background(), f.runner, f.admin, testLogger, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Assigned)
	assert.Equal(t, &f.carol.ID, f.slot(slot.ID).PerformerID)
}

func TestAutoAssignLeavesLedgerUntouched(t *testing.T) {
	f := newFixture()
	cook := f.seedType("Cook")
	f.seedCount(f.bob.ID, cook.ID, 5)
	slot := f.seedSlot("Dinner", &cook.ID, nil, day(1), db.SlotUpcoming)
	f.seedSelection(f.bob.ID, slot.ID)

	_, err := AutoAssign(context.Background(), f.runner, f.admin, testLogger, false)
	require.NoError(t, err)

	// Upcoming assignments are provisional; only publish moves counts.
	assert.Equal(t, []int{5}, f.countRows(f.bob.ID, cook.ID))
	assert.Len(t, f.runner.db.counts, 1)
}

func TestAutoAssignSkipsAssignedAndEmptySlots(t *testing.T) {
	f := newFixture()
	cook := f.seedType("Cook")
	taken := f.seedSlot("Taken", &cook.ID, &f.bob.ID, day(1), db.SlotUpcoming)
	empty := f.seedSlot("Empty", &cook.ID, nil, day(2), db.SlotUpcoming)
	open := f.seedSlot("Open", &cook.ID, nil, day(3), db.SlotUpcoming)
	f.seedSelection(f.carol.ID, open.ID)

	result, err := AutoAssign(context.Background(), f.runner, f.admin, testLogger, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Assigned)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, &f.bob.ID, f.slot(taken.ID).PerformerID)
	assert.Nil(t, f.slot(empty.ID).PerformerID)
	assert.Equal(t, &f.carol.ID, f.slot(open.ID).PerformerID)
}

func TestAutoAssignExistingAssignmentWeighsAgainstPerformer(t *testing.T) {
	f := newFixture()
	cook := f.seedType("Cook")
	f.seedSlot("Taken", &cook.ID, &f.bob.ID, day(1), db.SlotUpcoming)
	open := f.seedSlot("Open", &cook.ID, nil, day(2), db.SlotUpcoming)
	f.seedSelection(f.bob.ID, open.ID)
	f.seedSelection(f.carol.ID, open.ID)

	_, err := AutoAssign(context.Background(), f.runner, f.admin, testLogger, false)
	require.NoError(t, err)

	assert.Equal(t, &f.carol.ID, f.slot(open.ID).PerformerID)
}

func TestAutoAssignReplaceReassigns(t *testing.T) {
	f := newFixture()
	cook := f.seedType("Cook")
	f.seedCount(f.bob.ID, cook.ID, 9)
	slot := f.seedSlot("Dinner", &cook.ID, &f.bob.ID, day(1), db.SlotUpcoming)
	f.seedSelection(f.bob.ID, slot.ID)
	f.seedSelection(f.carol.ID, slot.ID)

	result, err := AutoAssign(context.Background(), f.runner, f.admin, testLogger, true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Assigned)
	assert.Equal(t, &f.carol.ID, f.slot(slot.ID).PerformerID)
}

func TestAutoAssignIgnoresHiddenAndPublishedSlots(t *testing.T) {
	f := newFixture()
	hidden := f.seedSlot("Hidden", nil, nil, day(1), db.SlotHidden)
	published := f.seedSlot("Published", nil, nil, day(2), db.SlotPublished)
	f.seedSelection(f.bob.ID, hidden.ID)
	f.seedSelection(f.bob.ID, published.ID)

	result, err := AutoAssign(context.Background(), f.runner, f.admin, testLogger, false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Assigned)
	assert.Nil(t, f.slot(hidden.ID).PerformerID)
	assert.Nil(t, f.slot(published.ID).PerformerID)
}

func TestAutoAssignRequiresAdmin(t *testing.T) {
	f := newFixture()

	_, err := AutoAssign(context.Background(), f.runner, f.bob, testLogger, false)
	assert.ErrorIs(t, err, db.ErrPermissionDenied)
}

func TestAutoAssignDeterministicTieBreak(t *testing.T) {
	// Equal counts: the earliest selection wins, so reruns give the same
	// result for typed slots.
	f := newFixture()
	cook := f.seedType("Cook")
	slot := f.seedSlot("Dinner", &cook.ID, nil, day(1), db.SlotUpcoming)
	f.seedSelection(f.carol.ID, slot.ID)
	f.seedSelection(f.bob.ID, slot.ID)

	_, err := AutoAssign(context.Background(), f.runner, f.admin, testLogger, false)
	require.NoError(t, err)

	assert.Equal(t, &f.carol.ID, f.slot(slot.ID).PerformerID)
}
