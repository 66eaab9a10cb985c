package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EbbDrop/Perma/pkg/db"
)

func TestCountsTableSumsExcludeAssisted(t *testing.T) {
	f := newFixture()
	cook := f.seedType("Cook")
	helped := f.seedUser("Dora", false, true)
	f.seedCount(f.bob.ID, cook.ID, 4)
	f.seedCount(f.carol.ID, cook.ID, 2)
	f.seedCount(helped.ID, cook.ID, 7)

	data, err := CountsTable(context.Background(), f.runner, f.admin, testLogger)
	require.NoError(t, err)

	require.Len(t, data.Types, 1)
	assert.Equal(t, 6, data.Types[0].Sum)
	assert.Equal(t, 7, data.Types[0].Counts[helped.ID])
	// Three non-assisted members share the load.
	assert.Equal(t, 3, data.OutOf)
}

func TestCountsTableHidesAssistedWithoutHistory(t *testing.T) {
	f := newFixture()
	cook := f.seedType("Cook")
	historic := f.seedUser("Dora", false, true)
	f.seedUser("Eve", false, true)
	zeroed := f.seedUser("Finn", false, true)
	f.seedCount(historic.ID, cook.ID, 2)
	f.seedCount(zeroed.ID, cook.ID, 0)

	data, err := CountsTable(context.Background(), f.runner, f.admin, testLogger)
	require.NoError(t, err)

	names := make([]string, len(data.Users))
	for i, u := range data.Users {
		names[i] = u.Name
	}
	assert.Contains(t, names, "Dora")
	assert.NotContains(t, names, "Eve")
	assert.NotContains(t, names, "Finn")
	assert.Contains(t, names, "Bob")
}

func TestWaitingOnFiltersRespondedAndAssisted(t *testing.T) {
	f := newFixture()
	assisted := f.seedUser("Dora", false, true)
	slot := f.seedSlot("Dinner", nil, nil, day(1), db.SlotUpcoming)
	f.seedSelection(f.carol.ID, slot.ID)
	note := "can't this week"
	bob := f.bob
	bob.Note = &note
	f.runner.db.users[bob.ID] = bob

	waiting, err := WaitingOn(context.Background(), f.runner, f.admin, testLogger)
	require.NoError(t, err)

	require.Len(t, waiting, 1)
	assert.Equal(t, f.admin.ID, waiting[0].ID)
	for _, u := range waiting {
		assert.NotEqual(t, assisted.ID, u.ID)
	}
}

func TestUpcomingSlotsWithSelectedSplitsRoster(t *testing.T) {
	f := newFixture()
	assisted := f.seedUser("Dora", false, true)
	slot := f.seedSlot("Dinner", nil, nil, day(1), db.SlotUpcoming)
	f.seedSlot("Later hidden", nil, nil, day(2), db.SlotHidden)
	f.seedSelection(f.carol.ID, slot.ID)
	f.seedSelection(f.bob.ID, slot.ID)

	out, err := UpcomingSlotsWithSelected(context.Background(), f.runner, f.admin, testLogger)
	require.NoError(t, err)

	require.Len(t, out, 1)
	require.Len(t, out[0].Selected, 2)
	// Selection order, not roster order.
	assert.Equal(t, f.carol.ID, out[0].Selected[0].ID)
	assert.Equal(t, f.bob.ID, out[0].Selected[1].ID)

	require.Len(t, out[0].NotSelected, 1)
	assert.Equal(t, f.admin.ID, out[0].NotSelected[0].ID)
	for _, u := range out[0].NotSelected {
		assert.NotEqual(t, assisted.ID, u.ID)
	}
}

func TestListSlotsFiltersByState(t *testing.T) {
	f := newFixture()
	f.seedSlot("Up", nil, nil, day(1), db.SlotUpcoming)
	f.seedSlot("Hidden", nil, nil, day(2), db.SlotHidden)
	f.seedSlot("Out", nil, nil, day(3), db.SlotPublished)

	published, err := ListSlots(context.Background(), f.runner, f.bob, testLogger, db.SlotPublished)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "Out", published[0].Name)

	editable, err := ListSlots(context.Background(), f.runner, f.bob, testLogger, db.SlotUpcoming, db.SlotHidden)
	require.NoError(t, err)
	assert.Len(t, editable, 2)
}

func TestSlotsForCalendarResolvesPerformers(t *testing.T) {
	f := newFixture()
	f.seedSlot("Dinner", nil, &f.bob.ID, day(1), db.SlotPublished)
	f.seedSlot("Lunch", nil, &f.carol.ID, day(2), db.SlotPublished)
	f.seedSlot("Open", nil, nil, day(3), db.SlotPublished)
	f.seedSlot("Not out yet", nil, &f.bob.ID, day(4), db.SlotUpcoming)

	data, err := SlotsForCalendar(context.Background(), f.runner, testLogger, f.group.ID, f.bob.ID)
	require.NoError(t, err)

	assert.Equal(t, f.group.ID, data.Group.ID)
	require.Len(t, data.Slots, 3)
	assert.Equal(t, "Bob", data.Slots[0].PerformerName)
	assert.True(t, data.Slots[0].Mine)
	assert.Equal(t, "Carol", data.Slots[1].PerformerName)
	assert.False(t, data.Slots[1].Mine)
	assert.Empty(t, data.Slots[2].PerformerName)
}

func TestSlotsForCalendarRejectsMismatchedPair(t *testing.T) {
	f := newFixture()
	other := newFixture()
	for id, g := range other.runner.db.groups {
		f.runner.db.groups[id] = g
	}
	f.runner.db.users[other.bob.ID] = other.bob

	_, err := SlotsForCalendar(context.Background(), f.runner, testLogger, f.group.ID, other.bob.ID)
	assert.ErrorIs(t, err, db.ErrInvalidReference)

	_, err = SlotsForCalendar(context.Background(), f.runner, testLogger, "missing", f.bob.ID)
	assert.ErrorIs(t, err, db.ErrInvalidReference)
}
