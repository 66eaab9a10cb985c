package services

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/db"
)

var testLogger = zap.NewNop()

// fixture is a group with one admin and two performers, seeded straight into
// the in-memory database
type fixture struct {
	runner *memRunner
	group  db.Group
	admin  db.User
	bob    db.User
	carol  db.User
}

func newFixture() *fixture {
	r := newMemRunner()
	f := &fixture{runner: r}
	f.group = db.Group{ID: uuid.New().String(), Name: "Hillside House"}
	r.db.groups[f.group.ID] = f.group
	f.admin = f.seedUser("Ada", true, false)
	f.bob = f.seedUser("Bob", false, false)
	f.carol = f.seedUser("Carol", false, false)
	return f
}

func (f *fixture) seedUser(name string, admin, assisted bool) db.User {
	u := db.User{
		ID:       uuid.New().String(),
		GroupID:  f.group.ID,
		Name:     name,
		Admin:    admin,
		Assisted: assisted,
	}
	f.runner.db.users[u.ID] = u
	return u
}

func (f *fixture) seedType(name string) db.SlotType {
	t := db.SlotType{ID: uuid.New().String(), GroupID: f.group.ID, Name: name}
	f.runner.db.slotTypes[t.ID] = t
	return t
}

func (f *fixture) seedSlot(name string, typeID, performerID *string, start time.Time, state db.SlotState) db.Slot {
	s := db.Slot{
		ID:          uuid.New().String(),
		GroupID:     f.group.ID,
		TypeID:      typeID,
		Name:        name,
		ShowTime:    true,
		Start:       start,
		End:         start.Add(time.Hour),
		PerformerID: performerID,
		State:       state,
	}
	f.runner.db.slots[s.ID] = s
	f.runner.db.track(s.ID)
	return s
}

func (f *fixture) seedSelection(userID, slotID string) db.SelectedSlot {
	sel := db.SelectedSlot{ID: uuid.New().String(), UserID: userID, SlotID: slotID}
	f.runner.db.selections[sel.ID] = sel
	f.runner.db.track(sel.ID)
	return sel
}

func (f *fixture) seedCount(userID, typeID string, count int) db.PerformingCount {
	c := db.PerformingCount{ID: uuid.New().String(), UserID: userID, TypeID: typeID, Count: count}
	f.runner.db.counts[c.ID] = c
	f.runner.db.track(c.ID)
	return c
}

// countRows returns the committed count values for a (user, type) pair, one
// element per row. More than one element means the ledger diverged.
func (f *fixture) countRows(userID, typeID string) []int {
	var out []int
	for _, c := range f.runner.db.counts {
		if c.UserID == userID && c.TypeID == typeID {
			out = append(out, c.Count)
		}
	}
	return out
}

func (f *fixture) slot(id string) db.Slot {
	return f.runner.db.slots[id]
}

func (f *fixture) user(id string) db.User {
	return f.runner.db.users[id]
}

func strPtr(s string) *string { return &s }

func day(d int) time.Time {
	return time.Date(2026, 3, 2+d, 18, 0, 0, 0, time.UTC)
}
