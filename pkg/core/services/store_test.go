package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/EbbDrop/Perma/pkg/core/ledger"
	"github.com/EbbDrop/Perma/pkg/db"
)

// memDB is the in-memory database backing the test runner. Semantics mirror
// the postgres store: ordered listings, foreign-key cascades, and ledger rows
// keyed by row id rather than by (user, type) pair.
type memDB struct {
	groups     map[string]db.Group
	users      map[string]db.User
	slotTypes  map[string]db.SlotType
	slots      map[string]db.Slot
	selections map[string]db.SelectedSlot
	counts     map[string]db.PerformingCount

	// insertion order, stands in for created_at ordering
	order map[string]int
	seq   int
}

func newMemDB() *memDB {
	return &memDB{
		groups:     make(map[string]db.Group),
		users:      make(map[string]db.User),
		slotTypes:  make(map[string]db.SlotType),
		slots:      make(map[string]db.Slot),
		selections: make(map[string]db.SelectedSlot),
		counts:     make(map[string]db.PerformingCount),
		order:      make(map[string]int),
	}
}

func (m *memDB) clone() *memDB {
	c := newMemDB()
	for k, v := range m.groups {
		c.groups[k] = v
	}
	for k, v := range m.users {
		c.users[k] = v
	}
	for k, v := range m.slotTypes {
		c.slotTypes[k] = v
	}
	for k, v := range m.slots {
		c.slots[k] = v
	}
	for k, v := range m.selections {
		c.selections[k] = v
	}
	for k, v := range m.counts {
		c.counts[k] = v
	}
	for k, v := range m.order {
		c.order[k] = v
	}
	c.seq = m.seq
	return c
}

func (m *memDB) track(id string) {
	m.seq++
	m.order[id] = m.seq
}

// memRunner runs transactions against a memDB. Regular writes land directly,
// matching how a database transaction sees its own statements; ledger writes
// are staged through the same updater the postgres store uses and flushed
// before the transaction reports success. Errors restore a snapshot.
type memRunner struct {
	db *memDB
}

func newMemRunner() *memRunner {
	return &memRunner{db: newMemDB()}
}

func (r *memRunner) InTx(ctx context.Context, fn func(ctx context.Context, s db.Store) error) error {
	snapshot := r.db.clone()
	store := &memStore{db: r.db}
	store.ledger = ledger.NewUpdater(store)

	if err := fn(ctx, store); err != nil {
		*r.db = *snapshot
		return err
	}
	if err := store.ledger.Flush(ctx, store); err != nil {
		*r.db = *snapshot
		return err
	}
	return nil
}

type memStore struct {
	db     *memDB
	ledger *ledger.Updater
}

func (s *memStore) InsertGroup(_ context.Context, group db.Group) error {
	s.db.groups[group.ID] = group
	return nil
}

func (s *memStore) GetGroup(_ context.Context, id string) (db.Group, error) {
	group, ok := s.db.groups[id]
	if !ok {
		return db.Group{}, fmt.Errorf("%w: group %s", db.ErrInvalidReference, id)
	}
	return group, nil
}

func (s *memStore) ListGroups(_ context.Context) ([]db.Group, error) {
	var groups []db.Group
	for _, g := range s.db.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (s *memStore) InsertUser(_ context.Context, user db.User) error {
	s.db.users[user.ID] = user
	return nil
}

func (s *memStore) GetUser(_ context.Context, id string) (db.User, error) {
	user, ok := s.db.users[id]
	if !ok {
		return db.User{}, fmt.Errorf("%w: user %s", db.ErrInvalidReference, id)
	}
	return user, nil
}

func (s *memStore) FindUserByName(_ context.Context, name string) (*db.User, error) {
	for _, u := range s.db.users {
		if u.Name == name {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListUsersByGroup(_ context.Context, groupID string) ([]db.User, error) {
	var users []db.User
	for _, u := range s.db.users {
		if u.GroupID == groupID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (s *memStore) UpdateUser(_ context.Context, id string, patch db.UserPatch) error {
	user, ok := s.db.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", db.ErrInvalidReference, id)
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Admin != nil {
		user.Admin = *patch.Admin
	}
	if patch.Assisted != nil {
		user.Assisted = *patch.Assisted
	}
	s.db.users[id] = user
	return nil
}

func (s *memStore) SetUserNote(_ context.Context, id string, note *string) error {
	user, ok := s.db.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", db.ErrInvalidReference, id)
	}
	user.Note = note
	s.db.users[id] = user
	return nil
}

func (s *memStore) ClearNotes(_ context.Context, groupID string) error {
	for id, u := range s.db.users {
		if u.GroupID == groupID {
			u.Note = nil
			s.db.users[id] = u
		}
	}
	return nil
}

func (s *memStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := s.db.users[id]; !ok {
		return fmt.Errorf("%w: user %s", db.ErrInvalidReference, id)
	}
	delete(s.db.users, id)
	for selID, sel := range s.db.selections {
		if sel.UserID == id {
			delete(s.db.selections, selID)
		}
	}
	for countID, c := range s.db.counts {
		if c.UserID == id {
			delete(s.db.counts, countID)
		}
	}
	for slotID, slot := range s.db.slots {
		if slot.PerformerID != nil && *slot.PerformerID == id {
			slot.PerformerID = nil
			s.db.slots[slotID] = slot
		}
	}
	return nil
}

func (s *memStore) InsertSlotType(_ context.Context, slotType db.SlotType) error {
	s.db.slotTypes[slotType.ID] = slotType
	return nil
}

func (s *memStore) GetSlotType(_ context.Context, id string) (db.SlotType, error) {
	slotType, ok := s.db.slotTypes[id]
	if !ok {
		return db.SlotType{}, fmt.Errorf("%w: slot type %s", db.ErrInvalidReference, id)
	}
	return slotType, nil
}

func (s *memStore) ListSlotTypesByGroup(_ context.Context, groupID string) ([]db.SlotType, error) {
	var types []db.SlotType
	for _, t := range s.db.slotTypes {
		if t.GroupID == groupID {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i].Name != types[j].Name {
			return types[i].Name < types[j].Name
		}
		return types[i].ID < types[j].ID
	})
	return types, nil
}

func (s *memStore) RenameSlotType(_ context.Context, id, name string) error {
	slotType, ok := s.db.slotTypes[id]
	if !ok {
		return fmt.Errorf("%w: slot type %s", db.ErrInvalidReference, id)
	}
	slotType.Name = name
	s.db.slotTypes[id] = slotType
	return nil
}

func (s *memStore) DeleteSlotType(_ context.Context, id string) error {
	if _, ok := s.db.slotTypes[id]; !ok {
		return fmt.Errorf("%w: slot type %s", db.ErrInvalidReference, id)
	}
	delete(s.db.slotTypes, id)
	return nil
}

func (s *memStore) ClearSlotTypeRefs(_ context.Context, groupID, typeID string) error {
	for id, slot := range s.db.slots {
		if slot.GroupID == groupID && slot.TypeID != nil && *slot.TypeID == typeID {
			slot.TypeID = nil
			s.db.slots[id] = slot
		}
	}
	return nil
}

func (s *memStore) DeleteCountsByType(_ context.Context, typeID string) error {
	for id, c := range s.db.counts {
		if c.TypeID == typeID {
			delete(s.db.counts, id)
		}
	}
	return nil
}

func (s *memStore) InsertSlot(_ context.Context, slot db.Slot) error {
	s.db.slots[slot.ID] = slot
	s.db.track(slot.ID)
	return nil
}

func (s *memStore) GetSlot(_ context.Context, id string) (db.Slot, error) {
	slot, ok := s.db.slots[id]
	if !ok {
		return db.Slot{}, fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	return slot, nil
}

func (s *memStore) sortedSlots(groupID string, states []db.SlotState) []db.Slot {
	wanted := make(map[db.SlotState]bool, len(states))
	for _, st := range states {
		wanted[st] = true
	}
	var slots []db.Slot
	for _, slot := range s.db.slots {
		if slot.GroupID == groupID && wanted[slot.State] {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		return s.db.order[slots[i].ID] < s.db.order[slots[j].ID]
	})
	return slots
}

func (s *memStore) ListSlotsByState(_ context.Context, groupID string, states ...db.SlotState) ([]db.Slot, error) {
	return s.sortedSlots(groupID, states), nil
}

func (s *memStore) ListSlotsInRange(_ context.Context, groupID string, from, to time.Time, states ...db.SlotState) ([]db.Slot, error) {
	var out []db.Slot
	for _, slot := range s.sortedSlots(groupID, states) {
		if !slot.Start.Before(from) && slot.Start.Before(to) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *memStore) LatestUpcomingSlot(_ context.Context, groupID string) (*db.Slot, error) {
	slots := s.sortedSlots(groupID, []db.SlotState{db.SlotUpcoming})
	if len(slots) == 0 {
		return nil, nil
	}
	latest := slots[len(slots)-1]
	return &latest, nil
}

func (s *memStore) UpdateSlot(_ context.Context, id string, patch db.SlotPatch) error {
	slot, ok := s.db.slots[id]
	if !ok {
		return fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	if patch.Name != nil {
		slot.Name = *patch.Name
	}
	if patch.ClearType {
		slot.TypeID = nil
	} else if patch.TypeID != nil {
		slot.TypeID = patch.TypeID
	}
	if patch.ShowTime != nil {
		slot.ShowTime = *patch.ShowTime
	}
	if patch.Start != nil {
		slot.Start = *patch.Start
	}
	if patch.End != nil {
		slot.End = *patch.End
	}
	if patch.State != nil {
		slot.State = *patch.State
	}
	s.db.slots[id] = slot
	return nil
}

func (s *memStore) SetSlotPerformer(_ context.Context, id string, performerID *string) error {
	slot, ok := s.db.slots[id]
	if !ok {
		return fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	slot.PerformerID = performerID
	s.db.slots[id] = slot
	return nil
}

func (s *memStore) SetSlotState(_ context.Context, id string, state db.SlotState) error {
	slot, ok := s.db.slots[id]
	if !ok {
		return fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	slot.State = state
	s.db.slots[id] = slot
	return nil
}

func (s *memStore) DeleteSlot(_ context.Context, id string) error {
	if _, ok := s.db.slots[id]; !ok {
		return fmt.Errorf("%w: slot %s", db.ErrInvalidReference, id)
	}
	delete(s.db.slots, id)
	for selID, sel := range s.db.selections {
		if sel.SlotID == id {
			delete(s.db.selections, selID)
		}
	}
	return nil
}

func (s *memStore) DeletePublishedBefore(_ context.Context, groupID string, cutoff time.Time) error {
	for id, slot := range s.db.slots {
		if slot.GroupID == groupID && slot.State == db.SlotPublished && slot.Start.Before(cutoff) {
			delete(s.db.slots, id)
		}
	}
	return nil
}

func (s *memStore) InsertSelection(_ context.Context, selection db.SelectedSlot) error {
	s.db.selections[selection.ID] = selection
	s.db.track(selection.ID)
	return nil
}

func (s *memStore) sortedSelections(keep func(db.SelectedSlot) bool) []db.SelectedSlot {
	var out []db.SelectedSlot
	for _, sel := range s.db.selections {
		if keep(sel) {
			out = append(out, sel)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.db.order[out[i].ID] < s.db.order[out[j].ID]
	})
	return out
}

func (s *memStore) ListSelectionsBySlot(_ context.Context, slotID string) ([]db.SelectedSlot, error) {
	return s.sortedSelections(func(sel db.SelectedSlot) bool { return sel.SlotID == slotID }), nil
}

func (s *memStore) ListSelectionsByUser(_ context.Context, userID string) ([]db.SelectedSlot, error) {
	return s.sortedSelections(func(sel db.SelectedSlot) bool { return sel.UserID == userID }), nil
}

func (s *memStore) FindSelections(_ context.Context, userID, slotID string) ([]db.SelectedSlot, error) {
	return s.sortedSelections(func(sel db.SelectedSlot) bool {
		return sel.UserID == userID && sel.SlotID == slotID
	}), nil
}

func (s *memStore) UserHasSelection(_ context.Context, userID string) (bool, error) {
	for _, sel := range s.db.selections {
		if sel.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) DeleteSelection(_ context.Context, id string) error {
	delete(s.db.selections, id)
	return nil
}

func (s *memStore) DeleteSelectionsBySlot(_ context.Context, slotID string) error {
	for id, sel := range s.db.selections {
		if sel.SlotID == slotID {
			delete(s.db.selections, id)
		}
	}
	return nil
}

// FindCount reads the committed table; staged deltas are invisible here, the
// same as the postgres store inside a transaction
func (s *memStore) FindCount(_ context.Context, performerID, typeID string) (*db.PerformingCount, error) {
	var found *db.PerformingCount
	for _, c := range s.db.counts {
		if c.UserID == performerID && c.TypeID == typeID {
			if found == nil || s.db.order[c.ID] < s.db.order[found.ID] {
				row := c
				found = &row
			}
		}
	}
	return found, nil
}

func (s *memStore) ListCountsByType(_ context.Context, typeID string) ([]db.PerformingCount, error) {
	var out []db.PerformingCount
	for _, c := range s.db.counts {
		if c.TypeID == typeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return s.db.order[out[i].ID] < s.db.order[out[j].ID]
	})
	return out, nil
}

func (s *memStore) ApplyCountDelta(ctx context.Context, performerID, typeID string, delta int) error {
	return s.ledger.ApplyDelta(ctx, performerID, typeID, delta)
}

func (s *memStore) InsertCount(_ context.Context, row db.PerformingCount) error {
	s.db.counts[row.ID] = row
	s.db.track(row.ID)
	return nil
}

func (s *memStore) SetCount(_ context.Context, id string, count int) error {
	c, ok := s.db.counts[id]
	if !ok {
		return fmt.Errorf("%w: performing count %s", db.ErrInvalidReference, id)
	}
	c.Count = count
	s.db.counts[id] = c
	return nil
}
