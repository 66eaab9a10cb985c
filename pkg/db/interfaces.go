package db

import (
	"context"
	"time"
)

// Store is the set of database operations visible inside one transaction.
// Lookup methods return an error wrapping ErrInvalidReference when the row
// does not exist. List methods return slots ordered by start time and
// selections in creation order; callers rely on both orderings.
type Store interface {
	// Groups
	InsertGroup(ctx context.Context, group Group) error
	GetGroup(ctx context.Context, id string) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)

	// Users
	InsertUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	FindUserByName(ctx context.Context, name string) (*User, error)
	ListUsersByGroup(ctx context.Context, groupID string) ([]User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) error
	SetUserNote(ctx context.Context, id string, note *string) error
	ClearNotes(ctx context.Context, groupID string) error
	DeleteUser(ctx context.Context, id string) error

	// Slot types
	InsertSlotType(ctx context.Context, slotType SlotType) error
	GetSlotType(ctx context.Context, id string) (SlotType, error)
	ListSlotTypesByGroup(ctx context.Context, groupID string) ([]SlotType, error)
	RenameSlotType(ctx context.Context, id, name string) error
	DeleteSlotType(ctx context.Context, id string) error
	// ClearSlotTypeRefs unsets the type on every slot of the group that
	// references it, regardless of slot state
	ClearSlotTypeRefs(ctx context.Context, groupID, typeID string) error
	DeleteCountsByType(ctx context.Context, typeID string) error

	// Slots
	InsertSlot(ctx context.Context, slot Slot) error
	GetSlot(ctx context.Context, id string) (Slot, error)
	ListSlotsByState(ctx context.Context, groupID string, states ...SlotState) ([]Slot, error)
	ListSlotsInRange(ctx context.Context, groupID string, from, to time.Time, states ...SlotState) ([]Slot, error)
	// LatestUpcomingSlot returns the upcoming slot with the greatest start
	// time, or nil when the group has none
	LatestUpcomingSlot(ctx context.Context, groupID string) (*Slot, error)
	UpdateSlot(ctx context.Context, id string, patch SlotPatch) error
	SetSlotPerformer(ctx context.Context, id string, performerID *string) error
	SetSlotState(ctx context.Context, id string, state SlotState) error
	DeleteSlot(ctx context.Context, id string) error
	DeletePublishedBefore(ctx context.Context, groupID string, cutoff time.Time) error

	// Selections
	InsertSelection(ctx context.Context, selection SelectedSlot) error
	ListSelectionsBySlot(ctx context.Context, slotID string) ([]SelectedSlot, error)
	ListSelectionsByUser(ctx context.Context, userID string) ([]SelectedSlot, error)
	FindSelections(ctx context.Context, userID, slotID string) ([]SelectedSlot, error)
	UserHasSelection(ctx context.Context, userID string) (bool, error)
	DeleteSelection(ctx context.Context, id string) error
	DeleteSelectionsBySlot(ctx context.Context, slotID string) error

	// Fairness ledger. FindCount and ListCountsByType read the committed
	// state only: deltas staged through ApplyCountDelta in the same
	// transaction are not visible until commit. ApplyCountDelta must
	// therefore be called at most once per (performer, type) pair per
	// transaction; callers with several deltas for one pair pre-aggregate
	// them in memory first.
	FindCount(ctx context.Context, performerID, typeID string) (*PerformingCount, error)
	ListCountsByType(ctx context.Context, typeID string) ([]PerformingCount, error)
	ApplyCountDelta(ctx context.Context, performerID, typeID string, delta int) error
}

// TxRunner executes fn inside a single all-or-nothing transaction. Staged
// ledger writes are flushed right before commit; any error rolls everything
// back, including the staged writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
