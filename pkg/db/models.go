package db

import (
	"fmt"
	"time"
)

// SlotState is the lifecycle state of a slot.
//
// upcoming slots are editable by admins and open for selection by performers.
// hidden slots are editable placeholders excluded from selection and
// auto-assignment but still rolled forward by the weekly publish.
// published slots are read-mostly; only the performer field stays mutable.
type SlotState string

const (
	SlotUpcoming  SlotState = "upcoming"
	SlotHidden    SlotState = "hidden"
	SlotPublished SlotState = "published"
)

// ParseSlotState converts a string literal to a SlotState
func ParseSlotState(s string) (SlotState, error) {
	switch SlotState(s) {
	case SlotUpcoming, SlotHidden, SlotPublished:
		return SlotState(s), nil
	}
	return "", fmt.Errorf("%w: unknown slot state %q", ErrInvalidArgument, s)
}

// Group represents a shared living group; every other entity is scoped to one
type Group struct {
	ID   string
	Name string
}

// User represents a member of a group.
// Assisted users are kept on the roster for display but excluded from
// fairness averages. Note is free text set when filling in availability and
// cleared for everyone by the weekly publish.
type User struct {
	ID       string
	GroupID  string
	Name     string
	Admin    bool
	Assisted bool
	Note     *string
}

// SlotType is a category of duty used to bucket fairness counts
type SlotType struct {
	ID      string
	GroupID string
	Name    string
}

// Slot is one schedulable duty occurrence
type Slot struct {
	ID          string
	GroupID     string
	TypeID      *string
	Name        string
	ShowTime    bool
	Start       time.Time
	End         time.Time
	PerformerID *string
	State       SlotState
}

// SelectedSlot records a performer opting into an upcoming slot.
// At most one row per (user, slot) pair is ever created on purpose.
type SelectedSlot struct {
	ID     string
	UserID string
	SlotID string
}

// PerformingCount is one fairness ledger row: the cumulative number of times
// a performer has been assigned a slot of the given type. Absence of a row
// means zero; a row that reaches zero is kept, not deleted.
type PerformingCount struct {
	ID     string
	UserID string
	TypeID string
	Count  int
}

// SlotPatch is a partial update for a slot. Nil fields are left unchanged.
// ClearType removes the type reference and wins over TypeID.
type SlotPatch struct {
	Name      *string
	TypeID    *string
	ClearType bool
	ShowTime  *bool
	Start     *time.Time
	End       *time.Time
	State     *SlotState
}

// UserPatch is a partial update for a user. Nil fields are left unchanged.
type UserPatch struct {
	Name     *string
	Admin    *bool
	Assisted *bool
}

// CountUpdate is one entry of a bulk ledger edit
type CountUpdate struct {
	UserID string
	TypeID string
	Delta  int
}

// RangeEditAction selects what a range edit does with the matched slots
type RangeEditAction string

const (
	RangeMove   RangeEditAction = "move"
	RangeCopy   RangeEditAction = "copy"
	RangeDelete RangeEditAction = "delete"
)

// ParseRangeEditAction converts a string literal to a RangeEditAction
func ParseRangeEditAction(s string) (RangeEditAction, error) {
	switch RangeEditAction(s) {
	case RangeMove, RangeCopy, RangeDelete:
		return RangeEditAction(s), nil
	}
	return "", fmt.Errorf("%w: unknown range edit action %q", ErrInvalidArgument, s)
}
