// Package assign implements the auto-assignment engine: given one consistent
// snapshot of the upcoming schedule, it picks a performer for every slot that
// has at least one selector, spreading typed slots by cumulative ledger count.
package assign

import "math/rand"

// Slot is one upcoming slot as seen by the engine
type Slot struct {
	ID          string
	TypeID      *string
	PerformerID *string
	// SelectorIDs are the users who opted in, in selection creation order.
	// The typed tie-break picks the first among equals, so this order is
	// part of the contract.
	SelectorIDs []string
}

// Input is the snapshot the engine works from
type Input struct {
	// Slots in schedule order (earliest start first)
	Slots []Slot

	// Counts maps type id -> performer id -> committed ledger count.
	// Every type of the group has an entry, possibly empty.
	Counts map[string]map[string]int

	// Replace reassigns slots that already carry a performer. When false,
	// existing typed assignments still weigh on their performer's working
	// count so the engine accounts for load it is leaving in place.
	Replace bool

	// PickRandom returns an index in [0, n). Used only for slots without a
	// type; defaults to math/rand.
	PickRandom func(n int) int
}

// Assignment is one chosen performer for one slot
type Assignment struct {
	SlotID      string
	PerformerID string
}

// Run executes the greedy minimum-count pass and returns the assignments to
// apply. Slots with no selectors are skipped; with Replace false, slots that
// already have a performer are skipped too. The engine never reads or writes
// the ledger itself; upcoming assignments are provisional until publish.
func Run(in Input) []Assignment {
	pick := in.PickRandom
	if pick == nil {
		pick = rand.Intn
	}

	// Working counts: ledger snapshot plus in-pass corrections. Copied so
	// the caller's snapshot stays untouched.
	working := make(map[string]map[string]int, len(in.Counts))
	for typeID, byUser := range in.Counts {
		m := make(map[string]int, len(byUser))
		for userID, count := range byUser {
			m[userID] = count
		}
		working[typeID] = m
	}
	countsFor := func(typeID string) map[string]int {
		m, ok := working[typeID]
		if !ok {
			m = make(map[string]int)
			working[typeID] = m
		}
		return m
	}

	// Assignments that stay in place still count as load.
	if !in.Replace {
		for _, slot := range in.Slots {
			if slot.TypeID != nil && slot.PerformerID != nil {
				countsFor(*slot.TypeID)[*slot.PerformerID]++
			}
		}
	}

	var out []Assignment
	for _, slot := range in.Slots {
		if slot.PerformerID != nil && !in.Replace {
			continue
		}
		if len(slot.SelectorIDs) == 0 {
			continue
		}

		var chosen string
		if slot.TypeID == nil {
			chosen = slot.SelectorIDs[pick(len(slot.SelectorIDs))]
		} else {
			counts := countsFor(*slot.TypeID)
			// Minimum working count, first occurrence wins on ties.
			chosen = slot.SelectorIDs[0]
			best := counts[chosen]
			for _, userID := range slot.SelectorIDs[1:] {
				if counts[userID] < best {
					chosen = userID
					best = counts[userID]
				}
			}
			// Visible to later slots of the same type in this pass.
			counts[chosen]++
		}

		out = append(out, Assignment{SlotID: slot.ID, PerformerID: chosen})
	}
	return out
}
