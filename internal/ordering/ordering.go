// Package ordering moves records up and down a manually ordered list.
// Each record carries an integer position; a move swaps the positions of
// the record and its neighbour in the effective order.
package ordering

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrItemNotFound     = errors.New("ordering: item not found")
	ErrInvalidDirection = errors.New("ordering: invalid direction")
)

type Direction int

const (
	Up Direction = iota + 1
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Record is the part of an ordered item the reorder logic needs.
type Record struct {
	ID        string
	Position  int
	CreatedAt time.Time
}

// Update assigns a new position to a record.
type Update struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// Sort returns the records in effective order: ascending position, ties
// broken by creation time and then id. The input is not modified.
func Sort(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// PlanMove computes the position writes that move targetID one step in
// dir. Moving the first record up or the last one down yields no updates.
//
// When the record and its neighbour hold distinct positions that no other
// record shares, the plan is exactly two updates swapping them. Otherwise
// a plain swap could leave the pair tied or colliding, so the group is
// renumbered densely from its lowest position in the new order and only
// records whose position changes are written.
func PlanMove(records []Record, targetID string, dir Direction) ([]Update, error) {
	if dir != Up && dir != Down {
		return nil, ErrInvalidDirection
	}
	sorted := Sort(records)
	idx := -1
	for i, r := range sorted {
		if r.ID == targetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, targetID)
	}

	j := idx - 1
	if dir == Down {
		j = idx + 1
	}
	if j < 0 || j >= len(sorted) {
		return nil, nil
	}

	a, b := sorted[idx], sorted[j]
	if a.Position != b.Position && !sharedPosition(sorted, idx, j) {
		return []Update{
			{ID: a.ID, Position: b.Position},
			{ID: b.ID, Position: a.Position},
		}, nil
	}

	sorted[idx], sorted[j] = sorted[j], sorted[idx]
	return renumber(sorted), nil
}

// sharedPosition reports whether a record other than i and j holds the
// position of either.
func sharedPosition(sorted []Record, i, j int) bool {
	for k, r := range sorted {
		if k == i || k == j {
			continue
		}
		if r.Position == sorted[i].Position || r.Position == sorted[j].Position {
			return true
		}
	}
	return false
}

// renumber assigns min, min+1, ... to records in the given order and
// returns the changed ones.
func renumber(ordered []Record) []Update {
	if len(ordered) == 0 {
		return nil
	}
	base := ordered[0].Position
	for _, r := range ordered {
		if r.Position < base {
			base = r.Position
		}
	}
	var updates []Update
	for i, r := range ordered {
		if want := base + i; r.Position != want {
			updates = append(updates, Update{ID: r.ID, Position: want})
		}
	}
	return updates
}

// NextPosition is the position for a record appended to the group: one
// past the highest, or 1 for an empty group.
func NextPosition(records []Record) int {
	if len(records) == 0 {
		return 1
	}
	maxPos := records[0].Position
	for _, r := range records[1:] {
		if r.Position > maxPos {
			maxPos = r.Position
		}
	}
	return maxPos + 1
}

// PlanCompact renumbers the group 1..n in effective order, closing gaps
// and breaking ties. Only changed records are returned.
func PlanCompact(records []Record) []Update {
	sorted := Sort(records)
	var updates []Update
	for i, r := range sorted {
		if r.Position != i+1 {
			updates = append(updates, Update{ID: r.ID, Position: i + 1})
		}
	}
	return updates
}
