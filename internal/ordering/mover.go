package ordering

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"portfolio-backend/internal/baas"
)

// Writer persists a record's new position.
type Writer interface {
	SetPosition(ctx context.Context, id string, position int) error
}

// DocumentWriter writes positions into an integer attribute of a collection.
type DocumentWriter struct {
	Docs         baas.Documents
	CollectionID string
	Field        string
}

func (w DocumentWriter) SetPosition(ctx context.Context, id string, position int) error {
	_, err := w.Docs.UpdateDocument(ctx, w.CollectionID, id, map[string]any{w.Field: position})
	return err
}

// PartialMoveError reports a move whose writes did not all succeed. The
// records in Updated hold their new positions; those in Failed do not.
type PartialMoveError struct {
	Updated []string
	Failed  []string
	Err     error // first failure
}

func (e *PartialMoveError) Error() string {
	return fmt.Sprintf("ordering: move partially applied (updated [%s], failed [%s]): %v",
		strings.Join(e.Updated, ", "), strings.Join(e.Failed, ", "), e.Err)
}

func (e *PartialMoveError) Unwrap() error { return e.Err }

// maxConcurrentWrites bounds the fan-out of renumbering plans.
const maxConcurrentWrites = 8

// Mover applies reorder plans through a Writer. It keeps no state between
// calls; callers pass the current records of the group each time.
type Mover struct {
	w Writer
}

func NewMover(w Writer) *Mover {
	return &Mover{w: w}
}

// Move moves targetID one step in dir and returns the applied updates.
// Writes run concurrently and Move waits for all of them.
func (m *Mover) Move(ctx context.Context, records []Record, targetID string, dir Direction) ([]Update, error) {
	plan, err := PlanMove(records, targetID, dir)
	if err != nil {
		return nil, err
	}
	if err := m.apply(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Compact renumbers the group 1..n.
func (m *Mover) Compact(ctx context.Context, records []Record) ([]Update, error) {
	plan := PlanCompact(records)
	if err := m.apply(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (m *Mover) apply(ctx context.Context, plan []Update) error {
	if len(plan) == 0 {
		return nil
	}
	// A plain Group: one failed write must not cancel its sibling.
	var g errgroup.Group
	g.SetLimit(maxConcurrentWrites)
	errs := make([]error, len(plan))
	for i, u := range plan {
		g.Go(func() error {
			errs[i] = m.w.SetPosition(ctx, u.ID, u.Position)
			return errs[i]
		})
	}
	first := g.Wait()
	if first == nil {
		return nil
	}

	pe := &PartialMoveError{Err: first}
	for i, u := range plan {
		if errs[i] != nil {
			pe.Failed = append(pe.Failed, u.ID)
		} else {
			pe.Updated = append(pe.Updated, u.ID)
		}
	}
	return pe
}

// RecordsFromDocuments extracts ordering records from documents, reading
// the position from field. Missing or non-numeric positions count as 0.
func RecordsFromDocuments(docs []*baas.Document, field string) []Record {
	out := make([]Record, len(docs))
	for i, d := range docs {
		out[i] = Record{ID: d.ID, Position: positionOf(d.Data[field]), CreatedAt: d.CreatedAt}
	}
	return out
}

func positionOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(math.Round(n))
	}
	return 0
}
