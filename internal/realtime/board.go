package realtime

import (
	"context"
	"sort"
	"time"

	"complaint-service/internal/model"
)

type Outcome int

const (
	Unchanged Outcome = iota
	Inserted
	Updated
	// Ignored marks an update for a complaint the board has never seen.
	Ignored
)

func (o Outcome) Changed() bool {
	return o == Inserted || o == Updated
}

// Board is an ordered view of complaints, newest first. It is not safe for
// concurrent use; Sync is meant to be its only writer.
type Board struct {
	items []model.Complaint
}

func NewBoard(initial []model.Complaint) *Board {
	b := &Board{items: make([]model.Complaint, len(initial))}
	copy(b.items, initial)
	b.sort()
	return b
}

// Items returns a copy of the current sequence.
func (b *Board) Items() []model.Complaint {
	out := make([]model.Complaint, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Board) Len() int {
	return len(b.items)
}

func (b *Board) Apply(ev Event) Outcome {
	idx := b.indexOf(ev.Complaint)

	switch ev.Kind {
	case EventInsert:
		if idx >= 0 {
			if sameComplaint(b.items[idx], ev.Complaint) {
				return Unchanged
			}
			b.items[idx] = ev.Complaint
			b.sort()
			return Inserted
		}
		b.items = append(b.items, ev.Complaint)
		b.sort()
		return Inserted
	case EventUpdate:
		if idx < 0 {
			return Ignored
		}
		if sameComplaint(b.items[idx], ev.Complaint) {
			return Unchanged
		}
		b.items[idx] = ev.Complaint
		return Updated
	default:
		return Ignored
	}
}

func (b *Board) indexOf(c model.Complaint) int {
	for i := range b.items {
		if b.items[i].ID == c.ID {
			return i
		}
	}
	return -1
}

func (b *Board) sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		return b.items[i].CreatedAt.After(b.items[j].CreatedAt)
	})
}

// Sync drains events into the board until ctx is done or the channel is
// closed. onChange runs after every event that altered the board.
func Sync(ctx context.Context, board *Board, events <-chan Event, onChange func(Event, Outcome)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			outcome := board.Apply(ev)
			if outcome.Changed() && onChange != nil {
				onChange(ev, outcome)
			}
		}
	}
}

func sameComplaint(a, b model.Complaint) bool {
	return a.ID == b.ID &&
		a.Number == b.Number &&
		a.Issue == b.Issue &&
		a.LocationDescription == b.LocationDescription &&
		a.Latitude == b.Latitude &&
		a.Longitude == b.Longitude &&
		equalPtr(a.Category, b.Category) &&
		equalPtr(a.Department, b.Department) &&
		a.Status == b.Status &&
		a.ImageURL == b.ImageURL &&
		equalPtr(a.ResolutionImageURL, b.ResolutionImageURL) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		equalTime(a.ResolvedAt, b.ResolvedAt)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
