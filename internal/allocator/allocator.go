// Package allocator produces room numbers for new check-ins.
//
// Two strategies are provided. Sequence never hands out the same number twice
// and does not reclaim rooms. Occupancy picks the lowest free room from the
// store's current occupancy; it can race with a concurrent check-in, so callers
// insert optimistically and allocate again when the store reports the room as
// taken.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

var ErrExhausted = errors.New("no free room number left in range")

type Allocator interface {
	Allocate(ctx context.Context) (int, error)
}

// Range is the inclusive span of room numbers an allocator may hand out.
type Range struct {
	First int
	Last  int
}

func (r Range) Validate() error {
	if r.First <= 0 || r.Last < r.First {
		return fmt.Errorf("invalid room range [%d, %d]", r.First, r.Last)
	}
	return nil
}

// Counter is a monotonically increasing sequence starting at 1.
type Counter interface {
	Next(ctx context.Context) (int64, error)
}

// MemoryCounter is a Counter local to the process.
type MemoryCounter struct {
	n atomic.Int64
}

// NewMemoryCounterFrom returns a counter whose next value is n+1.
func NewMemoryCounterFrom(n int64) *MemoryCounter {
	c := &MemoryCounter{}
	c.n.Store(n)
	return c
}

func (c *MemoryCounter) Next(context.Context) (int64, error) {
	return c.n.Add(1), nil
}

// Issued returns the sequence position of the highest room in rng the store
// already holds, 0 when none. A counter resumed there continues above every
// existing guest instead of colliding with them.
func Issued(ctx context.Context, rooms RoomLister, rng Range) (int64, error) {
	occupied, err := rooms.OccupiedRooms(ctx)
	if err != nil {
		return 0, fmt.Errorf("list occupied rooms: %w", err)
	}
	highest := 0
	for _, room := range occupied {
		if room >= rng.First && room <= rng.Last && room > highest {
			highest = room
		}
	}
	if highest == 0 {
		return 0, nil
	}
	return int64(highest-rng.First) + 1, nil
}

type Sequence struct {
	counter Counter
	rng     Range
}

func NewSequence(counter Counter, rng Range) (*Sequence, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &Sequence{counter: counter, rng: rng}, nil
}

func (s *Sequence) Allocate(ctx context.Context) (int, error) {
	n, err := s.counter.Next(ctx)
	if err != nil {
		return 0, fmt.Errorf("room sequence: %w", err)
	}
	room := int64(s.rng.First) + n - 1
	if n < 1 || room > int64(s.rng.Last) {
		return 0, ErrExhausted
	}
	return int(room), nil
}

// RoomLister reports rooms currently occupied, ascending.
type RoomLister interface {
	OccupiedRooms(ctx context.Context) ([]int, error)
}

type Occupancy struct {
	rooms RoomLister
	rng   Range
}

func NewOccupancy(rooms RoomLister, rng Range) (*Occupancy, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &Occupancy{rooms: rooms, rng: rng}, nil
}

func (o *Occupancy) Allocate(ctx context.Context) (int, error) {
	occupied, err := o.rooms.OccupiedRooms(ctx)
	if err != nil {
		return 0, fmt.Errorf("list occupied rooms: %w", err)
	}
	return lowestFree(occupied, o.rng)
}

// lowestFree walks the sorted occupied list alongside the candidate number.
func lowestFree(occupied []int, rng Range) (int, error) {
	candidate := rng.First
	for _, room := range occupied {
		if room < candidate {
			continue
		}
		if room > candidate {
			break
		}
		candidate++
	}
	if candidate > rng.Last {
		return 0, ErrExhausted
	}
	return candidate, nil
}
